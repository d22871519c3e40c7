package dispatch

import "github.com/xvault-labs/xvault-core/internal/codec"

// The functions below each build one operation's signing preimage as
// a codec.Value, a distinct record whose fields match the operation's
// wire shape exactly, with explicit null-valued options where
// required. Every unset optional selector is passed through as a Go
// nil interface, which codec.CanonicalBytes renders as a JSON null.

func preimageCreateVault(p createVaultPayload, isTeam bool) codec.Value {
	v := map[string]codec.Value{
		"type":     vaultTypeLiteral(isTeam),
		"owner":    p.Owner,
		"salt":     p.Salt,
		"metadata": anyMapValue(p.Metadata),
	}
	if isTeam {
		v["initialAuthorized"] = stringsValue(p.InitialAuthorized)
	}
	return v
}

func vaultTypeLiteral(isTeam bool) string {
	if isTeam {
		return "team"
	}
	return "individual"
}

func preimageAddEntry(p addEntryPayload) codec.Value {
	return map[string]codec.Value{
		"vaultId":       p.VaultID,
		"actor":         p.Actor,
		"encryptedBlob": p.EncryptedBlob,
		"cid":           p.CID,
		"entryMetadata": entryMetadataValue(p.EntryMetadata),
		"wrappedKeys":   wrappedKeysValue(p.WrappedKeys),
	}
}

func preimageGetEntry(p getEntryPayload) codec.Value {
	var index, tokenID codec.Value
	if p.EntryIndex != nil {
		index = *p.EntryIndex
	}
	if p.TokenID != nil {
		tokenID = *p.TokenID
	}
	return map[string]codec.Value{
		"vaultId":    p.VaultID,
		"actor":      p.Actor,
		"entryIndex": index,
		"tokenId":    tokenID,
	}
}

func preimageInviteToVault(p inviteToVaultPayload) codec.Value {
	return map[string]codec.Value{
		"vaultId": p.VaultID,
		"invitee": p.Invitee,
		"action":  "inviteToVault",
	}
}

func preimageAcceptInvite(vaultID string) codec.Value {
	return map[string]codec.Value{
		"vaultId": vaultID,
		"action":  "acceptInvite",
	}
}

func preimageRevokeInvite(p revokeInvitePayload) codec.Value {
	return map[string]codec.Value{
		"vaultId":        p.VaultID,
		"pendingAddress": p.PendingAddress,
		"action":         "revokeInvite",
	}
}

func preimageRemoveMember(p removeMemberPayload) codec.Value {
	return map[string]codec.Value{
		"vaultId":        p.VaultID,
		"memberToRemove": p.MemberToRemove,
		"action":         "removeMember",
	}
}

func preimageGetPendingInvites(vaultID string) codec.Value {
	return map[string]codec.Value{
		"vaultId": vaultID,
		"action":  "getPendingInvites",
	}
}

func preimageUpdateVaultManifest(p updateVaultManifestPayload) codec.Value {
	var newURI, newBlobHex codec.Value
	if p.NewURI != nil {
		newURI = *p.NewURI
	}
	if p.NewBlobHex != nil {
		newBlobHex = *p.NewBlobHex
	}
	return map[string]codec.Value{
		"vaultId":    p.VaultID,
		"newUri":     newURI,
		"newBlobHex": newBlobHex,
		"action":     "updateVaultManifest",
	}
}

// The remaining owner-only operations follow the same shape as the
// team lifecycle ops — {vaultId, action, ...extra} — so that every
// signed operation is bound to exactly what it authorizes.

func preimageListVaultURITokens(vaultID string) codec.Value {
	return map[string]codec.Value{
		"vaultId": vaultID,
		"action":  "listVaultURITokens",
	}
}

func preimageRevokeVault(p revokeVaultPayload) codec.Value {
	return map[string]codec.Value{
		"vaultId": p.VaultID,
		"confirm": p.Confirm,
		"action":  "revokeVault",
	}
}

func preimageAddPasswordBackup(p addPasswordBackupPayload) codec.Value {
	return map[string]codec.Value{
		"vaultId":  p.VaultID,
		"envelope": anyMapValue(p.Envelope),
		"action":   "addPasswordBackup",
	}
}

func preimageRemovePasswordBackup(vaultID string) codec.Value {
	return map[string]codec.Value{
		"vaultId": vaultID,
		"action":  "removePasswordBackup",
	}
}

func preimageGetVaultMetadata(vaultID string) codec.Value {
	return map[string]codec.Value{
		"vaultId": vaultID,
		"action":  "getVaultMetadata",
	}
}

func anyMapValue(m map[string]any) codec.Value {
	if m == nil {
		return map[string]codec.Value{}
	}
	out := make(map[string]codec.Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func stringsValue(ss []string) codec.Value {
	out := make([]codec.Value, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func entryMetadataValue(m entryMetadataWire) codec.Value {
	var username, notes codec.Value
	if m.Username != nil {
		username = *m.Username
	}
	if m.Notes != nil {
		notes = *m.Notes
	}
	return map[string]codec.Value{
		"service":  m.Service,
		"username": username,
		"notes":    notes,
	}
}

func wrappedKeysValue(keys []wrappedKeyWire) codec.Value {
	out := make([]codec.Value, len(keys))
	for i, k := range keys {
		out[i] = map[string]codec.Value{
			"address":      k.Address,
			"encryptedKey": k.EncryptedKey,
		}
	}
	return out
}
