package dispatch

import (
	"context"
	"encoding/json"

	"github.com/xvault-labs/xvault-core/internal/codec"
	"github.com/xvault-labs/xvault-core/internal/vaultstore"
	"github.com/xvault-labs/xvault-core/internal/xvaulterr"
)

const (
	placeholderManifestURI = "ipfs://placeholder-for-now"
	maxInitialAuthorized   = 50
)

func handleCreateVault(d *Dispatcher, payload json.RawMessage, roundKey string) (string, string, any, bool, error) {
	return createVault(d, payload, roundKey, false)
}

func handleCreateTeamVault(d *Dispatcher, payload json.RawMessage, roundKey string) (string, string, any, bool, error) {
	return createVault(d, payload, roundKey, true)
}

func createVault(d *Dispatcher, payload json.RawMessage, roundKey string, isTeam bool) (string, string, any, bool, error) {
	var p createVaultPayload
	if err := decode(payload, &p); err != nil {
		return "", "", nil, false, err
	}
	if err := d.validate(&p); err != nil {
		return p.Owner, "", nil, false, err
	}
	if isTeam && !d.TeamModeEnabled {
		return p.Owner, "", nil, false, xvaulterr.New(xvaulterr.TeamModeDisabled, "team vaults are disabled on this deployment")
	}
	if len(p.InitialAuthorized) > maxInitialAuthorized {
		return p.Owner, "", nil, false, xvaulterr.New(xvaulterr.InvalidInput, "initialAuthorized exceeds the maximum of 50 entries")
	}
	for _, addr := range p.InitialAuthorized {
		if !validAddress(addr) {
			return p.Owner, "", nil, false, xvaulterr.New(xvaulterr.InvalidAddress, "initialAuthorized contains an invalid address")
		}
	}

	vaultID := codec.VaultID(p.Owner, p.Salt)

	if raw, ok := p.Metadata["vaultId"]; ok {
		if s, ok := raw.(string); !ok || s != vaultID {
			return p.Owner, vaultID, nil, false, xvaulterr.New(xvaulterr.InvalidMetadata, "metadata.vaultId must equal the to-be-computed vault id")
		}
	}
	if raw, ok := p.Metadata["passwordBackup"]; ok {
		envelope, ok := raw.(map[string]any)
		if !ok {
			return p.Owner, vaultID, nil, false, xvaulterr.New(xvaulterr.InvalidMetadata, "passwordBackup must be an object")
		}
		if err := validatePasswordBackupEnvelope(envelope, vaultID); err != nil {
			return p.Owner, vaultID, nil, false, err
		}
	}

	preimage := preimageCreateVault(p, isTeam)
	if err := d.verify(preimage, p.Signature, p.SignerPublicKey, p.Owner); err != nil {
		return p.Owner, vaultID, nil, false, err
	}
	if err := d.enforceRateLimit(p.Owner, roundKey); err != nil {
		return p.Owner, vaultID, nil, false, err
	}

	mintRes, err := d.TokenAdapter.Mint(context.Background(), placeholderManifestURI, "")
	if err != nil {
		return p.Owner, vaultID, nil, false, err
	}

	metadata := normalizeCreateMetadata(p.Metadata, vaultID, roundKey)

	var authorized []string
	if isTeam {
		authorized = p.InitialAuthorized
	}

	v, err := d.Store.CreateVault(p.Owner, p.Salt, vaultstore.VaultType(vaultTypeLiteral(isTeam)), metadata, roundKey, mintRes.TokenID, authorized, nil)
	if err != nil {
		return p.Owner, vaultID, nil, false, err
	}

	data := map[string]any{
		"vaultId":         v.ID,
		"owner":           v.Owner,
		"createdAt":       v.CreatedAt,
		"manifestTokenId": v.ManifestTokenID,
		"mintMode":        string(mintRes.Mode),
		"type":            string(v.Type),
		"authorizedCount": len(v.Authorized),
	}
	return p.Owner, v.ID, data, true, nil
}

func normalizeCreateMetadata(metadata map[string]any, vaultID, roundKey string) map[string]any {
	out := make(map[string]any, len(metadata)+3)
	for k, v := range metadata {
		out[k] = v
	}
	out["vaultId"] = vaultID
	if _, ok := out["blobVersion"]; !ok {
		out["blobVersion"] = float64(1)
	}
	out["lastUpdated"] = roundKey
	return out
}

func handleGetMyVaults(d *Dispatcher, payload json.RawMessage, _ string) (string, string, any, bool, error) {
	var p getMyVaultsPayload
	if err := decode(payload, &p); err != nil {
		return "", "", nil, false, err
	}
	if err := d.validate(&p); err != nil {
		return p.Owner, "", nil, false, err
	}
	summaries := d.Store.GetMyVaults(p.Owner, p.Since)
	out := make([]map[string]any, len(summaries))
	for i, s := range summaries {
		out[i] = map[string]any{
			"vaultId":         s.VaultID,
			"type":            string(s.Type),
			"owner":           s.Owner,
			"createdAt":       s.CreatedAt,
			"entryCount":      s.EntryCount,
			"manifestTokenId": s.ManifestTokenID,
			"lastActivity":    optionalString(s.LastActivity),
		}
	}
	return p.Owner, "", out, false, nil
}

func handleStateDigest(d *Dispatcher, _ json.RawMessage, _ string) (string, string, any, bool, error) {
	digest, err := d.Store.Digest()
	if err != nil {
		return "", "", nil, false, xvaulterr.Wrap(xvaulterr.UnexpectedError, "failed to compute state digest", err)
	}
	return "", "", map[string]any{"digest": digest}, false, nil
}

func handleGetVaultMetadata(d *Dispatcher, payload json.RawMessage, _ string) (string, string, any, bool, error) {
	var p getVaultMetadataPayload
	if err := decode(payload, &p); err != nil {
		return "", "", nil, false, err
	}
	if err := d.validate(&p); err != nil {
		return "", p.VaultID, nil, false, err
	}
	owner, _, err := d.Store.VaultOwnerAndType(p.VaultID)
	if err != nil {
		return "", p.VaultID, nil, false, err
	}
	if err := d.verify(preimageGetVaultMetadata(p.VaultID), p.Signature, p.SignerPublicKey, owner); err != nil {
		return owner, p.VaultID, nil, false, err
	}
	metadata, err := d.Store.GetVaultMetadata(p.VaultID, owner)
	if err != nil {
		return owner, p.VaultID, nil, false, err
	}
	return owner, p.VaultID, metadata, false, nil
}

func handleListVaultURITokens(d *Dispatcher, payload json.RawMessage, _ string) (string, string, any, bool, error) {
	var p listVaultURITokensPayload
	if err := decode(payload, &p); err != nil {
		return "", "", nil, false, err
	}
	if err := d.validate(&p); err != nil {
		return "", p.VaultID, nil, false, err
	}
	owner, _, err := d.Store.VaultOwnerAndType(p.VaultID)
	if err != nil {
		return "", p.VaultID, nil, false, err
	}
	if err := d.verify(preimageListVaultURITokens(p.VaultID), p.Signature, p.SignerPublicKey, owner); err != nil {
		return owner, p.VaultID, nil, false, err
	}
	tokens, err := d.Store.ListVaultURITokens(p.VaultID, owner)
	if err != nil {
		return owner, p.VaultID, nil, false, err
	}
	return owner, p.VaultID, map[string]any{"tokens": tokens}, false, nil
}

func handleAddPasswordBackup(d *Dispatcher, payload json.RawMessage, roundKey string) (string, string, any, bool, error) {
	var p addPasswordBackupPayload
	if err := decode(payload, &p); err != nil {
		return "", "", nil, false, err
	}
	if err := d.validate(&p); err != nil {
		return "", p.VaultID, nil, false, err
	}
	if err := validatePasswordBackupEnvelope(p.Envelope, p.VaultID); err != nil {
		return "", p.VaultID, nil, false, err
	}
	owner, _, err := d.Store.VaultOwnerAndType(p.VaultID)
	if err != nil {
		return "", p.VaultID, nil, false, err
	}
	if err := d.verify(preimageAddPasswordBackup(p), p.Signature, p.SignerPublicKey, owner); err != nil {
		return owner, p.VaultID, nil, false, err
	}
	if err := d.enforceRateLimit(owner, roundKey); err != nil {
		return owner, p.VaultID, nil, false, err
	}
	v, err := d.Store.SetPasswordBackup(p.VaultID, owner, p.Envelope, roundKey)
	if err != nil {
		return owner, p.VaultID, nil, false, err
	}
	return owner, p.VaultID, map[string]any{"vaultId": v.ID, "lastUpdated": roundKey}, true, nil
}

func handleRemovePasswordBackup(d *Dispatcher, payload json.RawMessage, roundKey string) (string, string, any, bool, error) {
	var p removePasswordBackupPayload
	if err := decode(payload, &p); err != nil {
		return "", "", nil, false, err
	}
	if err := d.validate(&p); err != nil {
		return "", p.VaultID, nil, false, err
	}
	owner, _, err := d.Store.VaultOwnerAndType(p.VaultID)
	if err != nil {
		return "", p.VaultID, nil, false, err
	}
	if err := d.verify(preimageRemovePasswordBackup(p.VaultID), p.Signature, p.SignerPublicKey, owner); err != nil {
		return owner, p.VaultID, nil, false, err
	}
	if err := d.enforceRateLimit(owner, roundKey); err != nil {
		return owner, p.VaultID, nil, false, err
	}
	v, err := d.Store.ClearPasswordBackup(p.VaultID, owner, roundKey)
	if err != nil {
		return owner, p.VaultID, nil, false, err
	}
	return owner, p.VaultID, map[string]any{"vaultId": v.ID, "lastUpdated": roundKey}, true, nil
}

func handleUpdateVaultManifest(d *Dispatcher, payload json.RawMessage, roundKey string) (string, string, any, bool, error) {
	var p updateVaultManifestPayload
	if err := decode(payload, &p); err != nil {
		return "", "", nil, false, err
	}
	if err := d.validate(&p); err != nil {
		return "", p.VaultID, nil, false, err
	}
	if p.NewURI == nil && p.NewBlobHex == nil {
		return "", p.VaultID, nil, false, xvaulterr.New(xvaulterr.InvalidInput, "updateVaultManifest requires newUri or newBlobHex")
	}
	if p.NewBlobHex != nil && !validHex(*p.NewBlobHex) {
		return "", p.VaultID, nil, false, xvaulterr.New(xvaulterr.InvalidInput, "newBlobHex must be hex")
	}
	owner, vtype, err := d.Store.VaultOwnerAndType(p.VaultID)
	if err != nil {
		return "", p.VaultID, nil, false, err
	}
	if vtype != vaultstore.VaultTypeTeam {
		return owner, p.VaultID, nil, false, xvaulterr.New(xvaulterr.InvalidVaultType, "updateVaultManifest applies only to team vaults")
	}
	if err := d.verify(preimageUpdateVaultManifest(p), p.Signature, p.SignerPublicKey, owner); err != nil {
		return owner, p.VaultID, nil, false, err
	}
	if err := d.enforceRateLimit(owner, roundKey); err != nil {
		return owner, p.VaultID, nil, false, err
	}

	if d.MutableURIToken {
		return owner, p.VaultID, map[string]any{"vaultId": p.VaultID, "mode": "mutable_stub"}, false, nil
	}

	oldTokenID, _, err := currentManifestTokenID(d, p.VaultID, owner)
	if err != nil {
		return owner, p.VaultID, nil, false, err
	}
	burnRes, err := d.TokenAdapter.Burn(context.Background(), oldTokenID)
	if err != nil {
		return owner, p.VaultID, nil, false, err
	}
	uri := placeholderManifestURI
	if p.NewURI != nil {
		uri = *p.NewURI
	}
	mintRes, err := d.TokenAdapter.Mint(context.Background(), uri, "")
	if err != nil {
		return owner, p.VaultID, nil, false, err
	}
	v, err := d.Store.SetManifestTokenID(p.VaultID, owner, mintRes.TokenID, roundKey)
	if err != nil {
		return owner, p.VaultID, nil, false, err
	}
	return owner, p.VaultID, map[string]any{
		"vaultId":         v.ID,
		"manifestTokenId": v.ManifestTokenID,
		"mode":            "burn_remint",
		"burnMode":        string(burnRes.Mode),
		"mintMode":        string(mintRes.Mode),
	}, true, nil
}

func currentManifestTokenID(d *Dispatcher, vaultID, owner string) (string, map[string]any, error) {
	metadata, err := d.Store.GetVaultMetadata(vaultID, owner)
	if err != nil {
		return "", nil, err
	}
	tokens, err := d.Store.ListVaultURITokens(vaultID, owner)
	if err != nil {
		return "", nil, err
	}
	if len(tokens) == 0 {
		return "", metadata, xvaulterr.New(xvaulterr.VaultNotFound, "vault has no manifest token")
	}
	return tokens[0], metadata, nil
}

func handleRevokeVault(d *Dispatcher, payload json.RawMessage, roundKey string) (string, string, any, bool, error) {
	var p revokeVaultPayload
	if err := decode(payload, &p); err != nil {
		return "", "", nil, false, err
	}
	if err := d.validate(&p); err != nil {
		return "", p.VaultID, nil, false, err
	}
	owner, vtype, err := d.Store.VaultOwnerAndType(p.VaultID)
	if err != nil {
		return "", p.VaultID, nil, false, err
	}
	if err := d.verify(preimageRevokeVault(p), p.Signature, p.SignerPublicKey, owner); err != nil {
		return owner, p.VaultID, nil, false, err
	}
	if vtype == vaultstore.VaultTypeTeam && !p.Confirm {
		return owner, p.VaultID, nil, false, xvaulterr.New(xvaulterr.ConfirmationRequired, "revoking a team vault requires confirm=true")
	}
	if err := d.enforceRateLimit(owner, roundKey); err != nil {
		return owner, p.VaultID, nil, false, err
	}

	tokens, err := d.Store.ListVaultURITokens(p.VaultID, owner)
	if err != nil {
		return owner, p.VaultID, nil, false, err
	}
	for _, tokenID := range tokens {
		if _, err := d.TokenAdapter.Burn(context.Background(), tokenID); err != nil {
			return owner, p.VaultID, nil, false, err
		}
	}
	if err := d.Store.DeleteVault(p.VaultID, owner); err != nil {
		return owner, p.VaultID, nil, false, err
	}
	return owner, p.VaultID, map[string]any{"vaultId": p.VaultID, "burnedTokens": len(tokens)}, true, nil
}
