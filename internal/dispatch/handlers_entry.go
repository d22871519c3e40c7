package dispatch

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/xvault-labs/xvault-core/internal/vaultstore"
	"github.com/xvault-labs/xvault-core/internal/xvaulterr"
)

const maxEncryptedBlobBytes = 1 << 20 // 1 MiB
const maxWrappedKeys = 200

func handleAddEntry(d *Dispatcher, payload json.RawMessage, roundKey string) (string, string, any, bool, error) {
	var p addEntryPayload
	if err := decode(payload, &p); err != nil {
		return "", "", nil, false, err
	}
	if err := d.validate(&p); err != nil {
		return p.Actor, p.VaultID, nil, false, err
	}
	if err := validateAddEntryShape(p); err != nil {
		return p.Actor, p.VaultID, nil, false, err
	}

	if err := d.verify(preimageAddEntry(p), p.Signature, p.SignerPublicKey, p.Actor); err != nil {
		return p.Actor, p.VaultID, nil, false, err
	}
	if err := d.enforceRateLimit(p.Actor, roundKey); err != nil {
		return p.Actor, p.VaultID, nil, false, err
	}

	mintRes, err := d.TokenAdapter.Mint(context.Background(), "ipfs://"+p.CID, vaultOwnerOrEmpty(d, p.VaultID))
	if err != nil {
		return p.Actor, p.VaultID, nil, false, err
	}

	metadata := vaultstore.EntryMetadata{Service: p.EntryMetadata.Service, Username: p.EntryMetadata.Username, Notes: p.EntryMetadata.Notes}
	wrappedKeys := make([]vaultstore.WrappedKey, len(p.WrappedKeys))
	for i, wk := range p.WrappedKeys {
		wrappedKeys[i] = vaultstore.WrappedKey{Address: wk.Address, EncryptedKey: wk.EncryptedKey}
	}

	_, entry, err := d.Store.AddEntry(p.VaultID, p.Actor, p.CID, metadata, wrappedKeys, roundKey, mintRes.TokenID)
	if err != nil {
		return p.Actor, p.VaultID, nil, false, err
	}

	data := map[string]any{
		"vaultId":   p.VaultID,
		"tokenId":   entry.TokenID,
		"cid":       entry.CID,
		"createdAt": entry.CreatedAt,
		"metadata": map[string]any{
			"service":  entry.Metadata.Service,
			"username": optionalString(entry.Metadata.Username),
			"notes":    optionalString(entry.Metadata.Notes),
		},
		"mintMode": string(mintRes.Mode),
	}
	return p.Actor, p.VaultID, data, true, nil
}

// optionalString renders an optional field as its string value, or as
// nil (the null sentinel) when it is unset.
func optionalString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func vaultOwnerOrEmpty(d *Dispatcher, vaultID string) string {
	owner, _, err := d.Store.VaultOwnerAndType(vaultID)
	if err != nil {
		return ""
	}
	return owner
}

func validateAddEntryShape(p addEntryPayload) error {
	blob, err := base64.StdEncoding.DecodeString(p.EncryptedBlob)
	if err != nil {
		return xvaulterr.New(xvaulterr.InvalidInput, "encryptedBlob is not valid base64")
	}
	if len(blob) > maxEncryptedBlobBytes {
		return xvaulterr.New(xvaulterr.InvalidInput, "encryptedBlob exceeds 1 MiB")
	}
	if p.EntryMetadata.Username != nil && (len(*p.EntryMetadata.Username) < 1 || len(*p.EntryMetadata.Username) > 256) {
		return xvaulterr.New(xvaulterr.InvalidMetadata, "username must be 1-256 characters")
	}
	if p.EntryMetadata.Notes != nil && (len(*p.EntryMetadata.Notes) < 1 || len(*p.EntryMetadata.Notes) > 4096) {
		return xvaulterr.New(xvaulterr.InvalidMetadata, "notes must be 1-4096 characters")
	}
	if len(p.WrappedKeys) > maxWrappedKeys {
		return xvaulterr.New(xvaulterr.InvalidInput, "wrappedKeys exceeds the maximum of 200 entries")
	}
	return nil
}

func handleGetEntry(d *Dispatcher, payload json.RawMessage, _ string) (string, string, any, bool, error) {
	var p getEntryPayload
	if err := decode(payload, &p); err != nil {
		return "", "", nil, false, err
	}
	if err := d.validate(&p); err != nil {
		return p.Actor, p.VaultID, nil, false, err
	}
	if p.EntryIndex == nil && p.TokenID == nil {
		return p.Actor, p.VaultID, nil, false, xvaulterr.New(xvaulterr.InvalidInput, "getEntry requires entryIndex or tokenId")
	}

	if err := d.verify(preimageGetEntry(p), p.Signature, p.SignerPublicKey, p.Actor); err != nil {
		return p.Actor, p.VaultID, nil, false, err
	}

	_, entry, err := d.Store.GetEntry(p.VaultID, p.Actor, p.EntryIndex, p.TokenID)
	if err != nil {
		return p.Actor, p.VaultID, nil, false, err
	}

	gatewayURL := d.GatewayBaseURL + "/ipfs/" + entry.CID

	data := map[string]any{
		"cid": entry.CID,
		"metadata": map[string]any{
			"service":  entry.Metadata.Service,
			"username": optionalString(entry.Metadata.Username),
			"notes":    optionalString(entry.Metadata.Notes),
		},
		"tokenId":    entry.TokenID,
		"createdAt":  entry.CreatedAt,
		"gatewayUrl": gatewayURL,
	}
	return p.Actor, p.VaultID, data, false, nil
}
