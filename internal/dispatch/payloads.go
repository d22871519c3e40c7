package dispatch

import (
	"encoding/json"

	"github.com/xvault-labs/xvault-core/internal/xvaulterr"
)

// decode unmarshals a request payload into dst, reshaping any JSON
// error into the contract-error type before any other validation runs.
func decode(raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return xvaulterr.Wrap(xvaulterr.InvalidInput, "payload is not valid JSON", err)
	}
	return nil
}

// createVaultPayload covers both createVault and createTeamVault —
// the two differ only in vault type and whether initialAuthorized may
// be non-empty.
type createVaultPayload struct {
	Owner             string         `json:"owner" validate:"required,xladdress"`
	Salt              string         `json:"salt" validate:"required,xlsalt"`
	Metadata          map[string]any `json:"metadata"`
	InitialAuthorized []string       `json:"initialAuthorized"`
	SignerPublicKey   string         `json:"signerPublicKey" validate:"required"`
	Signature         string         `json:"signature" validate:"required"`
}

type addEntryPayload struct {
	VaultID         string            `json:"vaultId" validate:"required,len=64,hexadecimal"`
	Actor           string            `json:"actor" validate:"required,xladdress"`
	EncryptedBlob   string            `json:"encryptedBlob" validate:"required,base64"`
	CID             string            `json:"cid" validate:"required,xlcid"`
	EntryMetadata   entryMetadataWire `json:"entryMetadata"`
	WrappedKeys     []wrappedKeyWire  `json:"wrappedKeys"`
	SignerPublicKey string            `json:"signerPublicKey" validate:"required"`
	Signature       string            `json:"signature" validate:"required"`
}

type entryMetadataWire struct {
	Service  string  `json:"service" validate:"required,min=1,max=128"`
	Username *string `json:"username"`
	Notes    *string `json:"notes"`
}

type wrappedKeyWire struct {
	Address      string `json:"address" validate:"required,xladdress"`
	EncryptedKey string `json:"encryptedKey" validate:"required,base64"`
}

type getEntryPayload struct {
	VaultID         string  `json:"vaultId" validate:"required,len=64,hexadecimal"`
	Actor           string  `json:"actor" validate:"required,xladdress"`
	EntryIndex      *int    `json:"entryIndex"`
	TokenID         *string `json:"tokenId"`
	SignerPublicKey string  `json:"signerPublicKey" validate:"required"`
	Signature       string  `json:"signature" validate:"required"`
}

type getMyVaultsPayload struct {
	Owner string  `json:"owner" validate:"required,xladdress"`
	Since *string `json:"since"`
}

type inviteToVaultPayload struct {
	VaultID         string `json:"vaultId" validate:"required,len=64,hexadecimal"`
	Invitee         string `json:"invitee" validate:"required,xladdress"`
	SignerPublicKey string `json:"signerPublicKey" validate:"required"`
	Signature       string `json:"signature" validate:"required"`
}

type acceptInvitePayload struct {
	VaultID         string `json:"vaultId" validate:"required,len=64,hexadecimal"`
	SignerPublicKey string `json:"signerPublicKey" validate:"required"`
	Signature       string `json:"signature" validate:"required"`
}

type revokeInvitePayload struct {
	VaultID         string `json:"vaultId" validate:"required,len=64,hexadecimal"`
	PendingAddress  string `json:"pendingAddress" validate:"required,xladdress"`
	SignerPublicKey string `json:"signerPublicKey" validate:"required"`
	Signature       string `json:"signature" validate:"required"`
}

type removeMemberPayload struct {
	VaultID         string `json:"vaultId" validate:"required,len=64,hexadecimal"`
	MemberToRemove  string `json:"memberToRemove" validate:"required,xladdress"`
	SignerPublicKey string `json:"signerPublicKey" validate:"required"`
	Signature       string `json:"signature" validate:"required"`
}

type getPendingInvitesPayload struct {
	VaultID         string `json:"vaultId" validate:"required,len=64,hexadecimal"`
	SignerPublicKey string `json:"signerPublicKey" validate:"required"`
	Signature       string `json:"signature" validate:"required"`
}

type updateVaultManifestPayload struct {
	VaultID         string  `json:"vaultId" validate:"required,len=64,hexadecimal"`
	NewURI          *string `json:"newUri"`
	NewBlobHex      *string `json:"newBlobHex"`
	SignerPublicKey string  `json:"signerPublicKey" validate:"required"`
	Signature       string  `json:"signature" validate:"required"`
}

type listVaultURITokensPayload struct {
	VaultID         string `json:"vaultId" validate:"required,len=64,hexadecimal"`
	SignerPublicKey string `json:"signerPublicKey" validate:"required"`
	Signature       string `json:"signature" validate:"required"`
}

type revokeVaultPayload struct {
	VaultID         string `json:"vaultId" validate:"required,len=64,hexadecimal"`
	Confirm         bool   `json:"confirm"`
	SignerPublicKey string `json:"signerPublicKey" validate:"required"`
	Signature       string `json:"signature" validate:"required"`
}

type addPasswordBackupPayload struct {
	VaultID         string         `json:"vaultId" validate:"required,len=64,hexadecimal"`
	Envelope        map[string]any `json:"envelope" validate:"required"`
	SignerPublicKey string         `json:"signerPublicKey" validate:"required"`
	Signature       string         `json:"signature" validate:"required"`
}

type removePasswordBackupPayload struct {
	VaultID         string `json:"vaultId" validate:"required,len=64,hexadecimal"`
	SignerPublicKey string `json:"signerPublicKey" validate:"required"`
	Signature       string `json:"signature" validate:"required"`
}

type getVaultMetadataPayload struct {
	VaultID         string `json:"vaultId" validate:"required,len=64,hexadecimal"`
	SignerPublicKey string `json:"signerPublicKey" validate:"required"`
	Signature       string `json:"signature" validate:"required"`
}
