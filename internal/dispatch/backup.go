package dispatch

import (
	"encoding/base64"

	"github.com/xvault-labs/xvault-core/internal/xvaulterr"
)

// validatePasswordBackupEnvelope enforces the password-backup
// envelope shape: version=1, vaultId equal to the owning vault,
// salt/nonce/authTag/ciphertext all base64. The envelope's encrypted
// contents are otherwise opaque to the core.
func validatePasswordBackupEnvelope(envelope map[string]any, vaultID string) error {
	version, ok := envelope["version"].(float64)
	if !ok || version != 1 {
		return xvaulterr.New(xvaulterr.InvalidMetadata, "passwordBackup.version must equal 1")
	}
	if envelopeVaultID, _ := envelope["vaultId"].(string); envelopeVaultID != vaultID {
		return xvaulterr.New(xvaulterr.InvalidMetadata, "passwordBackup.vaultId must equal the owning vault id")
	}
	for _, field := range []string{"salt", "nonce", "authTag", "ciphertext"} {
		s, ok := envelope[field].(string)
		if !ok || s == "" {
			return xvaulterr.New(xvaulterr.InvalidMetadata, "passwordBackup."+field+" must be a non-empty base64 string")
		}
		if _, err := base64.StdEncoding.DecodeString(s); err != nil {
			return xvaulterr.New(xvaulterr.InvalidMetadata, "passwordBackup."+field+" is not valid base64")
		}
	}
	return nil
}
