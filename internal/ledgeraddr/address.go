package ledgeraddr

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // XRPL's account id hash is specifically RIPEMD160(SHA256(pubkey)).
)

// accountIDVersion is XRPL's classic-address version byte.
const accountIDVersion = 0x00

// checksumLen is the length, in bytes, of the base58check checksum
// appended after the version byte and payload.
const checksumLen = 4

// FromPublicKey derives the ledger classic address for a public key:
// double-hash (SHA-256 then RIPEMD-160) the raw public key bytes, then
// base58check-encode with the account-id version byte and the
// ledger's own alphabet.
func FromPublicKey(pubKey []byte) (string, error) {
	accountID, err := accountID(pubKey)
	if err != nil {
		return "", err
	}
	return checkEncode(accountID, accountIDVersion), nil
}

func accountID(pubKey []byte) ([]byte, error) {
	shaSum := sha256.Sum256(pubKey)
	ripemd := ripemd160.New()
	if _, err := ripemd.Write(shaSum[:]); err != nil {
		return nil, fmt.Errorf("ledgeraddr: ripemd160 write failed: %w", err)
	}
	return ripemd.Sum(nil), nil
}

func checkEncode(payload []byte, version byte) string {
	b := make([]byte, 0, 1+len(payload)+checksumLen)
	b = append(b, version)
	b = append(b, payload...)
	sum := doubleSHA256(b)
	b = append(b, sum[:checksumLen]...)
	return base58Encode(b)
}

func doubleSHA256(b []byte) [32]byte {
	first := sha256.Sum256(b)
	return sha256.Sum256(first[:])
}

// Valid reports whether addr is a syntactically and checksum-valid
// ledger classic address (25-40 base58 characters).
func Valid(addr string) bool {
	if len(addr) < 25 || len(addr) > 40 {
		return false
	}
	decoded, ok := base58Decode(addr)
	if !ok || len(decoded) < 1+checksumLen {
		return false
	}
	payload := decoded[:len(decoded)-checksumLen]
	checksum := decoded[len(decoded)-checksumLen:]
	sum := doubleSHA256(payload)
	for i := 0; i < checksumLen; i++ {
		if sum[i] != checksum[i] {
			return false
		}
	}
	return true
}
