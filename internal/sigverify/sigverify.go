// Package sigverify performs signature verification: shape checks on
// the signature and public key, curve dispatch by public key prefix,
// ledger address derivation and comparison, and curve-specific
// verification over the canonical digest of the payload.
package sigverify

import (
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/xvault-labs/xvault-core/internal/codec"
	"github.com/xvault-labs/xvault-core/internal/ledgeraddr"
	"github.com/xvault-labs/xvault-core/internal/xvaulterr"
)

var alphanumeric = regexp.MustCompile(`^[0-9a-zA-Z]+$`)

// KeyFamily tags which curve a public key belongs to, dispatched by
// inspecting its leading bytes.
type KeyFamily int

const (
	FamilyUnknown KeyFamily = iota
	FamilyEd25519
	FamilySecp256k1
)

// Verifier is pure and stateless: it performs no I/O.
type Verifier struct{}

func New() *Verifier { return &Verifier{} }

// Request bundles the inputs Verify needs.
type Request struct {
	Payload         codec.Value
	SignatureHex    string
	SignerPublicKey string
	ExpectedAddress string
}

// Verify checks signature shape, classifies the key's curve family,
// derives and compares the signer's ledger address, and verifies the
// signature over the canonical digest of the payload, returning an
// *xvaulterr.Error tagged InvalidSignature on any failure.
func (v *Verifier) Verify(req Request) error {
	sigBytes, err := validateSignatureShape(req.SignatureHex)
	if err != nil {
		return err
	}

	if err := validateKeyShape(req.SignerPublicKey); err != nil {
		return err
	}

	family, keyBytes, err := classifyKey(req.SignerPublicKey)
	if err != nil {
		return err
	}

	addr, err := ledgeraddr.FromPublicKey(keyBytes)
	if err != nil {
		return xvaulterr.Wrap(xvaulterr.InvalidSignature, "failed to derive address from public key", err)
	}
	if addr != req.ExpectedAddress {
		return xvaulterr.New(xvaulterr.InvalidSignature, "signer address does not match expected address")
	}

	digestHex, err := codec.Digest(req.Payload)
	if err != nil {
		return xvaulterr.Wrap(xvaulterr.InvalidSignature, "failed to compute signing digest", err)
	}
	digestBytes, err := hex.DecodeString(digestHex)
	if err != nil {
		return xvaulterr.Wrap(xvaulterr.InvalidSignature, "failed to decode digest", err)
	}

	switch family {
	case FamilyEd25519:
		if !verifyEd25519(keyBytes, digestBytes, sigBytes) {
			return xvaulterr.New(xvaulterr.InvalidSignature, "ed25519 signature verification failed")
		}
	case FamilySecp256k1:
		if !verifySecp256k1(keyBytes, digestBytes, sigBytes) {
			return xvaulterr.New(xvaulterr.InvalidSignature, "secp256k1 signature verification failed")
		}
	default:
		return xvaulterr.New(xvaulterr.InvalidSignature, "unrecognized public key family")
	}

	return nil
}

// DeriveAddress validates a public key's shape and returns the ledger
// address it derives, without checking any signature. Used where the
// expected address is the signer's own derived address rather than a
// value looked up elsewhere.
func DeriveAddress(signerPublicKey string) (string, error) {
	if err := validateKeyShape(signerPublicKey); err != nil {
		return "", err
	}
	_, keyBytes, err := classifyKey(signerPublicKey)
	if err != nil {
		return "", err
	}
	addr, err := ledgeraddr.FromPublicKey(keyBytes)
	if err != nil {
		return "", xvaulterr.Wrap(xvaulterr.InvalidSignature, "failed to derive address from public key", err)
	}
	return addr, nil
}

func validateSignatureShape(sigHex string) ([]byte, error) {
	if sigHex == "" {
		return nil, xvaulterr.New(xvaulterr.InvalidSignature, "signature is missing")
	}
	if len(sigHex) < 16 {
		return nil, xvaulterr.New(xvaulterr.InvalidSignature, "signature is too short")
	}
	b, err := hex.DecodeString(sigHex)
	if err != nil {
		return nil, xvaulterr.New(xvaulterr.InvalidSignature, "signature is not valid hex")
	}
	return b, nil
}

func validateKeyShape(key string) error {
	if key == "" {
		return xvaulterr.New(xvaulterr.InvalidSignature, "signer public key is missing")
	}
	if len(key) < 16 || len(key) > 80 {
		return xvaulterr.New(xvaulterr.InvalidSignature, "signer public key length out of bounds")
	}
	if !alphanumeric.MatchString(key) {
		return xvaulterr.New(xvaulterr.InvalidSignature, "signer public key is not alphanumeric")
	}
	return nil
}

// classifyKey recognizes two key families: "ED" prefix + 64 hex chars
// is Ed25519; "02"/"03" prefix + 64 hex chars is secp256k1 compressed.
func classifyKey(key string) (KeyFamily, []byte, error) {
	switch {
	case len(key) == 66 && key[:2] == "ED":
		raw, err := hex.DecodeString(key[2:])
		if err != nil || len(raw) != 32 {
			return FamilyUnknown, nil, xvaulterr.New(xvaulterr.InvalidSignature, "malformed ed25519 public key")
		}
		return FamilyEd25519, raw, nil
	case len(key) == 66 && (key[:2] == "02" || key[:2] == "03"):
		raw, err := hex.DecodeString(key)
		if err != nil || len(raw) != 33 {
			return FamilyUnknown, nil, xvaulterr.New(xvaulterr.InvalidSignature, "malformed secp256k1 public key")
		}
		return FamilySecp256k1, raw, nil
	default:
		return FamilyUnknown, nil, xvaulterr.New(xvaulterr.InvalidSignature, fmt.Sprintf("unrecognized public key prefix %q", safePrefix(key)))
	}
}

func safePrefix(s string) string {
	if len(s) <= 4 {
		return s
	}
	return s[:4]
}
