package sigverify

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// verifySecp256k1 checks a 64-byte raw (R||S) signature over digest.
// Ledger signing requests carry raw R||S rather than a DER-encoded
// signature, so this parses the 64-byte form directly instead of
// going through ecdsa.ParseDERSignature.
func verifySecp256k1(pubKey, digest, sig []byte) bool {
	if len(sig) != 64 {
		return false
	}
	pk, err := secp256k1.ParsePubKey(pubKey)
	if err != nil {
		return false
	}

	var r, s secp256k1.ModNScalar
	if r.SetByteSlice(sig[:32]) {
		return false // overflowed the group order
	}
	if s.SetByteSlice(sig[32:64]) {
		return false
	}

	signature := ecdsa.NewSignature(&r, &s)
	return signature.Verify(digest, pk)
}
