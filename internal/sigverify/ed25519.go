package sigverify

import "crypto/ed25519"

// verifyEd25519 checks sig over digest using stdlib crypto/ed25519.
func verifyEd25519(pubKey, digest, sig []byte) bool {
	if len(pubKey) != ed25519.PublicKeySize {
		return false
	}
	if len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pubKey), digest, sig)
}
