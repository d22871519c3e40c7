package sigverify

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/stretchr/testify/require"

	"github.com/xvault-labs/xvault-core/internal/codec"
	"github.com/xvault-labs/xvault-core/internal/ledgeraddr"
)

func TestVerify_Ed25519_RoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	addr, err := ledgeraddr.FromPublicKey(pub)
	require.NoError(t, err)

	payload := map[string]codec.Value{"vaultId": "abc", "action": "acceptInvite"}
	digestHex, err := codec.Digest(payload)
	require.NoError(t, err)
	digest, err := hex.DecodeString(digestHex)
	require.NoError(t, err)

	sig := ed25519.Sign(priv, digest)

	v := New()
	err = v.Verify(Request{
		Payload:         payload,
		SignatureHex:    hex.EncodeToString(sig),
		SignerPublicKey: "ED" + hex.EncodeToString(pub),
		ExpectedAddress: addr,
	})
	require.NoError(t, err)
}

func TestVerify_Ed25519_WrongExpectedAddressFails(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	payload := map[string]codec.Value{"x": 1}
	digestHex, err := codec.Digest(payload)
	require.NoError(t, err)
	digest, _ := hex.DecodeString(digestHex)
	sig := ed25519.Sign(priv, digest)

	v := New()
	err = v.Verify(Request{
		Payload:         payload,
		SignatureHex:    hex.EncodeToString(sig),
		SignerPublicKey: "ED" + hex.EncodeToString(pub),
		ExpectedAddress: "rNotTheRightAddressAtAll1234567",
	})
	require.Error(t, err)
}

func TestVerify_Secp256k1_RoundTrip(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	pub := priv.PubKey().SerializeCompressed()

	addr, err := ledgeraddr.FromPublicKey(pub)
	require.NoError(t, err)

	payload := map[string]codec.Value{"vaultId": "v1", "memberToRemove": "rFoo", "action": "removeMember"}
	digestHex, err := codec.Digest(payload)
	require.NoError(t, err)
	digest, err := hex.DecodeString(digestHex)
	require.NoError(t, err)

	compact := ecdsa.SignCompact(priv, digest, false)
	raw := compact[1:] // drop the recovery-id byte; spec signatures are raw R||S

	v := New()
	err = v.Verify(Request{
		Payload:         payload,
		SignatureHex:    hex.EncodeToString(raw),
		SignerPublicKey: hex.EncodeToString(pub),
		ExpectedAddress: addr,
	})
	require.NoError(t, err)
}

func TestVerify_RejectsMissingSignature(t *testing.T) {
	v := New()
	err := v.Verify(Request{
		Payload:         map[string]codec.Value{"a": 1},
		SignatureHex:    "",
		SignerPublicKey: "020000000000000000000000000000000000000000000000000000000000000001",
		ExpectedAddress: "rSomeAddress",
	})
	require.Error(t, err)
}

func TestVerify_RejectsShortSignature(t *testing.T) {
	v := New()
	err := v.Verify(Request{
		Payload:         map[string]codec.Value{"a": 1},
		SignatureHex:    "abcd",
		SignerPublicKey: "020000000000000000000000000000000000000000000000000000000000000001",
		ExpectedAddress: "rSomeAddress",
	})
	require.Error(t, err)
}

func TestVerify_RejectsBadKeyPrefix(t *testing.T) {
	v := New()
	err := v.Verify(Request{
		Payload:         map[string]codec.Value{"a": 1},
		SignatureHex:    "00112233445566778899aabbccddeeff00112233",
		SignerPublicKey: "FF0000000000000000000000000000000000000000000000000000000000000001",
		ExpectedAddress: "rSomeAddress",
	})
	require.Error(t, err)
}
