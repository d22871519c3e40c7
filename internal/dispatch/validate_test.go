package dispatch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xvault-labs/xvault-core/internal/xvaulterr"
)

func TestCreateVault_RejectsChecksumCorruptAddress(t *testing.T) {
	d := newTestDispatcher(t, false)
	owner := newKeypair(t)

	corrupted := []byte(owner.address)
	if corrupted[len(corrupted)-1] == 'r' {
		corrupted[len(corrupted)-1] = 'p'
	} else {
		corrupted[len(corrupted)-1] = 'r'
	}
	badAddress := string(corrupted)
	require.True(t, addressPattern.MatchString(badAddress), "corrupted address must still match the charset/length pattern")
	require.False(t, validAddress(badAddress), "checksum-corrupt address must fail validAddress")

	p := createVaultPayload{
		Owner:           badAddress,
		Salt:            testSalt,
		Metadata:        map[string]any{},
		SignerPublicKey: owner.signerPublicKey(),
	}
	p.Signature = owner.sign(preimageCreateVault(p, false))

	resp := d.Handle(Request{Type: "createVault", Payload: mustMarshal(t, p), RoundKey: "1"}, "req-1")
	require.False(t, resp.Ok)
	require.Equal(t, string(xvaulterr.InvalidAddress), resp.Code)
}
