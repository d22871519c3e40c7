package dispatch

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/xvault-labs/xvault-core/internal/codec"
	"github.com/xvault-labs/xvault-core/internal/ledgeraddr"
	"github.com/xvault-labs/xvault-core/internal/tokenadapter"
	"github.com/xvault-labs/xvault-core/internal/vaultstore"
)

// keypair is an ed25519 signer plus its derived ledger address, used
// throughout these tests the way sigverify_test.go builds one per
// test case rather than sharing package-level fixtures.
type keypair struct {
	pub     ed25519.PublicKey
	priv    ed25519.PrivateKey
	address string
}

func newKeypair(t *testing.T) keypair {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	addr, err := ledgeraddr.FromPublicKey(pub)
	require.NoError(t, err)
	return keypair{pub: pub, priv: priv, address: addr}
}

func (k keypair) signerPublicKey() string {
	return "ED" + hex.EncodeToString(k.pub)
}

func (k keypair) sign(preimage codec.Value) string {
	digestHex, err := codec.Digest(preimage)
	if err != nil {
		panic(err)
	}
	digest, err := hex.DecodeString(digestHex)
	if err != nil {
		panic(err)
	}
	return hex.EncodeToString(ed25519.Sign(k.priv, digest))
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(nopWriter{})
	return logger
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

// newTestDispatcher builds a Dispatcher over a fresh in-memory store
// with a real Verifier, a simulated (no ledger client) token adapter,
// no persistence path, and a no-op audit sink, mirroring the
// collaborators cmd/xvaultd wires in simulate mode.
func newTestDispatcher(t *testing.T, teamMode bool) *Dispatcher {
	logger := testLogger()
	store := vaultstore.New(logger)
	rl := vaultstore.NewRateLimiter(5)
	adapter := tokenadapter.New("rIssuerXXXXXXXXXXXXXXXXXXXXXXXXXX", nil, nil, false, nil, logger)
	return New(store, rl, adapter, logger, &LogAuditSink{Logger: logger}, nil, "", "https://gateway.example", teamMode, false)
}

func mustMarshal(t *testing.T, v any) json.RawMessage {
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func dataMap(t *testing.T, resp Response) map[string]any {
	require.True(t, resp.Ok, "expected ok response, got error %q/%q", resp.Code, resp.Error)
	m, ok := resp.Data.(map[string]any)
	require.True(t, ok, "expected map[string]any data, got %T", resp.Data)
	return m
}

// signedCreateVault builds and signs a createVault/createTeamVault
// payload for owner, returning the payload struct for mustMarshal.
func signedCreateVault(owner keypair, salt string, metadata map[string]any, initialAuthorized []string, isTeam bool) createVaultPayload {
	p := createVaultPayload{
		Owner:             owner.address,
		Salt:              salt,
		Metadata:          metadata,
		InitialAuthorized: initialAuthorized,
		SignerPublicKey:   owner.signerPublicKey(),
	}
	p.Signature = owner.sign(preimageCreateVault(p, isTeam))
	return p
}
