package dispatch

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xvault-labs/xvault-core/internal/xvaulterr"
)

const testSalt = "aabbccddeeff0011"

// S1 — individual create + read. The vaultId-as-literal-concatenation
// rule itself is covered directly in the codec package; here the same
// rule is exercised end-to-end with a real generated signer, since the
// dispatcher must verify a genuine signature before it will create
// anything.
func TestScenario_IndividualCreateAndRead(t *testing.T) {
	d := newTestDispatcher(t, true)
	owner := newKeypair(t)

	p := signedCreateVault(owner, testSalt, map[string]any{}, nil, false)
	resp := d.Handle(Request{Type: "createVault", Payload: mustMarshal(t, p), RoundKey: "1"}, "req-1")
	data := dataMap(t, resp)

	sum := sha256.Sum256([]byte(owner.address + ":" + testSalt))
	expectedVaultID := hex.EncodeToString(sum[:])
	require.Equal(t, expectedVaultID, data["vaultId"])

	listResp := d.Handle(Request{Type: "getMyVaults", Payload: mustMarshal(t, getMyVaultsPayload{Owner: owner.address})}, "req-2")
	require.True(t, listResp.Ok)
	list, ok := listResp.Data.([]map[string]any)
	require.True(t, ok)
	require.Len(t, list, 1)
	require.Equal(t, expectedVaultID, list[0]["vaultId"])
	require.Equal(t, "individual", list[0]["type"])
	require.Equal(t, 0, list[0]["entryCount"])
	require.NotEmpty(t, list[0]["manifestTokenId"])
	require.Nil(t, list[0]["lastActivity"])
}

// S2 — addEntry + getEntry by index.
func TestScenario_AddEntryAndGetEntryByIndex(t *testing.T) {
	d := newTestDispatcher(t, true)
	owner := newKeypair(t)

	cp := signedCreateVault(owner, testSalt, map[string]any{}, nil, false)
	createResp := d.Handle(Request{Type: "createVault", Payload: mustMarshal(t, cp), RoundKey: "1"}, "req-1")
	vaultID := dataMap(t, createResp)["vaultId"].(string)

	entryMeta := entryMetadataWire{Service: "github", Username: strPtr("mike")}
	cid := "bafybeigdyrztf4f6xsl54n4xq4m5gxezm5q4za2ojx6x7lf5y3w4f4xhqy"
	ap := addEntryPayload{
		VaultID:         vaultID,
		Actor:           owner.address,
		EncryptedBlob:   "aGVsbG8=",
		CID:             cid,
		EntryMetadata:   entryMeta,
		SignerPublicKey: owner.signerPublicKey(),
	}
	ap.Signature = owner.sign(preimageAddEntry(ap))
	addResp := d.Handle(Request{Type: "addEntry", Payload: mustMarshal(t, ap), RoundKey: "1"}, "req-2")
	require.True(t, addResp.Ok, "addEntry failed: %s/%s", addResp.Code, addResp.Error)

	idx := 0
	gp := getEntryPayload{VaultID: vaultID, Actor: owner.address, EntryIndex: &idx, SignerPublicKey: owner.signerPublicKey()}
	gp.Signature = owner.sign(preimageGetEntry(gp))
	getResp := d.Handle(Request{Type: "getEntry", Payload: mustMarshal(t, gp)}, "req-3")
	getData := dataMap(t, getResp)
	require.Equal(t, cid, getData["cid"])
	meta := getData["metadata"].(map[string]any)
	require.Equal(t, "github", meta["service"])
	require.Equal(t, "mike", meta["username"])
	require.Nil(t, meta["notes"])
	require.Contains(t, getData["gatewayUrl"], "/ipfs/"+cid)

	listResp := d.Handle(Request{Type: "getMyVaults", Payload: mustMarshal(t, getMyVaultsPayload{Owner: owner.address})}, "req-4")
	list := listResp.Data.([]map[string]any)
	require.Equal(t, 1, list[0]["entryCount"])
	require.Equal(t, "1", list[0]["lastActivity"])
}

// S3 — rate limit: five successful mutating operations commit, the
// sixth fails with RateLimitExceeded.
func TestScenario_RateLimitAtFive(t *testing.T) {
	d := newTestDispatcher(t, true)
	owner := newKeypair(t)

	for i := 0; i < 5; i++ {
		p := signedCreateVault(owner, hexSaltFor(i), map[string]any{}, nil, false)
		resp := d.Handle(Request{Type: "createVault", Payload: mustMarshal(t, p), RoundKey: "55"}, "req")
		require.True(t, resp.Ok, "operation %d should succeed, got %s", i, resp.Error)
	}

	p := signedCreateVault(owner, hexSaltFor(5), map[string]any{}, nil, false)
	resp := d.Handle(Request{Type: "createVault", Payload: mustMarshal(t, p), RoundKey: "55"}, "req-6")
	require.False(t, resp.Ok)
	require.Equal(t, string(xvaulterr.RateLimitExceeded), resp.Code)
}

func hexSaltFor(i int) string {
	salts := []string{
		"aabbccddeeff0011", "aabbccddeeff0012", "aabbccddeeff0013",
		"aabbccddeeff0014", "aabbccddeeff0015", "aabbccddeeff0016",
	}
	return salts[i]
}

// S4 — invalid CID fails with InvalidCid and appends no entry.
func TestScenario_InvalidCIDRejected(t *testing.T) {
	d := newTestDispatcher(t, true)
	owner := newKeypair(t)

	cp := signedCreateVault(owner, testSalt, map[string]any{}, nil, false)
	createResp := d.Handle(Request{Type: "createVault", Payload: mustMarshal(t, cp), RoundKey: "1"}, "req-1")
	vaultID := dataMap(t, createResp)["vaultId"].(string)

	ap := addEntryPayload{
		VaultID:         vaultID,
		Actor:           owner.address,
		EncryptedBlob:   "aGVsbG8=",
		CID:             "not-a-cid",
		EntryMetadata:   entryMetadataWire{Service: "github"},
		SignerPublicKey: owner.signerPublicKey(),
	}
	ap.Signature = owner.sign(preimageAddEntry(ap))
	resp := d.Handle(Request{Type: "addEntry", Payload: mustMarshal(t, ap), RoundKey: "1"}, "req-2")
	require.False(t, resp.Ok)
	require.Equal(t, string(xvaulterr.InvalidCid), resp.Code)

	listResp := d.Handle(Request{Type: "getMyVaults", Payload: mustMarshal(t, getMyVaultsPayload{Owner: owner.address})}, "req-3")
	list := listResp.Data.([]map[string]any)
	require.Equal(t, 0, list[0]["entryCount"])
}

// S5 — team accept/read/remove/deny, plus a signer-mismatch attempt.
func TestScenario_TeamAcceptReadRemoveDeny(t *testing.T) {
	d := newTestDispatcher(t, true)
	owner := newKeypair(t)
	member := newKeypair(t)
	attacker := newKeypair(t)

	cp := signedCreateVault(owner, testSalt, map[string]any{}, nil, true)
	createResp := d.Handle(Request{Type: "createTeamVault", Payload: mustMarshal(t, cp), RoundKey: "1"}, "req-1")
	vaultID := dataMap(t, createResp)["vaultId"].(string)

	ip := inviteToVaultPayload{VaultID: vaultID, Invitee: member.address, SignerPublicKey: owner.signerPublicKey()}
	ip.Signature = owner.sign(preimageInviteToVault(ip))
	inviteResp := d.Handle(Request{Type: "inviteToVault", Payload: mustMarshal(t, ip), RoundKey: "1"}, "req-2")
	require.True(t, inviteResp.Ok, "invite failed: %s", inviteResp.Error)

	acceptSig := member.sign(preimageAcceptInvite(vaultID))
	acceptResp := d.Handle(Request{Type: "acceptInvite", Payload: mustMarshal(t, acceptInvitePayload{
		VaultID: vaultID, SignerPublicKey: member.signerPublicKey(), Signature: acceptSig,
	}), RoundKey: "1"}, "req-3")
	require.True(t, acceptResp.Ok, "accept failed: %s", acceptResp.Error)

	ap := addEntryPayload{
		VaultID: vaultID, Actor: member.address, EncryptedBlob: "aGVsbG8=",
		CID: "bafybeigdyrztf4f6xsl54n4xq4m5gxezm5q4za2ojx6x7lf5y3w4f4xhqy",
		EntryMetadata:   entryMetadataWire{Service: "github"},
		SignerPublicKey: member.signerPublicKey(),
	}
	ap.Signature = member.sign(preimageAddEntry(ap))
	addResp := d.Handle(Request{Type: "addEntry", Payload: mustMarshal(t, ap), RoundKey: "1"}, "req-4")
	require.True(t, addResp.Ok, "member addEntry failed: %s", addResp.Error)

	idx := 0
	gp := getEntryPayload{VaultID: vaultID, Actor: member.address, EntryIndex: &idx, SignerPublicKey: member.signerPublicKey()}
	gp.Signature = member.sign(preimageGetEntry(gp))
	getResp := d.Handle(Request{Type: "getEntry", Payload: mustMarshal(t, gp)}, "req-5")
	require.True(t, getResp.Ok, "member getEntry failed: %s", getResp.Error)

	rp := removeMemberPayload{VaultID: vaultID, MemberToRemove: member.address, SignerPublicKey: owner.signerPublicKey()}
	rp.Signature = owner.sign(preimageRemoveMember(rp))
	removeResp := d.Handle(Request{Type: "removeMember", Payload: mustMarshal(t, rp), RoundKey: "1"}, "req-6")
	require.True(t, removeResp.Ok, "removeMember failed: %s", removeResp.Error)

	gp2 := getEntryPayload{VaultID: vaultID, Actor: member.address, EntryIndex: &idx, SignerPublicKey: member.signerPublicKey()}
	gp2.Signature = member.sign(preimageGetEntry(gp2))
	deniedResp := d.Handle(Request{Type: "getEntry", Payload: mustMarshal(t, gp2)}, "req-7")
	require.False(t, deniedResp.Ok)
	require.Equal(t, string(xvaulterr.Unauthorized), deniedResp.Code)

	forgedRemove := removeMemberPayload{VaultID: vaultID, MemberToRemove: owner.address, SignerPublicKey: attacker.signerPublicKey()}
	forgedRemove.Signature = attacker.sign(preimageRemoveMember(forgedRemove))
	forgedResp := d.Handle(Request{Type: "removeMember", Payload: mustMarshal(t, forgedRemove)}, "req-8")
	require.False(t, forgedResp.Ok)
	require.Equal(t, string(xvaulterr.InvalidSignature), forgedResp.Code)
}

// S6 — team revocation requires confirm=true and burns manifest +
// every entry token.
func TestScenario_TeamRevocationRequiresConfirm(t *testing.T) {
	d := newTestDispatcher(t, true)
	owner := newKeypair(t)

	cp := signedCreateVault(owner, testSalt, map[string]any{}, nil, true)
	createResp := d.Handle(Request{Type: "createTeamVault", Payload: mustMarshal(t, cp), RoundKey: "1"}, "req-1")
	vaultID := dataMap(t, createResp)["vaultId"].(string)

	ap := addEntryPayload{
		VaultID: vaultID, Actor: owner.address, EncryptedBlob: "aGVsbG8=",
		CID:             "bafybeigdyrztf4f6xsl54n4xq4m5gxezm5q4za2ojx6x7lf5y3w4f4xhqy",
		EntryMetadata:   entryMetadataWire{Service: "github"},
		SignerPublicKey: owner.signerPublicKey(),
	}
	ap.Signature = owner.sign(preimageAddEntry(ap))
	addResp := d.Handle(Request{Type: "addEntry", Payload: mustMarshal(t, ap), RoundKey: "1"}, "req-2")
	require.True(t, addResp.Ok, "addEntry failed: %s", addResp.Error)

	rvNoConfirm := revokeVaultPayload{VaultID: vaultID, Confirm: false, SignerPublicKey: owner.signerPublicKey()}
	rvNoConfirm.Signature = owner.sign(preimageRevokeVault(rvNoConfirm))
	noConfirmResp := d.Handle(Request{Type: "revokeVault", Payload: mustMarshal(t, rvNoConfirm)}, "req-3")
	require.False(t, noConfirmResp.Ok)
	require.Equal(t, string(xvaulterr.ConfirmationRequired), noConfirmResp.Code)

	rvConfirm := revokeVaultPayload{VaultID: vaultID, Confirm: true, SignerPublicKey: owner.signerPublicKey()}
	rvConfirm.Signature = owner.sign(preimageRevokeVault(rvConfirm))
	confirmResp := d.Handle(Request{Type: "revokeVault", Payload: mustMarshal(t, rvConfirm)}, "req-4")
	data := dataMap(t, confirmResp)
	require.Equal(t, 2, data["burnedTokens"]) // 1 manifest token + 1 entry token

	listResp := d.Handle(Request{Type: "getMyVaults", Payload: mustMarshal(t, getMyVaultsPayload{Owner: owner.address})}, "req-5")
	require.Empty(t, listResp.Data.([]map[string]any))

	lp := listVaultURITokensPayload{VaultID: vaultID, SignerPublicKey: owner.signerPublicKey()}
	lp.Signature = owner.sign(preimageListVaultURITokens(vaultID))
	tokensResp := d.Handle(Request{Type: "listVaultURITokens", Payload: mustMarshal(t, lp)}, "req-6")
	require.False(t, tokensResp.Ok)
	require.Equal(t, string(xvaulterr.VaultNotFound), tokensResp.Code)
}

func strPtr(s string) *string { return &s }
