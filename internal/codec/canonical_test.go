package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalBytes_SortsKeysBytewise(t *testing.T) {
	a := map[string]Value{"b": 1, "a": 2, "ab": 3}
	b := map[string]Value{"ab": 3, "a": 2, "b": 1}

	gotA, err := CanonicalBytes(a)
	require.NoError(t, err)
	gotB, err := CanonicalBytes(b)
	require.NoError(t, err)

	require.Equal(t, gotA, gotB)
	require.Equal(t, `{"a":2,"ab":3,"b":1}`, string(gotA))
}

func TestCanonicalBytes_NoWhitespace(t *testing.T) {
	v := map[string]Value{"arr": []Value{1, "x", nil, true}}
	got, err := CanonicalBytes(v)
	require.NoError(t, err)
	require.Equal(t, `{"arr":[1,"x",null,true]}`, string(got))
}

func TestCanonicalBytes_StableUnderConstructionOrder(t *testing.T) {
	v1 := map[string]Value{}
	v1["z"] = 1
	v1["a"] = 2

	v2 := map[string]Value{}
	v2["a"] = 2
	v2["z"] = 1

	b1, err := CanonicalBytes(v1)
	require.NoError(t, err)
	b2, err := CanonicalBytes(v2)
	require.NoError(t, err)
	require.Equal(t, b1, b2)
}

func TestDigest_Deterministic(t *testing.T) {
	v := map[string]Value{"owner": "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh", "salt": "aabbccddeeff0011"}
	d1, err := Digest(v)
	require.NoError(t, err)
	d2, err := Digest(v)
	require.NoError(t, err)
	require.Equal(t, d1, d2)
	require.Len(t, d1, 64)
}

func TestVaultID_IsLiteralConcatenation(t *testing.T) {
	id := VaultID("rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh", "aabbccddeeff0011")
	direct := DigestBytes([]byte("rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh:aabbccddeeff0011"))
	require.Equal(t, direct, id)
	require.Len(t, id, 64)

	// Must NOT equal the canonical-map digest of the same fields.
	mapDigest, err := Digest(map[string]Value{"owner": "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh", "salt": "aabbccddeeff0011"})
	require.NoError(t, err)
	require.NotEqual(t, mapDigest, id)
}

func TestDigest_RejectsNaNAndInfinity(t *testing.T) {
	_, err := Digest(map[string]Value{"x": 1.0 / zero()})
	require.Error(t, err)
	_, err = Digest(map[string]Value{"x": zero() / zero()})
	require.Error(t, err)
}

func zero() float64 { return 0 }

func TestParseDigestIdempotence(t *testing.T) {
	v := map[string]Value{
		"b": []Value{1, 2, 3},
		"a": "hello",
		"c": map[string]Value{"nested": true, "n": nil},
	}
	b, err := CanonicalBytes(v)
	require.NoError(t, err)

	parsed, err := Parse(b)
	require.NoError(t, err)

	d1, err := Digest(v)
	require.NoError(t, err)
	d2, err := Digest(parsed)
	require.NoError(t, err)
	require.Equal(t, d1, d2)
}
