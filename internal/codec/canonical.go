// Package codec implements deterministic, byte-exact serialization of
// structured values, used both as the signing preimage and as the
// whole-state digest.
package codec

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Value is any of null, bool, number, string, []Value, or
// map[string]Value. In Go this is represented structurally as `any`;
// CanonicalBytes type-switches on the concrete dynamic type rather
// than requiring callers to build a tagged union.
type Value = any

// CanonicalBytes renders v as the unique canonical byte string: sorted
// map keys (bytewise lexicographic over UTF-8), no whitespace,
// standard JSON literal form for primitives.
func CanonicalBytes(v Value) ([]byte, error) {
	var buf []byte
	buf, err := appendValue(buf, v)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func appendValue(buf []byte, v Value) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return append(buf, "null"...), nil
	case bool:
		if t {
			return append(buf, "true"...), nil
		}
		return append(buf, "false"...), nil
	case string:
		return appendString(buf, t), nil
	case json.Number:
		return appendNumber(buf, t)
	case float64:
		return appendNumber(buf, json.Number(strconv.FormatFloat(t, 'f', -1, 64)))
	case int:
		return append(buf, strconv.Itoa(t)...), nil
	case int64:
		return append(buf, strconv.FormatInt(t, 10)...), nil
	case []Value:
		return appendArray(buf, t)
	case map[string]Value:
		return appendObject(buf, t)
	default:
		return nil, fmt.Errorf("canonical codec: unsupported value kind %T", v)
	}
}

func appendArray(buf []byte, items []any) ([]byte, error) {
	buf = append(buf, '[')
	for i, item := range items {
		if i > 0 {
			buf = append(buf, ',')
		}
		var err error
		buf, err = appendValue(buf, item)
		if err != nil {
			return nil, err
		}
	}
	buf = append(buf, ']')
	return buf, nil
}

func appendObject(buf []byte, obj map[string]Value) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Sort(byUTF8Bytes(keys))

	buf = append(buf, '{')
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendString(buf, k)
		buf = append(buf, ':')
		var err error
		buf, err = appendValue(buf, obj[k])
		if err != nil {
			return nil, err
		}
	}
	buf = append(buf, '}')
	return buf, nil
}

func appendString(buf []byte, s string) []byte {
	encoded, _ := json.Marshal(s)
	return append(buf, encoded...)
}

func appendNumber(buf []byte, n json.Number) ([]byte, error) {
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("canonical codec: invalid number %q: %w", n, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("canonical codec: NaN/Infinity is not representable")
	}
	return append(buf, n.String()...), nil
}

type byUTF8Bytes []string

func (b byUTF8Bytes) Len() int      { return len(b) }
func (b byUTF8Bytes) Swap(i, j int) { b[i], b[j] = b[j], b[i] }
func (b byUTF8Bytes) Less(i, j int) bool {
	ai, aj := []byte(b[i]), []byte(b[j])
	n := len(ai)
	if len(aj) < n {
		n = len(aj)
	}
	for k := 0; k < n; k++ {
		if ai[k] != aj[k] {
			return ai[k] < aj[k]
		}
	}
	return len(ai) < len(aj)
}

// Digest computes digest(value) = SHA-256(CanonicalBytes(value)),
// rendered as 64 lowercase hex characters.
func Digest(v Value) (string, error) {
	b, err := CanonicalBytes(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// DigestBytes hashes raw bytes directly, used for the vault id
// computation below rather than a canonical-encoded mapping.
func DigestBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// VaultID computes a vault's id: SHA-256(owner + ":" + salt).
func VaultID(owner, salt string) string {
	return DigestBytes([]byte(owner + ":" + salt))
}
