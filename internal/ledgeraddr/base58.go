// Package ledgeraddr derives and validates Xahau/XRPL classic
// addresses from a signer's public key, and implements the base58
// codec that addresses are encoded with.
//
// XRPL uses a base58 dictionary ordering distinct from Bitcoin's, so
// this file implements the same divide-and-mod big.Int algorithm,
// parameterized by alphabet.
package ledgeraddr

import "math/big"

// xrplAlphabet is the XRPL base58 dictionary, distinct from Bitcoin's.
const xrplAlphabet = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"

var (
	xrplAlphabetIndex [256]int8
	bigRadix          = big.NewInt(58)
	bigZero           = big.NewInt(0)
)

func init() {
	for i := range xrplAlphabetIndex {
		xrplAlphabetIndex[i] = -1
	}
	for i, c := range xrplAlphabet {
		xrplAlphabetIndex[byte(c)] = int8(i)
	}
}

// base58Encode renders b using the XRPL alphabet, preserving leading
// zero bytes as leading alphabet[0] characters the way Bitcoin-style
// base58 does.
func base58Encode(b []byte) string {
	x := new(big.Int).SetBytes(b)

	answer := make([]byte, 0, len(b)*136/100+1)
	mod := new(big.Int)
	for x.Cmp(bigZero) > 0 {
		x.DivMod(x, bigRadix, mod)
		answer = append(answer, xrplAlphabet[mod.Int64()])
	}

	for _, c := range b {
		if c != 0 {
			break
		}
		answer = append(answer, xrplAlphabet[0])
	}

	reverse(answer)
	return string(answer)
}

func base58Decode(s string) ([]byte, bool) {
	answer := big.NewInt(0)
	scratch := new(big.Int)
	for _, c := range []byte(s) {
		idx := xrplAlphabetIndex[c]
		if idx == -1 {
			return nil, false
		}
		scratch.SetInt64(int64(idx))
		answer.Mul(answer, bigRadix)
		answer.Add(answer, scratch)
	}

	decoded := answer.Bytes()

	leadingZeros := 0
	for _, c := range []byte(s) {
		if c != xrplAlphabet[0] {
			break
		}
		leadingZeros++
	}
	if leadingZeros == 0 {
		return decoded, true
	}
	out := make([]byte, leadingZeros+len(decoded))
	copy(out[leadingZeros:], decoded)
	return out, true
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
