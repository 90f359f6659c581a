package auth

import (
	"fmt"
)

// crypt implements the traditional Unix crypt(3) algorithm: 25 iterations
// of a salt-perturbed DES, applied to an all-zero block, keyed by the low
// 7 bits of up to the first 8 password bytes. It exists because none of
// this repository's third-party dependencies (nor any repo in the wider
// retrieval pack) vendors a bcrypt/htpasswd/DES-crypt implementation — see
// DESIGN.md for the corpus survey that led to this standard-library-only
// primitive.
//
// salt must be at least two bytes; only the first two are used, and they
// must come from the crypt64 alphabet, so a stored 13-byte hash can be
// passed as the salt directly. The return
// value is salt followed by 11 more crypt64 characters: 13 bytes total,
// matching spec.md's CredentialStore.passwordHash format.
func crypt(password, salt string) (string, error) {
	if len(salt) < 2 {
		return "", fmt.Errorf("crypt: salt must be at least 2 characters")
	}
	salt = salt[:2]
	s0, ok0 := crypt64Index(salt[0])
	s1, ok1 := crypt64Index(salt[1])
	if !ok0 || !ok1 {
		return "", fmt.Errorf("crypt: invalid salt %q", salt)
	}
	saltBits := uint(s0) | uint(s1)<<6

	keyBits := passwordKeyBits(password)
	roundKeys := desKeySchedule(keyBits)

	var block [64]int // all zero
	for i := 0; i < 25; i++ {
		block = desEncryptBlock(block, roundKeys, saltBits)
	}

	return salt + encodeCrypt64(block), nil
}

// HashPassword exposes crypt for callers outside this package that need to
// provision an htpasswd-style credential file (tests, or a future
// "add-user" admin tool) without duplicating the DES-crypt implementation.
func HashPassword(password, salt string) (string, error) {
	return crypt(password, salt)
}

// passwordKeyBits builds the 64-bit DES-key input array used by crypt(3):
// the low 7 bits of each of the first 8 password bytes are placed at the
// standard DES key bit positions (1-indexed, skipping every 8th "parity"
// position, which is left 0). PC1 then discards exactly those parity
// positions, so leaving them 0 matches every reference implementation.
func passwordKeyBits(password string) [64]int {
	var raw [56]int
	for i := 0; i < 8; i++ {
		var b byte
		if i < len(password) {
			b = password[i]
		}
		b &= 0x7f
		for j := 0; j < 7; j++ {
			// Most significant of the 7 bits first.
			raw[i*7+j] = int((b >> uint(6-j)) & 1)
		}
	}

	var key [64]int
	pos := 0
	for i := 1; i <= 64; i++ {
		if i%8 == 0 {
			continue // parity bit position, left 0
		}
		key[i-1] = raw[pos]
		pos++
	}
	return key
}

const crypt64Alphabet = "./0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

func crypt64Index(c byte) (int, bool) {
	for i := 0; i < len(crypt64Alphabet); i++ {
		if crypt64Alphabet[i] == c {
			return i, true
		}
	}
	return 0, false
}

// encodeCrypt64 packs a 64-bit block into 11 crypt64 characters, MSB first,
// padding the final 4-bit remainder with two zero bits.
func encodeCrypt64(block [64]int) string {
	out := make([]byte, 0, 11)
	bitPos := 0
	for len(out) < 11 {
		v := 0
		for j := 0; j < 6; j++ {
			v <<= 1
			if bitPos < 64 {
				v |= block[bitPos]
			}
			bitPos++
		}
		out = append(out, crypt64Alphabet[v])
	}
	return string(out)
}
