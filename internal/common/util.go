package common

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomHex reads n bytes from crypto/rand and hex-encodes them.
func RandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Wipe zeroes a secret held in memory, such as a typed password.
func Wipe(b []byte) {
	clear(b)
}
