// Package otp produces the six-digit one-time codes mailed to users.
package otp

import (
	"crypto/rand"
	"io"
	"math/big"
	"strconv"
	"time"
)

const (
	minCode = 100000
	maxCode = 999999
)

var span = big.NewInt(maxCode - minCode + 1)

// Generator draws codes uniformly from [100000, 999999].
type Generator struct {
	expiryMinutes int
	random        io.Reader
}

func NewGenerator(expiryMinutes int) *Generator {
	return &Generator{expiryMinutes: expiryMinutes, random: rand.Reader}
}

func (g *Generator) Next() (string, error) {
	n, err := rand.Int(g.random, span)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+minCode, 10), nil
}

// ExpiryFrom returns now plus the configured expiry window.
func (g *Generator) ExpiryFrom(now time.Time) time.Time {
	return ExpiryFrom(now, g.expiryMinutes)
}

func ExpiryFrom(now time.Time, minutes int) time.Time {
	return now.Add(time.Duration(minutes) * time.Minute)
}
