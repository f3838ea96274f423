// Package secret generates random signing secrets for the web
// application's cryptographic configuration.
//
// The generator reads from the operating system's secure randomness
// source (crypto/rand) and filters the byte stream down to a fixed
// alphabet. Because every byte is drawn uniformly from 0-255 and
// out-of-alphabet bytes are simply discarded, the accepted characters
// remain uniformly distributed — no modulo arithmetic, no bias.
package secret

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// Alphabet is the set of characters a generated secret is drawn from:
// lowercase letters, digits, and a punctuation set that is safe to paste
// into .env files and YAML without quoting surprises.
const Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*(-_=+)"

// DefaultLength is the length of a generated secret in characters.
// 50 characters over a 50-symbol alphabet is ~282 bits of entropy,
// comfortably above any signing-key requirement.
const DefaultLength = 50

// Generate returns one random secret of DefaultLength characters.
// The only error condition is a failure of the OS randomness source.
func Generate() (string, error) {
	return GenerateN(DefaultLength)
}

// GenerateN returns one random secret of exactly n characters drawn
// from Alphabet. n must be at least 1.
func GenerateN(n int) (string, error) {
	if n < 1 {
		return "", fmt.Errorf("secret length must be at least 1, got %d", n)
	}

	out := make([]byte, 0, n)

	// Read randomness in blocks. Each block yields roughly
	// len(Alphabet)/256 usable bytes, so a handful of reads suffices
	// for any realistic length.
	buf := make([]byte, 64)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("reading from randomness source: %w", err)
		}
		for _, b := range buf {
			// Rejection sampling: keep the byte only if its ASCII
			// value is a member of the alphabet. Discarding the rest
			// preserves uniformity among accepted characters.
			if strings.IndexByte(Alphabet, b) < 0 {
				continue
			}
			out = append(out, b)
			if len(out) == n {
				break
			}
		}
	}

	return string(out), nil
}
