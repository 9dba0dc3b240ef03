package utils // package utils provides helpers for guest access codes

import (
	"crypto/rand"  // secure random number generation
	"encoding/hex" // hex encoding for code strings
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// NewAccessCode returns a random code handed to a guest at booking time.
// The code is shown exactly once; only its bcrypt hash is stored, so a
// leaked database row cannot be used to manage the booking.
func NewAccessCode() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}

// HashAccessCode returns the bcrypt hash of a guest access code.
func HashAccessCode(code string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(strings.ToUpper(strings.TrimSpace(code))), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyAccessCode safely compares a stored hash and a presented code.
func VerifyAccessCode(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash),
		[]byte(strings.ToUpper(strings.TrimSpace(code)))) == nil
}
