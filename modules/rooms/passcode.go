package rooms

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// PasscodeHasher hashes and verifies room passcodes with bcrypt.
type PasscodeHasher struct {
	cost int
}

// NewPasscodeHasher creates a hasher with the default cost.
func NewPasscodeHasher() *PasscodeHasher {
	return &PasscodeHasher{cost: bcryptCost}
}

// Hash returns the bcrypt hash of a passcode.
func (h *PasscodeHasher) Hash(passcode string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash passcode: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether a passcode matches a stored hash.
func (h *PasscodeHasher) Verify(passcode, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(passcode)) == nil
}
