package rooms

import (
	"fmt"

	"github.com/jaevor/go-nanoid"
)

const (
	roomIDLength   = 12
	roomIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// newIDGenerator returns a function producing short URL-safe room ids.
func newIDGenerator() (func() string, error) {
	gen, err := nanoid.CustomASCII(roomIDAlphabet, roomIDLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create id generator: %w", err)
	}
	return gen, nil
}
