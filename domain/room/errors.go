package room

import "errors"

// Sentinel errors for room operations. Callers classify with errors.Is; the
// service boundary maps each one to a wire code so the kind survives
// serialization.
var (
	// ErrValidation is returned for malformed input (empty name, body too
	// long, TTL out of bounds). Never retried.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when no record exists for a room id.
	ErrNotFound = errors.New("room not found")

	// ErrRoomExpired is returned when an operation touches a room whose
	// expiry has passed. Triggers reclamation.
	ErrRoomExpired = errors.New("room expired")

	// ErrInvalidPasscode is returned when a join attempt fails the
	// passcode check.
	ErrInvalidPasscode = errors.New("invalid passcode")

	// ErrNameTaken is returned when a display name is already admitted to
	// the room.
	ErrNameTaken = errors.New("display name already taken")

	// ErrConflict is returned when a version-checked write lost a race with
	// a concurrent writer. Callers re-read and retry.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrIDExhausted is returned when id generation keeps colliding with
	// existing rooms.
	ErrIDExhausted = errors.New("room id space exhausted")
)
