package uuidx

import "github.com/google/uuid"

// New returns a fresh version 7 UUID, panicking if generation fails.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NewString returns a fresh version 7 UUID rendered as a string. Endpoint,
// frame and subscription identities use these; v7 keeps them time-ordered.
func NewString() string {
	return New().String()
}
