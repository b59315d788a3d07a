package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a new time-ordered unique identifier string.
// Bolt iterates keys in byte order, so listings come back in creation order.
func GenerateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
