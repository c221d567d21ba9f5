package pkguid

import (
	"log/slog"

	"github.com/google/uuid"
)

// UUID mints version 7 UUIDs. They are used for request correlation ids and
// insight event ids, where time ordering makes logs easier to follow.
type UUID struct{}

func NewUUID() *UUID {
	return &UUID{}
}

// Generate falls back to a random v4 UUID if the v7 clock source fails.
func (u *UUID) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		slog.Warn("uuid v7 unavailable, using v4", "error", err)
		return uuid.NewString()
	}
	return id.String()
}
