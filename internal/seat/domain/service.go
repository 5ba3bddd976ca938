package domain

import (
	"context"
	"encoding/json"
	"errors"
)

// SyncResult counts the outcome of one seat sync.
type SyncResult struct {
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
}

type Service interface {
	// Sync inserts unseen seats and patches changed mutable fields of known ones.
	// Seats missing upstream are left in place.
	Sync(ctx context.Context, seats []json.RawMessage) (SyncResult, error)
}

var (
	ErrInvalidSeat     = errors.New("invalid_seat")
	ErrMissingIdentity = errors.New("missing_seat_identity")
)
