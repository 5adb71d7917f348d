// Package model holds the item record, its tagged identifier type and the
// identity session states shared across the sync engine and store adapters.
package model

import (
	"strings"
	"time"

	syncerrors "github.com/pocketsync/pocketsync/internal/errors"
)

// Item is the only persisted entity: something the user put in a pocket.
// UserID is empty for guest-session records, which never reach a store.
type Item struct {
	ID        ItemID    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"userId,omitempty"`
}

// ValidateName rejects empty or whitespace-only item names. Creation must
// fail before any store access when this returns an error.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &syncerrors.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	return nil
}
