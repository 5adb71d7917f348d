package pocketsync

import "github.com/pocketsync/pocketsync/internal/model"

// Public type aliases so SDK consumers can import only the pocketsync
// package.
type (
	// Item is a tracked personal item and its last known location.
	Item = model.Item

	// ItemID is the tagged identifier carried by every Item.
	ItemID = model.ItemID
)

// Errors re-exported in errors.go.
