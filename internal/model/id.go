package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// IDKind partitions item identifiers into the three namespaces the sync
// engine routes on. The namespace of an ID fully determines which store(s)
// may legitimately hold the record.
type IDKind int

const (
	// KindInvalid is the zero value; no valid ItemID carries it.
	KindInvalid IDKind = iota

	// KindRemote is an opaque identifier assigned by the remote store.
	KindRemote

	// KindPending is minted locally for records created while offline and
	// not yet known to the remote store.
	KindPending

	// KindGuest is minted for guest-session records that live only in the
	// in-memory cache and never reach a durable store.
	KindGuest
)

func (k IDKind) String() string {
	switch k {
	case KindRemote:
		return "remote"
	case KindPending:
		return "pending"
	case KindGuest:
		return "guest"
	default:
		return fmt.Sprintf("invalid(%d)", int(k))
	}
}

const (
	pendingPrefix = "pending/"
	guestPrefix   = "guest/"
)

// ItemID is a tagged item identifier: a namespace kind plus an opaque value.
// The zero value is invalid. Encoded form is the raw value for remote IDs
// and a reserved prefix for the two local namespaces; remote stores never
// assign IDs containing '/'.
type ItemID struct {
	kind  IDKind
	value string
}

// RemoteID wraps an identifier assigned by the remote store.
func RemoteID(v string) ItemID { return ItemID{kind: KindRemote, value: v} }

// NewPendingID mints a fresh pending-namespace identifier.
func NewPendingID() ItemID { return ItemID{kind: KindPending, value: uuid.New().String()} }

// NewGuestID mints a fresh guest-namespace identifier.
func NewGuestID() ItemID { return ItemID{kind: KindGuest, value: uuid.New().String()} }

// ParseItemID decodes the string form produced by String.
func ParseItemID(s string) (ItemID, error) {
	switch {
	case s == "":
		return ItemID{}, fmt.Errorf("empty item id")
	case strings.HasPrefix(s, pendingPrefix):
		v := strings.TrimPrefix(s, pendingPrefix)
		if v == "" {
			return ItemID{}, fmt.Errorf("pending id missing value")
		}
		return ItemID{kind: KindPending, value: v}, nil
	case strings.HasPrefix(s, guestPrefix):
		v := strings.TrimPrefix(s, guestPrefix)
		if v == "" {
			return ItemID{}, fmt.Errorf("guest id missing value")
		}
		return ItemID{kind: KindGuest, value: v}, nil
	default:
		return ItemID{kind: KindRemote, value: s}, nil
	}
}

// Kind reports the namespace of the identifier.
func (id ItemID) Kind() IDKind { return id.kind }

// Value returns the opaque value without the namespace prefix.
func (id ItemID) Value() string { return id.value }

// IsZero reports whether id is the invalid zero value.
func (id ItemID) IsZero() bool { return id.kind == KindInvalid }

// String renders the storage/wire encoding of the identifier.
func (id ItemID) String() string {
	switch id.kind {
	case KindPending:
		return pendingPrefix + id.value
	case KindGuest:
		return guestPrefix + id.value
	default:
		return id.value
	}
}

// MarshalText encodes the ID as its string form so item records are
// self-describing in JSON and in store rows.
func (id ItemID) MarshalText() ([]byte, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("cannot marshal zero item id")
	}
	return []byte(id.String()), nil
}

// UnmarshalText decodes the string form.
func (id *ItemID) UnmarshalText(b []byte) error {
	parsed, err := ParseItemID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
