package model

import (
	"encoding/json"
	"testing"

	syncerrors "github.com/pocketsync/pocketsync/internal/errors"
)

func TestParseItemID_Namespaces(t *testing.T) {
	cases := []struct {
		in   string
		kind IDKind
		val  string
	}{
		{"r-42", KindRemote, "r-42"},
		{"pending/abc", KindPending, "abc"},
		{"guest/xyz", KindGuest, "xyz"},
		{"with/slash", KindRemote, "with/slash"},
	}
	for _, c := range cases {
		id, err := ParseItemID(c.in)
		if err != nil {
			t.Fatalf("ParseItemID(%q): %v", c.in, err)
		}
		if id.Kind() != c.kind || id.Value() != c.val {
			t.Fatalf("ParseItemID(%q) = %s/%q, want %s/%q", c.in, id.Kind(), id.Value(), c.kind, c.val)
		}
		if id.String() != c.in {
			t.Fatalf("round trip of %q produced %q", c.in, id.String())
		}
	}
}

func TestParseItemID_Rejects(t *testing.T) {
	for _, in := range []string{"", "pending/", "guest/"} {
		if _, err := ParseItemID(in); err == nil {
			t.Fatalf("ParseItemID(%q) succeeded, want error", in)
		}
	}
}

func TestMintedIDs_AreDistinctAndTagged(t *testing.T) {
	a, b := NewPendingID(), NewPendingID()
	if a == b {
		t.Fatal("two minted pending ids collided")
	}
	if a.Kind() != KindPending {
		t.Fatalf("unexpected kind %s", a.Kind())
	}
	if g := NewGuestID(); g.Kind() != KindGuest {
		t.Fatalf("unexpected kind %s", g.Kind())
	}
}

func TestItemID_JSONRoundTrip(t *testing.T) {
	item := Item{ID: RemoteID("r-7"), Name: "Wallet"}
	b, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Item
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.ID != item.ID {
		t.Fatalf("id changed across JSON: %s != %s", back.ID, item.ID)
	}

	if _, err := json.Marshal(Item{Name: "no id"}); err == nil {
		t.Fatal("zero ID must not marshal")
	}
}

func TestValidateName(t *testing.T) {
	if err := ValidateName("Keys"); err != nil {
		t.Fatalf("valid name rejected: %v", err)
	}
	for _, bad := range []string{"", "   ", "\t\n"} {
		err := ValidateName(bad)
		if !syncerrors.IsValidation(err) {
			t.Fatalf("ValidateName(%q) = %v, want validation error", bad, err)
		}
	}
}
