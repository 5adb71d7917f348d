package identity

import "testing"

func TestManager_StartsSignedOut(t *testing.T) {
	t.Parallel()
	m := NewManager()
	if got := m.Current(); got.State != SignedOut || got.UserID != "" {
		t.Fatalf("unexpected initial session: %+v", got)
	}
}

func TestManager_TransitionsEmitEvents(t *testing.T) {
	t.Parallel()
	m := NewManager()

	var events []Event
	m.Subscribe(func(ev Event) { events = append(events, ev) })

	m.SignIn("u-1")
	m.ContinueAsGuest()
	m.SignOut()

	if len(events) != 3 {
		t.Fatalf("want 3 events, got %d", len(events))
	}
	if events[0].Session.State != Authenticated || events[0].Session.UserID != "u-1" {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].Session.State != Guest {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
	if events[2].Session.State != SignedOut {
		t.Fatalf("unexpected third event: %+v", events[2])
	}
}

func TestManager_RedeliverySuppressed(t *testing.T) {
	t.Parallel()
	m := NewManager()

	var count int
	m.Subscribe(func(Event) { count++ })

	m.SignIn("u-1")
	m.SignIn("u-1") // same user, no transition
	if count != 1 {
		t.Fatalf("want 1 event for repeated sign-in, got %d", count)
	}

	m.SignIn("u-2") // different user is a real transition
	if count != 2 {
		t.Fatalf("want 2 events after user switch, got %d", count)
	}

	m.SignOut()
	m.SignOut()
	if count != 3 {
		t.Fatalf("want 3 events after repeated sign-out, got %d", count)
	}
}
