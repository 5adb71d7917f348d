package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pocketsync/pocketsync/internal/engine"
	syncerrors "github.com/pocketsync/pocketsync/internal/errors"
	"github.com/pocketsync/pocketsync/internal/identity"
	"github.com/pocketsync/pocketsync/internal/model"
)

type world struct {
	eng    *engine.Engine
	local  *fakeLocal
	remote *fakeRemote
	ident  *fakeIdentity
	conn   *fakeConn
}

func newWorld(t *testing.T) *world {
	t.Helper()
	w := &world{
		local:  newFakeLocal(),
		remote: newFakeRemote(),
		ident:  &fakeIdentity{},
		conn:   &fakeConn{},
	}
	w.eng = engine.New(w.local, w.remote, w.ident, w.conn, zerolog.Nop())

	// Deterministic, strictly increasing timestamps.
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	step := 0
	w.eng.SetNowFunc(func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Second)
	})
	return w
}

func (w *world) signIn(user string) { w.ident.set(identity.Session{State: identity.Authenticated, UserID: user}) }
func (w *world) guest()             { w.ident.set(identity.Session{State: identity.Guest}) }
func (w *world) signOut()           { w.ident.set(identity.Session{State: identity.SignedOut}) }

func TestCreate_ValidatesBeforeAnyStoreAccess(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	w.signIn("u-1")
	w.conn.set(true)

	for _, name := range []string{"", "   ", "\t\n"} {
		if _, err := w.eng.Create(context.Background(), name, "somewhere"); !syncerrors.IsValidation(err) {
			t.Fatalf("Create(%q): want validation error, got %v", name, err)
		}
	}
	if n := w.local.callCount() + w.remote.callCount(); n != 0 {
		t.Fatalf("validation failures must not touch stores, saw %d calls", n)
	}
}

func TestCreate_SignedOutRejectedWithoutStoreAccess(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	w.signOut()

	_, err := w.eng.Create(context.Background(), "Wallet", "")
	if !syncerrors.IsAuthRequired(err) {
		t.Fatalf("want auth-required, got %v", err)
	}
	if err := w.eng.Delete(context.Background(), model.RemoteID("r-1")); !syncerrors.IsAuthRequired(err) {
		t.Fatalf("delete: want auth-required, got %v", err)
	}
	if n := w.local.callCount() + w.remote.callCount(); n != 0 {
		t.Fatalf("signed-out writes must not touch stores, saw %d calls", n)
	}
}

func TestCreateThenLoad_AuthenticatedOnline(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	w.signIn("u-1")
	w.conn.set(true)
	ctx := context.Background()

	created, err := w.eng.Create(ctx, "Wallet", "Jacket pocket")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID.Kind() != model.KindRemote {
		t.Fatalf("online create must carry a remote-assigned id, got %v", created.ID.Kind())
	}

	if err := w.eng.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	items := w.eng.Items()
	if len(items) != 1 {
		t.Fatalf("want exactly 1 cached item, got %d", len(items))
	}
	got := items[0]
	if got.Name != "Wallet" || got.Location != "Jacket pocket" || got.UserID != "u-1" {
		t.Fatalf("fields not preserved: %+v", got)
	}
	if !got.Timestamp.Equal(created.Timestamp) {
		t.Fatalf("timestamp not preserved: %v vs %v", got.Timestamp, created.Timestamp)
	}

	// The local store mirrors the remote result set.
	mirror := w.local.snapshot()
	if len(mirror) != 1 || mirror[0].ID != created.ID {
		t.Fatalf("local mirror not refreshed from remote: %+v", mirror)
	}
}

func TestCreateThenLoad_AuthenticatedOffline(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	w.signIn("u-1")
	w.conn.set(false)
	ctx := context.Background()

	created, err := w.eng.Create(ctx, "Wallet", "Jacket pocket")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID.Kind() != model.KindPending {
		t.Fatalf("offline create must mint a pending id, got %v", created.ID.Kind())
	}
	if w.remote.callCount() != 0 {
		t.Fatal("offline create must not touch the remote store")
	}

	if err := w.eng.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	items := w.eng.Items()
	if len(items) != 1 || items[0].ID != created.ID || items[0].UserID != "u-1" {
		t.Fatalf("want exactly the pending record in cache, got %+v", items)
	}
}

func TestCreateThenLoad_Guest(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	w.guest()
	ctx := context.Background()

	created, err := w.eng.Create(ctx, "Keys", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID.Kind() != model.KindGuest {
		t.Fatalf("guest create must mint a guest id, got %v", created.ID.Kind())
	}
	if created.UserID != "" {
		t.Fatalf("guest record must carry the guest sentinel owner, got %q", created.UserID)
	}

	if err := w.eng.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	items := w.eng.Items()
	if len(items) != 1 || items[0].ID != created.ID {
		t.Fatalf("want exactly the guest record in cache, got %+v", items)
	}
	if n := w.local.callCount() + w.remote.callCount(); n != 0 {
		t.Fatalf("guest session must never touch a store, saw %d calls", n)
	}
}

func TestGuestCreateDelete_NoStoreCalls(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	w.guest()
	ctx := context.Background()

	created, err := w.eng.Create(ctx, "Keys", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := w.eng.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := w.eng.Items(); len(got) != 0 {
		t.Fatalf("cache must be empty after guest delete, got %+v", got)
	}
	if n := w.local.callCount() + w.remote.callCount(); n != 0 {
		t.Fatalf("guest create+delete must make zero store calls, saw %d", n)
	}
}

func TestDelete_IdempotentAndSilentOnMissing(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	w.signIn("u-1")
	w.conn.set(true)
	ctx := context.Background()

	created, err := w.eng.Create(ctx, "Wallet", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := w.eng.Delete(ctx, created.ID); err != nil {
		t.Fatalf("first Delete: %v", err)
	}
	after := w.eng.Items()
	if err := w.eng.Delete(ctx, created.ID); err != nil {
		t.Fatalf("second Delete must be a no-op, got %v", err)
	}
	if got := w.eng.Items(); len(got) != len(after) {
		t.Fatalf("second delete changed state: %+v vs %+v", got, after)
	}

	// Deleting an ID that never existed is silent too.
	if err := w.eng.Delete(ctx, model.RemoteID("never-created")); err != nil {
		t.Fatalf("delete of unknown id: %v", err)
	}
	if got := w.eng.Items(); len(got) != 0 {
		t.Fatalf("cache changed by no-op delete: %+v", got)
	}
}

func TestDelete_OfflineUsesLocalOnly(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	w.signIn("u-1")
	w.conn.set(false)
	ctx := context.Background()

	created, err := w.eng.Create(ctx, "Wallet", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := w.eng.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if w.remote.callCount() != 0 {
		t.Fatal("offline delete must not touch the remote store")
	}
	if got := w.eng.Items(); len(got) != 0 {
		t.Fatalf("cache not emptied: %+v", got)
	}
	if got := w.local.snapshot(); len(got) != 0 {
		t.Fatalf("local store not emptied: %+v", got)
	}
}

func TestCreateOnline_TransientFailureFallsBackToPending(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	w.signIn("u-1")
	w.conn.set(true)
	w.remote.failWhen = func(op string, _ model.Item) error {
		if op == "insert" {
			return syncerrors.NewNetworkError("remote.insert", context.DeadlineExceeded)
		}
		return nil
	}
	ctx := context.Background()

	created, err := w.eng.Create(ctx, "Wallet", "Jacket pocket")
	if err != nil {
		t.Fatalf("Create with flaky remote must fall back, got %v", err)
	}
	if created.ID.Kind() != model.KindPending {
		t.Fatalf("fallback must mint a pending id, got %v", created.ID)
	}
	local := w.local.snapshot()
	if len(local) != 1 || local[0].ID != created.ID {
		t.Fatalf("fallback record not in local store: %+v", local)
	}
	items := w.eng.Items()
	if len(items) != 1 || items[0].ID != created.ID {
		t.Fatalf("fallback record not in cache: %+v", items)
	}
}

func TestCreateOnline_RefreshFailureDoesNotDuplicate(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	w.signIn("u-1")
	w.conn.set(true)
	w.remote.failWhen = func(op string, _ model.Item) error {
		if op == "query" {
			return syncerrors.NewNetworkError("remote.query", context.DeadlineExceeded)
		}
		return nil
	}
	ctx := context.Background()

	// Insert succeeds; only the follow-up cache refresh fails. The
	// record is canonical remotely, so this must not become a pending
	// duplicate.
	created, err := w.eng.Create(ctx, "Wallet", "Jacket pocket")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID.Kind() != model.KindRemote {
		t.Fatalf("insert succeeded, ID must be remote-assigned: %v", created.ID)
	}
	items := w.eng.Items()
	if len(items) != 1 || items[0].ID != created.ID {
		t.Fatalf("created record missing from cache: %+v", items)
	}

	w.remote.failWhen = nil
	if err := w.eng.Reconcile(ctx); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if names := w.remote.names(); len(names) != 1 || names[0] != "Wallet" {
		t.Fatalf("remote holds the item %d times after reconcile: %v", len(names), names)
	}
}

func TestLoad_SignedOutClearsCache(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	w.guest()
	ctx := context.Background()

	if _, err := w.eng.Create(ctx, "Keys", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	w.signOut()
	if err := w.eng.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := w.eng.Items(); len(got) != 0 {
		t.Fatalf("signed-out load must clear cache, got %+v", got)
	}
}

func TestLoad_FiltersForeignRecords(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	w.signIn("u-1")
	w.conn.set(false)
	ctx := context.Background()

	// A foreign record in the local store must never surface for u-1.
	_ = w.local.Put(ctx, model.Item{
		ID: model.NewPendingID(), Name: "Badge", UserID: "u-2",
		Timestamp: time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
	})
	if _, err := w.eng.Create(ctx, "Wallet", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := w.eng.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, it := range w.eng.Items() {
		if it.UserID != "u-1" {
			t.Fatalf("foreign record leaked into cache: %+v", it)
		}
	}
}
