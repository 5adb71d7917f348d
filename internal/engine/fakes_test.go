package engine_test

import (
	"context"
	"fmt"
	"sort"
	"sync"

	syncerrors "github.com/pocketsync/pocketsync/internal/errors"
	"github.com/pocketsync/pocketsync/internal/identity"
	"github.com/pocketsync/pocketsync/internal/model"
)

// fakeLocal is an in-memory store.Local that preserves insertion order and
// counts calls so tests can assert an operation never touched it.
type fakeLocal struct {
	mu    sync.Mutex
	items []model.Item
	calls map[string]int
}

func newFakeLocal() *fakeLocal {
	return &fakeLocal{calls: make(map[string]int)}
}

func (f *fakeLocal) Put(_ context.Context, item model.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["put"]++
	for i, it := range f.items {
		if it.ID == item.ID {
			f.items[i] = item
			return nil
		}
	}
	f.items = append(f.items, item)
	return nil
}

func (f *fakeLocal) GetAll(_ context.Context) ([]model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["getAll"]++
	out := make([]model.Item, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *fakeLocal) Delete(_ context.Context, id model.ItemID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["delete"]++
	kept := f.items[:0]
	for _, it := range f.items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	f.items = kept
	return nil
}

func (f *fakeLocal) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["clear"]++
	f.items = nil
	return nil
}

func (f *fakeLocal) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeLocal) snapshot() []model.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Item, len(f.items))
	copy(out, f.items)
	return out
}

// fakeRemote is an in-memory store.Remote with per-operation failure
// injection keyed on the item name, mimicking a flaky item service.
type fakeRemote struct {
	mu     sync.Mutex
	items  map[model.ItemID]model.Item
	nextID int
	calls  map[string]int

	// failWhen, when non-nil, is consulted before every operation; a
	// non-nil return aborts the call with that error.
	failWhen func(op string, item model.Item) error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		items: make(map[model.ItemID]model.Item),
		calls: make(map[string]int),
	}
}

func (f *fakeRemote) fail(op string, item model.Item) error {
	if f.failWhen == nil {
		return nil
	}
	return f.failWhen(op, item)
}

func (f *fakeRemote) Insert(_ context.Context, item model.Item) (model.ItemID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["insert"]++
	if err := f.fail("insert", item); err != nil {
		return model.ItemID{}, err
	}
	f.nextID++
	id := model.RemoteID(fmt.Sprintf("r-%d", f.nextID))
	item.ID = id
	f.items[id] = item
	return id, nil
}

func (f *fakeRemote) Upsert(_ context.Context, id model.ItemID, item model.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["upsert"]++
	if err := f.fail("upsert", item); err != nil {
		return err
	}
	item.ID = id
	f.items[id] = item
	return nil
}

func (f *fakeRemote) QueryByOwner(_ context.Context, userID string) ([]model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["query"]++
	if err := f.fail("query", model.Item{UserID: userID}); err != nil {
		return nil, err
	}
	var out []model.Item
	for _, it := range f.items {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (f *fakeRemote) Delete(_ context.Context, id model.ItemID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["delete"]++
	if err := f.fail("delete", model.Item{ID: id}); err != nil {
		return err
	}
	if _, ok := f.items[id]; !ok {
		return syncerrors.NewHTTPError("remote.delete", 404)
	}
	delete(f.items, id)
	return nil
}

func (f *fakeRemote) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeRemote) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, it := range f.items {
		out = append(out, it.Name)
	}
	sort.Strings(out)
	return out
}

func (f *fakeRemote) has(id model.ItemID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.items[id]
	return ok
}

// fakeIdentity and fakeConn let tests pin the engine's view of the world.
type fakeIdentity struct {
	mu   sync.Mutex
	sess identity.Session
}

func (f *fakeIdentity) Current() identity.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sess
}

func (f *fakeIdentity) set(sess identity.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sess = sess
}

type fakeConn struct {
	mu     sync.Mutex
	online bool
}

func (f *fakeConn) Reachable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online
}

func (f *fakeConn) set(online bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online = online
}
