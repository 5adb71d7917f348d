// Package engine implements the offline-first synchronization engine: the
// component that decides, for every read and write, which of the two
// stores to use, reconciles divergent state after reconnect, and keeps
// per-user data isolated across the three identity states.
package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pocketsync/pocketsync/internal/connectivity"
	syncerrors "github.com/pocketsync/pocketsync/internal/errors"
	"github.com/pocketsync/pocketsync/internal/identity"
	"github.com/pocketsync/pocketsync/internal/model"
	"github.com/pocketsync/pocketsync/internal/store"
)

// IdentitySource exposes the current session; satisfied by
// *identity.Manager.
type IdentitySource interface {
	Current() identity.Session
}

// Connectivity exposes the current reachability; satisfied by
// *connectivity.Monitor.
type Connectivity interface {
	Reachable() bool
}

// handlerTimeout bounds store access performed from identity and
// connectivity event handlers, which have no caller-provided context.
const handlerTimeout = 30 * time.Second

// Engine orchestrates reads and writes across the local durable store and
// the remote authoritative store. It is the sole writer of the in-memory
// item cache; everything downstream reads snapshots via Items.
//
// All four public operations and both event handlers are serialized by a
// single mutex so a reconciliation sweep cannot interleave with a
// concurrent create or delete on the same user's data.
type Engine struct {
	mu    sync.Mutex
	cache []model.Item

	local  store.Local
	remote store.Remote
	ident  IdentitySource
	conn   Connectivity

	clock *clock
	log   zerolog.Logger
}

// New constructs an Engine with injected collaborators.
func New(local store.Local, remote store.Remote, ident IdentitySource, conn Connectivity, log zerolog.Logger) *Engine {
	return &Engine{
		local:  local,
		remote: remote,
		ident:  ident,
		conn:   conn,
		clock:  newClock(nil),
		log:    log.With().Str("component", "engine").Logger(),
	}
}

// SetNowFunc replaces the wall-clock source. For tests.
func (e *Engine) SetNowFunc(now func() time.Time) { e.clock = newClock(now) }

// online reports whether the remote store can be used right now. A nil
// remote store (no service configured) pins the engine offline no matter
// what the connectivity source says.
func (e *Engine) online() bool { return e.remote != nil && e.conn.Reachable() }

// Items returns a copy of the in-memory cache, ordered as loaded.
func (e *Engine) Items() []model.Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.Item, len(e.cache))
	copy(out, e.cache)
	return out
}

// Create validates and stores a new item, routing by identity state and
// connectivity:
//
//   - guest: appended to the in-memory cache only, never touching a store;
//   - authenticated online: written through the remote store, which
//     assigns the canonical ID; the record is persisted back with that ID
//     as its own field and cache plus local mirror refresh from remote;
//   - authenticated offline: written to the local store under a freshly
//     minted pending ID;
//   - signed out: rejected with ErrAuthRequired before any store access.
//
// A transient failure of the remote insert itself falls back to the
// offline path, so the item lands in the local store with a pending ID
// instead of being lost. Once the insert succeeded the record is
// canonical; later failures in the same call only degrade the refresh.
func (e *Engine) Create(ctx context.Context, name, location string) (model.Item, error) {
	if err := model.ValidateName(name); err != nil {
		opsTotal.WithLabelValues("create", outcomeRejected).Inc()
		return model.Item{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sess := e.ident.Current()
	item := model.Item{
		Name:      strings.TrimSpace(name),
		Location:  strings.TrimSpace(location),
		Timestamp: e.clock.Now(),
		UserID:    sess.UserID,
	}

	switch sess.State {
	case identity.SignedOut:
		opsTotal.WithLabelValues("create", outcomeRejected).Inc()
		return model.Item{}, syncerrors.ErrAuthRequired

	case identity.Guest:
		item.ID = model.NewGuestID()
		e.cache = append(e.cache, item)
		cacheSize.Set(float64(len(e.cache)))
		opsTotal.WithLabelValues("create", outcomeOK).Inc()
		return item, nil

	default: // Authenticated
		if e.online() {
			created, err := e.createOnline(ctx, item)
			if err == nil {
				opsTotal.WithLabelValues("create", outcomeOK).Inc()
				return created, nil
			}
			if !syncerrors.IsTransient(err) {
				opsTotal.WithLabelValues("create", outcomeError).Inc()
				return model.Item{}, err
			}
			// Flaky connectivity: treat the failed online write as
			// offline and keep the item locally under a pending ID.
			e.log.Warn().Err(err).Msg("online create failed; falling back to local store")
			opsTotal.WithLabelValues("create", outcomeFallback).Inc()
		}

		created, err := e.createOffline(ctx, item)
		if err != nil {
			opsTotal.WithLabelValues("create", outcomeError).Inc()
			return model.Item{}, err
		}
		opsTotal.WithLabelValues("create", outcomeOK).Inc()
		return created, nil
	}
}

func (e *Engine) createOnline(ctx context.Context, item model.Item) (model.Item, error) {
	id, err := e.remote.Insert(ctx, item)
	if err != nil {
		return model.Item{}, err
	}
	item.ID = id
	// Persist the assigned ID back into the record so reads are
	// self-describing. Failure here is non-fatal: the record exists
	// remotely and the next reconcile upserts the mirrored copy.
	if err := e.remote.Upsert(ctx, id, item); err != nil {
		e.log.Warn().Err(err).Stringer("id", id).Msg("id write-back failed")
	}
	// The canonical record now exists remotely. A failed refresh must
	// not surface as a create failure: the caller would fall back to the
	// offline path and mint a pending duplicate of a record the next
	// sweep then inserts a second time.
	if err := e.loadLocked(ctx); err != nil {
		e.log.Warn().Err(err).Stringer("id", id).Msg("post-create refresh failed")
		e.setCache(append(e.cache, item))
	}
	return item, nil
}

func (e *Engine) createOffline(ctx context.Context, item model.Item) (model.Item, error) {
	item.ID = model.NewPendingID()
	if err := e.local.Put(ctx, item); err != nil {
		return model.Item{}, err
	}
	if err := e.loadFromLocalLocked(ctx); err != nil {
		return model.Item{}, err
	}
	return item, nil
}

// Delete removes an item. Routing mirrors Create. Deleting an ID that does
// not exist anywhere is a silent no-op so repeated deletes are safe.
func (e *Engine) Delete(ctx context.Context, id model.ItemID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess := e.ident.Current()
	switch sess.State {
	case identity.SignedOut:
		opsTotal.WithLabelValues("delete", outcomeRejected).Inc()
		return syncerrors.ErrAuthRequired

	case identity.Guest:
		e.removeFromCache(id)
		opsTotal.WithLabelValues("delete", outcomeOK).Inc()
		return nil

	default: // Authenticated
		if id.Kind() == model.KindGuest {
			// Guest records never reach a store and cannot exist in an
			// authenticated cache; nothing to do.
			opsTotal.WithLabelValues("delete", outcomeOK).Inc()
			return nil
		}
		if err := e.deleteAuthenticated(ctx, id); err != nil {
			opsTotal.WithLabelValues("delete", outcomeError).Inc()
			return err
		}
		opsTotal.WithLabelValues("delete", outcomeOK).Inc()
		return nil
	}
}

func (e *Engine) deleteAuthenticated(ctx context.Context, id model.ItemID) error {
	if e.online() {
		if err := e.remote.Delete(ctx, id); err != nil && !syncerrors.IsNotFound(err) {
			return err
		}
		// Defensively drop any stale mirror copy as well.
		if err := e.local.Delete(ctx, id); err != nil {
			e.log.Warn().Err(err).Stringer("id", id).Msg("stale mirror cleanup failed")
		}
		return e.loadLocked(ctx)
	}

	if err := e.local.Delete(ctx, id); err != nil {
		return err
	}
	return e.loadFromLocalLocked(ctx)
}

// Load refreshes the in-memory cache from the correct source for the
// current identity and connectivity state.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.loadLocked(ctx); err != nil {
		opsTotal.WithLabelValues("load", outcomeError).Inc()
		return err
	}
	opsTotal.WithLabelValues("load", outcomeOK).Inc()
	return nil
}

func (e *Engine) loadLocked(ctx context.Context) error {
	sess := e.ident.Current()
	switch sess.State {
	case identity.Guest:
		// Cache is already authoritative for a guest session.
		return nil
	case identity.SignedOut:
		e.setCache(nil)
		return nil
	}

	if !e.online() {
		return e.loadFromLocalLocked(ctx)
	}

	items, err := e.remote.QueryByOwner(ctx, sess.UserID)
	if err != nil {
		return err
	}
	items = e.owned(items, sess.UserID)
	e.setCache(items)

	// Mirror the full result set into the local store: clear-then-rewrite
	// rather than an incremental diff. Item counts are small.
	if err := e.local.Clear(ctx); err != nil {
		return err
	}
	for _, it := range items {
		if err := e.local.Put(ctx, it); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) loadFromLocalLocked(ctx context.Context) error {
	sess := e.ident.Current()
	all, err := e.local.GetAll(ctx)
	if err != nil {
		return err
	}
	e.setCache(e.owned(all, sess.UserID))
	return nil
}

// Reconcile pushes locally-held records for the active user to the remote
// store: remote-assigned IDs are upserted as a safety net, pending IDs are
// inserted so the service assigns a canonical ID which is then written
// back, retiring the pending ID for good. Each item is attempted
// independently; failures are logged and the sweep continues. When the
// user has no local records the whole call is a no-op with zero network
// access; when records exist but no remote store is configured the call
// fails with ErrRemoteDisabled. After a sweep the cache and mirror
// resynchronize from remote.
func (e *Engine) Reconcile(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	swept, err := e.reconcileLocked(ctx)
	if err != nil {
		opsTotal.WithLabelValues("reconcile", outcomeError).Inc()
		return err
	}
	if swept == 0 {
		opsTotal.WithLabelValues("reconcile", outcomeOK).Inc()
		return nil
	}
	if err := e.loadLocked(ctx); err != nil {
		opsTotal.WithLabelValues("reconcile", outcomeError).Inc()
		return err
	}
	opsTotal.WithLabelValues("reconcile", outcomeOK).Inc()
	return nil
}

// reconcileLocked runs the sweep and reports how many records it
// considered. It does not refresh the cache; callers decide whether a
// load should follow.
func (e *Engine) reconcileLocked(ctx context.Context) (int, error) {
	sess := e.ident.Current()
	if sess.State != identity.Authenticated {
		return 0, nil
	}

	all, err := e.local.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	mine := e.owned(all, sess.UserID)
	if len(mine) == 0 {
		return 0, nil
	}
	if e.remote == nil {
		return 0, syncerrors.ErrRemoteDisabled
	}

	e.log.Info().Int("records", len(mine)).Str("user", sess.UserID).Msg("reconciliation sweep starting")

	for _, it := range mine {
		switch it.ID.Kind() {
		case model.KindRemote:
			// Safety net for records whose original online write may not
			// have completed. Remote wins on conflicting fields.
			if err := e.remote.Upsert(ctx, it.ID, it); err != nil {
				e.log.Warn().Err(err).Stringer("id", it.ID).Msg("reconcile upsert failed")
				reconcileItemsTotal.WithLabelValues("failed").Inc()
				continue
			}
			reconcileItemsTotal.WithLabelValues("upserted").Inc()

		case model.KindPending:
			newID, err := e.remote.Insert(ctx, it)
			if err != nil {
				e.log.Warn().Err(err).Stringer("id", it.ID).Msg("reconcile insert failed")
				reconcileItemsTotal.WithLabelValues("failed").Inc()
				continue
			}
			corrected := it
			corrected.ID = newID
			if err := e.remote.Upsert(ctx, newID, corrected); err != nil {
				e.log.Warn().Err(err).Stringer("id", newID).Msg("reconcile id write-back failed")
				reconcileItemsTotal.WithLabelValues("failed").Inc()
				continue
			}
			// Retire the pending ID so it can never reappear, even if the
			// mirror rewrite below is interrupted.
			if err := e.local.Delete(ctx, it.ID); err != nil {
				e.log.Warn().Err(err).Stringer("id", it.ID).Msg("pending record cleanup failed")
			}
			reconcileItemsTotal.WithLabelValues("inserted").Inc()

		default:
			// Guest records must never be in a durable store; scrub.
			e.log.Error().Stringer("id", it.ID).Msg("guest record found in local store, scrubbing")
			_ = e.local.Delete(ctx, it.ID)
			reconcileItemsTotal.WithLabelValues("scrubbed").Inc()
		}
	}
	return len(mine), nil
}

// HandleIdentityEvent applies the engine-owned side effects of an
// identity transition: entering Authenticated reloads that user's items
// from the best available store (reconciling first when online so pending
// records survive the mirror rewrite); entering Guest resets the cache to
// empty and freezes persistence; entering SignedOut clears the cache.
// Guest data is discarded on any transition away from Guest because the
// cache is replaced wholesale.
func (e *Engine) HandleIdentityEvent(ev identity.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	e.mu.Lock()
	defer e.mu.Unlock()

	switch ev.Session.State {
	case identity.Authenticated:
		if e.online() {
			if _, err := e.reconcileLocked(ctx); err != nil {
				e.log.Warn().Err(err).Msg("sign-in reconcile failed")
			}
		}
		if err := e.loadLocked(ctx); err != nil {
			e.log.Warn().Err(err).Msg("sign-in load failed")
		}
	case identity.Guest:
		e.setCache([]model.Item{})
	case identity.SignedOut:
		e.setCache(nil)
	}
}

// HandleConnectivityEvent runs the reconciliation sweep when connectivity
// returns while a user is signed in. Loss of connectivity only affects
// status reporting and triggers nothing here.
func (e *Engine) HandleConnectivityEvent(ev connectivity.Event) {
	if ev != connectivity.BecameReachable {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ident.Current().State != identity.Authenticated {
		return
	}
	swept, err := e.reconcileLocked(ctx)
	if err != nil {
		e.log.Warn().Err(err).Msg("reconnect reconcile failed")
		return
	}
	if swept == 0 {
		return
	}
	if err := e.loadLocked(ctx); err != nil {
		e.log.Warn().Err(err).Msg("post-reconcile load failed")
	}
}

func (e *Engine) setCache(items []model.Item) {
	e.cache = items
	cacheSize.Set(float64(len(items)))
}

func (e *Engine) removeFromCache(id model.ItemID) {
	kept := e.cache[:0]
	for _, it := range e.cache {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	e.cache = kept
	cacheSize.Set(float64(len(e.cache)))
}

// owned filters records to the given owner. A record with a different
// owner in a store is an isolation violation; it is dropped and logged.
func (e *Engine) owned(items []model.Item, userID string) []model.Item {
	out := items[:0]
	for _, it := range items {
		if it.UserID == userID {
			out = append(out, it)
			continue
		}
		e.log.Warn().Stringer("id", it.ID).Str("owner", it.UserID).Str("user", userID).
			Msg("dropping record owned by another user")
	}
	return out
}
