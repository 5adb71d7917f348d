// Package remote implements the remote authoritative store adapter over a
// JSON REST API. The service assigns opaque IDs on insert and scopes the
// collection per user.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	syncerrors "github.com/pocketsync/pocketsync/internal/errors"
	"github.com/pocketsync/pocketsync/internal/model"
)

// Store implements store.Remote against a pocketsync item service.
type Store struct {
	baseURL string
	http    *http.Client
}

// New constructs a Store for the given base URL and API key. When
// httpClient is nil a default client with a 30s timeout is used. The
// Store owns its own client, copied from the one supplied with the
// transport wrapped so every request carries the bearer key; the caller's
// client is left untouched.
func New(baseURL, apiKey string, httpClient *http.Client) *Store {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	owned := &http.Client{
		Transport:     &apiKeyTransport{base: base, apiKey: apiKey},
		CheckRedirect: httpClient.CheckRedirect,
		Jar:           httpClient.Jar,
		Timeout:       httpClient.Timeout,
	}
	return &Store{baseURL: baseURL, http: owned}
}

// apiKeyTransport wraps an http.RoundTripper to add the Authorization
// header to all requests using the configured API key.
type apiKeyTransport struct {
	base   http.RoundTripper
	apiKey string
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	cloned.Header.Set("Authorization", "Bearer "+t.apiKey)
	return t.base.RoundTrip(cloned)
}

// insertRequest deliberately omits the id field: the service assigns the
// canonical identifier.
type insertRequest struct {
	Name      string    `json:"name"`
	Location  string    `json:"location,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type listResponse struct {
	Items []model.Item `json:"items"`
	Count int          `json:"count"`
}

// Insert creates a record without an ID; the service assigns and returns
// the canonical remote ID.
func (s *Store) Insert(ctx context.Context, item model.Item) (model.ItemID, error) {
	if err := ctx.Err(); err != nil {
		return model.ItemID{}, err
	}
	body, err := json.Marshal(insertRequest{
		Name:      item.Name,
		Location:  item.Location,
		Timestamp: item.Timestamp,
	})
	if err != nil {
		return model.ItemID{}, err
	}
	u := fmt.Sprintf("%s/v1/users/%s/items", s.baseURL, url.PathEscape(item.UserID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return model.ItemID{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return model.ItemID{}, syncerrors.NewNetworkError("remote.insert", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return model.ItemID{}, syncerrors.NewHTTPError("remote.insert", resp.StatusCode)
	}
	var created model.Item
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return model.ItemID{}, fmt.Errorf("remote.insert: decode response: %w", err)
	}
	if created.ID.IsZero() || created.ID.Kind() != model.KindRemote {
		return model.ItemID{}, fmt.Errorf("remote.insert: service returned non-remote id %q", created.ID)
	}
	return created.ID, nil
}

// Upsert writes the record under the given ID, replacing any existing one.
func (s *Store) Upsert(ctx context.Context, id model.ItemID, item model.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	item.ID = id
	body, err := json.Marshal(item)
	if err != nil {
		return err
	}
	u := fmt.Sprintf("%s/v1/users/%s/items/%s", s.baseURL, url.PathEscape(item.UserID), url.PathEscape(id.String()))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return syncerrors.NewNetworkError("remote.upsert", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return syncerrors.NewHTTPError("remote.upsert", resp.StatusCode)
	}
	return nil
}

// QueryByOwner returns all records owned by userID ordered by timestamp
// ascending.
func (s *Store) QueryByOwner(ctx context.Context, userID string) ([]model.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/v1/users/%s/items", s.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, syncerrors.NewNetworkError("remote.query", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, syncerrors.NewHTTPError("remote.query", resp.StatusCode)
	}
	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("remote.query: decode response: %w", err)
	}
	return lr.Items, nil
}

// Delete removes the record with the given ID. A missing record surfaces
// as an error wrapping errors.ErrNotFound; callers treat that as success.
func (s *Store) Delete(ctx context.Context, id model.ItemID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u := fmt.Sprintf("%s/v1/items/%s", s.baseURL, url.PathEscape(id.String()))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return syncerrors.NewNetworkError("remote.delete", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return syncerrors.NewHTTPError("remote.delete", resp.StatusCode)
	}
	return nil
}
