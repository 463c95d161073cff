package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// fakeRuntime records calls made by the handlers.
type fakeRuntime struct {
	mu       sync.Mutex
	reloaded []string
	removed  []string
	loaded   map[string]gesture.Snapshot
	enabled  bool
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{loaded: make(map[string]gesture.Snapshot), enabled: true}
}

func (f *fakeRuntime) Reload(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloaded = append(f.reloaded, id)
	f.loaded[id] = gesture.Snapshot{Family: gesture.FamilyPalmFlip, Stage: "idle"}
	return nil
}

func (f *fakeRuntime) Remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
	delete(f.loaded, id)
}

func (f *fakeRuntime) State(id string) (gesture.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.loaded[id]
	if !ok {
		return gesture.Snapshot{}, errors.New("not loaded")
	}
	return snap, nil
}

func (f *fakeRuntime) SetEnabled(enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabled = enabled
	return nil
}

func (f *fakeRuntime) IsEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled
}

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

const flipBody = `{"name":"flip","definition":{"family":"palm_flip","palm_flip":{"period":0.05,"on_angle_up":50,"off_angle_up":40}}}`

func createFlip(t *testing.T, h http.Handler) recognizerResponse {
	t.Helper()
	rec := serve(t, h, http.MethodPost, "/api/recognizers", flipBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	return decode[recognizerResponse](t, rec)
}
