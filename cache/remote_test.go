package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeStore is an in-memory RemoteStore. When fail is set, every operation
// errors, simulating an unreachable store.
type fakeStore struct {
	mu   sync.Mutex
	data map[string][]byte
	fail bool
}

var errStoreDown = errors.New("store unreachable")

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (s *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, errStoreDown
	}
	v, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (s *fakeStore) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errStoreDown
	}
	s.data[key] = val
	return nil
}

func (s *fakeStore) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return false, errStoreDown
	}
	_, ok := s.data[key]
	delete(s.data, key)
	return ok, nil
}

func (s *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return false, errStoreDown
	}
	_, ok := s.data[key]
	return ok, nil
}

func (s *fakeStore) KeysByPrefix(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, errStoreDown
	}
	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func TestRemote_RoundTrip(t *testing.T) {
	store := newFakeStore()
	b := NewRemote(store, "rg", MsgpackCodec{})
	ctx := t.Context()

	if err := b.Set(ctx, "k1", []byte("v1"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// The store key carries the namespace prefix.
	if _, ok := store.data["rg:k1"]; !ok {
		t.Fatalf("expected namespaced key in store, have %v", store.data)
	}

	v, ok, err := b.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected hit")
	}
	if string(v) != "v1" {
		t.Fatalf("got %q, want %q", v, "v1")
	}

	exists, err := b.Exists(ctx, "k1")
	if err != nil || !exists {
		t.Fatalf("expected exists=true, got %v/%v", exists, err)
	}

	removed, err := b.Delete(ctx, "k1")
	if err != nil || !removed {
		t.Fatalf("expected delete=true, got %v/%v", removed, err)
	}
	if _, ok, _ := b.Get(ctx, "k1"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestRemote_MissOnAbsent(t *testing.T) {
	b := NewRemote(newFakeStore(), "", nil)

	_, ok, err := b.Get(t.Context(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected miss")
	}

	// A plain miss is not a store failure.
	s, _ := b.Stats(t.Context())
	if s.Errors != 0 {
		t.Fatalf("expected 0 errors, got %d", s.Errors)
	}
	if s.Misses != 1 {
		t.Fatalf("expected 1 miss, got %d", s.Misses)
	}
}

func TestRemote_FailSoft(t *testing.T) {
	store := newFakeStore()
	store.fail = true
	b := NewRemote(store, "rg", MsgpackCodec{})
	ctx := t.Context()

	// None of these may surface an error.
	if _, ok, err := b.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("expected soft miss, got ok=%v err=%v", ok, err)
	}
	if err := b.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("expected nil error from Set, got %v", err)
	}
	if removed, err := b.Delete(ctx, "k"); err != nil || removed {
		t.Fatalf("expected soft delete=false, got %v/%v", removed, err)
	}
	if exists, err := b.Exists(ctx, "k"); err != nil || exists {
		t.Fatalf("expected soft exists=false, got %v/%v", exists, err)
	}
	if err := b.Clear(ctx); err != nil {
		t.Fatalf("expected nil error from Clear, got %v", err)
	}

	s, _ := b.Stats(ctx)
	if s.Errors != 5 {
		t.Fatalf("expected 5 absorbed errors, got %d", s.Errors)
	}
}

func TestRemote_ClearRemovesOnlyNamespace(t *testing.T) {
	store := newFakeStore()
	b := NewRemote(store, "rg", MsgpackCodec{})
	ctx := t.Context()

	b.Set(ctx, "a", []byte("1"), time.Minute)
	b.Set(ctx, "b", []byte("2"), time.Minute)
	store.data["other:c"] = []byte("foreign")

	if err := b.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if _, ok, _ := b.Get(ctx, "a"); ok {
		t.Fatal("expected a cleared")
	}
	if _, ok, _ := b.Get(ctx, "b"); ok {
		t.Fatal("expected b cleared")
	}
	if _, ok := store.data["other:c"]; !ok {
		t.Fatal("expected foreign key untouched")
	}
}

func TestRemote_JSONCodecRecord(t *testing.T) {
	store := newFakeStore()
	b := NewRemote(store, "rg", JSONCodec{})
	ctx := t.Context()

	b.Set(ctx, "k", []byte("payload"), time.Minute)

	// The stored record is valid JSON carrying the payload.
	var rec remoteRecord
	if err := json.Unmarshal(store.data["rg:k"], &rec); err != nil {
		t.Fatalf("stored record is not JSON: %v", err)
	}
	if string(rec.Value) != "payload" {
		t.Fatalf("got %q, want %q", rec.Value, "payload")
	}
	if rec.StoredAt.IsZero() {
		t.Fatal("expected stored_at set")
	}

	v, ok, _ := b.Get(ctx, "k")
	if !ok || string(v) != "payload" {
		t.Fatalf("round trip failed: ok=%v v=%q", ok, v)
	}
}

func TestRemote_UndecodableRecordIsMiss(t *testing.T) {
	store := newFakeStore()
	b := NewRemote(store, "rg", JSONCodec{})
	ctx := t.Context()

	store.data["rg:junk"] = []byte("{not json")

	_, ok, err := b.Get(ctx, "junk")
	if err != nil || ok {
		t.Fatalf("expected soft miss on junk record, got ok=%v err=%v", ok, err)
	}
	s, _ := b.Stats(ctx)
	if s.Errors != 1 {
		t.Fatalf("expected 1 error, got %d", s.Errors)
	}
}
