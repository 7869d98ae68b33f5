package jwks

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type memoryStore struct {
	mu      sync.Mutex
	docs    map[string][]byte
	ttls    map[string]time.Duration
	loadErr error
	saveErr error
	saves   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{docs: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (s *memoryStore) Load(_ context.Context, url string) ([]byte, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, 0, s.loadErr
	}
	return s.docs[url], s.ttls[url], nil
}

func (s *memoryStore) Save(_ context.Context, url string, doc []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.docs[url] = append([]byte(nil), doc...)
	s.ttls[url] = ttl
	return nil
}

func TestStore_SharedBetweenCaches(t *testing.T) {
	ks := newKeyServer(t, "public, max-age=300")
	store := newMemoryStore()
	ctx := context.Background()

	first := newCache(t, WithStore(store))
	if _, err := first.Get(ctx, ks.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.ttls[ks.URL] != 300*time.Second {
		t.Fatalf("stored ttl = %s, want 5m", store.ttls[ks.URL])
	}

	second := newCache(t, WithStore(store))
	verifiers, err := second.Get(ctx, ks.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(verifiers) != 1 || verifiers[0].KeyID() != "k1" {
		t.Fatalf("unexpected verifiers from store: %v", verifiers)
	}
	if got := ks.hits.Load(); got != 1 {
		t.Errorf("expected one network fetch across both caches, got %d", got)
	}
}

func TestStore_UncacheableNotSaved(t *testing.T) {
	ks := newKeyServer(t, "public, max-age=0, must-revalidate")
	store := newMemoryStore()
	c := newCache(t, WithStore(store))

	if _, err := c.Get(context.Background(), ks.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.saves != 0 {
		t.Errorf("expected no save for max-age=0, got %d", store.saves)
	}
}

func TestStore_FallsBackToNetwork(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *memoryStore, url string)
	}{
		{"load error", func(s *memoryStore, _ string) { s.loadErr = fmt.Errorf("connection refused") }},
		{"garbage document", func(s *memoryStore, url string) {
			s.docs[url] = []byte("not json")
			s.ttls[url] = time.Minute
		}},
		{"expired entry", func(s *memoryStore, url string) {
			s.docs[url] = []byte(`{"keys":[]}`)
			s.ttls[url] = 0
		}},
		{"save error", func(s *memoryStore, _ string) { s.saveErr = fmt.Errorf("read only replica") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ks := newKeyServer(t, "max-age=60")
			store := newMemoryStore()
			tt.setup(store, ks.URL)
			c := newCache(t, WithStore(store))

			verifiers, err := c.Get(context.Background(), ks.URL)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(verifiers) != 1 {
				t.Fatalf("expected network key set, got %d verifiers", len(verifiers))
			}
			if got := ks.hits.Load(); got != 1 {
				t.Errorf("expected one network fetch, got %d", got)
			}
		})
	}
}
