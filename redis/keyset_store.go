package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/ssogate/jwks"
)

// DefaultKeyPrefix namespaces key-set documents.
const DefaultKeyPrefix = "ssogate:jwks"

// KeySetStore keeps raw key-set documents under their URL with the
// provider's max-age as the Redis expiry.
type KeySetStore struct {
	client *Client
	prefix string
}

var _ jwks.Store = (*KeySetStore)(nil)

// NewKeySetStore creates a store on client. An empty prefix uses the
// client's configured prefix.
func NewKeySetStore(client *Client, prefix string) *KeySetStore {
	if prefix == "" {
		prefix = client.cfg.KeyPrefix
	}
	return &KeySetStore{client: client, prefix: prefix}
}

func (s *KeySetStore) key(url string) string {
	return s.prefix + ":" + url
}

// Load returns the stored document and its remaining lifetime. A missing
// key, or one without an expiry, is a miss.
func (s *KeySetStore) Load(ctx context.Context, url string) ([]byte, time.Duration, error) {
	key := s.key(url)
	pipe := s.client.rdb.Pipeline()
	get := pipe.Get(ctx, key)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, goredis.Nil) {
		return nil, 0, fmt.Errorf("load %s: %w", key, err)
	}

	doc, err := get.Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load %s: %w", key, err)
	}
	remaining := ttl.Val()
	if remaining <= 0 {
		return nil, 0, nil
	}
	return doc, remaining, nil
}

// Save stores doc until ttl elapses.
func (s *KeySetStore) Save(ctx context.Context, url string, doc []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	key := s.key(url)
	if err := s.client.rdb.Set(ctx, key, doc, ttl).Err(); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
