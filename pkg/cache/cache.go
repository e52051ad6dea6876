package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrCacheMiss = errors.New("cache: key not found")

// Service is a TTL key/value cache. Values round-trip through JSON, so Get
// fills any destination the stored value can be decoded into.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

// Key joins parts with ":".
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// decodeInto copies a cached value into dest with JSON semantics. Strings
// and *interface{} destinations are filled directly.
func decodeInto(key string, value interface{}, dest interface{}) error {
	switch d := dest.(type) {
	case *interface{}:
		*d = value
		return nil
	case *string:
		if s, ok := value.(string); ok {
			*d = s
			return nil
		}
	}
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	return json.Unmarshal(b, dest)
}
