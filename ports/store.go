package ports

import "context"

// KV is durable key-value storage for small strings. Implementations must
// treat a missing key as (value "", ok false), not as an error.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
