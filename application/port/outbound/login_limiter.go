package outbound

import "context"

// LoginLimiter throttles repeated failed sign-in attempts per client key.
type LoginLimiter interface {
	IsBlocked(ctx context.Context, key string) (bool, error)
	// RegisterFailure counts a failed attempt and blocks the key once the
	// configured limit is exceeded.
	RegisterFailure(ctx context.Context, key string) error
	// Reset clears the failure counter after a successful sign-in.
	Reset(ctx context.Context, key string) error
}
