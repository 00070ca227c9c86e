package ports

import (
	"context"
	"time"

	"github.com/seu-repo/sigec-booking/internal/domain"
)

// Cache is a string key/value store with expiry. Values that are not string
// or []byte are stored as JSON.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}

// PointLocker serializes writes per charging point. Lock acquires every id in
// ascending order and blocks until all are held or the context ends. The
// returned release must be called exactly once.
type PointLocker interface {
	Lock(ctx context.Context, pointIDs ...string) (release func(), err error)
}

// Transactor runs fn atomically. Repositories called with the ctx passed to
// fn take part in the transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher delivers notifications to the external sink. Publishing is
// fire-and-forget: failures are logged, never returned to the caller.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event)
}
