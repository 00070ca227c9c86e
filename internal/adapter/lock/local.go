package lock

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-booking/internal/domain"
)

type localEntry struct {
	sem  chan struct{}
	refs int
}

// LocalLocker is an in-process keyed mutex. It is enough when a single
// replica serves writes; multi-replica deployments use RedisLocker.
type LocalLocker struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	log     *zap.Logger
}

func NewLocalLocker(log *zap.Logger) *LocalLocker {
	return &LocalLocker{
		entries: make(map[string]*localEntry),
		log:     log,
	}
}

// Lock blocks until every point is held or ctx is done. Callers bound the
// wait with a context deadline.
func (l *LocalLocker) Lock(ctx context.Context, pointIDs ...string) (func(), error) {
	ids := normalize(pointIDs)
	held := make([]string, 0, len(ids))

	for _, id := range ids {
		e := l.ref(id)
		select {
		case e.sem <- struct{}{}:
			held = append(held, id)
		case <-ctx.Done():
			l.unref(id)
			l.unlock(held)
			l.log.Debug("Charging point lock wait expired",
				zap.String("charging_point_id", id),
				zap.Error(ctx.Err()),
			)
			return nil, fmt.Errorf("%w: charging point %s", domain.ErrLockTimeout, id)
		}
	}

	var once sync.Once
	return func() { once.Do(func() { l.unlock(held) }) }, nil
}

func (l *LocalLocker) ref(id string) *localEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[id]
	if !ok {
		e = &localEntry{sem: make(chan struct{}, 1)}
		l.entries[id] = e
	}
	e.refs++
	return e
}

func (l *LocalLocker) unref(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entries[id]
	e.refs--
	if e.refs == 0 {
		delete(l.entries, id)
	}
}

func (l *LocalLocker) unlock(ids []string) {
	for i := len(ids) - 1; i >= 0; i-- {
		l.mu.Lock()
		e := l.entries[ids[i]]
		l.mu.Unlock()
		<-e.sem
		l.unref(ids[i])
	}
}
