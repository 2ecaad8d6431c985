package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Locker admits one turn per session at a time. Lock never waits: a busy
// session yields ErrTurnInProgress.
type Locker interface {
	Lock(ctx context.Context, sessionID string) (unlock func(), err error)
}

// MemoryLocker tracks held sessions only; released sessions leave no entry.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]struct{})}
}

func (m *MemoryLocker) Lock(_ context.Context, sessionID string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.held[sessionID]; busy {
		return nil, ErrTurnInProgress
	}
	m.held[sessionID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.held, sessionID)
			m.mu.Unlock()
		})
	}, nil
}

// Len reports how many sessions currently hold a lock.
func (m *MemoryLocker) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.held)
}

// RedsyncLocker serialises turns across replicas sharing one redis.
type RedsyncLocker struct {
	rs     *redsync.Redsync
	expiry time.Duration
}

func NewRedsyncLocker(client *redis.Client, expiry time.Duration) *RedsyncLocker {
	if expiry <= 0 {
		expiry = 2 * time.Minute
	}
	return &RedsyncLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		expiry: expiry,
	}
}

func (r *RedsyncLocker) Lock(ctx context.Context, sessionID string) (func(), error) {
	mutex := r.rs.NewMutex("shop:turn:"+sessionID,
		redsync.WithExpiry(r.expiry),
		redsync.WithTries(1),
	)
	if err := mutex.LockContext(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if lockTaken(err) {
			return nil, fmt.Errorf("%w: %v", ErrTurnInProgress, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrLockUnavailable, err)
	}
	return func() {
		if ok, err := mutex.UnlockContext(context.Background()); !ok || err != nil {
			log.Warnf("release turn lock for session %s: ok=%v err=%v", sessionID, ok, err)
		}
	}, nil
}

// lockTaken tells a held lock apart from a redis failure.
func lockTaken(err error) bool {
	var taken *redsync.ErrTaken
	return errors.As(err, &taken) || errors.Is(err, redsync.ErrFailed)
}
