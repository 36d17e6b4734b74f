// Package lock provides the single-flight guards that keep two ingestion
// runs for the same source and category from overlapping.
package lock

import (
	"context"
	"fmt"
	"sync"

	"github.com/jobrisk/jobrisk/internal/model"
)

// LocalLocker guards keys within one process.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]bool)}
}

// TryLock takes key or fails with model.ErrRunInProgress. It never blocks.
func (l *LocalLocker) TryLock(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, fmt.Errorf("lock %s: %w", key, model.ErrRunInProgress)
	}
	l.held[key] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}
