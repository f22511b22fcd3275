package app

import (
	"context"
	"sync"
)

// Gate serializes work per key. Different keys never block each other.
type Gate struct {
	mu    sync.Mutex
	locks map[string]*gateLock
}

type gateLock struct {
	sem  chan struct{}
	refs int
}

func NewGate() *Gate {
	return &Gate{locks: make(map[string]*gateLock)}
}

// Acquire blocks until key is free or ctx is done. The returned release must be called exactly once.
func (g *Gate) Acquire(ctx context.Context, key string) (release func(), err error) {
	g.mu.Lock()
	l, ok := g.locks[key]
	if !ok {
		l = &gateLock{sem: make(chan struct{}, 1)}
		g.locks[key] = l
	}
	l.refs++
	g.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		g.unref(key, l)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.sem
			g.unref(key, l)
		})
	}, nil
}

// Do runs fn while holding key.
func (g *Gate) Do(ctx context.Context, key string, fn func() error) error {
	release, err := g.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

func (g *Gate) unref(key string, l *gateLock) {
	g.mu.Lock()
	defer g.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(g.locks, key)
	}
}

// Len is the number of keys currently held or awaited.
func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.locks)
}
