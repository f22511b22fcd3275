// Package memory is an in-process session store with version-checked writes.
// It keeps deep copies only, so callers never share a session with it.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dkeye/Bingo/internal/core"
	"github.com/dkeye/Bingo/internal/domain"
	"github.com/rs/zerolog/log"
)

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	codes    map[string]string
	tokens   map[string]domain.Seat
}

var _ core.SessionStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*domain.Session),
		codes:    make(map[string]string),
		tokens:   make(map[string]domain.Seat),
	}
}

func (st *Store) Insert(ctx context.Context, s *domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.codes[s.Code]; ok {
		return domain.ErrCodeTaken
	}
	if _, ok := st.sessions[s.ID]; ok {
		return fmt.Errorf("%w: session %s exists", domain.ErrCollaboratorUnavailable, s.ID)
	}
	s.Version = 1
	st.put(s)
	log.Debug().Str("module", "storage.memory").Str("room", s.Code).Msg("inserted")
	return nil
}

func (st *Store) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %w", domain.ErrNotFound)
	}
	return s.Clone(), nil
}

func (st *Store) LookupCode(ctx context.Context, code string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	sid, ok := st.codes[code]
	if !ok {
		return "", domain.ErrRoomNotFound
	}
	return sid, nil
}

func (st *Store) LookupToken(ctx context.Context, token string) (domain.Seat, error) {
	if err := ctx.Err(); err != nil {
		return domain.Seat{}, err
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	seat, ok := st.tokens[token]
	if !ok {
		return domain.Seat{}, fmt.Errorf("token %w", domain.ErrNotFound)
	}
	return seat, nil
}

func (st *Store) CompareAndSwap(ctx context.Context, s *domain.Session, expected uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	cur, ok := st.sessions[s.ID]
	if !ok {
		return fmt.Errorf("session %w", domain.ErrNotFound)
	}
	if cur.Version != expected {
		return domain.ErrVersionConflict
	}
	for _, p := range cur.Players {
		delete(st.tokens, p.Token)
	}
	s.Version = expected + 1
	st.put(s)
	return nil
}

// put must be called with mu held.
func (st *Store) put(s *domain.Session) {
	st.sessions[s.ID] = s.Clone()
	st.codes[s.Code] = s.ID
	for _, p := range s.Players {
		st.tokens[p.Token] = domain.Seat{SessionID: s.ID, PlayerID: p.ID}
	}
}

// Len is the number of stored sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
