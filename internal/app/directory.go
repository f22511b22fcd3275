package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/dkeye/Bingo/internal/core"
	"github.com/dkeye/Bingo/internal/domain"
	"github.com/rs/zerolog/log"
)

// Directory resolves room codes to session ids and reconnection tokens to seats.
// It only caches lookups; the backend stays the source of truth.
type Directory struct {
	mu      sync.RWMutex
	codes   map[string]string
	tokens  map[string]domain.Seat
	backend core.DirectoryBackend
}

func NewDirectory(backend core.DirectoryBackend) *Directory {
	return &Directory{
		codes:   make(map[string]string),
		tokens:  make(map[string]domain.Seat),
		backend: backend,
	}
}

// ResolveCode maps a user-typed room code to its session id.
func (d *Directory) ResolveCode(ctx context.Context, code string) (string, error) {
	code = domain.NormalizeCode(code)
	if code == "" {
		return "", fmt.Errorf("%w: room code is empty", domain.ErrValidation)
	}
	if !domain.ValidCode(code) {
		return "", domain.ErrRoomNotFound
	}
	d.mu.RLock()
	sid, ok := d.codes[code]
	d.mu.RUnlock()
	if ok {
		return sid, nil
	}
	sid, err := d.backend.LookupCode(ctx, code)
	if err != nil {
		return "", err
	}
	d.BindCode(code, sid)
	return sid, nil
}

// ResolveToken maps a reconnection token to the seat it was issued for.
func (d *Directory) ResolveToken(ctx context.Context, token string) (domain.Seat, error) {
	if token == "" {
		return domain.Seat{}, fmt.Errorf("token %w", domain.ErrNotFound)
	}
	d.mu.RLock()
	seat, ok := d.tokens[token]
	d.mu.RUnlock()
	if ok {
		return seat, nil
	}
	seat, err := d.backend.LookupToken(ctx, token)
	if err != nil {
		return domain.Seat{}, err
	}
	d.BindToken(token, seat)
	return seat, nil
}

func (d *Directory) BindCode(code, sessionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.codes[code] = sessionID
	log.Debug().Str("module", "app.directory").Str("room", code).Str("session", sessionID).Msg("bound code")
}

func (d *Directory) BindToken(token string, seat domain.Seat) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tokens[token] = seat
	log.Debug().Str("module", "app.directory").Str("session", seat.SessionID).Str("player", seat.PlayerID).Msg("bound token")
}

func (d *Directory) UnbindToken(token string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if seat, ok := d.tokens[token]; ok {
		delete(d.tokens, token)
		log.Debug().Str("module", "app.directory").Str("session", seat.SessionID).Str("player", seat.PlayerID).Msg("unbound token")
	}
}
