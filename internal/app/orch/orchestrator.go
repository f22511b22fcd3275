package orch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Bingo/internal/app"
	"github.com/dkeye/Bingo/internal/core"
	"github.com/dkeye/Bingo/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxAttempts = 3
	codeAttempts       = 10
)

// Orchestrator runs every session use case: resolve the room, serialize on its
// gate, apply the transition, write it back with a version check and announce it.
type Orchestrator struct {
	Store     core.SessionStore
	Directory *app.Directory
	Events    core.EventEmitter
	Gate      *app.Gate

	Cards domain.CardGenerator
	Draws domain.DrawEngine
	Codes domain.Source

	// MaxAttempts bounds re-evaluation after a version conflict.
	MaxAttempts int
	Now         func() time.Time
}

// New wires an orchestrator with random cards, draws and codes.
func New(store core.SessionStore, events core.EventEmitter) *Orchestrator {
	src := domain.NewRandomSource()
	return &Orchestrator{
		Store:       store,
		Directory:   app.NewDirectory(store),
		Events:      events,
		Gate:        app.NewGate(),
		Cards:       domain.NewRandomCards(src),
		Draws:       domain.NewRandomDraws(src),
		Codes:       src,
		MaxAttempts: DefaultMaxAttempts,
		Now:         time.Now,
	}
}

// change is what a transition asks the orchestrator to do after it ran.
type change struct {
	write bool
	event *core.Event
}

func noChange() change { return change{} }

func commit(name core.EventName, payload any) change {
	return change{write: true, event: &core.Event{Name: name, Payload: payload}}
}

func (o *Orchestrator) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

func (o *Orchestrator) maxAttempts() int {
	if o.MaxAttempts < 1 {
		return DefaultMaxAttempts
	}
	return o.MaxAttempts
}

func (o *Orchestrator) resolve(ctx context.Context, code string) (string, error) {
	return o.Directory.ResolveCode(ctx, code)
}

func (o *Orchestrator) load(ctx context.Context, sessionID string) (*domain.Session, error) {
	s, err := o.Store.Load(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrRoomNotFound
	}
	return s, err
}

// mutate runs fn against a fresh copy of the session while holding its gate.
// A version conflict re-runs fn against the newer state; any other failure
// aborts with nothing written. The event goes out only after the write lands.
func (o *Orchestrator) mutate(ctx context.Context, sessionID, op string, fn func(s *domain.Session) (change, error)) (*domain.Session, error) {
	var (
		result *domain.Session
		event  *core.Event
	)
	err := o.Gate.Do(ctx, sessionID, func() error {
		for attempt := 1; ; attempt++ {
			s, err := o.load(ctx, sessionID)
			if err != nil {
				return err
			}
			c, err := fn(s)
			if err != nil {
				return err
			}
			if !c.write {
				result, event = s, nil
				return nil
			}
			err = o.Store.CompareAndSwap(ctx, s, s.Version)
			if err == nil {
				result, event = s, c.event
				return nil
			}
			if !errors.Is(err, domain.ErrVersionConflict) || attempt >= o.maxAttempts() {
				return err
			}
			log.Debug().Str("module", "app.orch").Str("session", sessionID).Str("op", op).Int("attempt", attempt).Msg("version conflict, re-evaluating")
		}
	})
	if err != nil {
		o.logRejected(sessionID, op, err)
		return nil, err
	}
	if event != nil {
		log.Info().Str("module", "app.orch").Str("room", result.Code).Str("op", op).Uint64("version", result.Version).Msg("committed")
		o.publish(ctx, result.Code, *event)
	}
	return result, nil
}

// publish is fire and forget: the write already happened and clients can refetch.
func (o *Orchestrator) publish(ctx context.Context, code string, ev core.Event) {
	if o.Events == nil {
		return
	}
	if err := o.Events.Publish(context.WithoutCancel(ctx), code, ev); err != nil {
		log.Warn().Err(err).Str("module", "app.orch").Str("room", code).Str("event", string(ev.Name)).Msg("publish failed")
	}
}

func (o *Orchestrator) logRejected(sessionID, op string, err error) {
	switch domain.KindOf(err) {
	case domain.KindCollaboratorUnavailable, domain.KindVersionConflict:
		log.Error().Err(err).Str("module", "app.orch").Str("session", sessionID).Str("op", op).Msg("operation failed")
	default:
		log.Debug().Err(err).Str("module", "app.orch").Str("session", sessionID).Str("op", op).Msg("operation rejected")
	}
}

func requirePlayerID(playerID string) error {
	if playerID == "" {
		return fmt.Errorf("%w: playerId is required", domain.ErrValidation)
	}
	return nil
}
