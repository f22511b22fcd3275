// Package caller runs the host's timed draw loop outside the server.
package caller

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Bingo/internal/domain"
)

const (
	DefaultInitialDelay = 3 * time.Second
	DefaultMinDelay     = 5 * time.Second
	DefaultMaxDelay     = 8 * time.Second
)

// Call is one number the server accepted.
type Call struct {
	Number    int    `json:"number"`
	Label     string `json:"label"`
	Remaining int    `json:"remaining"`
}

type Drawer interface {
	Draw(ctx context.Context) (Call, error)
}

type Caller struct {
	Drawer       Drawer
	InitialDelay time.Duration
	MinDelay     time.Duration
	MaxDelay     time.Duration
	Rand         domain.Source
	// OnCall, if set, sees every accepted number.
	OnCall func(Call)
}

func New(d Drawer) *Caller {
	return &Caller{
		Drawer:       d,
		InitialDelay: DefaultInitialDelay,
		MinDelay:     DefaultMinDelay,
		MaxDelay:     DefaultMaxDelay,
		Rand:         domain.NewRandomSource(),
	}
}

// Run draws until the round can no longer take draws or ctx ends.
// It returns the error that stopped it, or nil when ctx was canceled.
func (c *Caller) Run(ctx context.Context) error {
	wait := c.InitialDelay
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "caller").Msg("stopped")
			return nil
		case <-time.After(wait):
		}

		call, err := c.Drawer.Draw(ctx)
		switch {
		case err == nil:
			log.Info().Str("module", "caller").Str("call", call.Label).Int("remaining", call.Remaining).Msg("number called")
			if c.OnCall != nil {
				c.OnCall(call)
			}
		case ctx.Err() != nil:
			log.Info().Str("module", "caller").Msg("stopped")
			return nil
		case transient(err):
			log.Warn().Err(err).Str("module", "caller").Msg("draw failed, retrying")
		default:
			log.Info().Err(err).Str("module", "caller").Str("kind", string(domain.KindOf(err))).Msg("draw loop finished")
			return err
		}
		wait = c.nextDelay()
	}
}

func (c *Caller) nextDelay() time.Duration {
	span := c.MaxDelay - c.MinDelay
	if span <= 0 {
		return c.MinDelay
	}
	return c.MinDelay + time.Duration(c.Rand.IntN(int(span)+1))
}

func transient(err error) bool {
	return errors.Is(err, domain.ErrVersionConflict) ||
		errors.Is(err, domain.ErrCollaboratorUnavailable) ||
		errors.Is(err, domain.ErrRateLimited) ||
		errors.Is(err, context.DeadlineExceeded)
}
