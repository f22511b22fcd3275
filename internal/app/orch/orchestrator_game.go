package orch

import (
	"context"
	"fmt"
	"slices"

	"github.com/dkeye/Bingo/internal/core"
	"github.com/dkeye/Bingo/internal/domain"
)

// Start deals cards to everyone and opens play. Host only.
func (o *Orchestrator) Start(ctx context.Context, code, playerID string) (*RoomView, error) {
	return o.hostTransition(ctx, code, playerID, "start", func(s *domain.Session) (change, error) {
		if err := s.Start(playerID, o.Cards); err != nil {
			return change{}, err
		}
		return commit(core.EventGameStarted, core.GameStartedPayload{GameState: s.Game}), nil
	})
}

// NewRound starts the next round after a finished one. Host only.
func (o *Orchestrator) NewRound(ctx context.Context, code, playerID string) (*RoomView, error) {
	return o.hostTransition(ctx, code, playerID, "new-round", func(s *domain.Session) (change, error) {
		if err := s.NewRound(playerID, o.Cards); err != nil {
			return change{}, err
		}
		return commit(core.EventNewRound, core.NewRoundPayload{GameState: s.Game}), nil
	})
}

// EndRound finishes a playing round with no winner, e.g. after the pool ran out. Host only.
func (o *Orchestrator) EndRound(ctx context.Context, code, playerID string) (*RoomView, error) {
	return o.hostTransition(ctx, code, playerID, "end", func(s *domain.Session) (change, error) {
		if err := s.End(playerID); err != nil {
			return change{}, err
		}
		return commit(core.EventRoomStateUpdate, core.RoomStateOf(s)), nil
	})
}

func (o *Orchestrator) hostTransition(ctx context.Context, code, playerID, op string, fn func(s *domain.Session) (change, error)) (*RoomView, error) {
	if err := requirePlayerID(playerID); err != nil {
		return nil, err
	}
	sid, err := o.resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	s, err := o.mutate(ctx, sid, op, fn)
	if err != nil {
		return nil, err
	}
	return &RoomView{Room: core.RoomStateOf(s), Player: s.Player(playerID)}, nil
}

type DrawResult struct {
	Number        int    `json:"number"`
	Label         string `json:"label"`
	CalledNumbers []int  `json:"calledNumbers"`
	Remaining     int    `json:"remaining"`
}

// Draw calls the next number. Host only. PoolExhausted is an ordinary outcome.
func (o *Orchestrator) Draw(ctx context.Context, code, playerID string) (*DrawResult, error) {
	if err := requirePlayerID(playerID); err != nil {
		return nil, err
	}
	sid, err := o.resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	var res DrawResult
	_, err = o.mutate(ctx, sid, "draw", func(s *domain.Session) (change, error) {
		n, err := s.Draw(playerID, o.Draws)
		if err != nil {
			return change{}, err
		}
		res = DrawResult{
			Number:        n,
			Label:         domain.CallLabel(n),
			CalledNumbers: slices.Clone(s.Game.CalledNumbers),
			Remaining:     s.Game.Remaining(),
		}
		return commit(core.EventNumberCalled, core.NumberCalledPayload(res)), nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

type MarkResult struct {
	Number int          `json:"number"`
	Card   *domain.Card `json:"card"`
}

// Mark marks a called number on the player's own card. Marks are private, so nothing is announced.
func (o *Orchestrator) Mark(ctx context.Context, code, playerID string, number int) (*MarkResult, error) {
	if err := requirePlayerID(playerID); err != nil {
		return nil, err
	}
	if number < 1 || number > domain.PoolSize {
		return nil, fmt.Errorf("%w: number must be between 1 and %d", domain.ErrValidation, domain.PoolSize)
	}
	sid, err := o.resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	s, err := o.mutate(ctx, sid, "mark", func(s *domain.Session) (change, error) {
		changed, err := s.Mark(playerID, number)
		if err != nil {
			return change{}, err
		}
		return change{write: changed}, nil
	})
	if err != nil {
		return nil, err
	}
	return &MarkResult{Number: number, Card: s.Player(playerID).Card}, nil
}

type ClaimResult struct {
	WinnerID   string `json:"winnerId"`
	WinnerName string `json:"winnerName"`
	Pattern    string `json:"pattern"`
	Wins       int    `json:"wins"`
}

// Claim checks the player's card and ends the round if it wins.
// Claims are serialized per room, so the first valid one wins and the rest see AlreadyFinished.
func (o *Orchestrator) Claim(ctx context.Context, code, playerID string) (*ClaimResult, error) {
	if err := requirePlayerID(playerID); err != nil {
		return nil, err
	}
	sid, err := o.resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	var res ClaimResult
	_, err = o.mutate(ctx, sid, "claim", func(s *domain.Session) (change, error) {
		pattern, err := s.Claim(playerID)
		if err != nil {
			return change{}, err
		}
		winner := s.Player(playerID)
		res = ClaimResult{WinnerID: winner.ID, WinnerName: winner.Name, Pattern: pattern, Wins: winner.Wins}
		return commit(core.EventWinnerDeclared, core.WinnerDeclaredPayload{
			WinnerID:   winner.ID,
			WinnerName: winner.Name,
			Pattern:    pattern,
			Players:    s.PlayerInfos(),
		}), nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}
