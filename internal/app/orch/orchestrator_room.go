package orch

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/Bingo/internal/core"
	"github.com/dkeye/Bingo/internal/domain"
	"github.com/rs/zerolog/log"
)

// Membership is returned to the player who created, joined or rejoined a room.
// It is the only place the reconnection token leaves the server.
type Membership struct {
	Room        core.RoomStatePayload
	Player      *domain.Player
	Reconnected bool
}

func membershipOf(s *domain.Session, playerID string, reconnected bool) *Membership {
	return &Membership{Room: core.RoomStateOf(s), Player: s.Player(playerID), Reconnected: reconnected}
}

// CreateRoom opens a waiting room hosted by playerName.
func (o *Orchestrator) CreateRoom(ctx context.Context, roomName, playerName string) (*Membership, error) {
	now := o.now()
	host, err := domain.NewPlayer(playerName, now)
	if err != nil {
		return nil, err
	}
	for range codeAttempts {
		s, err := domain.NewSession(domain.NewRoomCode(o.Codes), roomName, host, now)
		if err != nil {
			return nil, err
		}
		err = o.Store.Insert(ctx, s)
		if errors.Is(err, domain.ErrCodeTaken) {
			log.Debug().Str("module", "app.orch").Str("room", s.Code).Msg("room code taken, retrying")
			continue
		}
		if err != nil {
			log.Error().Err(err).Str("module", "app.orch").Msg("create room failed")
			return nil, err
		}
		o.Directory.BindCode(s.Code, s.ID)
		o.Directory.BindToken(host.Token, domain.Seat{SessionID: s.ID, PlayerID: host.ID})
		log.Info().Str("module", "app.orch").Str("room", s.Code).Str("player", host.ID).Msg("room created")
		return membershipOf(s, host.ID, false), nil
	}
	return nil, fmt.Errorf("%w: no free room code after %d attempts", domain.ErrCollaboratorUnavailable, codeAttempts)
}

// Join adds playerName to the room, or resumes the seat token was issued for.
// A resumed seat is returned as stored: nothing is written and nothing is announced.
func (o *Orchestrator) Join(ctx context.Context, code, playerName, token string) (*Membership, error) {
	sid, err := o.resolve(ctx, code)
	if err != nil {
		return nil, err
	}

	var resumeID string
	if token != "" {
		seat, err := o.Directory.ResolveToken(ctx, token)
		switch {
		case err == nil && seat.SessionID == sid:
			resumeID = seat.PlayerID
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
	}

	var newcomer *domain.Player
	if resumeID == "" {
		if newcomer, err = domain.NewPlayer(playerName, o.now()); err != nil {
			return nil, err
		}
	}

	var (
		playerID    string
		reconnected bool
	)
	s, err := o.mutate(ctx, sid, "join", func(s *domain.Session) (change, error) {
		if resumeID != "" {
			if p := s.Player(resumeID); p != nil && p.Token == token {
				playerID, reconnected = p.ID, true
				return noChange(), nil
			}
			// seat is gone, fall back to a fresh join
			if newcomer == nil {
				p, err := domain.NewPlayer(playerName, o.now())
				if err != nil {
					return change{}, err
				}
				newcomer = p
			}
		}
		if err := s.Join(newcomer, o.Cards); err != nil {
			return change{}, err
		}
		playerID, reconnected = newcomer.ID, false
		return commit(core.EventPlayerJoined, core.PlayerJoinedPayload{
			Player:  newcomer.Info(),
			Players: s.PlayerInfos(),
		}), nil
	})
	if err != nil {
		return nil, err
	}
	if reconnected {
		log.Info().Str("module", "app.orch").Str("room", s.Code).Str("player", playerID).Msg("player reconnected")
	} else {
		p := s.Player(playerID)
		o.Directory.BindToken(p.Token, domain.Seat{SessionID: sid, PlayerID: p.ID})
	}
	return membershipOf(s, playerID, reconnected), nil
}

// Leave removes the player. The host seat stays vacant if the host leaves.
func (o *Orchestrator) Leave(ctx context.Context, code, playerID string) error {
	if err := requirePlayerID(playerID); err != nil {
		return err
	}
	sid, err := o.resolve(ctx, code)
	if err != nil {
		return err
	}
	var token string
	s, err := o.mutate(ctx, sid, "leave", func(s *domain.Session) (change, error) {
		p, err := s.Leave(playerID)
		if err != nil {
			return change{}, err
		}
		token = p.Token
		return commit(core.EventPlayerLeft, core.PlayerLeftPayload{PlayerID: playerID, Players: s.PlayerInfos()}), nil
	})
	if err != nil {
		return err
	}
	o.Directory.UnbindToken(token)
	if d, ok := o.Events.(core.PlayerDropper); ok {
		d.DropPlayer(s.Code, playerID)
	}
	return nil
}

// SetConnected records whether the player currently has a live subscription.
func (o *Orchestrator) SetConnected(ctx context.Context, code, playerID string, connected bool) error {
	sid, err := o.resolve(ctx, code)
	if err != nil {
		return err
	}
	_, err = o.mutate(ctx, sid, "presence", func(s *domain.Session) (change, error) {
		changed, err := s.SetConnected(playerID, connected)
		if err != nil || !changed {
			return change{}, err
		}
		return commit(core.EventRoomStateUpdate, core.RoomStateOf(s)), nil
	})
	return err
}

// RoomView is a read-only snapshot, plus the asking player's own card.
type RoomView struct {
	Room   core.RoomStatePayload `json:"room"`
	Player *domain.Player        `json:"player,omitempty"`
}

// State reads the room without taking its gate; the result may trail a concurrent write.
func (o *Orchestrator) State(ctx context.Context, code, playerID string) (*RoomView, error) {
	sid, err := o.resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	s, err := o.load(ctx, sid)
	if err != nil {
		return nil, err
	}
	view := &RoomView{Room: core.RoomStateOf(s)}
	if playerID != "" {
		view.Player = s.Player(playerID)
	}
	return view, nil
}

func (o *Orchestrator) Leaderboard(ctx context.Context, code string) ([]domain.PlayerInfo, error) {
	sid, err := o.resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	s, err := o.load(ctx, sid)
	if err != nil {
		return nil, err
	}
	return s.Leaderboard(), nil
}
