package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/dkeye/Bingo/internal/domain"
)

type sessionRow struct {
	ID            string                   `gorm:"primaryKey;size:36"`
	Code          string                   `gorm:"uniqueIndex;size:6;not null"`
	Name          string                   `gorm:"size:64;not null"`
	HostID        string                   `gorm:"size:36"`
	Status        string                   `gorm:"size:16;not null"`
	CalledNumbers datatypes.JSONSlice[int] `gorm:"not null"`
	CurrentNumber *int
	WinnerID      string `gorm:"size:36"`
	WinnerName    string `gorm:"size:64"`
	WinPattern    string `gorm:"size:32"`
	Round         int    `gorm:"not null"`
	Version       uint64 `gorm:"not null"`
	CreatedAt     time.Time
}

func (sessionRow) TableName() string { return "bingo_sessions" }

type playerRow struct {
	ID        string `gorm:"primaryKey;size:36"`
	SessionID string `gorm:"index;size:36;not null"`
	Token     string `gorm:"uniqueIndex;size:36;not null"`
	Name      string `gorm:"size:64;not null"`
	IsHost    bool
	Wins      int
	// Card is NULL until the player is dealt one.
	Card      datatypes.JSON
	Connected bool
	Position  int
	JoinedAt  time.Time
}

func (playerRow) TableName() string { return "bingo_players" }

func toRows(s *domain.Session) (sessionRow, []playerRow, error) {
	called := s.Game.CalledNumbers
	if called == nil {
		called = []int{}
	}
	sr := sessionRow{
		ID:            s.ID,
		Code:          s.Code,
		Name:          s.Name,
		HostID:        s.HostID,
		Status:        string(s.Game.Status),
		CalledNumbers: datatypes.NewJSONSlice(called),
		CurrentNumber: s.Game.CurrentNumber,
		WinnerID:      s.Game.WinnerID,
		WinnerName:    s.Game.WinnerName,
		WinPattern:    s.Game.WinPattern,
		Round:         s.Game.Round,
		Version:       s.Version,
		CreatedAt:     s.CreatedAt,
	}
	players := make([]playerRow, 0, len(s.Players))
	for i, p := range s.Players {
		pr := playerRow{
			ID:        p.ID,
			SessionID: s.ID,
			Token:     p.Token,
			Name:      p.Name,
			IsHost:    p.IsHost,
			Wins:      p.Wins,
			Connected: p.Connected,
			Position:  i,
			JoinedAt:  p.JoinedAt,
		}
		if p.Card != nil {
			raw, err := json.Marshal(p.Card)
			if err != nil {
				return sessionRow{}, nil, fmt.Errorf("encode card of %s: %w", p.ID, err)
			}
			pr.Card = datatypes.JSON(raw)
		}
		players = append(players, pr)
	}
	return sr, players, nil
}

func fromRows(sr sessionRow, rows []playerRow) (*domain.Session, error) {
	s := &domain.Session{
		ID:     sr.ID,
		Code:   sr.Code,
		Name:   sr.Name,
		HostID: sr.HostID,
		Game: domain.GameState{
			Status:        domain.Status(sr.Status),
			CalledNumbers: append([]int{}, sr.CalledNumbers...),
			CurrentNumber: sr.CurrentNumber,
			WinnerID:      sr.WinnerID,
			WinnerName:    sr.WinnerName,
			WinPattern:    sr.WinPattern,
			Round:         sr.Round,
		},
		CreatedAt: sr.CreatedAt,
		Version:   sr.Version,
		Players:   make([]*domain.Player, 0, len(rows)),
	}
	for _, pr := range rows {
		p := &domain.Player{
			ID:        pr.ID,
			Token:     pr.Token,
			Name:      pr.Name,
			IsHost:    pr.IsHost,
			Wins:      pr.Wins,
			Connected: pr.Connected,
			JoinedAt:  pr.JoinedAt,
		}
		if len(pr.Card) > 0 && string(pr.Card) != "null" {
			var card domain.Card
			if err := json.Unmarshal(pr.Card, &card); err != nil {
				return nil, fmt.Errorf("decode card of %s: %w", pr.ID, err)
			}
			p.Card = &card
		}
		s.Players = append(s.Players, p)
	}
	return s, nil
}
