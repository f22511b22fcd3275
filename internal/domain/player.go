// Package domain holds the bingo entities and the pure rules that act on them.
// Nothing here does I/O or logging.
package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxNameLen     = 36
	MaxRoomNameLen = 64
)

type Player struct {
	ID string `json:"id"`
	// Token is the reconnection credential. It is only ever returned to its owner.
	Token     string    `json:"-"`
	Name      string    `json:"name"`
	IsHost    bool      `json:"isHost"`
	Wins      int       `json:"wins"`
	Card      *Card     `json:"card,omitempty"`
	Connected bool      `json:"connected"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// PlayerInfo is the public view of a player shared with every room member.
type PlayerInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsHost    bool   `json:"isHost"`
	Wins      int    `json:"wins"`
	Connected bool   `json:"connected"`
}

// Seat identifies a player within a session.
type Seat struct {
	SessionID string `json:"sessionId"`
	PlayerID  string `json:"playerId"`
}

// NewPlayer is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewPlayer(name string, now time.Time) (*Player, error) {
	name, err := NormalizeName(name, MaxNameLen)
	if err != nil {
		return nil, err
	}
	return &Player{
		ID:        uuid.NewString(),
		Token:     uuid.NewString(),
		Name:      name,
		Connected: true,
		JoinedAt:  now,
	}, nil
}

func (p *Player) Info() PlayerInfo {
	return PlayerInfo{ID: p.ID, Name: p.Name, IsHost: p.IsHost, Wins: p.Wins, Connected: p.Connected}
}

func (p *Player) clone() *Player {
	cp := *p
	if p.Card != nil {
		card := *p.Card
		cp.Card = &card
	}
	return &cp
}

// NormalizeName trims s and checks it is non-empty and at most limit runes.
func NormalizeName(s string, limit int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: name is empty", ErrValidation)
	}
	if utf8.RuneCountInString(s) > limit {
		return "", fmt.Errorf("%w: name longer than %d characters", ErrValidation, limit)
	}
	return s, nil
}

// SameName compares display names case-insensitively.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
