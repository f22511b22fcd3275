package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// GameState is the game embedded in a session. CalledNumbers is in draw order.
type GameState struct {
	Status        Status `json:"status"`
	CalledNumbers []int  `json:"calledNumbers"`
	CurrentNumber *int   `json:"currentNumber"`
	WinnerID      string `json:"winnerId,omitempty"`
	WinnerName    string `json:"winnerName,omitempty"`
	WinPattern    string `json:"winPattern,omitempty"`
	Round         int    `json:"roundNumber"`
}

// Called reports whether n was drawn this round.
func (g *GameState) Called(n int) bool {
	return slices.Contains(g.CalledNumbers, n)
}

// Remaining is the number of values still in the pool.
func (g *GameState) Remaining() int {
	return PoolSize - len(g.CalledNumbers)
}

func (g *GameState) clearRound() {
	g.CalledNumbers = []int{}
	g.CurrentNumber = nil
	g.WinnerID = ""
	g.WinnerName = ""
	g.WinPattern = ""
}

// Session is one room and its game. The methods below are the only legal
// transitions; callers serialize them per session and persist the result
// with a version check.
type Session struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	HostID    string    `json:"hostId"`
	Players   []*Player `json:"players"`
	Game      GameState `json:"gameState"`
	CreatedAt time.Time `json:"createdAt"`
	// Version is bumped by the store on every successful write.
	Version uint64 `json:"-"`
}

// NewSession creates a waiting session hosted by host.
func NewSession(code, name string, host *Player, now time.Time) (*Session, error) {
	name, err := NormalizeName(name, MaxRoomNameLen)
	if err != nil {
		return nil, err
	}
	if host == nil {
		return nil, fmt.Errorf("%w: host is required", ErrValidation)
	}
	host.IsHost = true
	return &Session{
		ID:        uuid.NewString(),
		Code:      code,
		Name:      name,
		HostID:    host.ID,
		Players:   []*Player{host},
		Game:      GameState{Status: StatusWaiting, CalledNumbers: []int{}, Round: 1},
		CreatedAt: now,
	}, nil
}

func (s *Session) Player(id string) *Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlayerByToken finds the member holding a reconnection token.
func (s *Session) PlayerByToken(token string) *Player {
	if token == "" {
		return nil
	}
	for _, p := range s.Players {
		if p.Token == token {
			return p
		}
	}
	return nil
}

func (s *Session) PlayerInfos() []PlayerInfo {
	out := make([]PlayerInfo, 0, len(s.Players))
	for _, p := range s.Players {
		out = append(out, p.Info())
	}
	return out
}

// Leaderboard orders players by wins, ties kept in join order.
func (s *Session) Leaderboard() []PlayerInfo {
	out := s.PlayerInfos()
	slices.SortStableFunc(out, func(a, b PlayerInfo) int { return b.Wins - a.Wins })
	return out
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		cp.Players[i] = p.clone()
	}
	cp.Game.CalledNumbers = slices.Clone(s.Game.CalledNumbers)
	if cp.Game.CalledNumbers == nil {
		cp.Game.CalledNumbers = []int{}
	}
	if s.Game.CurrentNumber != nil {
		n := *s.Game.CurrentNumber
		cp.Game.CurrentNumber = &n
	}
	return &cp
}

func (s *Session) requireHost(requester string) error {
	if s.HostID == "" || requester != s.HostID || s.Player(requester) == nil {
		return ErrForbidden
	}
	return nil
}

func (s *Session) dealCards(cards CardGenerator) {
	for _, p := range s.Players {
		card := cards.Generate()
		p.Card = &card
	}
}

// Join adds a new member. A player joining mid-round gets a fresh card with
// nothing marked except the free cell.
func (s *Session) Join(p *Player, cards CardGenerator) error {
	for _, m := range s.Players {
		if SameName(m.Name, p.Name) {
			return ErrDuplicateName
		}
	}
	p.IsHost = false
	p.Card = nil
	if s.Game.Status == StatusPlaying {
		card := cards.Generate()
		p.Card = &card
	}
	s.Players = append(s.Players, p)
	return nil
}

// Start deals every member a fresh card and opens play. It is also accepted
// after a finished round, in which case the round counter is left alone.
func (s *Session) Start(requester string, cards CardGenerator) error {
	if err := s.requireHost(requester); err != nil {
		return err
	}
	if s.Game.Status != StatusWaiting && s.Game.Status != StatusFinished {
		return fmt.Errorf("%w: game is %s", ErrInvalidState, s.Game.Status)
	}
	s.Game.clearRound()
	s.dealCards(cards)
	s.Game.Status = StatusPlaying
	return nil
}

// Draw appends the next number to the round.
func (s *Session) Draw(requester string, draws DrawEngine) (int, error) {
	if err := s.requireHost(requester); err != nil {
		return 0, err
	}
	if s.Game.Status != StatusPlaying {
		return 0, fmt.Errorf("%w: game is %s", ErrInvalidState, s.Game.Status)
	}
	n, err := draws.DrawNext(s.Game.CalledNumbers)
	if err != nil {
		return 0, err
	}
	if n < 1 || n > PoolSize || s.Game.Called(n) {
		return 0, fmt.Errorf("%w: draw engine returned %d", ErrCollaboratorUnavailable, n)
	}
	s.Game.CalledNumbers = append(s.Game.CalledNumbers, n)
	s.Game.CurrentNumber = &n
	return n, nil
}

// Mark marks n on the player's card. changed is false when the cell was already marked.
func (s *Session) Mark(playerID string, n int) (changed bool, err error) {
	p := s.Player(playerID)
	if p == nil {
		return false, fmt.Errorf("player %w", ErrNotFound)
	}
	if !s.Game.Called(n) {
		return false, ErrNotCalled
	}
	if p.Card == nil {
		return false, fmt.Errorf("card %w", ErrNotFound)
	}
	r, k, ok := p.Card.Find(n)
	if !ok {
		return false, fmt.Errorf("number %d %w on card", n, ErrNotFound)
	}
	if p.Card.Cells[r][k].Marked {
		return false, nil
	}
	p.Card.Cells[r][k].Marked = true
	return true, nil
}

// Claim validates the player's card and, if it wins, finishes the round.
// Only the first valid claim of a round can succeed; later ones see finished.
func (s *Session) Claim(playerID string) (string, error) {
	p := s.Player(playerID)
	if p == nil {
		return "", fmt.Errorf("player %w", ErrNotFound)
	}
	switch s.Game.Status {
	case StatusFinished:
		return "", ErrAlreadyFinished
	case StatusWaiting:
		return "", fmt.Errorf("%w: game has not started", ErrInvalidState)
	}
	if p.Card == nil {
		return "", fmt.Errorf("%w: no card", ErrInvalidClaim)
	}
	if !IsCardConsistent(p.Card, s.Game.CalledNumbers) {
		return "", fmt.Errorf("%w: card has marks for numbers not called", ErrInvalidClaim)
	}
	pattern, ok := HasWinningPattern(p.Card)
	if !ok {
		return "", ErrInvalidClaim
	}
	s.Game.Status = StatusFinished
	s.Game.WinnerID = p.ID
	s.Game.WinnerName = p.Name
	s.Game.WinPattern = pattern
	p.Wins++
	return pattern, nil
}

// NewRound restarts play after a finished round.
func (s *Session) NewRound(requester string, cards CardGenerator) error {
	if err := s.requireHost(requester); err != nil {
		return err
	}
	if s.Game.Status != StatusFinished {
		return fmt.Errorf("%w: game is %s", ErrInvalidState, s.Game.Status)
	}
	s.Game.clearRound()
	s.Game.Round++
	s.dealCards(cards)
	s.Game.Status = StatusPlaying
	return nil
}

// End closes a playing round without a winner.
func (s *Session) End(requester string) error {
	if err := s.requireHost(requester); err != nil {
		return err
	}
	if s.Game.Status != StatusPlaying {
		return fmt.Errorf("%w: game is %s", ErrInvalidState, s.Game.Status)
	}
	s.Game.Status = StatusFinished
	return nil
}

// Leave removes a member. The host role is never handed over.
func (s *Session) Leave(playerID string) (*Player, error) {
	i := slices.IndexFunc(s.Players, func(p *Player) bool { return p.ID == playerID })
	if i < 0 {
		return nil, fmt.Errorf("player %w", ErrNotFound)
	}
	p := s.Players[i]
	s.Players = slices.Delete(s.Players, i, i+1)
	return p, nil
}

// SetConnected records presence. It never affects game rules.
func (s *Session) SetConnected(playerID string, connected bool) (changed bool, err error) {
	p := s.Player(playerID)
	if p == nil {
		return false, fmt.Errorf("player %w", ErrNotFound)
	}
	if p.Connected == connected {
		return false, nil
	}
	p.Connected = connected
	return true, nil
}
