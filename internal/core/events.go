package core

import "github.com/dkeye/Bingo/internal/domain"

type EventName string

const (
	EventPlayerJoined    EventName = "player-joined"
	EventPlayerLeft      EventName = "player-left"
	EventGameStarted     EventName = "game-started"
	EventNumberCalled    EventName = "number-called"
	EventWinnerDeclared  EventName = "winner-declared"
	EventNewRound        EventName = "new-round-started"
	EventRoomStateUpdate EventName = "room-state-update"
)

// Event is one announcement to a room. Payload is one of the *Payload types below.
type Event struct {
	Name    EventName `json:"type"`
	Payload any       `json:"payload"`
}

type PlayerJoinedPayload struct {
	Player  domain.PlayerInfo   `json:"player"`
	Players []domain.PlayerInfo `json:"players"`
}

type PlayerLeftPayload struct {
	PlayerID string              `json:"playerId"`
	Players  []domain.PlayerInfo `json:"players"`
}

type GameStartedPayload struct {
	GameState domain.GameState `json:"gameState"`
}

type NumberCalledPayload struct {
	Number        int    `json:"number"`
	Label         string `json:"label"`
	CalledNumbers []int  `json:"calledNumbers"`
	Remaining     int    `json:"remaining"`
}

type WinnerDeclaredPayload struct {
	WinnerID   string              `json:"winnerId"`
	WinnerName string              `json:"winnerName"`
	Pattern    string              `json:"pattern"`
	Players    []domain.PlayerInfo `json:"players"`
}

type NewRoundPayload struct {
	GameState domain.GameState `json:"gameState"`
}

// RoomStatePayload is the public room snapshot, without any player's card.
type RoomStatePayload struct {
	ID        string              `json:"id"`
	Code      string              `json:"code"`
	Name      string              `json:"name"`
	HostID    string              `json:"hostId"`
	Players   []domain.PlayerInfo `json:"players"`
	GameState domain.GameState    `json:"gameState"`
}

// RoomStateOf builds the public snapshot of s.
func RoomStateOf(s *domain.Session) RoomStatePayload {
	return RoomStatePayload{
		ID:        s.ID,
		Code:      s.Code,
		Name:      s.Name,
		HostID:    s.HostID,
		Players:   s.PlayerInfos(),
		GameState: s.Game,
	}
}
