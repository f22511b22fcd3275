package core

import (
	"context"

	"github.com/dkeye/Bingo/internal/domain"
)

// Frame is a raw encoded event (JSON text message).
type Frame []byte

type SubscriberID string

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// Subscriber binds a room member to its transport endpoint.
// This is what a channel stores and fans out to.
type Subscriber interface {
	ID() SubscriberID
	PlayerID() string
	Signal() SignalConnection
}

// PublishResult reports delivery stats/backpressure to the hub.
type PublishResult struct {
	SendTo  int
	Dropped []Subscriber
}

// RoomChannel is the live subscriber set of one room.
// It never touches transport resources beyond TrySend.
type RoomChannel interface {
	Code() string
	SubscriberCount() int
	Subscribers() []Subscriber
	PlayerSubscribers(playerID string) []Subscriber
	AddSubscriber(sub Subscriber)
	RemoveSubscriber(id SubscriberID)
	Broadcast(data Frame) PublishResult
}

type ChannelInfo struct {
	Code            string `json:"code"`
	SubscriberCount int    `json:"subscriber_count"`
}

type ChannelFactory interface {
	GetOrCreate(code string) RoomChannel
	List() []ChannelInfo
	Stop(code string)
}

// EventEmitter announces committed state changes. Delivery is best effort.
type EventEmitter interface {
	Publish(ctx context.Context, roomCode string, ev Event) error
}

// PlayerDropper is implemented by emitters that hold live per-player streams.
type PlayerDropper interface {
	// DropPlayer ends every stream of playerID in the room and reports how many there were.
	DropPlayer(roomCode, playerID string) int
}

// DirectoryBackend is the durable side of the session directory.
type DirectoryBackend interface {
	// LookupCode returns the session id for a room code or domain.ErrRoomNotFound.
	LookupCode(ctx context.Context, code string) (string, error)
	// LookupToken returns the seat holding a reconnection token or domain.ErrNotFound.
	LookupToken(ctx context.Context, token string) (domain.Seat, error)
}

// SessionStore persists whole session aggregates with version-checked writes.
type SessionStore interface {
	DirectoryBackend

	// Insert stores a new session. It fails with domain.ErrCodeTaken if the code is in use.
	Insert(ctx context.Context, s *domain.Session) error
	// Load returns an independent copy of the stored session or domain.ErrNotFound.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)
	// CompareAndSwap replaces the stored session if its version still equals expected,
	// and bumps s.Version. Otherwise it fails with domain.ErrVersionConflict.
	CompareAndSwap(ctx context.Context, s *domain.Session, expected uint64) error
}
