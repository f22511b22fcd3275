package app

import "github.com/dkeye/Bingo/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickSubscriber
	DropFrame
)

// Policy decides what happens to a subscriber whose send buffer is full.
type Policy interface {
	OnBackPressure(ch core.RoomChannel, sub core.Subscriber) BackpressureAction
}

// SimplePolicy kicks slow subscribers; clients refetch state when they reconnect.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(core.RoomChannel, core.Subscriber) BackpressureAction {
	return KickSubscriber
}
