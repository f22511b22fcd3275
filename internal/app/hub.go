package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dkeye/Bingo/internal/core"
	"github.com/dkeye/Bingo/internal/domain"
	"github.com/rs/zerolog/log"
)

// Hub owns the live channel of every room with subscribers and fans events out to them.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]core.RoomChannel
	policy   Policy
}

var (
	_ core.ChannelFactory = (*Hub)(nil)
	_ core.EventEmitter   = (*Hub)(nil)
)

func NewHub(policy Policy) *Hub {
	if policy == nil {
		policy = SimplePolicy{}
	}
	return &Hub{channels: make(map[string]core.RoomChannel), policy: policy}
}

func (h *Hub) GetOrCreate(code string) core.RoomChannel {
	h.mu.RLock()
	ch, ok := h.channels[code]
	h.mu.RUnlock()
	if ok {
		return ch
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok = h.channels[code]; ok {
		return ch
	}
	ch = core.NewRoomChannel(code)
	h.channels[code] = ch
	return ch
}

func (h *Hub) Get(code string) (core.RoomChannel, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ch, ok := h.channels[code]
	return ch, ok
}

func (h *Hub) List() []core.ChannelInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]core.ChannelInfo, 0, len(h.channels))
	for code, ch := range h.channels {
		out = append(out, core.ChannelInfo{Code: code, SubscriberCount: ch.SubscriberCount()})
	}
	return out
}

// Stop drops the room's channel and closes every connection still on it.
func (h *Hub) Stop(code string) {
	h.mu.Lock()
	ch, ok := h.channels[code]
	delete(h.channels, code)
	h.mu.Unlock()
	if !ok {
		return
	}
	for _, sub := range ch.Subscribers() {
		sub.Signal().Close()
	}
	log.Info().Str("module", "app.hub").Str("room", code).Msg("channel stopped")
}

// Subscribe adds sub to the room's channel, creating it on first use.
func (h *Hub) Subscribe(code string, sub core.Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch, ok := h.channels[code]
	if !ok {
		ch = core.NewRoomChannel(code)
		h.channels[code] = ch
	}
	ch.AddSubscriber(sub)
}

// Unsubscribe removes a subscriber and drops the channel once it is empty.
func (h *Hub) Unsubscribe(code string, id core.SubscriberID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch, ok := h.channels[code]
	if !ok {
		return
	}
	ch.RemoveSubscriber(id)
	if ch.SubscriberCount() == 0 {
		delete(h.channels, code)
	}
}

// DropPlayer unsubscribes and closes every connection the player has in the room.
func (h *Hub) DropPlayer(code, playerID string) int {
	h.mu.Lock()
	ch, ok := h.channels[code]
	if !ok {
		h.mu.Unlock()
		return 0
	}
	subs := ch.PlayerSubscribers(playerID)
	for _, sub := range subs {
		ch.RemoveSubscriber(sub.ID())
	}
	if ch.SubscriberCount() == 0 {
		delete(h.channels, code)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.Signal().Close()
	}
	if len(subs) > 0 {
		log.Info().Str("module", "app.hub").Str("room", code).Str("player", playerID).Int("closed", len(subs)).Msg("dropped player streams")
	}
	return len(subs)
}

// PlayerSubscriptions counts the player's live connections in the room.
func (h *Hub) PlayerSubscriptions(code, playerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ch, ok := h.channels[code]
	if !ok {
		return 0
	}
	return len(ch.PlayerSubscribers(playerID))
}

// Publish encodes ev and offers it to every subscriber of the room without blocking.
func (h *Hub) Publish(ctx context.Context, roomCode string, ev core.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", domain.ErrCollaboratorUnavailable, ev.Name, err)
	}
	ch, ok := h.Get(roomCode)
	if !ok {
		return nil
	}
	res := ch.Broadcast(data)
	for _, slow := range res.Dropped {
		switch h.policy.OnBackPressure(ch, slow) {
		case KickSubscriber:
			h.Unsubscribe(roomCode, slow.ID())
			slow.Signal().Close()
			log.Warn().Str("module", "app.hub").Str("room", roomCode).Str("player", slow.PlayerID()).Msg("kicked slow subscriber")
		case DropFrame, NoAction:
		}
	}
	log.Debug().Str("module", "app.hub").Str("room", roomCode).Str("event", string(ev.Name)).Int("sent_to", res.SendTo).Msg("published")
	return nil
}
