package core

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// channelImpl is a threadsafe in-memory subscriber set.
// It never closes adapter-owned resources.
type channelImpl struct {
	code     string
	mu       sync.RWMutex
	byID     map[SubscriberID]Subscriber
	byPlayer map[string]map[SubscriberID]struct{}
}

func NewRoomChannel(code string) RoomChannel {
	return &channelImpl{
		code:     code,
		byID:     make(map[SubscriberID]Subscriber),
		byPlayer: make(map[string]map[SubscriberID]struct{}),
	}
}

func (c *channelImpl) Code() string { return c.code }

func (c *channelImpl) SubscriberCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

func (c *channelImpl) Subscribers() []Subscriber {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Subscriber, 0, len(c.byID))
	for _, s := range c.byID {
		out = append(out, s)
	}
	return out
}

// PlayerSubscribers returns the live subscriptions of one player.
func (c *channelImpl) PlayerSubscribers(playerID string) []Subscriber {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := c.byPlayer[playerID]
	out := make([]Subscriber, 0, len(ids))
	for id := range ids {
		out = append(out, c.byID[id])
	}
	return out
}

func (c *channelImpl) AddSubscriber(sub Subscriber) {
	id, pid := sub.ID(), sub.PlayerID()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[id] = sub
	if c.byPlayer[pid] == nil {
		c.byPlayer[pid] = make(map[SubscriberID]struct{})
	}
	c.byPlayer[pid][id] = struct{}{}
	log.Info().Str("module", "core.channel").Str("room", c.code).Str("sub", string(id)).Str("player", pid).Msg("subscriber added")
}

func (c *channelImpl) RemoveSubscriber(id SubscriberID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sub, ok := c.byID[id]; ok {
		pid := sub.PlayerID()
		delete(c.byPlayer[pid], id)
		if len(c.byPlayer[pid]) == 0 {
			delete(c.byPlayer, pid)
		}
	}
	delete(c.byID, id)
	log.Info().Str("module", "core.channel").Str("room", c.code).Str("sub", string(id)).Msg("subscriber removed")
}

func (c *channelImpl) Broadcast(data Frame) PublishResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res := PublishResult{}
	for _, s := range c.byID {
		if err := s.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, s)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.channel").Str("room", c.code).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}
