// ChannelHub: the fan-out layer holding every connection registered on each channel.

package hub

import (
	"Studio/internal/entity"
	"Studio/internal/monitor"
	"Studio/pkg/log"
	"context"
	"fmt"
	"sync"
)

// Conn is one registered connection. Send must not block: a connection which can't take the
// event right away reports an error and the hub moves on.
type Conn interface {
	ID() string
	Send(event entity.Event) error
	Close()
}

// Replayer produces the events which bring a freshly joined connection up to date.
type Replayer interface {
	Replay(channel string) []entity.Event
}

type member struct {
	conn      Conn
	principal entity.Principal
}

type Hub struct {
	mu         sync.RWMutex
	channels   map[string][]member
	replayer   Replayer
	presence   *presence
	collectors *monitor.Collectors
	logger     log.Logger
}

// NewHub returns an empty Hub. repo may be nil when presence isn't mirrored anywhere.
func NewHub(replayer Replayer, repo Repository, collectors *monitor.Collectors, logger log.Logger) *Hub {
	return &Hub{
		channels:   make(map[string][]member),
		replayer:   replayer,
		presence:   newPresence(repo, logger),
		collectors: collectors,
		logger:     logger,
	}
}

// Join registers conn on channel and synchronously hands it the replay, so the replay always
// precedes any event published after Join returns. Joining twice is a no-op.
func (h *Hub) Join(channel string, conn Conn, principal entity.Principal) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, m := range h.channels[channel] {
		if m.conn.ID() == conn.ID() {
			return
		}
	}
	m := member{conn: conn, principal: principal}
	h.channels[channel] = append(h.channels[channel], m)
	count := len(h.channels[channel])

	h.collectors.SetConnections(channel, count)
	h.presence.joined(channel, conn.ID(), principal)
	h.logger.Info().Str("channel", channel).Str("conn", conn.ID()).Str("principal", principal.ID).Int("total_clients", count).Msg("Connection joined channel")

	if h.replayer != nil {
		for _, event := range h.replayer.Replay(channel) {
			if !h.deliver(channel, m, event) {
				h.evict(channel, []member{m})
				return
			}
		}
	}
}

// Leave deregisters conn from channel. Leaving twice, or leaving a channel never joined, is safe.
// Departures are not announced.
func (h *Hub) Leave(channel string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(channel, conn)
}

// remove requires h.mu to be held.
func (h *Hub) remove(channel string, conn Conn) {
	members := h.channels[channel]
	for i, m := range members {
		if m.conn.ID() != conn.ID() {
			continue
		}
		rest := make([]member, 0, len(members)-1)
		rest = append(rest, members[:i]...)
		rest = append(rest, members[i+1:]...)
		if len(rest) == 0 {
			delete(h.channels, channel)
		} else {
			h.channels[channel] = rest
		}
		h.collectors.SetConnections(channel, len(rest))
		h.presence.left(channel, conn.ID())
		h.logger.Info().Str("channel", channel).Str("conn", conn.ID()).Int("total_clients", len(rest)).Msg("Connection left channel")
		return
	}
}

// Publish hands the event to every connection on channel in registration order.
// A recipient which can't take the event is closed and dropped from the channel, so it
// reconnects and gets a fresh replay instead of staying stale. Publish itself never fails.
func (h *Hub) Publish(channel, name string, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.publish(channel, entity.Event{Name: name, Data: payload})
}

// PublishCrossChannel delivers one event to several channels, each distinct channel once.
func (h *Hub) PublishCrossChannel(channels []string, name string, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	seen := make(map[string]struct{}, len(channels))
	event := entity.Event{Name: name, Data: payload}
	for _, channel := range channels {
		if _, dup := seen[channel]; dup {
			continue
		}
		seen[channel] = struct{}{}
		h.publish(channel, event)
	}
}

// publish requires h.mu to be held.
func (h *Hub) publish(channel string, event entity.Event) {
	var failed []member
	for _, m := range h.channels[channel] {
		if !h.deliver(channel, m, event) {
			failed = append(failed, m)
		}
	}
	h.evict(channel, failed)
}

// deliver isolates one recipient: errors and panics stay here. It reports whether the send succeeded.
func (h *Hub) deliver(channel string, m member, event entity.Event) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			h.deliveryFailed(channel, m, event, fmt.Errorf("panic during send: %v", r))
			ok = false
		}
	}()
	if err := m.conn.Send(event); err != nil {
		h.deliveryFailed(channel, m, event, err)
		return false
	}
	return true
}

// evict closes and deregisters members which missed an event; requires h.mu to be held.
func (h *Hub) evict(channel string, failed []member) {
	for _, m := range failed {
		h.remove(channel, m.conn)
		h.closeConn(m.conn)
		h.logger.Warn().Str("channel", channel).Str("conn", m.conn.ID()).Msg("Evicted connection after failed delivery")
	}
}

func (h *Hub) closeConn(conn Conn) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error().Str("conn", conn.ID()).Msgf("panic during close: %v", r)
		}
	}()
	conn.Close()
}

func (h *Hub) deliveryFailed(channel string, m member, event entity.Event, err error) {
	h.collectors.DeliveryFailed(channel)
	h.logger.Warn().Err(err).Str("channel", channel).Str("conn", m.conn.ID()).Str("event", event.Name).Msg("Delivery failure, skipping recipient")
}

// Members lists the principals registered on channel in registration order.
func (h *Hub) Members(channel string) []entity.Principal {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]entity.Principal, 0, len(h.channels[channel]))
	for _, m := range h.channels[channel] {
		out = append(out, m.principal)
	}
	return out
}

// Count returns the number of connections on channel.
func (h *Hub) Count(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// Listen runs the presence mirror until ctx is done, preferably in a goroutine.
func (h *Hub) Listen(ctx context.Context) {
	h.presence.listen(ctx)
}

// Shutdown closes every registered connection and empties the hub.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	closed := 0
	for channel, members := range h.channels {
		for _, m := range members {
			m.conn.Close()
			h.presence.left(channel, m.conn.ID())
			closed++
		}
		h.collectors.SetConnections(channel, 0)
	}
	h.channels = make(map[string][]member)
	h.logger.Info().Str("component", "channel-hub").Int("clients_closed", closed).Msg("Channel hub stopped")
	return nil
}
