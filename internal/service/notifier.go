package service

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pix-link-gateway/internal/core/domain"
	"pix-link-gateway/internal/core/ports"
)

// Per-channel event buffer. A subscriber that falls this far behind is
// considered dead and dropped.
const channelBuffer = 16

type subscriber struct {
	id uint64
	ch chan domain.Event
}

type sseNotifier struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uuid.UUID]map[uint64]*subscriber
	log    zerolog.Logger
}

// NewNotifier builds the in-process fan-out registry behind the SSE stream.
// One merchant may hold several channels (one per open dashboard tab).
func NewNotifier(log zerolog.Logger) ports.Notifier {
	return &sseNotifier{
		subs: make(map[uuid.UUID]map[uint64]*subscriber),
		log:  log.With().Str("component", "notifier").Logger(),
	}
}

func (n *sseNotifier) Register(merchantID uuid.UUID) *ports.Channel {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	sub := &subscriber{
		id: n.nextID,
		ch: make(chan domain.Event, channelBuffer),
	}

	if n.subs[merchantID] == nil {
		n.subs[merchantID] = make(map[uint64]*subscriber)
	}
	n.subs[merchantID][sub.id] = sub

	n.log.Debug().
		Str("merchant_id", merchantID.String()).
		Uint64("channel_id", sub.id).
		Msg("channel registered")

	return &ports.Channel{ID: sub.id, C: sub.ch}
}

func (n *sseNotifier) Unregister(merchantID uuid.UUID, channelID uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.drop(merchantID, channelID)
}

// drop removes and closes one channel. Caller must hold mu.
func (n *sseNotifier) drop(merchantID uuid.UUID, channelID uint64) {
	chans := n.subs[merchantID]
	sub, ok := chans[channelID]
	if !ok {
		return
	}
	delete(chans, channelID)
	if len(chans) == 0 {
		delete(n.subs, merchantID)
	}
	close(sub.ch)
}

// Publish delivers an event to every open channel of the merchant without
// blocking. Channels with a full buffer are pruned on the spot.
func (n *sseNotifier) Publish(merchantID uuid.UUID, name string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()

	event := domain.Event{Name: name, Payload: payload}
	for _, sub := range n.subs[merchantID] {
		select {
		case sub.ch <- event:
		default:
			n.log.Warn().
				Str("merchant_id", merchantID.String()).
				Uint64("channel_id", sub.id).
				Msg("dropping stalled channel")
			n.drop(merchantID, sub.id)
		}
	}
}

func (n *sseNotifier) Heartbeat(merchantID uuid.UUID, channelID uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	sub, ok := n.subs[merchantID][channelID]
	if !ok {
		return
	}
	select {
	case sub.ch <- domain.Event{Name: domain.EventHeartbeat}:
	default:
		n.drop(merchantID, channelID)
	}
}

func (n *sseNotifier) Stats() ports.NotifierStats {
	n.mu.Lock()
	defer n.mu.Unlock()

	stats := ports.NotifierStats{
		Merchants:   len(n.subs),
		PerMerchant: make(map[string]int, len(n.subs)),
	}
	for merchantID, chans := range n.subs {
		stats.Channels += len(chans)
		stats.PerMerchant[merchantID.String()] = len(chans)
	}
	return stats
}
