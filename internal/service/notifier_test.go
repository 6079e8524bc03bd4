package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pix-link-gateway/internal/core/domain"
)

func TestNotifierPublishReachesAllMerchantChannels(t *testing.T) {
	n := NewNotifier(zerolog.Nop())
	merchantID := uuid.New()

	ch1 := n.Register(merchantID)
	ch2 := n.Register(merchantID)
	other := n.Register(uuid.New())

	n.Publish(merchantID, domain.EventPaymentUpdate, map[string]interface{}{"link_id": "abc"})

	for _, ch := range []<-chan domain.Event{ch1.C, ch2.C} {
		select {
		case ev := <-ch:
			assert.Equal(t, domain.EventPaymentUpdate, ev.Name)
		default:
			t.Fatal("expected event on merchant channel")
		}
	}

	select {
	case <-other.C:
		t.Fatal("event leaked to another merchant")
	default:
	}
}

func TestNotifierUnregisterClosesChannel(t *testing.T) {
	n := NewNotifier(zerolog.Nop())
	merchantID := uuid.New()

	ch := n.Register(merchantID)
	n.Unregister(merchantID, ch.ID)

	_, open := <-ch.C
	assert.False(t, open)

	// Publishing after the last channel is gone must not panic.
	n.Publish(merchantID, domain.EventPaymentUpdate, nil)
}

func TestNotifierDropsStalledChannel(t *testing.T) {
	n := NewNotifier(zerolog.Nop())
	merchantID := uuid.New()

	ch := n.Register(merchantID)
	for i := 0; i < channelBuffer+5; i++ {
		n.Publish(merchantID, domain.EventPaymentUpdate, i)
	}

	// The subscriber never read, so the overflow publish pruned it.
	stats := n.Stats()
	assert.Equal(t, 0, stats.Channels)

	// Drain what was buffered before the close.
	count := 0
	for range ch.C {
		count++
	}
	assert.Equal(t, channelBuffer, count)
}

func TestNotifierHeartbeat(t *testing.T) {
	n := NewNotifier(zerolog.Nop())
	merchantID := uuid.New()

	ch := n.Register(merchantID)
	n.Heartbeat(merchantID, ch.ID)

	select {
	case ev := <-ch.C:
		assert.Equal(t, domain.EventHeartbeat, ev.Name)
	default:
		t.Fatal("expected heartbeat event")
	}

	// Unknown channel id is a no-op.
	n.Heartbeat(merchantID, 9999)
}

func TestNotifierStats(t *testing.T) {
	n := NewNotifier(zerolog.Nop())
	a, b := uuid.New(), uuid.New()

	n.Register(a)
	n.Register(a)
	chB := n.Register(b)

	stats := n.Stats()
	require.Equal(t, 2, stats.Merchants)
	assert.Equal(t, 3, stats.Channels)
	assert.Equal(t, 2, stats.PerMerchant[a.String()])
	assert.Equal(t, 1, stats.PerMerchant[b.String()])

	n.Unregister(b, chB.ID)
	stats = n.Stats()
	assert.Equal(t, 1, stats.Merchants)
	assert.Equal(t, 2, stats.Channels)
}
