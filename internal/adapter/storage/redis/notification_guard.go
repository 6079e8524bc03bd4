package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pix-link-gateway/internal/core/ports"
)

// Dedup keys outlive the gateway's retry schedule by a wide margin.
const guardTTL = 48 * time.Hour

const guardKeyPrefix = "webhook:seen:"

type notificationGuard struct {
	client *redis.Client
}

// NewNotificationGuard builds the webhook dedup guard. SET NX gives one
// atomic first-writer-wins check per notification id.
func NewNotificationGuard(client *redis.Client) ports.NotificationGuard {
	return &notificationGuard{client: client}
}

func (g *notificationGuard) CheckAndMark(ctx context.Context, notificationID string) (bool, error) {
	stored, err := g.client.SetNX(ctx, guardKeyPrefix+notificationID, 1, guardTTL).Result()
	if err != nil {
		return false, fmt.Errorf("marking notification: %w", err)
	}
	// stored=true means this is the first sighting.
	return !stored, nil
}
