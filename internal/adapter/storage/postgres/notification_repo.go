package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"pix-link-gateway/internal/core/domain"
	"pix-link-gateway/internal/core/ports"
)

type notificationRepository struct {
	pool Pool
}

// NewNotificationRepository builds the append-only webhook audit store.
func NewNotificationRepository(pool Pool) ports.NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.WebhookNotification) error {
	query := `
		INSERT INTO webhook_notifications (id, link_id, gateway_notification_id, reported_status, raw_payload, received_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		n.ID, n.LinkID, n.GatewayNotificationID, n.ReportedStatus, n.RawPayload, n.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting webhook notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) ListByLink(ctx context.Context, linkID uuid.UUID) ([]domain.WebhookNotification, error) {
	query := `
		SELECT id, link_id, gateway_notification_id, reported_status, raw_payload, received_at
		FROM webhook_notifications
		WHERE link_id = $1
		ORDER BY received_at ASC`

	rows, err := r.pool.Query(ctx, query, linkID)
	if err != nil {
		return nil, fmt.Errorf("listing webhook notifications: %w", err)
	}
	defer rows.Close()

	var notes []domain.WebhookNotification
	for rows.Next() {
		var n domain.WebhookNotification
		if err := rows.Scan(&n.ID, &n.LinkID, &n.GatewayNotificationID, &n.ReportedStatus, &n.RawPayload, &n.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scanning webhook notification: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating webhook notifications: %w", err)
	}

	return notes, nil
}
