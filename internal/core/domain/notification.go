package domain

import (
	"time"

	"github.com/google/uuid"
)

// WebhookNotification is an append-only audit record of a processed gateway
// notification. Rows are written once and never mutated; they exist for
// replay diagnosis and duplicate-delivery inspection.
type WebhookNotification struct {
	ID                    uuid.UUID  `json:"id"`
	LinkID                *uuid.UUID `json:"link_id,omitempty"` // nil when no link could be resolved
	GatewayNotificationID string     `json:"gateway_notification_id"`
	ReportedStatus        string     `json:"reported_status"`
	RawPayload            []byte     `json:"raw_payload"`
	ReceivedAt            time.Time  `json:"received_at"`
}

// Event is a realtime message pushed to a merchant's open dashboard channels.
type Event struct {
	Name    string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Realtime event names delivered over the SSE stream.
const (
	EventConnected        = "connected"
	EventPaymentUpdate    = "payment_update"
	EventPaymentCompleted = "payment_completed"
	EventHeartbeat        = "heartbeat"
)
