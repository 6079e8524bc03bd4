package integration

import (
	"context"
	"fmt"
	"sync"

	"pix-link-gateway/internal/core/ports"
)

// fakeGateway stands in for the Mercado Pago API. Tests seed payments into
// it and the reconciler fetches them back like it would from the real API.
type fakeGateway struct {
	mu          sync.Mutex
	prefSeq     int
	preferences map[string]ports.GatewayCreateLink
	payments    map[string]ports.GatewayPayment
	lastToken   string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		preferences: make(map[string]ports.GatewayCreateLink),
		payments:    make(map[string]ports.GatewayPayment),
	}
}

func (g *fakeGateway) CreateLink(ctx context.Context, accessToken string, req ports.GatewayCreateLink) (*ports.GatewayPreference, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastToken = accessToken
	g.prefSeq++
	id := fmt.Sprintf("pref-%d", g.prefSeq)
	g.preferences[id] = req
	return &ports.GatewayPreference{
		ID:               id,
		InitPoint:        "https://mp.example/checkout/" + id,
		SandboxInitPoint: "https://sandbox.mp.example/checkout/" + id,
	}, nil
}

func (g *fakeGateway) GetPaymentStatus(ctx context.Context, accessToken, paymentID string) (*ports.GatewayPayment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastToken = accessToken
	payment, ok := g.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("payment %s not found", paymentID)
	}
	return &payment, nil
}

// seedPayment makes a payment visible to subsequent status fetches.
func (g *fakeGateway) seedPayment(p ports.GatewayPayment) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payments[p.ID] = p
}
