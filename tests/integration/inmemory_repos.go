package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"pix-link-gateway/internal/core/domain"
	"pix-link-gateway/internal/core/ports"
)

// --- In-Memory Merchant Repo ---

type inMemoryMerchantRepo struct {
	mu        sync.RWMutex
	merchants map[uuid.UUID]*domain.Merchant
}

func newInMemoryMerchantRepo() *inMemoryMerchantRepo {
	return &inMemoryMerchantRepo{merchants: make(map[uuid.UUID]*domain.Merchant)}
}

func (r *inMemoryMerchantRepo) Create(ctx context.Context, m *domain.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.merchants {
		if existing.Email == m.Email {
			return fmt.Errorf("email already exists")
		}
	}
	clone := *m
	r.merchants[m.ID] = &clone
	return nil
}

func (r *inMemoryMerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.merchants[id]
	if !ok {
		return nil, nil
	}
	clone := *m
	return &clone, nil
}

func (r *inMemoryMerchantRepo) GetByEmail(ctx context.Context, email string) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.merchants {
		if m.Email == email {
			clone := *m
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *inMemoryMerchantRepo) UpdateCredentials(ctx context.Context, id uuid.UUID, accessTokenEnc, publicKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.merchants[id]
	if !ok {
		return fmt.Errorf("merchant not found")
	}
	m.AccessTokenEnc = &accessTokenEnc
	m.PublicKey = &publicKey
	return nil
}

// --- In-Memory Link Repo ---

type inMemoryLinkRepo struct {
	mu    sync.RWMutex
	links map[uuid.UUID]*domain.PaymentLink
}

func newInMemoryLinkRepo() *inMemoryLinkRepo {
	return &inMemoryLinkRepo{links: make(map[uuid.UUID]*domain.PaymentLink)}
}

func (r *inMemoryLinkRepo) Create(ctx context.Context, link *domain.PaymentLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.links {
		if existing.ExternalReference == link.ExternalReference {
			return fmt.Errorf("external reference already exists")
		}
	}
	clone := *link
	r.links[link.ID] = &clone
	return nil
}

func (r *inMemoryLinkRepo) GetByID(ctx context.Context, id, merchantID uuid.UUID) (*domain.PaymentLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	link, ok := r.links[id]
	if !ok || link.MerchantID != merchantID {
		return nil, nil
	}
	clone := *link
	return &clone, nil
}

func (r *inMemoryLinkRepo) List(ctx context.Context, params ports.LinkListParams) ([]domain.PaymentLink, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.PaymentLink
	for _, link := range r.links {
		if link.MerchantID != params.MerchantID {
			continue
		}
		if params.Status != nil && link.Status != *params.Status {
			continue
		}
		matched = append(matched, *link)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if params.Offset >= len(matched) {
		return nil, total, nil
	}
	end := params.Offset + params.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[params.Offset:end], total, nil
}

func (r *inMemoryLinkRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.LinkStatus, settlement *ports.SettlementFields) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	link, ok := r.links[id]
	if !ok {
		return fmt.Errorf("link not found")
	}
	link.Status = status
	if settlement != nil {
		if settlement.PaymentTransactionID != nil {
			link.PaymentTransactionID = settlement.PaymentTransactionID
		}
		if settlement.PaymentMethod != nil {
			link.PaymentMethod = settlement.PaymentMethod
		}
		if settlement.PayerConfirmedEmail != nil {
			link.PayerConfirmedEmail = settlement.PayerConfirmedEmail
		}
		if settlement.PaidAt != nil {
			link.PaidAt = settlement.PaidAt
		}
	}
	return nil
}

func (r *inMemoryLinkRepo) AttachPaymentTransaction(ctx context.Context, id uuid.UUID, paymentTransactionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	link, ok := r.links[id]
	if !ok {
		return fmt.Errorf("link not found")
	}
	if link.PaymentTransactionID == nil {
		link.PaymentTransactionID = &paymentTransactionID
	}
	return nil
}

func (r *inMemoryLinkRepo) FindByPaymentTransactionID(ctx context.Context, paymentTransactionID string) (*domain.PaymentLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, link := range r.links {
		if link.PaymentTransactionID != nil && *link.PaymentTransactionID == paymentTransactionID {
			clone := *link
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *inMemoryLinkRepo) FindByExternalReference(ctx context.Context, externalReference string) (*domain.PaymentLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, link := range r.links {
		if link.ExternalReference == externalReference {
			clone := *link
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *inMemoryLinkRepo) FindByGatewayPreferenceID(ctx context.Context, preferenceID string) (*domain.PaymentLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, link := range r.links {
		if link.GatewayPreferenceID == preferenceID {
			clone := *link
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *inMemoryLinkRepo) CountAll(ctx context.Context, merchantID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, link := range r.links {
		if link.MerchantID == merchantID {
			n++
		}
	}
	return n, nil
}

func (r *inMemoryLinkRepo) CountByStatus(ctx context.Context, merchantID uuid.UUID, status domain.LinkStatus) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, link := range r.links {
		if link.MerchantID == merchantID && link.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *inMemoryLinkRepo) CountCreatedSince(ctx context.Context, merchantID uuid.UUID, since time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, link := range r.links {
		if link.MerchantID == merchantID && !link.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// --- In-Memory Notification Repo ---

type inMemoryNotificationRepo struct {
	mu            sync.RWMutex
	notifications []domain.WebhookNotification
}

func newInMemoryNotificationRepo() *inMemoryNotificationRepo {
	return &inMemoryNotificationRepo{}
}

func (r *inMemoryNotificationRepo) Create(ctx context.Context, n *domain.WebhookNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, *n)
	return nil
}

func (r *inMemoryNotificationRepo) ListByLink(ctx context.Context, linkID uuid.UUID) ([]domain.WebhookNotification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.WebhookNotification
	for _, n := range r.notifications {
		if n.LinkID != nil && *n.LinkID == linkID {
			out = append(out, n)
		}
	}
	return out, nil
}
