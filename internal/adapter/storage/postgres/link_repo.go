package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pix-link-gateway/internal/core/domain"
	"pix-link-gateway/internal/core/ports"
)

const linkColumns = `id, merchant_id, description, amount, status, external_reference,
	gateway_preference_id, payment_url, sandbox_payment_url, payment_transaction_id,
	payer_email, payer_name, payer_tax_id, payment_method, payer_confirmed_email,
	expires_at, created_at, paid_at`

type linkRepository struct {
	pool Pool
}

// NewLinkRepository builds the Postgres-backed link repository.
func NewLinkRepository(pool Pool) ports.LinkRepository {
	return &linkRepository{pool: pool}
}

func (r *linkRepository) Create(ctx context.Context, link *domain.PaymentLink) error {
	query := `
		INSERT INTO payment_links (` + linkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err := r.pool.Exec(ctx, query,
		link.ID, link.MerchantID, link.Description, link.Amount, link.Status,
		link.ExternalReference, link.GatewayPreferenceID, link.PaymentURL,
		link.SandboxPaymentURL, link.PaymentTransactionID, link.PayerEmail,
		link.PayerName, link.PayerTaxID, link.PaymentMethod, link.PayerConfirmedEmail,
		link.ExpiresAt, link.CreatedAt, link.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("inserting payment link: %w", err)
	}
	return nil
}

func (r *linkRepository) GetByID(ctx context.Context, id, merchantID uuid.UUID) (*domain.PaymentLink, error) {
	query := `SELECT ` + linkColumns + ` FROM payment_links WHERE id = $1 AND merchant_id = $2`
	return r.queryOne(ctx, query, id, merchantID)
}

func (r *linkRepository) List(ctx context.Context, params ports.LinkListParams) ([]domain.PaymentLink, int64, error) {
	where := `WHERE merchant_id = $1`
	args := []any{params.MerchantID}
	if params.Status != nil {
		where += ` AND status = $2`
		args = append(args, *params.Status)
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM payment_links ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting payment links: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM payment_links %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		linkColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing payment links: %w", err)
	}
	defer rows.Close()

	var links []domain.PaymentLink
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, 0, err
		}
		links = append(links, *link)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating payment links: %w", err)
	}

	return links, total, nil
}

func (r *linkRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.LinkStatus, settlement *ports.SettlementFields) error {
	query := `
		UPDATE payment_links
		SET status = $2,
			payment_transaction_id = COALESCE($3, payment_transaction_id),
			payment_method = COALESCE($4, payment_method),
			payer_confirmed_email = COALESCE($5, payer_confirmed_email),
			paid_at = COALESCE($6, paid_at)
		WHERE id = $1`

	var txID, method, email *string
	var paidAt *time.Time
	if settlement != nil {
		txID = settlement.PaymentTransactionID
		method = settlement.PaymentMethod
		email = settlement.PayerConfirmedEmail
		paidAt = settlement.PaidAt
	}

	tag, err := r.pool.Exec(ctx, query, id, status, txID, method, email, paidAt)
	if err != nil {
		return fmt.Errorf("updating link status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment link %s not found", id)
	}
	return nil
}

func (r *linkRepository) AttachPaymentTransaction(ctx context.Context, id uuid.UUID, paymentTransactionID string) error {
	// First writer wins; replays keep the original payment id.
	query := `
		UPDATE payment_links SET payment_transaction_id = $2
		WHERE id = $1 AND payment_transaction_id IS NULL`

	if _, err := r.pool.Exec(ctx, query, id, paymentTransactionID); err != nil {
		return fmt.Errorf("attaching payment transaction: %w", err)
	}
	return nil
}

func (r *linkRepository) FindByPaymentTransactionID(ctx context.Context, paymentTransactionID string) (*domain.PaymentLink, error) {
	query := `SELECT ` + linkColumns + ` FROM payment_links WHERE payment_transaction_id = $1`
	return r.queryOne(ctx, query, paymentTransactionID)
}

func (r *linkRepository) FindByExternalReference(ctx context.Context, externalReference string) (*domain.PaymentLink, error) {
	query := `SELECT ` + linkColumns + ` FROM payment_links WHERE external_reference = $1`
	return r.queryOne(ctx, query, externalReference)
}

func (r *linkRepository) FindByGatewayPreferenceID(ctx context.Context, preferenceID string) (*domain.PaymentLink, error) {
	query := `SELECT ` + linkColumns + ` FROM payment_links WHERE gateway_preference_id = $1`
	return r.queryOne(ctx, query, preferenceID)
}

func (r *linkRepository) CountAll(ctx context.Context, merchantID uuid.UUID) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM payment_links WHERE merchant_id = $1`, merchantID)
}

func (r *linkRepository) CountByStatus(ctx context.Context, merchantID uuid.UUID, status domain.LinkStatus) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM payment_links WHERE merchant_id = $1 AND status = $2`, merchantID, status)
}

func (r *linkRepository) CountCreatedSince(ctx context.Context, merchantID uuid.UUID, since time.Time) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM payment_links WHERE merchant_id = $1 AND created_at >= $2`, merchantID, since)
}

func (r *linkRepository) queryOne(ctx context.Context, query string, args ...any) (*domain.PaymentLink, error) {
	link, err := scanLink(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return link, nil
}

func (r *linkRepository) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting payment links: %w", err)
	}
	return n, nil
}

func scanLink(row pgx.Row) (*domain.PaymentLink, error) {
	var link domain.PaymentLink
	err := row.Scan(
		&link.ID, &link.MerchantID, &link.Description, &link.Amount, &link.Status,
		&link.ExternalReference, &link.GatewayPreferenceID, &link.PaymentURL,
		&link.SandboxPaymentURL, &link.PaymentTransactionID, &link.PayerEmail,
		&link.PayerName, &link.PayerTaxID, &link.PaymentMethod, &link.PayerConfirmedEmail,
		&link.ExpiresAt, &link.CreatedAt, &link.PaidAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning payment link: %w", err)
	}
	return &link, nil
}
