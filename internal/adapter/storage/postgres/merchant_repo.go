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

const merchantColumns = `id, name, email, password_hash, store_name, access_token_enc,
	public_key, created_at, updated_at`

type merchantRepository struct {
	pool Pool
}

// NewMerchantRepository builds the Postgres-backed merchant repository.
func NewMerchantRepository(pool Pool) ports.MerchantRepository {
	return &merchantRepository{pool: pool}
}

func (r *merchantRepository) Create(ctx context.Context, m *domain.Merchant) error {
	query := `
		INSERT INTO merchants (` + merchantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		m.ID, m.Name, m.Email, m.PasswordHash, m.StoreName,
		m.AccessTokenEnc, m.PublicKey, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting merchant: %w", err)
	}
	return nil
}

func (r *merchantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE id = $1`
	return r.queryOne(ctx, query, id)
}

func (r *merchantRepository) GetByEmail(ctx context.Context, email string) (*domain.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE email = $1`
	return r.queryOne(ctx, query, email)
}

func (r *merchantRepository) UpdateCredentials(ctx context.Context, id uuid.UUID, accessTokenEnc, publicKey string) error {
	query := `
		UPDATE merchants SET access_token_enc = $2, public_key = $3, updated_at = $4
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, accessTokenEnc, publicKey, time.Now())
	if err != nil {
		return fmt.Errorf("updating merchant credentials: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("merchant %s not found", id)
	}
	return nil
}

func (r *merchantRepository) queryOne(ctx context.Context, query string, args ...any) (*domain.Merchant, error) {
	var m domain.Merchant
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&m.ID, &m.Name, &m.Email, &m.PasswordHash, &m.StoreName,
		&m.AccessTokenEnc, &m.PublicKey, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning merchant: %w", err)
	}
	return &m, nil
}
