package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pix-link-gateway/internal/core/domain"
	"pix-link-gateway/internal/core/ports"
	"pix-link-gateway/pkg/apperror"
)

type authService struct {
	merchants ports.MerchantRepository
	hash      ports.HashService
	enc       ports.EncryptionService
	tokens    ports.TokenService
	log       zerolog.Logger
}

// NewAuthService builds the merchant account and session service.
func NewAuthService(
	merchants ports.MerchantRepository,
	hash ports.HashService,
	enc ports.EncryptionService,
	tokens ports.TokenService,
	log zerolog.Logger,
) ports.AuthService {
	return &authService{
		merchants: merchants,
		hash:      hash,
		enc:       enc,
		tokens:    tokens,
		log:       log.With().Str("component", "auth_service").Logger(),
	}
}

func (s *authService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	existing, err := s.merchants.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if existing != nil {
		return nil, apperror.ErrEmailExists()
	}

	passwordHash, err := s.hash.Hash(in.Password)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	now := time.Now()
	merchant := &domain.Merchant{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: passwordHash,
		StoreName:    strings.TrimSpace(in.StoreName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Gateway credentials are optional at signup; links require them later.
	if in.MPAccessToken != "" {
		tokenEnc, err := s.enc.Encrypt(in.MPAccessToken)
		if err != nil {
			return nil, apperror.InternalError(err)
		}
		merchant.AccessTokenEnc = &tokenEnc
		if in.MPPublicKey != "" {
			publicKey := in.MPPublicKey
			merchant.PublicKey = &publicKey
		}
	}

	if err := s.merchants.Create(ctx, merchant); err != nil {
		return nil, apperror.InternalError(err)
	}

	token, expiresAt, err := s.tokens.Generate(merchant.ID, merchant.Email)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	s.log.Info().
		Str("merchant_id", merchant.ID.String()).
		Str("email", merchant.Email).
		Msg("merchant registered")

	return &ports.AuthResult{Merchant: merchant, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	merchant, err := s.merchants.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if merchant == nil {
		return nil, apperror.ErrInvalidCredentials()
	}

	ok, err := s.hash.Verify(password, merchant.PasswordHash)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if !ok {
		return nil, apperror.ErrInvalidCredentials()
	}

	token, expiresAt, err := s.tokens.Generate(merchant.ID, merchant.Email)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	return &ports.AuthResult{Merchant: merchant, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *authService) Profile(ctx context.Context, merchantID uuid.UUID) (*domain.Merchant, error) {
	merchant, err := s.merchants.GetByID(ctx, merchantID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("Merchant")
	}
	return merchant, nil
}
