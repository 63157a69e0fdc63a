package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"thesisguard/internal/models"
	"thesisguard/internal/repositories"
)

const minPasswordLength = 8

// AuthService registers accounts and turns bearer tokens back into
// accounts. Everything downstream only authorizes with the Account it is
// handed; nothing else in the pipeline authenticates.
type AuthService interface {
	Register(ctx context.Context, email, name, password string) (*models.Account, error)
	Login(ctx context.Context, email, password string) (string, *models.Account, error)
	Authenticate(ctx context.Context, token string) (*models.Account, error)
}

type authService struct {
	accountRepo repositories.AccountRepository
	jwtSecret   []byte
	tokenTTL    time.Duration
}

func NewAuthService(accountRepo repositories.AccountRepository, jwtSecret string, tokenTTL time.Duration) AuthService {
	return &authService{
		accountRepo: accountRepo,
		jwtSecret:   []byte(jwtSecret),
		tokenTTL:    tokenTTL,
	}
}

type accountClaims struct {
	IsAdmin bool `json:"is_admin"`
	jwt.RegisteredClaims
}

// Register implements AuthService.
func (s *authService) Register(ctx context.Context, email, name, password string) (*models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, newValidationError("email", "must be a valid email address")
	}
	if strings.TrimSpace(name) == "" {
		return nil, newValidationError("name", "must not be empty")
	}
	if len(password) < minPasswordLength {
		return nil, newValidationError("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}

	if _, err := s.accountRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.accountRepo.Create(account); err != nil {
		return nil, err
	}

	return account, nil
}

// Login implements AuthService.
func (s *authService) Login(ctx context.Context, email, password string) (string, *models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	account, err := s.accountRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := time.Now()
	claims := accountClaims{
		IsAdmin: account.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return token, account, nil
}

// Authenticate implements AuthService. The account is re-read from the
// repository so a revoked admin flag takes effect before token expiry.
func (s *authService) Authenticate(ctx context.Context, tokenStr string) (*models.Account, error) {
	var claims accountClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	account, err := s.accountRepo.FindByID(accountID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return account, nil
}
