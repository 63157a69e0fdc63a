package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thesisguard/internal/models"
	"thesisguard/internal/repositories"
)

type fakeAccountRepo struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]models.Account
	byEmail map[string]uuid.UUID
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{
		byID:    make(map[uuid.UUID]models.Account),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (r *fakeAccountRepo) Create(account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[account.ID] = *account
	r.byEmail[account.Email] = account.ID
	return nil
}

func (r *fakeAccountRepo) FindByID(id uuid.UUID) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &account, nil
}

func (r *fakeAccountRepo) FindByEmail(email string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	account := r.byID[id]
	return &account, nil
}

func newTestAuthService() (AuthService, *fakeAccountRepo) {
	repo := newFakeAccountRepo()
	return NewAuthService(repo, "test-secret", time.Hour), repo
}

func TestRegisterLoginAuthenticateRoundTrip(t *testing.T) {
	ctx := context.Background()
	auth, _ := newTestAuthService()

	account, err := auth.Register(ctx, "Student@Uni.EDU", "Student", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, "student@uni.edu", account.Email)
	assert.NotEqual(t, "correct horse battery", account.PasswordHash)

	token, logged, err := auth.Login(ctx, "student@uni.edu", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, account.ID, logged.ID)
	require.NotEmpty(t, token)

	authenticated, err := auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, authenticated.ID)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	auth, _ := newTestAuthService()

	tests := []struct {
		name     string
		email    string
		fullName string
		password string
		field    string
	}{
		{"bad email", "not-an-email", "Student", "longenough", "email"},
		{"empty name", "student@uni.edu", "  ", "longenough", "name"},
		{"short password", "student@uni.edu", "Student", "short", "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Register(ctx, tt.email, tt.fullName, tt.password)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	auth, _ := newTestAuthService()

	_, err := auth.Register(ctx, "student@uni.edu", "Student", "longenough")
	require.NoError(t, err)

	_, err = auth.Register(ctx, "STUDENT@uni.edu", "Other", "longenough")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	auth, _ := newTestAuthService()

	_, err := auth.Register(ctx, "student@uni.edu", "Student", "longenough")
	require.NoError(t, err)

	_, _, err = auth.Login(ctx, "student@uni.edu", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = auth.Login(ctx, "nobody@uni.edu", "longenough")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateRejectsGarbageToken(t *testing.T) {
	ctx := context.Background()
	auth, _ := newTestAuthService()

	_, err := auth.Authenticate(ctx, "not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticateRejectsForeignSignature(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAccountRepo()
	issuer := NewAuthService(repo, "issuer-secret", time.Hour)
	verifier := NewAuthService(repo, "verifier-secret", time.Hour)

	_, err := issuer.Register(ctx, "student@uni.edu", "Student", "longenough")
	require.NoError(t, err)

	token, _, err := issuer.Login(ctx, "student@uni.edu", "longenough")
	require.NoError(t, err)

	_, err = verifier.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticateReloadsAdminFlag(t *testing.T) {
	ctx := context.Background()
	auth, repo := newTestAuthService()

	account, err := auth.Register(ctx, "dean@uni.edu", "Dean", "longenough")
	require.NoError(t, err)

	token, _, err := auth.Login(ctx, "dean@uni.edu", "longenough")
	require.NoError(t, err)

	// Promote after the token was issued; the next request sees the flag.
	promoted := *account
	promoted.IsAdmin = true
	require.NoError(t, repo.Create(&promoted))

	authenticated, err := auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.True(t, authenticated.IsAdmin)
}
