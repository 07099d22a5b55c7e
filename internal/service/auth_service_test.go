package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/academiapress/platform-api/internal/models"
	"github.com/academiapress/platform-api/pkg/config"
	appErrors "github.com/academiapress/platform-api/pkg/errors"
)

type fakeUserRepo struct {
	usersByEmail map[string]*models.User
	usersByID    map[string]*models.User
	tokens       map[string]*models.RefreshToken
	lastLogin    map[string]time.Time
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		usersByEmail: map[string]*models.User{},
		usersByID:    map[string]*models.User{},
		tokens:       map[string]*models.RefreshToken{},
		lastLogin:    map[string]time.Time{},
	}
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := f.usersByEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := f.usersByID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	f.usersByEmail[user.Email] = user
	f.usersByID[user.ID] = user
	return nil
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, id string, ts time.Time) error {
	f.lastLogin[id] = ts
	return nil
}

func (f *fakeUserRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeUserRepo) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := f.tokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return stored, nil
}

func (f *fakeUserRepo) RevokeRefreshToken(_ context.Context, id string, revokedAt time.Time) error {
	for _, token := range f.tokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (f *fakeUserRepo) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	for _, token := range f.tokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

type fakeProfileRepo struct {
	profiles map[string]*models.UserProfile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: map[string]*models.UserProfile{}}
}

func (f *fakeProfileRepo) FindByID(_ context.Context, id string) (*models.UserProfile, error) {
	profile, ok := f.profiles[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return profile, nil
}

func (f *fakeProfileRepo) Create(_ context.Context, profile *models.UserProfile) error {
	f.profiles[profile.ID] = profile
	return nil
}

func testAuthService(users *fakeUserRepo, profiles *fakeProfileRepo) *AuthService {
	cfg := config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, RefreshExpiration: 24 * time.Hour}
	return NewAuthService(users, profiles, nil, cfg, zap.NewNop())
}

func TestAuthServiceSignupCreatesUserAndProfile(t *testing.T) {
	users := newFakeUserRepo()
	profiles := newFakeProfileRepo()
	svc := testAuthService(users, profiles)

	res, err := svc.Signup(context.Background(), models.SignupRequest{
		Email:       "Ada@Example.com",
		Password:    "correct-horse",
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Institution: "Analytical Society",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, models.RoleAuthor, res.User.Role)
	assert.Equal(t, "ada@example.com", res.User.Email)

	profile, err := profiles.FindByID(context.Background(), res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", profile.DisplayName())
	require.NotNil(t, profile.Institution)
	assert.Equal(t, "Analytical Society", *profile.Institution)
}

func TestAuthServiceSignupDuplicateEmail(t *testing.T) {
	users := newFakeUserRepo()
	svc := testAuthService(users, newFakeProfileRepo())

	req := models.SignupRequest{Email: "dup@example.com", Password: "correct-horse", FirstName: "A", LastName: "B"}
	_, err := svc.Signup(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogin(t *testing.T) {
	users := newFakeUserRepo()
	profiles := newFakeProfileRepo()
	svc := testAuthService(users, profiles)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), &models.User{
		ID: "u1", Email: "ada@example.com", PasswordHash: string(hash), Role: models.RoleAuthor, Active: true,
	}))
	require.NoError(t, profiles.Create(context.Background(), &models.UserProfile{ID: "u1", FirstName: "Ada", LastName: "Lovelace", Role: models.RoleAuthor}))

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Contains(t, users.lastLogin, "u1")

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleAuthor, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	users := newFakeUserRepo()
	svc := testAuthService(users, newFakeProfileRepo())

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, users.Create(context.Background(), &models.User{
		ID: "u1", Email: "ada@example.com", PasswordHash: string(hash), Active: true,
	}))

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ada@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	users := newFakeUserRepo()
	svc := testAuthService(users, newFakeProfileRepo())

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, users.Create(context.Background(), &models.User{
		ID: "u1", Email: "ada@example.com", PasswordHash: string(hash), Active: false,
	}))

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	users := newFakeUserRepo()
	profiles := newFakeProfileRepo()
	svc := testAuthService(users, profiles)

	res, err := svc.Signup(context.Background(), models.SignupRequest{
		Email: "ada@example.com", Password: "correct-horse", FirstName: "Ada", LastName: "Lovelace",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), res.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, res.RefreshToken, refreshed.RefreshToken)

	// The used token is revoked and cannot be replayed.
	_, err = svc.Refresh(context.Background(), res.RefreshToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc := testAuthService(newFakeUserRepo(), newFakeProfileRepo())
	_, err := svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
