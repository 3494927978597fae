package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

var (
	// ErrMissingCredentials indicates a required credential field was empty.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrUserNotFound indicates no account matches the supplied username or email.
	ErrUserNotFound = errors.New("user does not exist")
	// ErrInvalidCredentials indicates the supplied password did not match.
	ErrInvalidCredentials = errors.New("invalid user credentials")
	// ErrInvalidRefreshToken indicates the refresh token is malformed, expired, or no
	// longer the one on record.
	ErrInvalidRefreshToken = errors.New("refresh token is expired or used")
)

// UserStore is the slice of user persistence the session manager depends on.
type UserStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (models.User, error)
	FindByIdentifier(ctx context.Context, username, email string) (models.User, error)
	SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error
	RotateRefreshToken(ctx context.Context, id uuid.UUID, current, next string) error
	ClearRefreshToken(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
}

// Manager owns the session lifecycle: login, logout, refresh rotation and password
// changes. The refresh token on the user record is the single live session.
type Manager struct {
	tokens  *TokenIssuer
	users   UserStore
	hasher  PasswordHasher
	revoker Revoker
}

// NewManager constructs a Manager.
func NewManager(tokens *TokenIssuer, users UserStore, hasher PasswordHasher, revoker Revoker) *Manager {
	if tokens == nil || users == nil {
		panic("auth: token issuer and user store must not be nil")
	}
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	if revoker == nil {
		revoker = NoopRevoker{}
	}
	return &Manager{tokens: tokens, users: users, hasher: hasher, revoker: revoker}
}

// Login checks the credentials of the user identified by username or email and
// starts a new session, replacing any previous refresh token.
func (m *Manager) Login(ctx context.Context, username, email, password string) (models.User, models.SessionTokens, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))
	if (username == "" && email == "") || password == "" {
		return models.User{}, models.SessionTokens{}, ErrMissingCredentials
	}

	user, err := m.users.FindByIdentifier(ctx, username, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, models.SessionTokens{}, ErrUserNotFound
		}
		return models.User{}, models.SessionTokens{}, err
	}

	if !m.hasher.Compare(user.Password, password) {
		return models.User{}, models.SessionTokens{}, ErrInvalidCredentials
	}

	tokens, err := m.tokens.Issue(user)
	if err != nil {
		return models.User{}, models.SessionTokens{}, err
	}
	if err := m.users.SetRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		return models.User{}, models.SessionTokens{}, fmt.Errorf("store refresh token: %w", err)
	}

	user.RefreshToken = tokens.RefreshToken
	return user, tokens, nil
}

// Logout ends the caller's session and revokes the access token it presented.
func (m *Manager) Logout(ctx context.Context, id Identity) error {
	if err := m.users.ClearRefreshToken(ctx, id.UserID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return m.revoker.Revoke(ctx, id.TokenID, id.ExpiresAt)
}

// Refresh exchanges the current refresh token for a new pair. Each refresh token is
// accepted at most once; a replay loses the compare-and-swap and is rejected.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	claims, err := m.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return models.SessionTokens{}, ErrInvalidRefreshToken
	}
	userID, err := subjectID(claims.RegisteredClaims)
	if err != nil {
		return models.SessionTokens{}, ErrInvalidRefreshToken
	}

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, ErrInvalidRefreshToken
		}
		return models.SessionTokens{}, err
	}
	if user.RefreshToken == "" || user.RefreshToken != refreshToken {
		return models.SessionTokens{}, ErrInvalidRefreshToken
	}

	tokens, err := m.tokens.Issue(user)
	if err != nil {
		return models.SessionTokens{}, err
	}
	if err := m.users.RotateRefreshToken(ctx, user.ID, refreshToken, tokens.RefreshToken); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, ErrInvalidRefreshToken
		}
		return models.SessionTokens{}, fmt.Errorf("rotate refresh token: %w", err)
	}
	return tokens, nil
}

// ChangePassword replaces the user's password after verifying the current one.
func (m *Manager) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return ErrMissingCredentials
	}

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if !m.hasher.Compare(user.Password, oldPassword) {
		return ErrInvalidCredentials
	}

	hash, err := m.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return m.users.UpdatePassword(ctx, userID, hash)
}

// HashPassword hashes a password for a new account.
func (m *Manager) HashPassword(password string) (string, error) {
	return m.hasher.Hash(password)
}

// Authenticate verifies an access token and returns the identity of the user it
// names. Revoked tokens and deleted users are rejected with ErrInvalidToken.
func (m *Manager) Authenticate(ctx context.Context, accessToken string) (Identity, error) {
	claims, err := m.tokens.VerifyAccess(accessToken)
	if err != nil {
		return Identity{}, err
	}
	userID, err := subjectID(claims.RegisteredClaims)
	if err != nil {
		return Identity{}, err
	}

	revoked, err := m.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return Identity{}, err
	}
	if revoked {
		return Identity{}, ErrInvalidToken
	}

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return Identity{}, ErrInvalidToken
		}
		return Identity{}, err
	}

	id := Identity{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
		TokenID:  claims.ID,
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}
