package auth

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/quillfeed/quillfeed/internal/apperr"
	"github.com/quillfeed/quillfeed/internal/cache"
	"github.com/quillfeed/quillfeed/internal/db"
	"github.com/quillfeed/quillfeed/internal/models"
	"github.com/quillfeed/quillfeed/pkg/config"
	"github.com/quillfeed/quillfeed/pkg/logging"
)

// Service issues and validates tokens and manages account registration.
// Access tokens are stateless; refresh tokens additionally live in a
// per-username revocable set so rotation and sign-out-everywhere work.
type Service struct {
	users  *db.UserRepository
	cache  cache.Store
	cfg    config.AuthConfig
	logger *zap.Logger
}

// NewService creates a new auth service
func NewService(repo *db.Repository, store cache.Store, cfg config.AuthConfig) *Service {
	return &Service{
		users:  db.NewUserRepository(repo),
		cache:  store,
		cfg:    cfg,
		logger: logging.WithComponent("auth"),
	}
}

// refreshSetKey is the revocable-set key for a username
func refreshSetKey(username string) string {
	return "refresh:" + username
}

// Register creates a new account and signs it in. Username and email are
// case-normalized; a collision on either reports which field collided.
func (s *Service) Register(ctx context.Context, username, email, password string) (*TokenPair, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := s.users.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		key := "username"
		if existing.Email == email {
			key = "email address"
		}
		return nil, apperr.Conflict("a user is already registered with this " + key)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		DateJoined:   time.Now().UTC(),
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("username", username))

	return s.issueTokens(ctx, Principal{ID: user.ID, Username: user.Username})
}

// Authenticate verifies credentials and signs the user in
func (s *Service) Authenticate(ctx context.Context, username, password string) (*TokenPair, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.Unauthorized("incorrect username or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthorized("incorrect username or password")
	}

	return s.issueTokens(ctx, Principal{ID: user.ID, Username: user.Username})
}

// Refresh rotates a refresh token. Tokens are single-use: the presented
// token is removed from the revocable set before a new pair is issued, so
// a replayed token fails.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	principal, err := verifyToken(refreshToken, s.cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	consumed, err := s.cache.SRem(ctx, refreshSetKey(principal.Username), cache.HashKey(refreshToken))
	if err != nil {
		return nil, err
	}
	if !consumed {
		return nil, apperr.Unauthorized("could not validate credentials")
	}

	return s.issueTokens(ctx, principal)
}

// ResolvePrincipal validates an access token and returns its principal
func (s *Service) ResolvePrincipal(accessToken string) (Principal, error) {
	return verifyToken(accessToken, s.cfg.JWTSecret)
}

// RefreshLifetime exposes the refresh token lifetime for cookie expiry
func (s *Service) RefreshLifetime() time.Duration {
	return s.cfg.RefreshExpires
}

// issueTokens creates an access/refresh pair. The pair is observable only
// as a unit: if storing the refresh token fails, neither token is returned.
func (s *Service) issueTokens(ctx context.Context, principal Principal) (*TokenPair, error) {
	access, err := createToken(principal, s.cfg.JWTSecret, s.cfg.AccessExpires)
	if err != nil {
		return nil, err
	}
	refresh, err := createToken(principal, s.cfg.JWTSecret, s.cfg.RefreshExpires)
	if err != nil {
		return nil, err
	}

	// The set holds token hashes, never the tokens themselves
	if err := s.cache.SAdd(ctx, refreshSetKey(principal.Username), cache.HashKey(refresh)); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
