// Package auth manages user accounts and session tokens.
//
// Registration stores a bcrypt hash of the password. Connect exchanges HTTP
// Basic credentials for an opaque token kept in a session.Store; the token
// is sent back by clients in the X-Token header and revoked by Disconnect.
package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/marmos91/filesmanager/internal/logger"
	"github.com/marmos91/filesmanager/pkg/metadata"
	"github.com/marmos91/filesmanager/pkg/session"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTokenTTL is the lifetime of a session token.
const DefaultTokenTTL = 24 * time.Hour

// DefaultBcryptCost is the password hashing cost.
const DefaultBcryptCost = bcrypt.DefaultCost

// validate is a singleton validator instance.
var validate = validator.New()

// Options configures a Service.
type Options struct {
	// TokenTTL is how long a token stays valid (default: 24h)
	TokenTTL time.Duration

	// BcryptCost is the hashing cost (default: DefaultBcryptCost)
	BcryptCost int
}

// Service implements registration and token authentication.
type Service struct {
	md       metadata.MetadataStore
	sessions session.Store
	ttl      time.Duration
	cost     int
}

// NewService creates an auth service backed by md for users and sessions
// for tokens.
func NewService(md metadata.MetadataStore, sessions session.Store, opts Options) *Service {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = DefaultTokenTTL
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = DefaultBcryptCost
	}
	return &Service{
		md:       md,
		sessions: sessions,
		ttl:      opts.TokenTTL,
		cost:     opts.BcryptCost,
	}
}

// RegisterRequest is the body of a registration.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register creates a user account.
//
// Returns:
//   - *metadata.User: The stored user (with password hash)
//   - error: *ValidationError ("Missing email", "Missing password",
//     "Already exists") or an upstream failure
func (s *Service) Register(ctx context.Context, email, password string) (*metadata.User, error) {
	req := RegisterRequest{Email: strings.TrimSpace(email), Password: password}
	if err := validate.Struct(req); err != nil {
		return nil, registrationError(err)
	}

	hash, err := hashPassword(req.Password, s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &metadata.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.md.CreateUser(ctx, user); err != nil {
		if metadata.IsAlreadyExistsError(err) {
			return nil, &ValidationError{Message: "Already exists"}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.Info("User registered: id=%s", user.ID)
	return user, nil
}

// registrationError maps the first failed field to its client message.
func registrationError(err error) error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		if errs[0].Field() == "Password" {
			return &ValidationError{Message: "Missing password"}
		}
	}
	return &ValidationError{Message: "Missing email"}
}

// Connect validates an "Authorization: Basic ..." header value and issues a
// new token.
func (s *Service) Connect(ctx context.Context, authorization string) (string, error) {
	email, password, ok := parseBasicAuth(authorization)
	if !ok {
		return "", ErrUnauthorized
	}

	user, err := s.md.GetUserByEmail(ctx, email)
	if err != nil {
		if metadata.IsNotFoundError(err) {
			logger.Debug("connect: unknown email")
			return "", ErrUnauthorized
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	if !checkPassword(password, user.PasswordHash) {
		logger.Debug("connect: wrong password for user %s", user.ID)
		return "", ErrUnauthorized
	}

	token := uuid.New().String()
	if err := s.sessions.Set(ctx, token, user.ID, s.ttl); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return token, nil
}

// Disconnect revokes a token. Unknown tokens yield ErrUnauthorized.
func (s *Service) Disconnect(ctx context.Context, token string) error {
	if token == "" {
		return ErrUnauthorized
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return ErrUnauthorized
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Authenticate resolves a token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*metadata.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	userID, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	user, err := s.md.GetUser(ctx, userID)
	if err != nil {
		if metadata.IsNotFoundError(err) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// parseBasicAuth decodes "Basic base64(email:password)".
func parseBasicAuth(header string) (email, password string, ok bool) {
	const prefix = "Basic "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return "", "", false
	}
	email, password, ok = strings.Cut(string(decoded), ":")
	if !ok || email == "" || password == "" {
		return "", "", false
	}
	return email, password, true
}
