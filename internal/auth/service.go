// Package auth implements the sign-in flow for the shop panel: credential
// validation, the two-step authenticate-then-authorize check, bearer
// session issuance, and an observable auth-state gate.
package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/safar/go-shop-admin/internal/database"
	"github.com/safar/go-shop-admin/internal/models"
	"github.com/safar/go-shop-admin/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// Provider abstracts the identity provider. Authenticate returns the user id
// for valid credentials and ErrAuthFailed otherwise. Revoke invalidates the
// provider-side session; it is called to revert a sign-in whose identity
// turns out not to be a registered shop owner.
type Provider interface {
	Authenticate(ctx context.Context, email, password string) (string, error)
	Revoke(ctx context.Context, userID string) error
}

// PQProvider authenticates against the password hash on the shop_owners row.
type PQProvider struct {
	DB *sql.DB
}

func (p *PQProvider) Authenticate(ctx context.Context, email, password string) (string, error) {
	owner, err := store.GetOwnerByEmail(ctx, p.DB, email)
	if err != nil {
		if errors.Is(err, database.ErrOwnerNotFound) {
			return "", ErrAuthFailed
		}
		return "", fmt.Errorf("look up owner: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(owner.PasswordHash), []byte(password)); err != nil {
		return "", ErrAuthFailed
	}

	return owner.ID, nil
}

// Revoke is a no-op here: this provider issues no session of its own, the
// bearer session is created after authorization succeeds. Hosted providers
// sign the identity out at this point.
func (p *PQProvider) Revoke(ctx context.Context, userID string) error {
	return nil
}

type Config struct {
	SessionTTL time.Duration
	BcryptCost int
}

type Service struct {
	db       *sql.DB
	provider Provider
	gate     *Gate
	config   Config
}

func NewService(db *sql.DB, provider Provider, gate *Gate, config Config) *Service {
	return &Service{
		db:       db,
		provider: provider,
		gate:     gate,
		config:   config,
	}
}

func (s *Service) Gate() *Gate {
	return s.gate
}

// SignIn validates the credentials, authenticates against the provider,
// then authorizes: a shop_owners record must exist for the identity. If it
// does not, the provider session is reverted and ErrNotAuthorized returned —
// authenticating is not enough to enter the panel.
func (s *Service) SignIn(ctx context.Context, email, password string) (*models.Owner, *models.Session, error) {
	if !ValidateEmail(email) || !ValidatePassword(password) {
		return nil, nil, ErrInvalidInput
	}

	userID, err := s.provider.Authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}

	authorized, err := store.OwnerExists(ctx, s.db, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("authorize owner: %w", err)
	}
	if !authorized {
		if revokeErr := s.provider.Revoke(ctx, userID); revokeErr != nil {
			log.Printf("Revert provider session for %s: %v", userID, revokeErr)
		}
		return nil, nil, ErrNotAuthorized
	}

	owner, err := store.GetOwner(ctx, s.db, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load owner: %w", err)
	}

	token, err := generateToken()
	if err != nil {
		return nil, nil, fmt.Errorf("generate session token: %w", err)
	}

	session, err := store.CreateSession(ctx, s.db, token, userID, s.config.SessionTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}

	s.gate.SetAuthenticated(userID)

	return owner, session, nil
}

func (s *Service) SignOut(ctx context.Context, token string) error {
	session, err := store.GetSession(ctx, s.db, token)
	if err != nil {
		if errors.Is(err, database.ErrSessionNotFound) {
			return nil
		}
		return err
	}

	if err := store.DeleteSession(ctx, s.db, token); err != nil {
		return err
	}

	s.gate.SetUnauthenticated(session.UserID)
	return nil
}

// Resolve turns a bearer token into the owner it belongs to. An expired or
// unknown token yields ErrSessionNotFound: the cached token is not a source
// of truth.
func (s *Service) Resolve(ctx context.Context, token string) (*models.Owner, error) {
	session, err := store.GetSession(ctx, s.db, token)
	if err != nil {
		return nil, err
	}
	return store.GetOwner(ctx, s.db, session.UserID)
}

func (s *Service) Signup(ctx context.Context, email, name, password string) (*models.Owner, error) {
	if !ValidateEmail(email) || !ValidatePassword(password) {
		return nil, ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return store.CreateOwner(ctx, s.db, email, name, string(hash))
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
