package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rishikanthc/zendown/internal/users"
)

const (
	// SessionTTL is the lifetime of a freshly issued session.
	SessionTTL = 30 * 24 * time.Hour
	// sessionRenewWindow triggers a sliding renewal once less than this
	// much lifetime remains.
	sessionRenewWindow = 15 * 24 * time.Hour

	tokenBytes = 20
)

var (
	// ErrInvalidCredentials indicates an unknown username or a wrong password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrSessionInvalid indicates the token matches no live session.
	ErrSessionInvalid = errors.New("auth: session invalid or expired")

	errMissingDatabase = errors.New("auth: database handle is required")

	lowerBase32 = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)
)

// Session is a persisted login session. The id is the hex SHA-256 of the
// opaque token handed to the client, so a leaked table never yields usable
// tokens.
type Session struct {
	ID        string    `gorm:"column:id;primaryKey;size:64"`
	UserID    string    `gorm:"column:user_id;size:64;not null;index"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Session) TableName() string {
	return "session"
}

// ServiceConfig describes the dependencies of the auth service.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
}

// Service authenticates users and manages their sessions.
type Service struct {
	db    *gorm.DB
	clock func() time.Time
}

// NewService validates the configuration and constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{db: cfg.Database, clock: clock}, nil
}

// EnsureAdmin provisions the configured admin account, updating the stored
// hash when the configured password changed. Called once at startup.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return errors.New("auth: admin username and password are required")
	}

	var existing users.User
	err := s.db.WithContext(ctx).Where("username = ?", username).Take(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, hashErr := HashPassword(password)
		if hashErr != nil {
			return hashErr
		}
		account := users.User{
			ID:           uuid.NewString(),
			Username:     username,
			PasswordHash: hash,
		}
		if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
			return fmt.Errorf("auth: creating admin account: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("auth: looking up admin account: %w", err)
	}

	matches, err := VerifyPassword(existing.PasswordHash, password)
	if err == nil && matches {
		return nil
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(&users.User{}).
		Where("id = ?", existing.ID).
		Update("password_hash", hash).Error; err != nil {
		return fmt.Errorf("auth: updating admin password: %w", err)
	}
	return nil
}

// Login verifies the credentials and issues a new session token.
func (s *Service) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	var account users.User
	err := s.db.WithContext(ctx).Where("username = ?", username).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: looking up user: %w", err)
	}

	matches, err := VerifyPassword(account.PasswordHash, password)
	if err != nil {
		return "", time.Time{}, err
	}
	if !matches {
		return "", time.Time{}, ErrInvalidCredentials
	}

	token, err := newSessionToken()
	if err != nil {
		return "", time.Time{}, err
	}

	expires := s.clock().UTC().Add(SessionTTL)
	session := Session{
		ID:        hashSessionToken(token),
		UserID:    account.ID,
		ExpiresAt: expires,
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return "", time.Time{}, fmt.Errorf("auth: creating session: %w", err)
	}
	return token, expires, nil
}

// Logout invalidates the session behind the token. An unknown token is not
// an error; logout is idempotent.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.db.WithContext(ctx).
		Where("id = ?", hashSessionToken(token)).
		Delete(&Session{}).Error; err != nil {
		return fmt.Errorf("auth: deleting session: %w", err)
	}
	return nil
}

// Validate resolves a session token to its user. Expired sessions are
// removed on sight; sessions inside the renewal window get their expiry
// extended (sliding sessions).
func (s *Service) Validate(ctx context.Context, token string) (users.User, Session, error) {
	if token == "" {
		return users.User{}, Session{}, ErrSessionInvalid
	}

	var session Session
	err := s.db.WithContext(ctx).Where("id = ?", hashSessionToken(token)).Take(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return users.User{}, Session{}, ErrSessionInvalid
	}
	if err != nil {
		return users.User{}, Session{}, fmt.Errorf("auth: looking up session: %w", err)
	}

	now := s.clock().UTC()
	if !now.Before(session.ExpiresAt) {
		if err := s.db.WithContext(ctx).Delete(&Session{}, "id = ?", session.ID).Error; err != nil {
			return users.User{}, Session{}, fmt.Errorf("auth: removing expired session: %w", err)
		}
		return users.User{}, Session{}, ErrSessionInvalid
	}

	if session.ExpiresAt.Sub(now) < sessionRenewWindow {
		session.ExpiresAt = now.Add(SessionTTL)
		if err := s.db.WithContext(ctx).Model(&Session{}).
			Where("id = ?", session.ID).
			Update("expires_at", session.ExpiresAt).Error; err != nil {
			return users.User{}, Session{}, fmt.Errorf("auth: renewing session: %w", err)
		}
	}

	var account users.User
	if err := s.db.WithContext(ctx).Where("id = ?", session.UserID).Take(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return users.User{}, Session{}, ErrSessionInvalid
		}
		return users.User{}, Session{}, fmt.Errorf("auth: looking up session user: %w", err)
	}

	return account, session, nil
}

func newSessionToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: reading token bytes: %w", err)
	}
	return lowerBase32.EncodeToString(buf), nil
}

func hashSessionToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
