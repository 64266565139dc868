// Package auth verifies admin credentials against the user store and keeps
// browser login sessions as in-memory cookie tokens.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/remote-screen-share/backend/internal/model"
	"github.com/remote-screen-share/backend/internal/repository"
)

// CookieName is the admin login cookie.
const CookieName = "relay_session"

type loginSession struct {
	username  string
	expiresAt time.Time
}

// Manager issues and validates admin login tokens. Tokens live in memory
// only; a restart logs every admin out, which matches the session model of
// the rest of the hub.
type Manager struct {
	users *repository.UserRepository
	ttl   time.Duration

	mu     sync.Mutex
	tokens map[string]loginSession
}

// NewManager creates an auth manager backed by the user repository.
func NewManager(users *repository.UserRepository, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Manager{
		users:  users,
		ttl:    ttl,
		tokens: make(map[string]loginSession),
	}
}

// Login checks the credentials and returns a fresh token on success.
func (m *Manager) Login(ctx context.Context, username, password string) (string, error) {
	stored, err := m.users.GetPassword(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return "", model.ErrInvalidCredentials
		}
		return "", err
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(password)) != 1 {
		return "", model.ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.tokens[token] = loginSession{
		username:  username,
		expiresAt: time.Now().Add(m.ttl),
	}
	m.mu.Unlock()

	return token, nil
}

// Validate returns the username behind a token, expiring stale tokens on
// the way.
func (m *Manager) Validate(token string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.tokens[token]
	if !ok {
		return "", false
	}
	if time.Now().After(sess.expiresAt) {
		delete(m.tokens, token)
		return "", false
	}
	return sess.username, true
}

// Logout invalidates a token. Unknown tokens are a no-op.
func (m *Manager) Logout(token string) {
	m.mu.Lock()
	delete(m.tokens, token)
	m.mu.Unlock()
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
