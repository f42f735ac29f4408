// Package session keeps the access token of the signed-in user in the local
// store and derives the user scope from its claims.
//
// The token is issued and verified by the backend. The client reads its
// claims without verifying the signature: it only needs the user id and
// the expiry to scope local queries and to tell the user to sign in again.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/kenala/internal/client/repositories/metadata"
	"github.com/golang-jwt/jwt/v5"
)

const tokenKey = "access_token"

var (
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrSessionExpired = errors.New("session expired, please log in again")
	ErrInvalidToken   = errors.New("invalid access token")
)

// Claims are the fields of the backend token the client relies on.
type Claims struct {
	jwt.RegisteredClaims
	UserID  string `json:"userId,omitempty"`
	IDClaim string `json:"id,omitempty"`
}

// User returns the user id carried by the token.
func (c Claims) User() string {
	switch {
	case c.UserID != "":
		return c.UserID
	case c.Subject != "":
		return c.Subject
	default:
		return c.IDClaim
	}
}

type Manager struct {
	repo metadata.Repository
	now  func() time.Time
}

func NewManager(repo metadata.Repository) *Manager {
	return &Manager{repo: repo, now: time.Now}
}

// Save stores token after checking it names a user.
func (m *Manager) Save(ctx context.Context, token string) error {
	if _, err := parseClaims(token); err != nil {
		return err
	}
	if err := m.repo.Set(ctx, tokenKey, []byte(token)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Token returns the stored access token. It implements client.TokenSource.
func (m *Manager) Token(ctx context.Context) (string, error) {
	v, err := m.repo.Get(ctx, tokenKey)
	if errors.Is(err, metadata.ErrNotFound) || (err == nil && len(v) == 0) {
		return "", ErrNotLoggedIn
	}
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	return string(v), nil
}

// UserID returns the scope of the signed-in user.
func (m *Manager) UserID(ctx context.Context) (string, error) {
	token, err := m.Token(ctx)
	if err != nil {
		return "", err
	}
	claims, err := parseClaims(token)
	if err != nil {
		return "", err
	}
	if claims.ExpiresAt != nil && !m.now().Before(claims.ExpiresAt.Time) {
		return "", ErrSessionExpired
	}
	return claims.User(), nil
}

// Owner returns the user named by the stored token even when it has
// expired. Logout uses it to find the scope to clear.
func (m *Manager) Owner(ctx context.Context) (string, error) {
	token, err := m.Token(ctx)
	if err != nil {
		return "", err
	}
	claims, err := parseClaims(token)
	if err != nil {
		return "", err
	}
	return claims.User(), nil
}

// Clear forgets the stored token.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.repo.Delete(ctx, tokenKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func parseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.User() == "" {
		return nil, fmt.Errorf("%w: no user claim", ErrInvalidToken)
	}
	return claims, nil
}
