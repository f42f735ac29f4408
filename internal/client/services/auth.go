package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/kenala/internal/client/client"
	"github.com/dmitrijs2005/kenala/internal/logging"
)

// Sessions stores the access token of the signed-in user.
type Sessions interface {
	Save(ctx context.Context, token string) error
	UserID(ctx context.Context) (string, error)
	Owner(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// ScopeCleaner removes every cached row of a user.
type ScopeCleaner interface {
	DeleteAllForUser(ctx context.Context, userID string) error
}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: authenticate against the server and store the session.
//   - Logout: clear the cached journals and notifications of the signed-in
//     user, then the session. Unsynced journals are lost.
//   - CurrentUser: the scope of the stored session, expired or not.
//   - Ping: check server liveness.
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (string, error)
	Ping(ctx context.Context) error
}

type authService struct {
	client   client.Client
	sessions Sessions
	cleaners []ScopeCleaner
	log      logging.Logger
}

// NewAuthService constructs an AuthService. cleaners are run on logout in
// the given order.
func NewAuthService(c client.Client, sessions Sessions, log logging.Logger, cleaners ...ScopeCleaner) AuthService {
	return &authService{client: c, sessions: sessions, cleaners: cleaners, log: log.With("module", "auth")}
}

// Login returns the user id of the new session.
func (a *authService) Login(ctx context.Context, email, password string) (string, error) {
	token, err := a.client.Login(ctx, email, password)
	if err != nil {
		return "", remoteError(err)
	}
	if err := a.sessions.Save(ctx, token); err != nil {
		return "", fmt.Errorf("login error: %w", err)
	}
	userID, err := a.sessions.UserID(ctx)
	if err != nil {
		return "", fmt.Errorf("login error: %w", err)
	}
	a.log.Info(ctx, "logged in", "user_id", userID)
	return userID, nil
}

func (a *authService) Logout(ctx context.Context) error {
	userID, err := a.sessions.Owner(ctx)
	if err != nil {
		return err
	}
	for _, c := range a.cleaners {
		if err := c.DeleteAllForUser(ctx, userID); err != nil {
			return storageError(err)
		}
	}
	if err := a.sessions.Clear(ctx); err != nil {
		return storageError(err)
	}
	a.log.Info(ctx, "logged out", "user_id", userID)
	return nil
}

// CurrentUser names the scope of the stored session. Expiry is not checked
// here: the cache stays readable and writable offline, and the server's 401
// is what tells the user to sign in again.
func (a *authService) CurrentUser(ctx context.Context) (string, error) {
	return a.sessions.Owner(ctx)
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return remoteError(a.client.Ping(ctx))
}
