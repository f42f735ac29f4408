package client

import (
	"context"

	"github.com/dmitrijs2005/kenala/internal/client/models"
)

// JournalAPI is the backend journal resource.
type JournalAPI interface {
	ListJournals(ctx context.Context) ([]models.JournalPayload, error)
	GetJournal(ctx context.Context, id string) (*models.JournalPayload, error)
	CreateJournal(ctx context.Context, req models.JournalRequest) (*models.JournalPayload, error)
	UpdateJournal(ctx context.Context, id string, req models.JournalRequest) (*models.JournalPayload, error)
	DeleteJournal(ctx context.Context, id string) error
}

type Client interface {
	JournalAPI
	// Login exchanges credentials for an access token.
	Login(ctx context.Context, email, password string) (string, error)
	Ping(ctx context.Context) error
}

// TokenSource supplies the access token attached to each request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}
