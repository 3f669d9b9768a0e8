package core

import (
	"context"
	"time"

	"github.com/dkeye/Messenger/internal/domain"
)

// IdentityResolver maps an opaque request credential to a known user.
// It returns domain.ErrUnauthorized when the credential is missing or stale.
type IdentityResolver interface {
	Resolve(ctx context.Context, credential string) (domain.Username, error)
}

// UserDirectory is the persistent set of accounts.
type UserDirectory interface {
	Create(ctx context.Context, u *domain.User, password string) error
	Authenticate(ctx context.Context, username domain.Username, password string) (*domain.User, error)
	Exists(ctx context.Context, username domain.Username) (bool, error)
	ListExcept(ctx context.Context, username domain.Username) ([]domain.Username, error)
	// Delete removes the account, its messages and its calls, returning the
	// removed call ids. A missing account is domain.ErrNotFound.
	Delete(ctx context.Context, username domain.Username) ([]domain.CallID, error)
}

// CallDirectory is the durable store of call records.
// Accept and Delete must be atomic per call id.
type CallDirectory interface {
	Create(ctx context.Context, rec *domain.CallRecord) error
	Get(ctx context.Context, id domain.CallID) (*domain.CallRecord, error)
	// Accept moves a pending call to accepted when by is its receiver.
	Accept(ctx context.Context, id domain.CallID, by domain.Username) (*domain.CallRecord, error)
	// Delete removes the record; a missing record is not an error.
	Delete(ctx context.Context, id domain.CallID) error
	LatestPendingFor(ctx context.Context, receiver domain.Username) (*domain.CallRecord, error)
	DeletePendingBefore(ctx context.Context, cutoff time.Time) ([]domain.CallID, error)
}

type MessageStore interface {
	Send(ctx context.Context, m *domain.Message) error
	Conversation(ctx context.Context, a, b domain.Username) ([]domain.Message, error)
}
