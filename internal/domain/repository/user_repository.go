package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/usuariosapp/accounts-api/internal/domain/entity"
)

// UserRepository is the persistence gateway for the user aggregate. Reads hit
// committed state; Add, Update and Remove stage pending changes that only
// become durable when the session's unit of work commits.
type UserRepository interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	// GetAll returns every committed user ordered by name ascending.
	GetAll(ctx context.Context) ([]*entity.User, error)
	Add(ctx context.Context, u *entity.User) error
	Update(ctx context.Context, u *entity.User) error
	// Remove stages a delete and reports whether the user existed.
	Remove(ctx context.Context, id uuid.UUID) (bool, error)
}

// UnitOfWork is the transactional boundary around the gateway. Commit flushes
// all pending changes atomically; Rollback is a logical undo of uncommitted
// changes only (staged adds are detached, staged updates revert the aggregate
// to its last committed field values, staged removes are discarded).
type UnitOfWork interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	// Dispose releases session resources. It must not fail.
	Dispose()
}

// Session groups the repository and its unit of work over one shared pending
// change set.
type Session interface {
	UserRepository
	UnitOfWork
}

// SessionFactory opens an independent session per inbound operation; no
// mutable state is shared across operations.
type SessionFactory interface {
	Begin(ctx context.Context) (Session, error)
}
