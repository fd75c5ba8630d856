package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/usuariosapp/accounts-api/internal/domain/entity"
	"github.com/usuariosapp/accounts-api/internal/domain/repository"
	"github.com/usuariosapp/accounts-api/pkg/apperror"
)

const uniqueViolation = "23505"

// Engine opens Postgres-backed sessions over a shared pgx pool.
type Engine struct {
	pool *pgxpool.Pool
}

func NewEngine(pool *pgxpool.Pool) *Engine {
	return &Engine{pool: pool}
}

func (e *Engine) Begin(ctx context.Context) (repository.Session, error) {
	return &Session{pool: e.pool, snapshots: make(map[uuid.UUID]entity.User)}, nil
}

var _ repository.SessionFactory = (*Engine)(nil)

type changeKind int

const (
	changeAdd changeKind = iota
	changeUpdate
	changeRemove
)

type change struct {
	kind changeKind
	id   uuid.UUID
	user *entity.User
}

// Session reads committed rows directly and stages writes in a pending log
// that Commit flushes inside a single transaction. Aggregates returned by
// GetByID are snapshotted so Rollback can revert uncommitted field edits.
type Session struct {
	pool      *pgxpool.Pool
	pending   []change
	snapshots map[uuid.UUID]entity.User
}

func (s *Session) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, apperror.Persistence("email lookup failed", err)
	}
	return exists, nil
}

func (s *Session) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	u := &entity.User{}
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, permission, created_at
		FROM users
		WHERE id = $1
	`, id)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Permission, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperror.Persistence("user lookup failed", err)
	}
	s.snapshots[u.ID] = *u
	return u, nil
}

func (s *Session) GetAll(ctx context.Context) ([]*entity.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, email, password_hash, permission, created_at
		FROM users
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, apperror.Persistence("user listing failed", err)
	}
	defer rows.Close()

	out := make([]*entity.User, 0)
	for rows.Next() {
		u := &entity.User{}
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Permission, &u.CreatedAt); err != nil {
			return nil, apperror.Persistence("user listing failed", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Persistence("user listing failed", err)
	}
	return out, nil
}

func (s *Session) Add(ctx context.Context, u *entity.User) error {
	s.pending = append(s.pending, change{kind: changeAdd, id: u.ID, user: u})
	return nil
}

func (s *Session) Update(ctx context.Context, u *entity.User) error {
	s.pending = append(s.pending, change{kind: changeUpdate, id: u.ID, user: u})
	return nil
}

func (s *Session) Remove(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, apperror.Persistence("user lookup failed", err)
	}
	if !exists {
		return false, nil
	}
	s.pending = append(s.pending, change{kind: changeRemove, id: id})
	return true, nil
}

// Commit flushes the pending log in order inside one transaction. A unique
// violation on the email index is reported as DuplicateEmail so a create that
// lost the check-then-insert race does not surface as an internal error.
func (s *Session) Commit(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperror.Persistence("begin transaction failed", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, c := range s.pending {
		switch c.kind {
		case changeAdd:
			_, err = tx.Exec(ctx, `
				INSERT INTO users (id, name, email, password_hash, permission, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, c.user.ID, c.user.Name, c.user.Email, c.user.PasswordHash, int(c.user.Permission), c.user.CreatedAt)
		case changeUpdate:
			_, err = tx.Exec(ctx, `
				UPDATE users
				SET name = $1, email = $2, password_hash = $3, permission = $4
				WHERE id = $5
			`, c.user.Name, c.user.Email, c.user.PasswordHash, int(c.user.Permission), c.user.ID)
		case changeRemove:
			_, err = tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, c.id)
		}
		if err != nil {
			return s.classify(err, c)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return apperror.Persistence("commit failed", err)
	}
	s.pending = nil
	return nil
}

func (s *Session) classify(err error, c change) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && c.user != nil {
		return apperror.DuplicateEmail(c.user.Email)
	}
	return apperror.Persistence("flush failed", err)
}

// Rollback discards the pending log; nothing was sent to the database yet.
// Tracked aggregates with staged updates are reverted to the values read at
// lookup time.
func (s *Session) Rollback(ctx context.Context) error {
	for _, c := range s.pending {
		if c.kind == changeUpdate {
			if snap, ok := s.snapshots[c.id]; ok {
				*c.user = snap
			}
		}
	}
	s.pending = nil
	return nil
}

func (s *Session) Dispose() {
	s.pending = nil
	s.snapshots = nil
}

var _ repository.Session = (*Session)(nil)
