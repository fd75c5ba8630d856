package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/usuariosapp/accounts-api/internal/domain/entity"
	"github.com/usuariosapp/accounts-api/internal/domain/repository"
	"github.com/usuariosapp/accounts-api/pkg/apperror"
)

// Store is an in-process storage engine for the user aggregate. It keeps
// committed copies of every user and enforces the unique-email constraint at
// commit time, mirroring what the database does in the Postgres engine.
type Store struct {
	mu    sync.RWMutex
	users map[uuid.UUID]entity.User
}

func NewStore() *Store {
	return &Store{users: make(map[uuid.UUID]entity.User)}
}

// Begin opens a session with its own empty pending-change log.
func (s *Store) Begin(ctx context.Context) (repository.Session, error) {
	return &Session{store: s}, nil
}

var _ repository.SessionFactory = (*Store)(nil)

type changeKind int

const (
	changeAdd changeKind = iota
	changeUpdate
	changeRemove
)

type change struct {
	kind changeKind
	id   uuid.UUID
	// user is the tracked aggregate for adds and updates; held by pointer so
	// a rollback can revert uncommitted field edits on the caller's copy.
	user *entity.User
}

// Session stages adds, updates and removes against the store. Nothing reaches
// committed state until Commit; Rollback is a logical undo of the pending log.
type Session struct {
	store   *Store
	pending []change
}

func (s *Session) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	for _, u := range s.store.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *Session) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	u, ok := s.store.users[id]
	if !ok {
		return nil, nil
	}
	cp := u
	return &cp, nil
}

func (s *Session) GetAll(ctx context.Context) ([]*entity.User, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	out := make([]*entity.User, 0, len(s.store.users))
	for _, u := range s.store.users {
		cp := u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
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
	s.store.mu.RLock()
	_, ok := s.store.users[id]
	s.store.mu.RUnlock()
	if !ok {
		return false, nil
	}
	s.pending = append(s.pending, change{kind: changeRemove, id: id})
	return true, nil
}

// Commit flushes the pending log into the store as one atomic batch.
func (s *Session) Commit(ctx context.Context) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	for _, c := range s.pending {
		if c.kind == changeRemove {
			continue
		}
		for id, existing := range s.store.users {
			if id != c.id && existing.Email == c.user.Email {
				return apperror.DuplicateEmail(c.user.Email)
			}
		}
	}
	for _, c := range s.pending {
		switch c.kind {
		case changeAdd, changeUpdate:
			s.store.users[c.id] = *c.user
		case changeRemove:
			delete(s.store.users, c.id)
		}
	}
	s.pending = nil
	return nil
}

// Rollback undoes every uncommitted change: staged adds are detached, staged
// updates revert the tracked aggregate to its last committed values, staged
// removes are discarded. Already-committed state is untouched.
func (s *Session) Rollback(ctx context.Context) error {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	for _, c := range s.pending {
		if c.kind == changeUpdate {
			if committed, ok := s.store.users[c.id]; ok {
				*c.user = committed
			}
		}
	}
	s.pending = nil
	return nil
}

func (s *Session) Dispose() {
	s.pending = nil
}

var _ repository.Session = (*Session)(nil)
