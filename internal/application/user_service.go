package application

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/usuariosapp/accounts-api/internal/domain/entity"
	"github.com/usuariosapp/accounts-api/internal/domain/repository"
	"github.com/usuariosapp/accounts-api/internal/infrastructure/elastic"
	"github.com/usuariosapp/accounts-api/pkg/apperror"
	"github.com/usuariosapp/accounts-api/pkg/helpers"
	"github.com/usuariosapp/accounts-api/pkg/mailer"
	"github.com/usuariosapp/accounts-api/pkg/validation"
)

// PasswordHasher is the one-way hashing contract the service depends on.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) (bool, error)
}

// UserRequest is the untrusted inbound record for create and update.
type UserRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Permission string `json:"permission"`
}

// UserResponse is the sanitized projection returned to callers; the password
// hash never leaves the service.
type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Permission string    `json:"permission"`
	CreatedAt  time.Time `json:"created_at"`
}

// Service orchestrates validation, uniqueness checks, password hashing,
// persistence and commit/rollback for the user aggregate. Each operation
// runs in its own session; Mail and Search are optional best-effort side
// channels.
type Service struct {
	Sessions repository.SessionFactory
	Hasher   PasswordHasher
	Rules    *validation.UserRules
	Logger   *logrus.Logger
	Mail     *helpers.RabbitPublisher
	Search   *elastic.Indexer
}

func NewService(sessions repository.SessionFactory, hasher PasswordHasher, rules *validation.UserRules, logger *logrus.Logger, mail *helpers.RabbitPublisher, search *elastic.Indexer) *Service {
	return &Service{
		Sessions: sessions,
		Hasher:   hasher,
		Rules:    rules,
		Logger:   logger,
		Mail:     mail,
		Search:   search,
	}
}

func project(u *entity.User) *UserResponse {
	return &UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Permission: u.Permission.String(),
		CreatedAt:  u.CreatedAt,
	}
}

// Create registers a new account. On any failure path nothing durable
// happens; on success exactly one insert is committed.
func (s *Service) Create(ctx context.Context, req UserRequest) (*UserResponse, error) {
	if strings.TrimSpace(req.Email) == "" {
		return nil, apperror.MissingField("email")
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, apperror.MissingField("password")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperror.MissingField("name")
	}

	if fields := s.Rules.Validate(validation.UserRecord(req)); len(fields) > 0 {
		return nil, apperror.Validation(fields)
	}

	sess, err := s.Sessions.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Dispose()

	exists, err := sess.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.DuplicateEmail(req.Email)
	}

	hash, err := s.Hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	permission, err := entity.ParsePermission(req.Permission)
	if err != nil {
		return nil, err
	}
	u, err := entity.NewUser(req.Name, req.Email, hash, permission)
	if err != nil {
		return nil, err
	}

	if err := sess.Add(ctx, u); err != nil {
		return nil, err
	}
	// The existence check above is not atomic with the insert; a concurrent
	// create racing to the same email is classified as DuplicateEmail by the
	// session commit via the store's unique constraint.
	if err := sess.Commit(ctx); err != nil {
		s.logError(err, logrus.Fields{"email": req.Email}, "user create commit failed")
		return nil, err
	}

	s.sendWelcome(ctx, u)
	if s.Search != nil {
		_ = s.Search.IndexUser(ctx, u)
	}
	s.logInfo(logrus.Fields{"user_id": u.ID, "email": u.Email}, "user created")
	return project(u), nil
}

// GetByID returns the projection of a single user.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	sess, err := s.Sessions.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Dispose()

	u, err := sess.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperror.NotFound("user with id %s not found", id)
	}
	return project(u), nil
}

// ListAll returns every user ordered by name ascending; an empty store
// yields an empty slice, never nil.
func (s *Service) ListAll(ctx context.Context) ([]*UserResponse, error) {
	sess, err := s.Sessions.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Dispose()

	users, err := sess.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, project(u))
	}
	return out, nil
}

// Update replaces the account's email and/or password. The aggregate is
// mutated in memory first and re-validated; an invalid record never reaches
// durable storage because the staged change is simply discarded.
func (s *Service) Update(ctx context.Context, req UserRequest, id uuid.UUID) (*UserResponse, error) {
	sess, err := s.Sessions.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Dispose()

	u, err := sess.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperror.NotFound("user with id %s not found", id)
	}

	if strings.TrimSpace(req.Email) == "" && strings.TrimSpace(req.Password) == "" {
		return nil, apperror.InvalidArgument("request", "provide at least the email or the password for the update")
	}

	newHash := u.PasswordHash
	if strings.TrimSpace(req.Password) != "" {
		if newHash, err = s.Hasher.Hash(req.Password); err != nil {
			return nil, err
		}
	}
	newEmail := req.Email
	if strings.TrimSpace(newEmail) == "" {
		newEmail = u.Email
	}

	if err := u.UpdateContactInfo(newEmail, newHash); err != nil {
		return nil, err
	}
	if fields := s.Rules.ValidateContactInfo(newEmail, req.Password); len(fields) > 0 {
		return nil, apperror.Validation(fields)
	}

	if err := sess.Update(ctx, u); err != nil {
		return nil, err
	}
	if err := sess.Commit(ctx); err != nil {
		s.logError(err, logrus.Fields{"user_id": id}, "user update commit failed")
		return nil, err
	}

	if s.Search != nil {
		_ = s.Search.IndexUser(ctx, u)
	}
	s.logInfo(logrus.Fields{"user_id": u.ID}, "user updated")
	return project(u), nil
}

// UpdatePermission applies the escalation rule: only a Manager-level
// requester may change another account's permission.
func (s *Service) UpdatePermission(ctx context.Context, id uuid.UUID, newPermission, requesterPermission string) (*UserResponse, error) {
	next, err := entity.ParsePermission(newPermission)
	if err != nil {
		return nil, err
	}
	requester, err := entity.ParsePermission(requesterPermission)
	if err != nil {
		return nil, err
	}

	sess, err := s.Sessions.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Dispose()

	u, err := sess.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperror.NotFound("user with id %s not found", id)
	}

	if err := u.UpdatePermission(next, requester); err != nil {
		return nil, err
	}
	if err := sess.Update(ctx, u); err != nil {
		return nil, err
	}
	if err := sess.Commit(ctx); err != nil {
		s.logError(err, logrus.Fields{"user_id": id}, "permission update commit failed")
		return nil, err
	}

	if s.Search != nil {
		_ = s.Search.IndexUser(ctx, u)
	}
	s.logInfo(logrus.Fields{"user_id": u.ID, "permission": u.Permission.String()}, "user permission updated")
	return project(u), nil
}

// Delete removes the account. Any failure after the staging step triggers a
// rollback before the original failure is re-raised.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	sess, err := s.Sessions.Begin(ctx)
	if err != nil {
		return err
	}
	defer sess.Dispose()

	u, err := sess.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return apperror.NotFound("user with id %s not found", id)
	}

	removed, err := sess.Remove(ctx, id)
	if err != nil {
		_ = sess.Rollback(ctx)
		return err
	}
	if !removed {
		_ = sess.Rollback(ctx)
		return apperror.OperationFailed("failed to remove the user", nil)
	}
	if err := sess.Commit(ctx); err != nil {
		_ = sess.Rollback(ctx)
		s.logError(err, logrus.Fields{"user_id": id}, "user delete commit failed")
		return err
	}

	if s.Search != nil {
		_ = s.Search.DeleteUser(ctx, id.String())
	}
	s.logInfo(logrus.Fields{"user_id": id}, "user deleted")
	return nil
}

// SearchUsers queries the search index over name and email.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.Search == nil {
		return []map[string]any{}, nil
	}
	return s.Search.Search(ctx, q, size)
}

func (s *Service) sendWelcome(ctx context.Context, u *entity.User) {
	if s.Mail == nil {
		return
	}
	job := mailer.EmailJob{
		To:       u.Email,
		Template: mailer.TemplateWelcome,
		Data:     map[string]any{"Name": u.Name},
	}
	if err := s.Mail.PublishJSON(ctx, job); err != nil {
		s.logError(err, logrus.Fields{"user_id": u.ID}, "welcome email publish failed")
	}
}

func (s *Service) logError(err error, fields logrus.Fields, msg string) {
	if s.Logger != nil {
		s.Logger.WithError(err).WithFields(fields).Error(msg)
	}
}

func (s *Service) logInfo(fields logrus.Fields, msg string) {
	if s.Logger != nil {
		s.Logger.WithFields(fields).Info(msg)
	}
}
