package application

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usuariosapp/accounts-api/internal/domain/repository"
	"github.com/usuariosapp/accounts-api/internal/infrastructure/memory"
	"github.com/usuariosapp/accounts-api/pkg/apperror"
	"github.com/usuariosapp/accounts-api/pkg/validation"
)

// stubHasher keeps the tests fast and the stored hash inspectable.
type stubHasher struct{}

func (stubHasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", apperror.InvalidArgument("password", "password is required")
	}
	return "hashed:" + plain, nil
}

func (stubHasher) Verify(plain, hash string) (bool, error) {
	return hash == "hashed:"+plain, nil
}

func newTestService(store *memory.Store) *Service {
	return NewService(store, stubHasher{}, validation.NewUserRules(), nil, nil, nil)
}

func validRequest() UserRequest {
	return UserRequest{
		Name:       "Maria Silva",
		Email:      "maria@example.com",
		Password:   "Senha123!",
		Permission: "Operator",
	}
}

func serviceErrKind(t *testing.T, err error) apperror.Kind {
	t.Helper()
	var ae *apperror.Error
	require.ErrorAs(t, err, &ae)
	return ae.Kind
}

func storeCount(t *testing.T, store *memory.Store) int {
	t.Helper()
	ctx := context.Background()
	sess, err := store.Begin(ctx)
	require.NoError(t, err)
	defer sess.Dispose()
	all, err := sess.GetAll(ctx)
	require.NoError(t, err)
	return len(all)
}

func TestCreate_Success(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestService(store)

	resp, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.NotEqual(t, uuid.Nil, resp.ID)
	assert.Equal(t, "Maria Silva", resp.Name)
	assert.Equal(t, "maria@example.com", resp.Email)
	assert.Equal(t, "Operator", resp.Permission)
	assert.False(t, resp.CreatedAt.IsZero())

	sess, err := store.Begin(ctx)
	require.NoError(t, err)
	defer sess.Dispose()
	stored, err := sess.GetByID(ctx, resp.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "hashed:Senha123!", stored.PasswordHash)
}

func TestCreate_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*UserRequest)
		field  string
	}{
		{"email", func(r *UserRequest) { r.Email = "" }, "email"},
		{"password", func(r *UserRequest) { r.Password = "   " }, "password"},
		{"name", func(r *UserRequest) { r.Name = "" }, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewStore()
			svc := newTestService(store)

			req := validRequest()
			tt.mutate(&req)
			_, err := svc.Create(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, apperror.KindMissingField, serviceErrKind(t, err))
			assert.Contains(t, err.Error(), tt.field)
			assert.Zero(t, storeCount(t, store))
		})
	}
}

func TestCreate_MissingEmailReportedBeforeOtherFields(t *testing.T) {
	svc := newTestService(memory.NewStore())
	_, err := svc.Create(context.Background(), UserRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
}

func TestCreate_ValidationFailureCollectsAllFields(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(store)

	req := UserRequest{Name: "J1", Email: "invalido@x", Password: "fraca123", Permission: "Root"}
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)

	var ae *apperror.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperror.KindValidationFailed, ae.Kind)

	fields := map[string]bool{}
	for _, f := range ae.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["name"])
	assert.True(t, fields["password"])
	assert.True(t, fields["permission"])
	assert.Zero(t, storeCount(t, store))
}

func TestCreate_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestService(store)

	_, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.Name = "Outra Maria"
	_, err = svc.Create(ctx, req)
	require.Error(t, err)
	assert.Equal(t, apperror.KindDuplicateEmail, serviceErrKind(t, err))
	assert.Equal(t, 1, storeCount(t, store))
}

// raceSession hides the committed row from the pre-insert existence check so
// the duplicate surfaces only at commit, like two concurrent creates would.
type raceSession struct {
	repository.Session
}

func (raceSession) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return false, nil
}

type raceFactory struct {
	store *memory.Store
}

func (f raceFactory) Begin(ctx context.Context) (repository.Session, error) {
	sess, err := f.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return raceSession{Session: sess}, nil
}

func TestCreate_ConcurrentDuplicateClassifiedAtCommit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	_, err := newTestService(store).Create(ctx, validRequest())
	require.NoError(t, err)

	svc := NewService(raceFactory{store: store}, stubHasher{}, validation.NewUserRules(), nil, nil, nil)
	req := validRequest()
	req.Name = "Outra Maria"
	_, err = svc.Create(ctx, req)
	require.Error(t, err)
	assert.Equal(t, apperror.KindDuplicateEmail, serviceErrKind(t, err))
	assert.Equal(t, 1, storeCount(t, store))
}

func TestGetByID(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewStore())

	created, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Email, got.Email)

	_, err = svc.GetByID(ctx, uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperror.KindNotFound, serviceErrKind(t, err))
}

func TestListAll_EmptyStoreYieldsEmptySlice(t *testing.T) {
	svc := newTestService(memory.NewStore())
	out, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Empty(t, out)
}

func TestListAll_OrderedByName(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewStore())

	for i, name := range []string{"Carlos", "Ana Paula", "Eduarda", "Bruno", "Daniel"} {
		req := validRequest()
		req.Name = name
		req.Email = string(rune('a'+i)) + "@example.com"
		_, err := svc.Create(ctx, req)
		require.NoError(t, err)
	}

	out, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, out, 5)
	want := []string{"Ana Paula", "Bruno", "Carlos", "Daniel", "Eduarda"}
	for i, name := range want {
		assert.Equal(t, name, out[i].Name)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc := newTestService(memory.NewStore())
	_, err := svc.Update(context.Background(), UserRequest{Email: "nova@example.com"}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperror.KindNotFound, serviceErrKind(t, err))
}

func TestUpdate_RequiresAtLeastOneField(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewStore())
	created, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	_, err = svc.Update(ctx, UserRequest{}, created.ID)
	require.Error(t, err)
	assert.Equal(t, apperror.KindInvalidArgument, serviceErrKind(t, err))
}

func TestUpdate_EmailOnlyKeepsHash(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestService(store)
	created, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	resp, err := svc.Update(ctx, UserRequest{Email: "nova@example.com"}, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "nova@example.com", resp.Email)

	sess, err := store.Begin(ctx)
	require.NoError(t, err)
	defer sess.Dispose()
	stored, err := sess.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "nova@example.com", stored.Email)
	assert.Equal(t, "hashed:Senha123!", stored.PasswordHash)
}

func TestUpdate_PasswordOnlyKeepsEmail(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestService(store)
	created, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	resp, err := svc.Update(ctx, UserRequest{Password: "NovaSenha1!"}, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", resp.Email)

	sess, err := store.Begin(ctx)
	require.NoError(t, err)
	defer sess.Dispose()
	stored, err := sess.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "hashed:NovaSenha1!", stored.PasswordHash)
}

func TestUpdate_InvalidEmailLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestService(store)
	created, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	_, err = svc.Update(ctx, UserRequest{Email: "invalido"}, created.ID)
	require.Error(t, err)
	assert.Equal(t, apperror.KindInvalidArgument, serviceErrKind(t, err))

	stored, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", stored.Email)
}

func TestUpdate_EmailTakenByAnotherUser(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestService(store)

	_, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	other := validRequest()
	other.Name = "Bruno Costa"
	other.Email = "bruno@example.com"
	created, err := svc.Create(ctx, other)
	require.NoError(t, err)

	_, err = svc.Update(ctx, UserRequest{Email: "maria@example.com"}, created.ID)
	require.Error(t, err)
	assert.Equal(t, apperror.KindDuplicateEmail, serviceErrKind(t, err))

	stored, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "bruno@example.com", stored.Email)
}

func TestUpdate_WeakPasswordRejectedByRules(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestService(store)
	created, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	_, err = svc.Update(ctx, UserRequest{Password: "weakpass"}, created.ID)
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidationFailed, serviceErrKind(t, err))

	sess, err := store.Begin(ctx)
	require.NoError(t, err)
	defer sess.Dispose()
	stored, err := sess.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "hashed:Senha123!", stored.PasswordHash)
}

func TestUpdatePermission(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewStore())
	created, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	_, err = svc.UpdatePermission(ctx, created.ID, "Manager", "Operator")
	require.Error(t, err)
	assert.Equal(t, apperror.KindUnauthorized, serviceErrKind(t, err))

	_, err = svc.UpdatePermission(ctx, created.ID, "Root", "Manager")
	require.Error(t, err)
	assert.Equal(t, apperror.KindInvalidArgument, serviceErrKind(t, err))

	resp, err := svc.UpdatePermission(ctx, created.ID, "Manager", "Manager")
	require.NoError(t, err)
	assert.Equal(t, "Manager", resp.Permission)

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Manager", got.Permission)
}

func TestUpdatePermission_NotFound(t *testing.T) {
	svc := newTestService(memory.NewStore())
	_, err := svc.UpdatePermission(context.Background(), uuid.New(), "Manager", "Manager")
	require.Error(t, err)
	assert.Equal(t, apperror.KindNotFound, serviceErrKind(t, err))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestService(store)
	created, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.Zero(t, storeCount(t, store))

	_, err = svc.GetByID(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, apperror.KindNotFound, serviceErrKind(t, err))
}

func TestDelete_NotFoundHasNoSideEffect(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestService(store)
	_, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	err = svc.Delete(ctx, uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperror.KindNotFound, serviceErrKind(t, err))
	assert.Equal(t, 1, storeCount(t, store))
}

// failingCommitSession forces the commit to fail so the rollback path is
// observable.
type failingCommitSession struct {
	repository.Session
	rolledBack *bool
}

func (s failingCommitSession) Commit(ctx context.Context) error {
	return apperror.Persistence("storage unavailable", errors.New("connection reset"))
}

func (s failingCommitSession) Rollback(ctx context.Context) error {
	*s.rolledBack = true
	return s.Session.Rollback(ctx)
}

type failingCommitFactory struct {
	store      *memory.Store
	rolledBack *bool
}

func (f failingCommitFactory) Begin(ctx context.Context) (repository.Session, error) {
	sess, err := f.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return failingCommitSession{Session: sess, rolledBack: f.rolledBack}, nil
}

func TestDelete_CommitFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	created, err := newTestService(store).Create(ctx, validRequest())
	require.NoError(t, err)

	rolledBack := false
	svc := NewService(failingCommitFactory{store: store, rolledBack: &rolledBack}, stubHasher{}, validation.NewUserRules(), nil, nil, nil)

	err = svc.Delete(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, apperror.KindPersistenceFailure, serviceErrKind(t, err))
	assert.True(t, rolledBack)
	assert.Equal(t, 1, storeCount(t, store))
}

func TestSearchUsers_NoIndexerYieldsEmptySlice(t *testing.T) {
	svc := newTestService(memory.NewStore())
	out, err := svc.SearchUsers(context.Background(), "maria", 10)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Empty(t, out)
}
