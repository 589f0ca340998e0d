package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ortegadev/autoescuela-api/internal/models"
	appErrors "github.com/ortegadev/autoescuela-api/pkg/errors"
)

type mockUserRepo struct {
	users       map[int64]models.User
	nextID      int64
	deactivated []int64
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var list []models.User
	for _, u := range m.users {
		list = append(list, u)
	}
	return list, len(list), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) CreateWithProfile(ctx context.Context, user *models.User) error {
	if m.users == nil {
		m.users = make(map[int64]models.User)
	}
	m.nextID++
	user.ID = m.nextID
	m.users[user.ID] = *user
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	m.users[user.ID] = *user
	return nil
}

func (m *mockUserRepo) Deactivate(ctx context.Context, id int64) error {
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Active = false
	m.users[id] = u
	m.deactivated = append(m.deactivated, id)
	return nil
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	for _, u := range m.users {
		if u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) ExistsByDocument(ctx context.Context, document string, excludeID int64) (bool, error) {
	for _, u := range m.users {
		if u.Document == document && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func newUserServiceForTest(repo *mockUserRepo) *UserService {
	return NewUserService(repo, validator.New(), zap.NewNop())
}

func validUserRequest() CreateUserRequest {
	return CreateUserRequest{
		Email:    "ana@example.com",
		Password: "secret123",
		FullName: "Ana Ruiz",
		Document: "11222333",
		Role:     models.RoleStudent,
	}
}

func TestUserServiceCreate(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newUserServiceForTest(repo)

	user, err := svc.Create(context.Background(), validUserRequest())
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.True(t, user.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")))
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newUserServiceForTest(repo)

	_, err := svc.Create(context.Background(), validUserRequest())
	require.NoError(t, err)

	dup := validUserRequest()
	dup.Document = "99888777"
	_, err = svc.Create(context.Background(), dup)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceCreateDuplicateDocument(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newUserServiceForTest(repo)

	_, err := svc.Create(context.Background(), validUserRequest())
	require.NoError(t, err)

	dup := validUserRequest()
	dup.Email = "other@example.com"
	_, err = svc.Create(context.Background(), dup)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceCreateInvalidRole(t *testing.T) {
	svc := newUserServiceForTest(&mockUserRepo{})

	req := validUserRequest()
	req.Role = "JANITOR"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceUpdate(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newUserServiceForTest(repo)

	user, err := svc.Create(context.Background(), validUserRequest())
	require.NoError(t, err)

	active := false
	updated, err := svc.Update(context.Background(), user.ID, UpdateUserRequest{
		FullName: "Ana R. Vega",
		Document: "11222333",
		Active:   &active,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana R. Vega", updated.FullName)
	assert.False(t, updated.Active)
}

func TestUserServiceDeactivate(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newUserServiceForTest(repo)

	user, err := svc.Create(context.Background(), validUserRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), user.ID))
	assert.Contains(t, repo.deactivated, user.ID)

	err = svc.Deactivate(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
