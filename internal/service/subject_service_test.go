package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ortegadev/autoescuela-api/internal/models"
	appErrors "github.com/ortegadev/autoescuela-api/pkg/errors"
)

type mockSubjectRepo struct {
	subjects   map[int64]*models.Subject
	categories map[int64]*models.LicenseCategory
	nextID     int64
}

func newMockSubjectRepo() *mockSubjectRepo {
	return &mockSubjectRepo{
		subjects:   make(map[int64]*models.Subject),
		categories: make(map[int64]*models.LicenseCategory),
	}
}

func (m *mockSubjectRepo) List(ctx context.Context, filter models.SubjectFilter) ([]models.SubjectDetail, int, error) {
	var list []models.SubjectDetail
	for _, subject := range m.subjects {
		list = append(list, models.SubjectDetail{Subject: *subject})
	}
	return list, len(list), nil
}

func (m *mockSubjectRepo) FindByID(ctx context.Context, id int64) (*models.Subject, error) {
	if subject, ok := m.subjects[id]; ok {
		copied := *subject
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubjectRepo) ExistsByName(ctx context.Context, name string, categoryID, excludeID int64) (bool, error) {
	for _, subject := range m.subjects {
		if subject.Name == name && subject.LicenseCategoryID == categoryID && subject.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSubjectRepo) Create(ctx context.Context, subject *models.Subject) error {
	m.nextID++
	subject.ID = m.nextID
	copied := *subject
	m.subjects[subject.ID] = &copied
	return nil
}

func (m *mockSubjectRepo) Update(ctx context.Context, subject *models.Subject) error {
	if _, ok := m.subjects[subject.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *subject
	m.subjects[subject.ID] = &copied
	return nil
}

func (m *mockSubjectRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.subjects[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.subjects, id)
	return nil
}

func (m *mockSubjectRepo) ListCategories(ctx context.Context) ([]models.LicenseCategory, error) {
	var list []models.LicenseCategory
	for _, category := range m.categories {
		list = append(list, *category)
	}
	return list, nil
}

func (m *mockSubjectRepo) FindCategoryByID(ctx context.Context, id int64) (*models.LicenseCategory, error) {
	if category, ok := m.categories[id]; ok {
		return category, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubjectRepo) CreateCategory(ctx context.Context, category *models.LicenseCategory) error {
	m.nextID++
	category.ID = m.nextID
	copied := *category
	m.categories[category.ID] = &copied
	return nil
}

func (m *mockSubjectRepo) ExistsCategoryByCode(ctx context.Context, code string, excludeID int64) (bool, error) {
	for _, category := range m.categories {
		if category.Code == code && category.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func newSubjectServiceForTest(repo *mockSubjectRepo) *SubjectService {
	return NewSubjectService(repo, nil, nil)
}

func TestSubjectServiceCreate(t *testing.T) {
	repo := newMockSubjectRepo()
	repo.categories[1] = &models.LicenseCategory{ID: 1, Code: "B"}
	svc := newSubjectServiceForTest(repo)

	subject, err := svc.Create(context.Background(), SubjectRequest{Name: "Normativa vial", LicenseCategoryID: 1})
	require.NoError(t, err)
	assert.NotZero(t, subject.ID)
	assert.Equal(t, "Normativa vial", subject.Name)
}

func TestSubjectServiceCreateMissingCategory(t *testing.T) {
	svc := newSubjectServiceForTest(newMockSubjectRepo())

	_, err := svc.Create(context.Background(), SubjectRequest{Name: "Normativa vial", LicenseCategoryID: 9})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSubjectServiceCreateDuplicateName(t *testing.T) {
	repo := newMockSubjectRepo()
	repo.categories[1] = &models.LicenseCategory{ID: 1, Code: "B"}
	svc := newSubjectServiceForTest(repo)

	_, err := svc.Create(context.Background(), SubjectRequest{Name: "Normativa vial", LicenseCategoryID: 1})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), SubjectRequest{Name: "Normativa vial", LicenseCategoryID: 1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSubjectServiceUpdate(t *testing.T) {
	repo := newMockSubjectRepo()
	repo.categories[1] = &models.LicenseCategory{ID: 1, Code: "B"}
	svc := newSubjectServiceForTest(repo)

	subject, err := svc.Create(context.Background(), SubjectRequest{Name: "Normativa vial", LicenseCategoryID: 1})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), subject.ID, SubjectRequest{Name: "Normativa y señales", LicenseCategoryID: 1})
	require.NoError(t, err)
	assert.Equal(t, "Normativa y señales", updated.Name)
}

func TestSubjectServiceUpdateNotFound(t *testing.T) {
	svc := newSubjectServiceForTest(newMockSubjectRepo())

	_, err := svc.Update(context.Background(), 42, SubjectRequest{Name: "Mecánica", LicenseCategoryID: 1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSubjectServiceDelete(t *testing.T) {
	repo := newMockSubjectRepo()
	repo.categories[1] = &models.LicenseCategory{ID: 1, Code: "B"}
	svc := newSubjectServiceForTest(repo)

	subject, err := svc.Create(context.Background(), SubjectRequest{Name: "Mecánica", LicenseCategoryID: 1})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), subject.ID))

	err = svc.Delete(context.Background(), subject.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSubjectServiceCreateCategory(t *testing.T) {
	svc := newSubjectServiceForTest(newMockSubjectRepo())

	category, err := svc.CreateCategory(context.Background(), CategoryRequest{Code: "A", Description: "Motocicletas"})
	require.NoError(t, err)
	assert.NotZero(t, category.ID)

	_, err = svc.CreateCategory(context.Background(), CategoryRequest{Code: "A"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSubjectServiceCreateCategoryInvalidCode(t *testing.T) {
	svc := newSubjectServiceForTest(newMockSubjectRepo())

	_, err := svc.CreateCategory(context.Background(), CategoryRequest{Code: "TOOLONG"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
