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

type mockStudentRepo struct {
	students map[int64]*models.StudentDetail
	licenses map[int64][]models.LicenseCategory
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id int64) (*models.StudentDetail, error) {
	if student, ok := m.students[id]; ok {
		return student, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) ListLicenses(ctx context.Context, studentID int64) ([]models.LicenseCategory, error) {
	return m.licenses[studentID], nil
}

func (m *mockStudentRepo) AttachLicense(ctx context.Context, studentID, categoryID int64) error {
	for _, lic := range m.licenses[studentID] {
		if lic.ID == categoryID {
			return nil
		}
	}
	if m.licenses == nil {
		m.licenses = make(map[int64][]models.LicenseCategory)
	}
	m.licenses[studentID] = append(m.licenses[studentID], models.LicenseCategory{ID: categoryID})
	return nil
}

func (m *mockStudentRepo) DetachLicense(ctx context.Context, studentID, categoryID int64) error {
	for i, lic := range m.licenses[studentID] {
		if lic.ID == categoryID {
			m.licenses[studentID] = append(m.licenses[studentID][:i], m.licenses[studentID][i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type mockCategoryReader struct {
	categories map[int64]*models.LicenseCategory
}

func (m *mockCategoryReader) FindCategoryByID(ctx context.Context, id int64) (*models.LicenseCategory, error) {
	if category, ok := m.categories[id]; ok {
		return category, nil
	}
	return nil, sql.ErrNoRows
}

type mockProfessorLister struct {
	professors []models.ProfessorDetail
}

func (m *mockProfessorLister) ListProfessors(ctx context.Context) ([]models.ProfessorDetail, error) {
	return m.professors, nil
}

func newStudentServiceForTest(repo *mockStudentRepo, categories *mockCategoryReader) *StudentService {
	return NewStudentService(repo, categories, &mockProfessorLister{}, nil)
}

func TestStudentServiceGet(t *testing.T) {
	repo := &mockStudentRepo{
		students: map[int64]*models.StudentDetail{1: {Student: models.Student{ID: 1, UserID: 100}, FullName: "Ana Ruiz", Active: true}},
		licenses: map[int64][]models.LicenseCategory{1: {{ID: 2, Code: "B"}}},
	}
	svc := newStudentServiceForTest(repo, &mockCategoryReader{})

	profile, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Ana Ruiz", profile.FullName)
	require.Len(t, profile.Licenses, 1)
	assert.Equal(t, "B", profile.Licenses[0].Code)
}

func TestStudentServiceGetNotFound(t *testing.T) {
	svc := newStudentServiceForTest(&mockStudentRepo{}, &mockCategoryReader{})

	_, err := svc.Get(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceAttachLicense(t *testing.T) {
	repo := &mockStudentRepo{
		students: map[int64]*models.StudentDetail{1: {Student: models.Student{ID: 1}}},
	}
	categories := &mockCategoryReader{categories: map[int64]*models.LicenseCategory{2: {ID: 2, Code: "A"}}}
	svc := newStudentServiceForTest(repo, categories)

	require.NoError(t, svc.AttachLicense(context.Background(), 1, 2))
	require.Len(t, repo.licenses[1], 1)

	// attaching the same category again is a no-op
	require.NoError(t, svc.AttachLicense(context.Background(), 1, 2))
	assert.Len(t, repo.licenses[1], 1)
}

func TestStudentServiceAttachLicenseMissingCategory(t *testing.T) {
	repo := &mockStudentRepo{
		students: map[int64]*models.StudentDetail{1: {Student: models.Student{ID: 1}}},
	}
	svc := newStudentServiceForTest(repo, &mockCategoryReader{})

	err := svc.AttachLicense(context.Background(), 1, 99)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceAttachLicenseMissingStudent(t *testing.T) {
	categories := &mockCategoryReader{categories: map[int64]*models.LicenseCategory{2: {ID: 2}}}
	svc := newStudentServiceForTest(&mockStudentRepo{}, categories)

	err := svc.AttachLicense(context.Background(), 42, 2)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceDetachLicense(t *testing.T) {
	repo := &mockStudentRepo{
		students: map[int64]*models.StudentDetail{1: {Student: models.Student{ID: 1}}},
		licenses: map[int64][]models.LicenseCategory{1: {{ID: 2}}},
	}
	svc := newStudentServiceForTest(repo, &mockCategoryReader{})

	require.NoError(t, svc.DetachLicense(context.Background(), 1, 2))
	assert.Empty(t, repo.licenses[1])

	err := svc.DetachLicense(context.Background(), 1, 2)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceListProfessors(t *testing.T) {
	professors := &mockProfessorLister{professors: []models.ProfessorDetail{{FullName: "Luis Mora"}}}
	svc := NewStudentService(&mockStudentRepo{}, &mockCategoryReader{}, professors, nil)

	list, err := svc.ListProfessors(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Luis Mora", list[0].FullName)
}
