package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ortegadev/autoescuela-api/internal/models"
	appErrors "github.com/ortegadev/autoescuela-api/pkg/errors"
)

type studentRepository interface {
	FindByID(ctx context.Context, id int64) (*models.StudentDetail, error)
	ListLicenses(ctx context.Context, studentID int64) ([]models.LicenseCategory, error)
	AttachLicense(ctx context.Context, studentID, categoryID int64) error
	DetachLicense(ctx context.Context, studentID, categoryID int64) error
}

type categoryReader interface {
	FindCategoryByID(ctx context.Context, id int64) (*models.LicenseCategory, error)
}

type professorLister interface {
	ListProfessors(ctx context.Context) ([]models.ProfessorDetail, error)
}

// StudentProfile is a student detail plus the licenses they hold.
type StudentProfile struct {
	models.StudentDetail
	Licenses []models.LicenseCategory `json:"licenses"`
}

// StudentService reads student profiles and manages their license grants.
type StudentService struct {
	repo       studentRepository
	categories categoryReader
	professors professorLister
	logger     *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(repo studentRepository, categories categoryReader, professors professorLister, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, categories: categories, professors: professors, logger: logger}
}

// Get returns a student profile with licenses.
func (s *StudentService) Get(ctx context.Context, id int64) (*StudentProfile, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, fmt.Errorf("fetch student: %w", err)
	}
	licenses, err := s.repo.ListLicenses(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list licenses: %w", err)
	}
	return &StudentProfile{StudentDetail: *student, Licenses: licenses}, nil
}

// AttachLicense grants a license category to a student. Attaching an already
// granted category is a no-op.
func (s *StudentService) AttachLicense(ctx context.Context, studentID, categoryID int64) error {
	if _, err := s.repo.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return fmt.Errorf("fetch student: %w", err)
	}
	if _, err := s.categories.FindCategoryByID(ctx, categoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "license category not found")
		}
		return fmt.Errorf("fetch category: %w", err)
	}
	if err := s.repo.AttachLicense(ctx, studentID, categoryID); err != nil {
		return fmt.Errorf("attach license: %w", err)
	}
	s.logger.Info("license attached", zap.Int64("studentId", studentID), zap.Int64("categoryId", categoryID))
	return nil
}

// DetachLicense removes a license grant from a student.
func (s *StudentService) DetachLicense(ctx context.Context, studentID, categoryID int64) error {
	if err := s.repo.DetachLicense(ctx, studentID, categoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "license grant not found")
		}
		return fmt.Errorf("detach license: %w", err)
	}
	return nil
}

// ListProfessors returns every registered professor.
func (s *StudentService) ListProfessors(ctx context.Context) ([]models.ProfessorDetail, error) {
	professors, err := s.professors.ListProfessors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list professors: %w", err)
	}
	return professors, nil
}
