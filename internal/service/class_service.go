package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ortegadev/autoescuela-api/internal/models"
	appErrors "github.com/ortegadev/autoescuela-api/pkg/errors"
	"github.com/ortegadev/autoescuela-api/pkg/export"
)

type classRepository interface {
	Create(ctx context.Context, class *models.ClassSession) error
	FindByID(ctx context.Context, id int64) (*models.ClassSession, error)
	FindDetailByID(ctx context.Context, id int64) (*models.ClassSessionDetail, error)
	List(ctx context.Context, filter models.ClassFilter) ([]models.ClassSessionDetail, int, error)
	Delete(ctx context.Context, id int64) error
	Roster(ctx context.Context, classID int64) ([]models.RosterEntry, error)
}

type subjectReader interface {
	FindByID(ctx context.Context, id int64) (*models.Subject, error)
}

type professorReader interface {
	FindProfessorByID(ctx context.Context, id int64) (*models.ProfessorDetail, error)
}

type weekReader interface {
	FindByID(ctx context.Context, id int64) (*models.WeeklySchedule, error)
}

// CreateClassRequest describes the class creation payload.
type CreateClassRequest struct {
	SubjectID   int64     `json:"subject_id" validate:"required,gt=0"`
	ProfessorID int64     `json:"professor_id" validate:"required,gt=0"`
	ScheduleID  *int64    `json:"schedule_id"`
	ClassDate   time.Time `json:"class_date" validate:"required"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required"`
	MaxCapacity int       `json:"max_capacity" validate:"required,gt=0"`
}

// ClassService owns the class session lifecycle. Seat counters are created
// here but only mutated by the reservation transactions.
type ClassService struct {
	repo       classRepository
	subjects   subjectReader
	professors professorReader
	weeks      weekReader
	validator  *validator.Validate
	logger     *zap.Logger
	cache      *CacheService
	exporter   *export.PDFExporter
}

// NewClassService constructs ClassService.
func NewClassService(repo classRepository, subjects subjectReader, professors professorReader, weeks weekReader, validate *validator.Validate, logger *zap.Logger, cache *CacheService) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, subjects: subjects, professors: professors, weeks: weeks, validator: validate, logger: logger, cache: cache, exporter: export.NewPDFExporter()}
}

// Create registers a new class session with available capacity at maximum.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest) (*models.ClassSessionDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if _, err := s.professors.FindProfessorByID(ctx, req.ProfessorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "professor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}
	if req.ScheduleID != nil {
		if _, err := s.weeks.FindByID(ctx, *req.ScheduleID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
		}
	}

	class := &models.ClassSession{
		SubjectID:   req.SubjectID,
		ProfessorID: req.ProfessorID,
		ScheduleID:  req.ScheduleID,
		ClassDate:   req.ClassDate,
		StartsAt:    req.StartTime,
		EndsAt:      req.EndTime,
		MaxCapacity: req.MaxCapacity,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	s.invalidate(ctx)
	detail, err := s.repo.FindDetailByID(ctx, class.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class detail")
	}
	return detail, nil
}

// Get returns a class session with subject and professor info.
func (s *ClassService) Get(ctx context.Context, id int64) (*models.ClassSessionDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return detail, nil
}

// List returns class sessions matching the filter, served from cache when
// possible.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassSessionDetail, *models.Pagination, error) {
	type cached struct {
		Classes    []models.ClassSessionDetail `json:"classes"`
		Pagination *models.Pagination          `json:"pagination"`
	}
	key := classListCacheKey(filter)
	var entry cached
	if hit, _ := s.cache.Get(ctx, key, &entry); hit {
		return entry.Classes, entry.Pagination, nil
	}

	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	_ = s.cache.Set(ctx, key, cached{Classes: classes, Pagination: pagination}, 0)
	return classes, pagination, nil
}

// Delete removes the class and its reservations.
func (s *ClassService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	s.invalidate(ctx)
	s.logger.Info("class deleted", zap.Int64("class_id", id))
	return nil
}

// RosterPDF renders the active reservations of a class as an attendance
// sheet.
func (s *ClassService) RosterPDF(ctx context.Context, classID int64) ([]byte, string, error) {
	detail, dataset, err := s.rosterDataset(ctx, classID)
	if err != nil {
		return nil, "", err
	}
	title := fmt.Sprintf("%s - %s", detail.SubjectName, detail.ClassDate.Format("2006-01-02"))
	payload, err := s.exporter.Render(dataset, title)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}
	filename := fmt.Sprintf("roster-%d-%s.pdf", classID, detail.ClassDate.Format("20060102"))
	return payload, filename, nil
}

// RosterCSV renders the same roster as a spreadsheet-friendly export.
func (s *ClassService) RosterCSV(ctx context.Context, classID int64) ([]byte, string, error) {
	detail, dataset, err := s.rosterDataset(ctx, classID)
	if err != nil {
		return nil, "", err
	}
	payload, err := export.NewCSVExporter().Render(dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}
	filename := fmt.Sprintf("roster-%d-%s.csv", classID, detail.ClassDate.Format("20060102"))
	return payload, filename, nil
}

func (s *ClassService) rosterDataset(ctx context.Context, classID int64) (*models.ClassSessionDetail, export.Dataset, error) {
	detail, err := s.repo.FindDetailByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, export.Dataset{}, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	entries, err := s.repo.Roster(ctx, classID)
	if err != nil {
		return nil, export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	dataset := export.Dataset{Headers: []string{"Student", "Document", "Attended"}}
	for _, entry := range entries {
		attended := ""
		if entry.Attended != nil {
			if *entry.Attended {
				attended = "yes"
			} else {
				attended = "no"
			}
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student":  entry.StudentName,
			"Document": entry.Document,
			"Attended": attended,
		})
	}
	return detail, dataset, nil
}

func (s *ClassService) invalidate(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, "classes:*")
	_ = s.cache.Invalidate(ctx, "schedules:*")
}

func classListCacheKey(filter models.ClassFilter) string {
	scheduleID := int64(0)
	if filter.ScheduleID != nil {
		scheduleID = *filter.ScheduleID
	}
	from, to := "", ""
	if filter.DateFrom != nil {
		from = filter.DateFrom.Format("2006-01-02")
	}
	if filter.DateTo != nil {
		to = filter.DateTo.Format("2006-01-02")
	}
	return fmt.Sprintf("classes:list:%d:%d:%d:%s:%s:%t:%d:%d",
		filter.SubjectID, filter.ProfessorID, scheduleID, from, to, filter.OnlyOpen, filter.Page, filter.PageSize)
}
