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
)

type scheduleRepository interface {
	Create(ctx context.Context, week *models.WeeklySchedule) error
	FindByID(ctx context.Context, id int64) (*models.WeeklySchedule, error)
	List(ctx context.Context, onlyActive bool) ([]models.WeeklySchedule, error)
	ToggleActive(ctx context.Context, id int64) (*models.WeeklySchedule, error)
	Delete(ctx context.Context, id int64) error
}

type classLinker interface {
	AssignToSchedule(ctx context.Context, classIDs []int64, scheduleID int64) (int64, error)
	Unassign(ctx context.Context, classID int64) error
	ListCandidates(ctx context.Context, start, end time.Time) ([]models.ClassSessionDetail, error)
}

// CreateWeekRequest describes the weekly schedule creation payload.
type CreateWeekRequest struct {
	Name      string    `json:"name" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
}

// AssignClassesRequest links existing classes to a week.
type AssignClassesRequest struct {
	ClassIDs []int64 `json:"class_ids" validate:"required,min=1,dive,gt=0"`
}

// ScheduleService groups class sessions into named weekly windows. It never
// touches seat counters; the class link is a plain foreign key.
type ScheduleService struct {
	repo      scheduleRepository
	classes   classLinker
	validator *validator.Validate
	logger    *zap.Logger
	cache     *CacheService
}

// NewScheduleService constructs ScheduleService.
func NewScheduleService(repo scheduleRepository, classes classLinker, validate *validator.Validate, logger *zap.Logger, cache *CacheService) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, classes: classes, validator: validate, logger: logger, cache: cache}
}

// CreateWeek registers a new draft week.
func (s *ScheduleService) CreateWeek(ctx context.Context, req CreateWeekRequest) (*models.WeeklySchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must not precede start date")
	}
	week := &models.WeeklySchedule{Name: req.Name, StartDate: req.StartDate, EndDate: req.EndDate}
	if err := s.repo.Create(ctx, week); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	return week, nil
}

// List returns weekly schedules, optionally only published ones.
func (s *ScheduleService) List(ctx context.Context, onlyActive bool) ([]models.WeeklySchedule, error) {
	weeks, err := s.repo.List(ctx, onlyActive)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	return weeks, nil
}

// Candidates returns unassigned classes whose date falls inside the week's
// window.
func (s *ScheduleService) Candidates(ctx context.Context, weekID int64) ([]models.ClassSessionDetail, error) {
	week, err := s.repo.FindByID(ctx, weekID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	key := fmt.Sprintf("schedules:candidates:%d", weekID)
	var cached []models.ClassSessionDetail
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	candidates, err := s.classes.ListCandidates(ctx, week.StartDate, week.EndDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list candidates")
	}
	if candidates == nil {
		candidates = []models.ClassSessionDetail{}
	}
	_ = s.cache.Set(ctx, key, candidates, 0)
	return candidates, nil
}

// ToggleActive publishes or hides the week.
func (s *ScheduleService) ToggleActive(ctx context.Context, weekID int64) (*models.WeeklySchedule, error) {
	week, err := s.repo.ToggleActive(ctx, weekID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle schedule")
	}
	s.invalidate(ctx)
	s.logger.Info("schedule toggled", zap.Int64("schedule_id", week.ID), zap.Bool("is_active", week.IsActive))
	return week, nil
}

// Assign links the given classes to the week.
func (s *ScheduleService) Assign(ctx context.Context, weekID int64, req AssignClassesRequest) (int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if _, err := s.repo.FindByID(ctx, weekID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	assigned, err := s.classes.AssignToSchedule(ctx, req.ClassIDs, weekID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign classes")
	}
	s.invalidate(ctx)
	return assigned, nil
}

// Unassign detaches a class from whatever week it belongs to.
func (s *ScheduleService) Unassign(ctx context.Context, classID int64) error {
	if err := s.classes.Unassign(ctx, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unassign class")
	}
	s.invalidate(ctx)
	return nil
}

// Delete removes a week. Its classes survive with the link nulled out.
func (s *ScheduleService) Delete(ctx context.Context, weekID int64) error {
	if err := s.repo.Delete(ctx, weekID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	s.invalidate(ctx)
	return nil
}

func (s *ScheduleService) invalidate(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, "schedules:*")
	_ = s.cache.Invalidate(ctx, "classes:*")
}
