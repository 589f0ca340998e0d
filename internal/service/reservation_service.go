package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ortegadev/autoescuela-api/internal/models"
	"github.com/ortegadev/autoescuela-api/internal/repository"
	appErrors "github.com/ortegadev/autoescuela-api/pkg/errors"
)

type reservationRepository interface {
	Book(ctx context.Context, studentID, classID int64) (*models.Reservation, error)
	Cancel(ctx context.Context, reservationID, studentID int64) (*models.Reservation, error)
	FindOwned(ctx context.Context, reservationID, studentID int64) (*models.Reservation, error)
	FindByID(ctx context.Context, reservationID int64) (*models.Reservation, error)
	SetAttendance(ctx context.Context, reservationID int64, attended bool) error
	ListActiveByStudent(ctx context.Context, studentID int64) ([]models.ReservationDetail, error)
}

type studentResolver interface {
	FindByUserID(ctx context.Context, userID int64) (*models.StudentDetail, error)
	FindByID(ctx context.Context, id int64) (*models.StudentDetail, error)
}

// BookRequest is the self-service booking payload.
type BookRequest struct {
	ClassID int64 `json:"class_id" validate:"required,gt=0"`
}

// AdminBookRequest is the admin-on-behalf-of-student booking payload.
type AdminBookRequest struct {
	StudentID int64 `json:"student_id" validate:"required,gt=0"`
	ClassID   int64 `json:"class_id" validate:"required,gt=0"`
}

// AttendanceRequest records whether the student showed up.
type AttendanceRequest struct {
	Attended *bool `json:"attended" validate:"required"`
}

// ReservationService mediates every seat movement between available and
// booked. Capacity checks happen inside the repository transactions; this
// layer resolves identities and maps storage errors to the API taxonomy.
type ReservationService struct {
	repo      reservationRepository
	students  studentResolver
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	cache     *CacheService
}

// NewReservationService constructs ReservationService.
func NewReservationService(repo reservationRepository, students studentResolver, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService, cache *CacheService) *ReservationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationService{repo: repo, students: students, validator: validate, logger: logger, metrics: metrics, cache: cache}
}

// Book claims a seat for the calling user. The caller identity is resolved
// to a student profile before any capacity work happens.
func (s *ReservationService) Book(ctx context.Context, callerUserID int64, req BookRequest) (*models.Reservation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	student, err := s.students.FindByUserID(ctx, callerUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "not an active student")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student")
	}
	if !student.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "not an active student")
	}
	return s.book(ctx, student.ID, req.ClassID)
}

// BookAsAdmin books on behalf of the given student profile id.
func (s *ReservationService) BookAsAdmin(ctx context.Context, req AdminBookRequest) (*models.Reservation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student")
	}
	return s.book(ctx, student.ID, req.ClassID)
}

func (s *ReservationService) book(ctx context.Context, studentID, classID int64) (*models.Reservation, error) {
	reservation, err := s.repo.Book(ctx, studentID, classID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		case errors.Is(err, repository.ErrClassFull):
			s.metrics.RecordBooking(BookingOutcomeFull)
			return nil, appErrors.ErrCapacityExceeded
		case errors.Is(err, repository.ErrDuplicateActive):
			s.metrics.RecordBooking(BookingOutcomeDuplicate)
			return nil, appErrors.ErrDuplicateBooking
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to book class")
		}
	}
	s.metrics.RecordBooking(BookingOutcomeBooked)
	s.invalidateClassCache(ctx)
	s.logger.Info("seat booked",
		zap.Int64("reservation_id", reservation.ID),
		zap.Int64("student_id", studentID),
		zap.Int64("class_id", classID))
	return reservation, nil
}

// Cancel releases the caller's reservation. Reservations of other students
// are indistinguishable from missing ones.
func (s *ReservationService) Cancel(ctx context.Context, callerUserID, reservationID int64) (*models.Reservation, error) {
	student, err := s.students.FindByUserID(ctx, callerUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "not an active student")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student")
	}
	reservation, err := s.repo.Cancel(ctx, reservationID, student.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reservation not found")
		case errors.Is(err, repository.ErrNotActive):
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "reservation already cancelled")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel reservation")
		}
	}
	s.metrics.RecordBooking(BookingOutcomeCancelled)
	s.invalidateClassCache(ctx)
	s.logger.Info("reservation cancelled",
		zap.Int64("reservation_id", reservation.ID),
		zap.Int64("student_id", student.ID))
	return reservation, nil
}

// ListMine returns the caller's active reservations. Callers without a
// student profile get an empty list, not an error.
func (s *ReservationService) ListMine(ctx context.Context, callerUserID int64) ([]models.ReservationDetail, error) {
	student, err := s.students.FindByUserID(ctx, callerUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.ReservationDetail{}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student")
	}
	reservations, err := s.repo.ListActiveByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reservations")
	}
	if reservations == nil {
		reservations = []models.ReservationDetail{}
	}
	return reservations, nil
}

// MarkAttendance records attendance on an owned ACTIVE reservation. The
// value may be corrected while the reservation stays ACTIVE.
func (s *ReservationService) MarkAttendance(ctx context.Context, callerUserID, reservationID int64, req AttendanceRequest) (*models.Reservation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	student, err := s.students.FindByUserID(ctx, callerUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "not an active student")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student")
	}
	reservation, err := s.repo.FindOwned(ctx, reservationID, student.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reservation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reservation")
	}
	return s.setAttendance(ctx, reservation, req.Attended)
}

// MarkAttendanceAsAdmin records attendance on any ACTIVE reservation,
// without the ownership filter. Mirrors BookAsAdmin.
func (s *ReservationService) MarkAttendanceAsAdmin(ctx context.Context, reservationID int64, req AttendanceRequest) (*models.Reservation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	reservation, err := s.repo.FindByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reservation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reservation")
	}
	return s.setAttendance(ctx, reservation, req.Attended)
}

func (s *ReservationService) setAttendance(ctx context.Context, reservation *models.Reservation, attended *bool) (*models.Reservation, error) {
	if reservation.Status != models.ReservationStatusActive {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "reservation is not active")
	}
	if err := s.repo.SetAttendance(ctx, reservation.ID, *attended); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	reservation.Attended = attended
	return reservation, nil
}

func (s *ReservationService) invalidateClassCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, "classes:*")
	_ = s.cache.Invalidate(ctx, "schedules:*")
}
