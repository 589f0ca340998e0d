package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ortegadev/autoescuela-api/internal/models"
)

// Sentinel errors surfaced by the booking transactions. The service layer
// maps them to the HTTP error taxonomy.
var (
	ErrClassFull       = errors.New("class has no available seats")
	ErrDuplicateActive = errors.New("active reservation already exists")
	ErrNotActive       = errors.New("reservation is not active")
)

// ReservationRepository is the only component that moves seats between
// available and booked. Both Book and Cancel run the capacity check and the
// counter update inside one transaction holding a row lock on the class, so
// concurrent bookings against the last seat serialize instead of overselling.
type ReservationRepository struct {
	db *sqlx.DB
}

// NewReservationRepository constructs the repository.
func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Book atomically claims one seat for the student. It fails with
// sql.ErrNoRows when the class does not exist, ErrClassFull when capacity is
// exhausted, and ErrDuplicateActive when the student already holds an ACTIVE
// reservation for the class.
func (r *ReservationRepository) Book(ctx context.Context, studentID, classID int64) (reservation *models.Reservation, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin booking transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var available int
	const lockQuery = `SELECT available_capacity FROM class_sessions WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &available, lockQuery, classID); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("lock class row: %w", err)
	}
	if available <= 0 {
		err = ErrClassFull
		return nil, err
	}

	var exists int
	const duplicateQuery = `SELECT 1 FROM reservations WHERE student_id = $1 AND class_id = $2 AND status = $3 LIMIT 1`
	dupErr := tx.GetContext(ctx, &exists, duplicateQuery, studentID, classID, models.ReservationStatusActive)
	if dupErr == nil {
		err = ErrDuplicateActive
		return nil, err
	}
	if dupErr != sql.ErrNoRows {
		err = fmt.Errorf("check duplicate reservation: %w", dupErr)
		return nil, err
	}

	now := time.Now().UTC()
	res := &models.Reservation{
		StudentID: studentID,
		ClassID:   classID,
		Status:    models.ReservationStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	const insertQuery = `INSERT INTO reservations (student_id, class_id, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err = tx.GetContext(ctx, &res.ID, insertQuery, res.StudentID, res.ClassID, res.Status, res.CreatedAt, res.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert reservation: %w", err)
	}

	const decrementQuery = `UPDATE class_sessions SET available_capacity = available_capacity - 1, updated_at = $2 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, decrementQuery, classID, now); err != nil {
		return nil, fmt.Errorf("decrement availability: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit booking: %w", err)
	}
	return res, nil
}

// Cancel atomically flips the reservation to CANCELLED and restores one
// seat. The lookup is ownership-filtered: a reservation belonging to another
// student reports sql.ErrNoRows, not a permission error.
func (r *ReservationRepository) Cancel(ctx context.Context, reservationID, studentID int64) (reservation *models.Reservation, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin cancellation transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var res models.Reservation
	const loadQuery = `SELECT id, student_id, class_id, status, attended, created_at, updated_at
        FROM reservations WHERE id = $1 AND student_id = $2 FOR UPDATE`
	if err = tx.GetContext(ctx, &res, loadQuery, reservationID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("lock reservation: %w", err)
	}
	if res.Status != models.ReservationStatusActive {
		err = ErrNotActive
		return nil, err
	}

	// Lock the class row before touching the counter so cancellations
	// serialize with concurrent bookings on the same class.
	var available int
	const lockQuery = `SELECT available_capacity FROM class_sessions WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &available, lockQuery, res.ClassID); err != nil {
		return nil, fmt.Errorf("lock class row: %w", err)
	}

	now := time.Now().UTC()
	const cancelQuery = `UPDATE reservations SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, cancelQuery, res.ID, models.ReservationStatusCancelled, now); err != nil {
		return nil, fmt.Errorf("cancel reservation: %w", err)
	}

	const incrementQuery = `UPDATE class_sessions SET available_capacity = available_capacity + 1, updated_at = $2 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, incrementQuery, res.ClassID, now); err != nil {
		return nil, fmt.Errorf("increment availability: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit cancellation: %w", err)
	}

	res.Status = models.ReservationStatusCancelled
	res.UpdatedAt = now
	return &res, nil
}

// FindOwned loads a reservation filtered by owner.
func (r *ReservationRepository) FindOwned(ctx context.Context, reservationID, studentID int64) (*models.Reservation, error) {
	const query = `SELECT id, student_id, class_id, status, attended, created_at, updated_at
        FROM reservations WHERE id = $1 AND student_id = $2`
	var res models.Reservation
	if err := r.db.GetContext(ctx, &res, query, reservationID, studentID); err != nil {
		return nil, err
	}
	return &res, nil
}

// FindByID loads a reservation regardless of owner, for admin access.
func (r *ReservationRepository) FindByID(ctx context.Context, reservationID int64) (*models.Reservation, error) {
	const query = `SELECT id, student_id, class_id, status, attended, created_at, updated_at
        FROM reservations WHERE id = $1`
	var res models.Reservation
	if err := r.db.GetContext(ctx, &res, query, reservationID); err != nil {
		return nil, err
	}
	return &res, nil
}

// SetAttendance records attendance on a reservation. No capacity effect.
func (r *ReservationRepository) SetAttendance(ctx context.Context, reservationID int64, attended bool) error {
	const query = `UPDATE reservations SET attended = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, reservationID, attended, time.Now().UTC()); err != nil {
		return fmt.Errorf("set attendance: %w", err)
	}
	return nil
}

// ListActiveByStudent returns the student's ACTIVE reservations joined with
// class, subject and professor data, ordered by class date ascending.
func (r *ReservationRepository) ListActiveByStudent(ctx context.Context, studentID int64) ([]models.ReservationDetail, error) {
	const query = `SELECT res.id, res.student_id, res.class_id, res.status, res.attended, res.created_at, res.updated_at,
        c.class_date, c.starts_at, c.ends_at, s.name AS subject_name, u.full_name AS professor_name
        FROM reservations res
        JOIN class_sessions c ON c.id = res.class_id
        JOIN subjects s ON s.id = c.subject_id
        JOIN professors p ON p.id = c.professor_id
        JOIN users u ON u.id = p.user_id
        WHERE res.student_id = $1 AND res.status = $2
        ORDER BY c.class_date ASC, c.starts_at ASC`
	var reservations []models.ReservationDetail
	if err := r.db.SelectContext(ctx, &reservations, query, studentID, models.ReservationStatusActive); err != nil {
		return nil, fmt.Errorf("list active reservations: %w", err)
	}
	return reservations, nil
}
