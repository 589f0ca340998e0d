package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ortegadev/autoescuela-api/internal/models"
)

// ScheduleRepository handles persistence of weekly schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Create persists a new weekly schedule. New weeks start as drafts.
func (r *ScheduleRepository) Create(ctx context.Context, week *models.WeeklySchedule) error {
	now := time.Now().UTC()
	week.CreatedAt = now
	week.UpdatedAt = now
	const query = `INSERT INTO weekly_schedules (name, start_date, end_date, is_active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.GetContext(ctx, &week.ID, query, week.Name, week.StartDate, week.EndDate, week.IsActive, week.CreatedAt, week.UpdatedAt); err != nil {
		return fmt.Errorf("create weekly schedule: %w", err)
	}
	return nil
}

// FindByID returns a weekly schedule by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id int64) (*models.WeeklySchedule, error) {
	const query = `SELECT id, name, start_date, end_date, is_active, created_at, updated_at FROM weekly_schedules WHERE id = $1`
	var week models.WeeklySchedule
	if err := r.db.GetContext(ctx, &week, query, id); err != nil {
		return nil, err
	}
	return &week, nil
}

// List returns all weekly schedules ordered by start date descending.
func (r *ScheduleRepository) List(ctx context.Context, onlyActive bool) ([]models.WeeklySchedule, error) {
	query := `SELECT id, name, start_date, end_date, is_active, created_at, updated_at FROM weekly_schedules`
	var args []interface{}
	if onlyActive {
		query += ` WHERE is_active = $1`
		args = append(args, true)
	}
	query += ` ORDER BY start_date DESC`
	var weeks []models.WeeklySchedule
	if err := r.db.SelectContext(ctx, &weeks, query, args...); err != nil {
		return nil, fmt.Errorf("list weekly schedules: %w", err)
	}
	return weeks, nil
}

// ToggleActive flips the published flag and returns the updated row.
func (r *ScheduleRepository) ToggleActive(ctx context.Context, id int64) (*models.WeeklySchedule, error) {
	const query = `UPDATE weekly_schedules SET is_active = NOT is_active, updated_at = $2 WHERE id = $1
        RETURNING id, name, start_date, end_date, is_active, created_at, updated_at`
	var week models.WeeklySchedule
	if err := r.db.GetContext(ctx, &week, query, id, time.Now().UTC()); err != nil {
		return nil, err
	}
	return &week, nil
}

// Delete removes a weekly schedule after detaching its classes. Classes are
// never cascade-deleted from a schedule deletion; their link is nulled out.
func (r *ScheduleRepository) Delete(ctx context.Context, id int64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schedule deletion: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const detachQuery = `UPDATE class_sessions SET schedule_id = NULL, updated_at = $2 WHERE schedule_id = $1`
	if _, err = tx.ExecContext(ctx, detachQuery, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("detach schedule classes: %w", err)
	}

	const deleteQuery = `DELETE FROM weekly_schedules WHERE id = $1`
	result, execErr := tx.ExecContext(ctx, deleteQuery, id)
	if execErr != nil {
		err = fmt.Errorf("delete weekly schedule: %w", execErr)
		return err
	}
	affected, affErr := result.RowsAffected()
	if affErr != nil {
		err = fmt.Errorf("delete weekly schedule: %w", affErr)
		return err
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit schedule deletion: %w", err)
	}
	return nil
}
