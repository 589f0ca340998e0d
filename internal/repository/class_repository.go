package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ortegadev/autoescuela-api/internal/models"
)

// ClassRepository owns persistence of class sessions and their seat counters.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

const classColumns = `id, subject_id, professor_id, schedule_id, class_date, starts_at, ends_at,
        max_capacity, available_capacity, status, created_at, updated_at`

// Create persists a new class session. Available capacity starts at max.
func (r *ClassRepository) Create(ctx context.Context, class *models.ClassSession) error {
	now := time.Now().UTC()
	class.CreatedAt = now
	class.UpdatedAt = now
	class.AvailableCapacity = class.MaxCapacity
	if class.Status == "" {
		class.Status = models.ClassStatusOpen
	}
	const query = `INSERT INTO class_sessions (subject_id, professor_id, schedule_id, class_date, starts_at, ends_at,
        max_capacity, available_capacity, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id`
	if err := r.db.GetContext(ctx, &class.ID, query,
		class.SubjectID, class.ProfessorID, class.ScheduleID, class.ClassDate, class.StartsAt, class.EndsAt,
		class.MaxCapacity, class.AvailableCapacity, class.Status, class.CreatedAt, class.UpdatedAt); err != nil {
		return fmt.Errorf("create class session: %w", err)
	}
	return nil
}

// FindByID returns a class session by id.
func (r *ClassRepository) FindByID(ctx context.Context, id int64) (*models.ClassSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_sessions WHERE id = $1`, classColumns)
	var class models.ClassSession
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindDetailByID returns a class session joined with subject and professor info.
func (r *ClassRepository) FindDetailByID(ctx context.Context, id int64) (*models.ClassSessionDetail, error) {
	const query = `SELECT c.id, c.subject_id, c.professor_id, c.schedule_id, c.class_date, c.starts_at, c.ends_at,
        c.max_capacity, c.available_capacity, c.status, c.created_at, c.updated_at,
        s.name AS subject_name, u.full_name AS professor_name
        FROM class_sessions c
        JOIN subjects s ON s.id = c.subject_id
        JOIN professors p ON p.id = c.professor_id
        JOIN users u ON u.id = p.user_id
        WHERE c.id = $1`
	var detail models.ClassSessionDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns class sessions matching the filter with pagination metadata.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassSessionDetail, int, error) {
	base := `FROM class_sessions c
JOIN subjects s ON s.id = c.subject_id
JOIN professors p ON p.id = c.professor_id
JOIN users u ON u.id = p.user_id`
	var conditions []string
	var args []interface{}

	if filter.SubjectID > 0 {
		conditions = append(conditions, fmt.Sprintf("c.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.ProfessorID > 0 {
		conditions = append(conditions, fmt.Sprintf("c.professor_id = $%d", len(args)+1))
		args = append(args, filter.ProfessorID)
	}
	if filter.ScheduleID != nil {
		conditions = append(conditions, fmt.Sprintf("c.schedule_id = $%d", len(args)+1))
		args = append(args, *filter.ScheduleID)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("c.class_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("c.class_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if filter.OnlyOpen {
		conditions = append(conditions, fmt.Sprintf("c.status = $%d", len(args)+1))
		args = append(args, models.ClassStatusOpen)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"class_date":   "c.class_date",
		"subject_name": "s.name",
		"created_at":   "c.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "c.class_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT c.id, c.subject_id, c.professor_id, c.schedule_id, c.class_date, c.starts_at, c.ends_at,
        c.max_capacity, c.available_capacity, c.status, c.created_at, c.updated_at,
        s.name AS subject_name, u.full_name AS professor_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var classes []models.ClassSessionDetail
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list class sessions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count class sessions: %w", err)
	}
	return classes, total, nil
}

// Delete removes a class session. Reservations referencing it are removed
// by the ON DELETE CASCADE constraint.
func (r *ClassRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM class_sessions WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete class session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete class session: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AssignToSchedule links the given class sessions to a weekly schedule.
// Pure foreign-key mutation, capacity is untouched.
func (r *ClassRepository) AssignToSchedule(ctx context.Context, classIDs []int64, scheduleID int64) (int64, error) {
	if len(classIDs) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(classIDs))
	args := make([]interface{}, 0, len(classIDs)+2)
	args = append(args, scheduleID, time.Now().UTC())
	for i, id := range classIDs {
		placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
		args = append(args, id)
	}
	query := fmt.Sprintf(`UPDATE class_sessions SET schedule_id = $1, updated_at = $2 WHERE id IN (%s)`,
		strings.Join(placeholders, ","))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("assign classes to schedule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("assign classes to schedule: %w", err)
	}
	return affected, nil
}

// Unassign clears the weekly schedule link of a class session.
func (r *ClassRepository) Unassign(ctx context.Context, classID int64) error {
	const query = `UPDATE class_sessions SET schedule_id = NULL, updated_at = $2 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, classID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("unassign class: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unassign class: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListCandidates returns unassigned class sessions whose date falls inside
// the given window.
func (r *ClassRepository) ListCandidates(ctx context.Context, start, end time.Time) ([]models.ClassSessionDetail, error) {
	const query = `SELECT c.id, c.subject_id, c.professor_id, c.schedule_id, c.class_date, c.starts_at, c.ends_at,
        c.max_capacity, c.available_capacity, c.status, c.created_at, c.updated_at,
        s.name AS subject_name, u.full_name AS professor_name
        FROM class_sessions c
        JOIN subjects s ON s.id = c.subject_id
        JOIN professors p ON p.id = c.professor_id
        JOIN users u ON u.id = p.user_id
        WHERE c.schedule_id IS NULL AND c.class_date >= $1 AND c.class_date <= $2
        ORDER BY c.class_date ASC, c.starts_at ASC`
	var classes []models.ClassSessionDetail
	if err := r.db.SelectContext(ctx, &classes, query, start, end); err != nil {
		return nil, fmt.Errorf("list candidate classes: %w", err)
	}
	return classes, nil
}

// Roster returns the active reservations of a class for export.
func (r *ClassRepository) Roster(ctx context.Context, classID int64) ([]models.RosterEntry, error) {
	const query = `SELECT res.id AS reservation_id, u.full_name AS student_name, u.document, res.attended
        FROM reservations res
        JOIN students st ON st.id = res.student_id
        JOIN users u ON u.id = st.user_id
        WHERE res.class_id = $1 AND res.status = $2
        ORDER BY u.full_name ASC`
	var entries []models.RosterEntry
	if err := r.db.SelectContext(ctx, &entries, query, classID, models.ReservationStatusActive); err != nil {
		return nil, fmt.Errorf("load class roster: %w", err)
	}
	return entries, nil
}
