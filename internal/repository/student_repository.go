package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ortegadev/autoescuela-api/internal/models"
)

// StudentRepository handles persistence of student profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByUserID resolves a user id to its student profile. Returns
// sql.ErrNoRows when the user has no student profile.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID int64) (*models.StudentDetail, error) {
	const query = `SELECT st.id, st.user_id, st.enrolled_at, u.full_name, u.email, u.document, u.active
        FROM students st
        JOIN users u ON u.id = st.user_id
        WHERE st.user_id = $1`
	var student models.StudentDetail
	if err := r.db.GetContext(ctx, &student, query, userID); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByID returns a student profile by its own id.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.StudentDetail, error) {
	const query = `SELECT st.id, st.user_id, st.enrolled_at, u.full_name, u.email, u.document, u.active
        FROM students st
        JOIN users u ON u.id = st.user_id
        WHERE st.id = $1`
	var student models.StudentDetail
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListLicenses returns the license categories a student is pursuing.
func (r *StudentRepository) ListLicenses(ctx context.Context, studentID int64) ([]models.LicenseCategory, error) {
	const query = `SELECT lc.id, lc.code, lc.description, lc.created_at
        FROM license_categories lc
        JOIN student_licenses sl ON sl.license_category_id = lc.id
        WHERE sl.student_id = $1
        ORDER BY lc.code ASC`
	var categories []models.LicenseCategory
	if err := r.db.SelectContext(ctx, &categories, query, studentID); err != nil {
		return nil, fmt.Errorf("list student licenses: %w", err)
	}
	return categories, nil
}

// AttachLicense links a student to a license category.
func (r *StudentRepository) AttachLicense(ctx context.Context, studentID, categoryID int64) error {
	const query = `INSERT INTO student_licenses (student_id, license_category_id)
        VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, studentID, categoryID); err != nil {
		return fmt.Errorf("attach student license: %w", err)
	}
	return nil
}

// DetachLicense removes the link between a student and a license category.
func (r *StudentRepository) DetachLicense(ctx context.Context, studentID, categoryID int64) error {
	const query = `DELETE FROM student_licenses WHERE student_id = $1 AND license_category_id = $2`
	result, err := r.db.ExecContext(ctx, query, studentID, categoryID)
	if err != nil {
		return fmt.Errorf("detach student license: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("detach student license: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
