package models

import "time"

// Subject is a theory or practice module taught in class sessions.
type Subject struct {
	ID                int64     `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	Description       string    `db:"description" json:"description"`
	LicenseCategoryID int64     `db:"license_category_id" json:"license_category_id"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectDetail extends Subject with its license category code.
type SubjectDetail struct {
	Subject
	CategoryCode string `db:"category_code" json:"category_code"`
}

// SubjectFilter defines filter criteria for listing subjects.
type SubjectFilter struct {
	LicenseCategoryID int64
	Search            string
	Page              int
	PageSize          int
	SortBy            string
	SortOrder         string
}
