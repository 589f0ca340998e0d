package models

import "time"

// Student wraps a user identity with driving-school specific data.
type Student struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolled_at"`
}

// StudentDetail enriches Student with user account info.
type StudentDetail struct {
	Student
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
	Document string `db:"document" json:"document"`
	Active   bool   `db:"active" json:"active"`
}

// LicenseCategory is a vehicle-class license (A, B, ...).
type LicenseCategory struct {
	ID          int64     `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Professor wraps a user identity authorised to teach classes.
type Professor struct {
	ID            int64  `db:"id" json:"id"`
	UserID        int64  `db:"user_id" json:"user_id"`
	LicenseNumber string `db:"license_number" json:"license_number"`
}

// ProfessorDetail enriches Professor with user account info.
type ProfessorDetail struct {
	Professor
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
	Active   bool   `db:"active" json:"active"`
}
