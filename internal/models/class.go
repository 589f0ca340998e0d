package models

import "time"

// ClassStatus is an informational flag on a class session.
type ClassStatus string

const (
	ClassStatusOpen   ClassStatus = "OPEN"
	ClassStatusClosed ClassStatus = "CLOSED"
)

// ClassSession is a single scheduled session with a fixed seat count.
// AvailableCapacity is the system of record for remaining seats and is
// mutated only inside the reservation transactions.
type ClassSession struct {
	ID                int64       `db:"id" json:"id"`
	SubjectID         int64       `db:"subject_id" json:"subject_id"`
	ProfessorID       int64       `db:"professor_id" json:"professor_id"`
	ScheduleID        *int64      `db:"schedule_id" json:"schedule_id,omitempty"`
	ClassDate         time.Time   `db:"class_date" json:"class_date"`
	StartsAt          time.Time   `db:"starts_at" json:"starts_at"`
	EndsAt            time.Time   `db:"ends_at" json:"ends_at"`
	MaxCapacity       int         `db:"max_capacity" json:"max_capacity"`
	AvailableCapacity int         `db:"available_capacity" json:"available_capacity"`
	Status            ClassStatus `db:"status" json:"status"`
	CreatedAt         time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time   `db:"updated_at" json:"updated_at"`
}

// ClassSessionDetail enriches a session with subject and professor info.
type ClassSessionDetail struct {
	ClassSession
	SubjectName   string `db:"subject_name" json:"subject_name"`
	ProfessorName string `db:"professor_name" json:"professor_name"`
}

// ClassFilter defines filter criteria for listing class sessions.
type ClassFilter struct {
	SubjectID   int64
	ProfessorID int64
	ScheduleID  *int64
	DateFrom    *time.Time
	DateTo      *time.Time
	OnlyOpen    bool
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
