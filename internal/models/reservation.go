package models

import "time"

// ReservationStatus represents the lifecycle of a reservation.
type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "ACTIVE"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
)

// Reservation is a student's claim on one seat in one class session.
// Attended is tri-state: nil until attendance is recorded.
type Reservation struct {
	ID        int64             `db:"id" json:"id"`
	StudentID int64             `db:"student_id" json:"student_id"`
	ClassID   int64             `db:"class_id" json:"class_id"`
	Status    ReservationStatus `db:"status" json:"status"`
	Attended  *bool             `db:"attended" json:"attended"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt time.Time         `db:"updated_at" json:"updated_at"`
}

// ReservationDetail joins a reservation with its class, subject and professor.
type ReservationDetail struct {
	Reservation
	ClassDate     time.Time `db:"class_date" json:"class_date"`
	StartsAt      time.Time `db:"starts_at" json:"starts_at"`
	EndsAt        time.Time `db:"ends_at" json:"ends_at"`
	SubjectName   string    `db:"subject_name" json:"subject_name"`
	ProfessorName string    `db:"professor_name" json:"professor_name"`
}

// RosterEntry is one active reservation on a class roster export.
type RosterEntry struct {
	ReservationID int64  `db:"reservation_id" json:"reservation_id"`
	StudentName   string `db:"student_name" json:"student_name"`
	Document      string `db:"document" json:"document"`
	Attended      *bool  `db:"attended" json:"attended"`
}
