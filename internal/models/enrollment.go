package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses. Only InRotation is produced by approval; the rest belong
// to later lifecycle processes.
const (
	EnrollmentStatusInRotation EnrollmentStatus = "in_rotation"
	EnrollmentStatusCompleted  EnrollmentStatus = "completed"
	EnrollmentStatusWithdrawn  EnrollmentStatus = "withdrawn"
)

// Enrollment is the permanent student record created when a request is approved.
type Enrollment struct {
	ID               string           `db:"id" json:"id"`
	SourceRequestID  string           `db:"source_request_id" json:"sourceRequestId"`
	TrainingCenterID string           `db:"training_center_id" json:"trainingCenterId"`
	NationalID       string           `db:"national_id" json:"nationalId"`
	FirstName        string           `db:"first_name" json:"firstName"`
	LastName         string           `db:"last_name" json:"lastName"`
	Email            string           `db:"email" json:"email"`
	Phone            string           `db:"phone" json:"phone"`
	Career           string           `db:"career" json:"career"`
	Level            string           `db:"level" json:"level"`
	ContactName      string           `db:"contact_name" json:"contactName"`
	ContactEmail     string           `db:"contact_email" json:"contactEmail"`
	ContactPhone     string           `db:"contact_phone" json:"contactPhone"`
	ScheduleStart    string           `db:"schedule_start" json:"scheduleStart"`
	ScheduleEnd      string           `db:"schedule_end" json:"scheduleEnd"`
	RotationStart    time.Time        `db:"rotation_start" json:"rotationStart"`
	RotationEnd      time.Time        `db:"rotation_end" json:"rotationEnd"`
	Status           EnrollmentStatus `db:"status" json:"status"`
	Active           bool             `db:"active" json:"active"`
	CreatedAt        time.Time        `db:"created_at" json:"createdAt"`
}
