package models

import "time"

// RotationAssignmentStatus enumerates placement states.
type RotationAssignmentStatus string

const (
	RotationAssignmentActive RotationAssignmentStatus = "active"
)

// RotationAssignment links an enrollment to a clinical service for a date range.
type RotationAssignment struct {
	ID                string                   `db:"id" json:"id"`
	EnrollmentID      string                   `db:"enrollment_id" json:"enrollmentId"`
	ClinicalServiceID *string                  `db:"clinical_service_id" json:"clinicalServiceId,omitempty"`
	StartDate         time.Time                `db:"start_date" json:"startDate"`
	EndDate           time.Time                `db:"end_date" json:"endDate"`
	ScheduleStart     string                   `db:"schedule_start" json:"scheduleStart"`
	ScheduleEnd       string                   `db:"schedule_end" json:"scheduleEnd"`
	Status            RotationAssignmentStatus `db:"status" json:"status"`
	Notes             string                   `db:"notes" json:"notes"`
	CreatedAt         time.Time                `db:"created_at" json:"createdAt"`
}
