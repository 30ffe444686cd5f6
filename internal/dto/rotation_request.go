package dto

import "github.com/noah-isme/rotation-portal-api/internal/models"

// ApprovalResult reports what an approval (or resumed approval) materialized.
type ApprovalResult struct {
	RequestID          string   `json:"requestId"`
	EnrollmentsCreated int      `json:"enrollmentsCreated"`
	RotationsCreated   int      `json:"rotationsCreated"`
	ServicesCreated    int      `json:"servicesCreated"`
	SkippedCandidates  []string `json:"skippedCandidates,omitempty"`
	CleanupIncomplete  bool     `json:"cleanupIncomplete"`
	Warnings           []string `json:"warnings,omitempty"`
}

// RejectRequest carries the operator's rejection reason.
type RejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// RejectResult reports the roster rows discarded by a rejection.
type RejectResult struct {
	RequestID         string `json:"requestId"`
	CandidatesRemoved int    `json:"candidatesRemoved"`
}

// UpdateCandidateFieldRequest is a targeted single-column correction.
type UpdateCandidateFieldRequest struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

// RotationRequestQuery mirrors supported listing filters.
type RotationRequestQuery struct {
	Status           []models.RequestStatus
	TrainingCenterID string
	Page             int
	PageSize         int
}

// ClinicalServiceQuery filters the catalog listing.
type ClinicalServiceQuery struct {
	Search string
}
