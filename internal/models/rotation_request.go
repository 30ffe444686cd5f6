package models

import "time"

// RequestStatus captures workflow states for rotation requests.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// requestTransitions lists the legal next states for each status. Terminal states have no entry.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending: {RequestStatusApproved, RequestStatusRejected},
}

// Valid reports whether the status belongs to the closed set.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s RequestStatus) IsTerminal() bool {
	return s.Valid() && len(requestTransitions[s]) == 0
}

// RotationRequest is a training center's submission asking to place a batch of students.
type RotationRequest struct {
	ID               string        `db:"id" json:"id"`
	TrainingCenterID string        `db:"training_center_id" json:"trainingCenterId"`
	Specialty        string        `db:"specialty" json:"specialty"`
	StartDate        time.Time     `db:"start_date" json:"startDate"`
	EndDate          time.Time     `db:"end_date" json:"endDate"`
	Comments         string        `db:"comments" json:"comments"`
	Status           RequestStatus `db:"status" json:"status"`
	RespondedAt      *time.Time    `db:"responded_at" json:"respondedAt,omitempty"`
	RespondedBy      *string       `db:"responded_by" json:"respondedBy,omitempty"`
	RejectionReason  *string       `db:"rejection_reason" json:"rejectionReason,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"createdAt"`
}

// RotationRequestSummary enriches a request with list-view aggregates.
type RotationRequestSummary struct {
	RotationRequest
	TrainingCenterName string `db:"training_center_name" json:"trainingCenterName"`
	CandidateCount     int    `db:"candidate_count" json:"candidateCount"`
}

// RotationRequestDetail is a request together with its current roster.
type RotationRequestDetail struct {
	RotationRequestSummary
	Candidates []Candidate `json:"candidates"`
}

// RotationRequestFilter constrains listing queries.
type RotationRequestFilter struct {
	Status           []RequestStatus
	TrainingCenterID string
	Page             int
	PageSize         int
}
