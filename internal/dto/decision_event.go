package dto

import (
	"time"

	"github.com/noah-isme/rotation-portal-api/internal/models"
)

// DecisionEvent is published to training centers once a request reaches a terminal state.
type DecisionEvent struct {
	RequestID          string               `json:"requestId"`
	TrainingCenterID   string               `json:"trainingCenterId"`
	Decision           models.RequestStatus `json:"decision"`
	Reason             string               `json:"reason,omitempty"`
	EnrollmentsCreated int                  `json:"enrollmentsCreated,omitempty"`
	DecidedBy          string               `json:"decidedBy"`
	DecidedAt          time.Time            `json:"decidedAt"`
}
