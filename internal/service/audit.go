package service

import (
	"context"

	"github.com/noah-isme/rotation-portal-api/internal/models"
)

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}
