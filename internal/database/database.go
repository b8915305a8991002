// Package database provides the data access layer for operational records.
package database

import (
	"context"

	"github.com/factchecker/realitycheck/internal/models"
)

// Store defines the interface for data persistence. Only request metadata is
// stored; card inputs and results never leave memory.
type Store interface {
	// Audit logs
	LogRequest(ctx context.Context, log *models.AuditLog) error
	GetAuditLogs(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)

	// Lifecycle
	Close() error
	Migrate() error
}
