package ports

import (
	"context"

	"github.com/travelplanner/catalog/internal/core/domain"
)

// AuditSink accepts audit events without blocking the caller.
type AuditSink interface {
	Record(event domain.AuditEvent)
}

// AuditRepository persists the audit trail.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
	ListRecent(ctx context.Context, limit int) ([]*domain.AuditEvent, error)
}

// AuditService writes and reads the audit trail.
type AuditService interface {
	Process(ctx context.Context, event domain.AuditEvent) error
	ListRecent(ctx context.Context, limit int) ([]*domain.AuditEvent, error)
}
