package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/travelplanner/catalog/internal/core/domain"
	"github.com/travelplanner/catalog/internal/core/ports"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

// recordAudit stamps and forwards an event. A nil sink disables auditing.
func recordAudit(sink ports.AuditSink, action domain.AuditAction, actorID, target, outcome string, reason error) {
	if sink == nil {
		return
	}
	ev := domain.AuditEvent{
		ID:      uuid.NewString(),
		Action:  action,
		ActorID: actorID,
		Target:  target,
		Outcome: outcome,
		At:      time.Now().UTC(),
	}
	if reason != nil {
		ev.Reason = reason.Error()
	}
	sink.Record(ev)
}

// AuditService persists and lists audit events.
type AuditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) *AuditService {
	return &AuditService{repo: repo, log: log}
}

// Process writes a single event to the audit trail.
func (s *AuditService) Process(ctx context.Context, event domain.AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	if err := s.repo.Insert(ctx, &event); err != nil {
		return err
	}
	s.log.Debug().Str("action", string(event.Action)).Str("outcome", event.Outcome).Msg("audit event stored")
	return nil
}

// ListRecent returns the newest events first. limit is clamped to [1, 200]
// and defaults to 50.
func (s *AuditService) ListRecent(ctx context.Context, limit int) ([]*domain.AuditEvent, error) {
	switch {
	case limit <= 0:
		limit = defaultAuditLimit
	case limit > maxAuditLimit:
		limit = maxAuditLimit
	}
	return s.repo.ListRecent(ctx, limit)
}
