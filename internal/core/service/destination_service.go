package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/travelplanner/catalog/internal/core/authz"
	"github.com/travelplanner/catalog/internal/core/domain"
	"github.com/travelplanner/catalog/internal/core/ports"
	"github.com/travelplanner/catalog/internal/pkg/validate"
)

type DestinationService struct {
	repo   ports.DestinationRepository
	audit  ports.AuditSink
	logger zerolog.Logger
	now    func() time.Time
}

func NewDestinationService(repo ports.DestinationRepository, audit ports.AuditSink, logger zerolog.Logger) *DestinationService {
	return &DestinationService{
		repo:   repo,
		audit:  audit,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// List returns destinations filtered by category, sorted ascending on one
// field and restricted to the requested fields. Field names are checked
// against the known destination fields.
func (s *DestinationService) List(ctx context.Context, input ports.ListDestinationsInput) ([]*domain.Destination, error) {
	ve := &domain.ValidationError{}

	sortField := strings.TrimSpace(input.Sort)
	if sortField != "" && !domain.IsDestinationField(sortField) {
		ve.Add("sort", "sort must name a destination field")
	}

	var fields []string
	seen := make(map[string]struct{}, len(input.Fields))
	for _, f := range input.Fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if !domain.IsDestinationField(f) {
			ve.Add("fields", "unknown field: "+f)
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		fields = append(fields, f)
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	return s.repo.List(ctx, ports.DestinationQuery{
		Category: input.Category,
		Sort:     sortField,
		Fields:   fields,
	})
}

func (s *DestinationService) Get(ctx context.Context, id string) (*domain.Destination, error) {
	return s.repo.FindByID(ctx, id)
}

// Create stores a new destination owned by actor. Owner and creation time
// are always assigned here.
func (s *DestinationService) Create(ctx context.Context, actor *domain.Identity, fields domain.DestinationFields) (*domain.Destination, error) {
	if err := authz.Evaluate(actor, authz.CreateDestination, nil).Err(); err != nil {
		return nil, err
	}

	fields.Normalize()
	if err := checkFields(fields, true); err != nil {
		return nil, err
	}

	d := &domain.Destination{
		OwnerID:    actor.ID,
		Activities: []string{},
		CreatedAt:  s.now().Truncate(time.Millisecond),
	}
	fields.ApplyTo(d)

	created, err := s.repo.Create(ctx, d)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create destination")
		return nil, err
	}

	s.logger.Info().Str("destination_id", created.ID).Str("owner_id", actor.ID).Msg("destination created")
	recordAudit(s.audit, domain.AuditDestinationCreate, actor.ID, created.ID, domain.OutcomeSuccess, nil)
	return created, nil
}

// Update applies the supplied fields after the target is loaded and the
// owner-or-admin rule passes.
func (s *DestinationService) Update(ctx context.Context, actor *domain.Identity, id string, fields domain.DestinationFields) (*domain.Destination, error) {
	current, err := s.authorizeTarget(ctx, actor, authz.UpdateDestination, domain.AuditDestinationUpdate, id)
	if err != nil {
		return nil, err
	}

	fields.Normalize()
	if err := checkFields(fields, false); err != nil {
		return nil, err
	}
	if fields.Empty() {
		return current, nil
	}

	updated, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("destination_id", id).Str("actor_id", actor.ID).Msg("destination updated")
	recordAudit(s.audit, domain.AuditDestinationUpdate, actor.ID, id, domain.OutcomeSuccess, nil)
	return updated, nil
}

func (s *DestinationService) Delete(ctx context.Context, actor *domain.Identity, id string) error {
	if _, err := s.authorizeTarget(ctx, actor, authz.DeleteDestination, domain.AuditDestinationDelete, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Str("destination_id", id).Str("actor_id", actor.ID).Msg("destination deleted")
	recordAudit(s.audit, domain.AuditDestinationDelete, actor.ID, id, domain.OutcomeSuccess, nil)
	return nil
}

// authorizeTarget runs the owner-gated sequence: authenticate, load, then
// check ownership. No mutation happens on any failure path.
func (s *DestinationService) authorizeTarget(ctx context.Context, actor *domain.Identity, op authz.Operation, action domain.AuditAction, id string) (*domain.Destination, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}

	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := authz.Evaluate(actor, op, target).Err(); err != nil {
		s.logger.Warn().Str("destination_id", id).Str("actor_id", actor.ID).Msg("destination mutation denied")
		recordAudit(s.audit, action, actor.ID, id, domain.OutcomeDenied, err)
		return nil, err
	}
	return target, nil
}

// checkFields reports every violation in one error: values of the wrong
// type, then missing required fields on create, then blank required fields.
func checkFields(fields domain.DestinationFields, creating bool) error {
	ve := &domain.ValidationError{Fields: append([]domain.FieldError(nil), fields.Rejected...)}
	if creating {
		if fields.Name == nil && !fields.IsRejected(domain.FieldName) {
			ve.Add(domain.FieldName, "name is required")
		}
		if fields.Category == nil && !fields.IsRejected(domain.FieldCategory) {
			ve.Add(domain.FieldCategory, "category is required")
		}
	}
	if err := ve.Merge(validate.Struct(fields)); err != nil {
		return err
	}
	return ve.OrNil()
}
