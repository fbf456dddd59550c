package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/travelplanner/catalog/internal/core/domain"
)

const collectionAudit = "audit_events"

// AuditRepository persists audit events to the audit_events collection.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAudit)}
}

type auditDoc struct {
	ID          string    `bson:"_id"`
	Action      string    `bson:"action"`
	ActorID     string    `bson:"actor_id,omitempty"`
	Target      string    `bson:"target,omitempty"`
	Outcome     string    `bson:"outcome"`
	Reason      string    `bson:"reason,omitempty"`
	At          time.Time `bson:"at"`
	ProcessedAt time.Time `bson:"processed_at"`
}

// Insert writes a single event.
func (r *AuditRepository) Insert(ctx context.Context, event *domain.AuditEvent) error {
	doc := auditDoc{
		ID:          event.ID,
		Action:      string(event.Action),
		ActorID:     event.ActorID,
		Target:      event.Target,
		Outcome:     event.Outcome,
		Reason:      event.Reason,
		At:          event.At.UTC(),
		ProcessedAt: time.Now().UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListRecent returns up to limit events, newest first.
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]*domain.AuditEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find audit events: %w", err)
	}
	defer cur.Close(ctx)

	var docs []auditDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode audit events: %w", err)
	}

	out := make([]*domain.AuditEvent, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.AuditEvent{
			ID:      d.ID,
			Action:  domain.AuditAction(d.Action),
			ActorID: d.ActorID,
			Target:  d.Target,
			Outcome: d.Outcome,
			Reason:  d.Reason,
			At:      d.At.UTC(),
		})
	}
	return out, nil
}

func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "at", Value: -1}},
	})
	return err
}
