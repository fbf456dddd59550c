package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/travelplanner/catalog/internal/core/domain"
)

const (
	usersCollection    = "users"
	countersCollection = "counters"

	// adminCounterID names the counter document guarding the admin count.
	// Its value never exceeds the number of stored admins.
	adminCounterID = "admins"
)

// IdentityRepository stores identities in the users collection.
type IdentityRepository struct {
	users    *mongo.Collection
	counters *mongo.Collection
}

func NewIdentityRepository(db *mongo.Database) *IdentityRepository {
	return &IdentityRepository{
		users:    db.Collection(usersCollection),
		counters: db.Collection(countersCollection),
	}
}

type identityDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"password_hash"`
	Role         string             `bson:"role,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d identityDoc) toDomain() *domain.Identity {
	return &domain.Identity{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		Role:         domain.NormalizeRole(d.Role),
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

func (r *IdentityRepository) Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error) {
	doc := identityDoc{
		ID:           primitive.NewObjectID(),
		Username:     identity.Username,
		PasswordHash: identity.PasswordHash,
		Role:         domain.NormalizeRole(identity.Role),
		CreatedAt:    identity.CreatedAt.UTC(),
		UpdatedAt:    identity.UpdatedAt.UTC(),
	}

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("insert identity: %w", err)
	}

	if doc.Role == domain.RoleAdmin {
		if err := r.adjustAdminCount(ctx, 1); err != nil {
			return nil, err
		}
	}
	return doc.toDomain(), nil
}

func (r *IdentityRepository) FindByUsername(ctx context.Context, username string) (*domain.Identity, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *IdentityRepository) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *IdentityRepository) findOne(ctx context.Context, filter bson.M) (*domain.Identity, error) {
	var doc identityDoc
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return doc.toDomain(), nil
}

// Promote flips the role only when it is not already admin, so the counter
// is incremented once per actual transition.
func (r *IdentityRepository) Promote(ctx context.Context, username string) (*domain.Identity, error) {
	updated, err := r.setRole(ctx,
		bson.M{"username": username, "role": bson.M{"$ne": domain.RoleAdmin}},
		domain.RoleAdmin,
	)
	if errors.Is(err, domain.ErrNotFound) {
		// Unknown, or already an admin.
		return r.FindByUsername(ctx, username)
	}
	if err != nil {
		return nil, err
	}

	if err := r.adjustAdminCount(ctx, 1); err != nil {
		return nil, err
	}
	return updated, nil
}

// DemoteAdmin reserves a decrement on the admin counter before touching the
// identity. The reservation only succeeds while more than one admin remains,
// which serializes concurrent demotions on the counter document.
func (r *IdentityRepository) DemoteAdmin(ctx context.Context, username string) (*domain.Identity, error) {
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": adminCounterID, "count": bson.M{"$gt": 1}},
		bson.M{"$inc": bson.M{"count": -1}},
	).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrLastAdmin
	}
	if err != nil {
		return nil, fmt.Errorf("reserve admin demotion: %w", err)
	}

	updated, err := r.setRole(ctx, bson.M{"username": username, "role": domain.RoleAdmin}, domain.RoleUser)
	if err == nil {
		return updated, nil
	}

	// Nothing changed, give the reservation back.
	if cerr := r.adjustAdminCount(ctx, 1); cerr != nil {
		return nil, errors.Join(err, cerr)
	}
	if errors.Is(err, domain.ErrNotFound) {
		return r.FindByUsername(ctx, username)
	}
	return nil, err
}

func (r *IdentityRepository) setRole(ctx context.Context, filter bson.M, role string) (*domain.Identity, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"role": role, "updatedAt": time.Now().UTC()}}

	var doc identityDoc
	if err := r.users.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update role: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *IdentityRepository) adjustAdminCount(ctx context.Context, delta int64) error {
	_, err := r.counters.UpdateOne(ctx,
		bson.M{"_id": adminCounterID},
		bson.M{"$inc": bson.M{"count": delta}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("adjust admin count: %w", err)
	}
	return nil
}

func (r *IdentityRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}

	res, err := r.users.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"password_hash": hash,
		"updatedAt":     time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SyncAdminCount resets the counter to the number of stored admins. It is
// meant to run at startup before requests are served.
func (r *IdentityRepository) SyncAdminCount(ctx context.Context) (int64, error) {
	n, err := r.users.CountDocuments(ctx, bson.M{"role": domain.RoleAdmin})
	if err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}

	_, err = r.counters.UpdateOne(ctx,
		bson.M{"_id": adminCounterID},
		bson.M{"$set": bson.M{"count": n}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return 0, fmt.Errorf("store admin count: %w", err)
	}
	return n, nil
}

// EnsureIndexes makes usernames unique.
func (r *IdentityRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
