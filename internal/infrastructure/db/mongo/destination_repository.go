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
	"github.com/travelplanner/catalog/internal/core/ports"
)

const collectionDestinations = "destinations"

type DestinationRepository struct {
	col *mongo.Collection
}

func NewDestinationRepository(db *mongo.Database) *DestinationRepository {
	return &DestinationRepository{col: db.Collection(collectionDestinations)}
}

type destinationDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID     primitive.ObjectID `bson:"ownerId,omitempty"`
	Name        string             `bson:"name"`
	Category    string             `bson:"category"`
	Description string             `bson:"description,omitempty"`
	Img         string             `bson:"img,omitempty"`
	Location    string             `bson:"location,omitempty"`
	Price       *float64           `bson:"price,omitempty"`
	Rating      *float64           `bson:"rating,omitempty"`
	Activities  []string           `bson:"activities"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func toDestinationDoc(d *domain.Destination) destinationDoc {
	doc := destinationDoc{
		Name:        d.Name,
		Category:    d.Category,
		Description: d.Description,
		Img:         d.Img,
		Location:    d.Location,
		Price:       d.Price,
		Rating:      d.Rating,
		Activities:  d.Activities,
		CreatedAt:   d.CreatedAt.UTC(),
	}
	if doc.Activities == nil {
		doc.Activities = []string{}
	}
	// Owners are identity ids; anything else is stored as unowned.
	if oid, err := primitive.ObjectIDFromHex(d.OwnerID); err == nil {
		doc.OwnerID = oid
	}
	return doc
}

func (d destinationDoc) toDomain() *domain.Destination {
	out := &domain.Destination{
		Name:        d.Name,
		Category:    d.Category,
		Description: d.Description,
		Img:         d.Img,
		Location:    d.Location,
		Price:       d.Price,
		Rating:      d.Rating,
		Activities:  d.Activities,
		CreatedAt:   d.CreatedAt.UTC(),
	}
	if !d.ID.IsZero() {
		out.ID = d.ID.Hex()
	}
	if !d.OwnerID.IsZero() {
		out.OwnerID = d.OwnerID.Hex()
	}
	if out.Activities == nil {
		out.Activities = []string{}
	}
	return out
}

// storeField maps a client field name to its document key.
func storeField(name string) string {
	if name == domain.FieldID {
		return "_id"
	}
	return name
}

// findOptions builds the sort and projection for a list query. Field names
// must already be whitelisted.
func findOptions(q ports.DestinationQuery) *options.FindOptions {
	opts := options.Find()
	if q.Sort != "" {
		opts.SetSort(bson.D{{Key: storeField(q.Sort), Value: 1}})
	}
	if len(q.Fields) > 0 {
		projection := bson.D{}
		withID := false
		for _, f := range q.Fields {
			if f == domain.FieldID {
				withID = true
			}
			projection = append(projection, bson.E{Key: storeField(f), Value: 1})
		}
		if !withID {
			projection = append(projection, bson.E{Key: "_id", Value: 0})
		}
		opts.SetProjection(projection)
	}
	return opts
}

func (r *DestinationRepository) List(ctx context.Context, q ports.DestinationQuery) ([]*domain.Destination, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if q.Category != "" {
		filter["category"] = q.Category
	}

	cur, err := r.col.Find(ctx, filter, findOptions(q))
	if err != nil {
		return nil, fmt.Errorf("find destinations: %w", err)
	}
	defer cur.Close(ctx)

	var docs []destinationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode destinations: %w", err)
	}

	out := make([]*domain.Destination, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *DestinationRepository) FindByID(ctx context.Context, id string) (*domain.Destination, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc destinationDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find destination: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *DestinationRepository) Create(ctx context.Context, d *domain.Destination) (*domain.Destination, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toDestinationDoc(d)
	doc.ID = primitive.NewObjectID()
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert destination: %w", err)
	}
	return doc.toDomain(), nil
}

// updateSet lists the document keys written for the supplied fields.
func updateSet(f domain.DestinationFields) bson.M {
	set := bson.M{}
	if f.Name != nil {
		set[domain.FieldName] = *f.Name
	}
	if f.Category != nil {
		set[domain.FieldCategory] = *f.Category
	}
	if f.Description != nil {
		set[domain.FieldDescription] = *f.Description
	}
	if f.Img != nil {
		set[domain.FieldImg] = *f.Img
	}
	if f.Location != nil {
		set[domain.FieldLocation] = *f.Location
	}
	if f.Price != nil {
		set[domain.FieldPrice] = *f.Price
	}
	if f.Rating != nil {
		set[domain.FieldRating] = *f.Rating
	}
	if f.Activities != nil {
		acts := *f.Activities
		if acts == nil {
			acts = []string{}
		}
		set[domain.FieldActivities] = acts
	}
	return set
}

func (r *DestinationRepository) Update(ctx context.Context, id string, fields domain.DestinationFields) (*domain.Destination, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	set := updateSet(fields)
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc destinationDoc
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update destination: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *DestinationRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete destination: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *DestinationRepository) ReplaceAll(ctx context.Context, ds []*domain.Destination) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, bson.M{}); err != nil {
		return 0, fmt.Errorf("clear destinations: %w", err)
	}
	if len(ds) == 0 {
		return 0, nil
	}

	docs := make([]interface{}, 0, len(ds))
	for _, d := range ds {
		doc := toDestinationDoc(d)
		doc.ID = primitive.NewObjectID()
		docs = append(docs, doc)
	}
	res, err := r.col.InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("insert destinations: %w", err)
	}
	return len(res.InsertedIDs), nil
}

// EnsureIndexes creates the indexes used by category filtering and owner lookups.
func (r *DestinationRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "ownerId", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
