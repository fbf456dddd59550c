package main

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	mongostore "github.com/travelplanner/catalog/internal/infrastructure/db/mongo"
	redisstore "github.com/travelplanner/catalog/internal/infrastructure/db/redis"
)

// stores holds the connected backing services and the Mongo repositories.
type stores struct {
	mongoClient *mongo.Client
	redis       *goredis.Client

	identities   *mongostore.IdentityRepository
	destinations *mongostore.DestinationRepository
	audit        *mongostore.AuditRepository
}

// openStores connects to MongoDB and, when withRedis is set, Redis. Any
// connection failure is returned and nothing is left open.
func openStores(ctx context.Context, withRedis bool) (*stores, error) {
	client, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	s := &stores{
		mongoClient:  client,
		identities:   mongostore.NewIdentityRepository(db),
		destinations: mongostore.NewDestinationRepository(db),
		audit:        mongostore.NewAuditRepository(db),
	}

	if err := mongostore.EnsureIndexes(ctx, s.identities, s.destinations, s.audit); err != nil {
		s.close(ctx)
		return nil, err
	}

	if withRedis {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			s.close(ctx)
			return nil, err
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
		s.redis = rdb
	}

	return s, nil
}

func (s *stores) close(ctx context.Context) {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("closing redis client")
		}
	}
	if err := s.mongoClient.Disconnect(ctx); err != nil {
		log.Warn().Err(fmt.Errorf("mongo disconnect: %w", err)).Msg("closing mongodb client")
	}
}
