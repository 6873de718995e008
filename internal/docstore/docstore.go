// Package docstore connects to MongoDB for the document-backed ledger store.
package docstore

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/nekogravitycat/evently-backend/internal/pkg/errs"
)

const (
	CollectionResources = "resources"
	CollectionBookings  = "bookings"

	connectTimeout = 10 * time.Second
)

type Config struct {
	URI         string
	FallbackURI string
	DBName      string
}

// Connect dials the primary URI and falls back to FallbackURI when the
// primary cannot be reached (typically an SRV lookup timing out).
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	client, err := dial(ctx, cfg.URI)
	if err != nil && cfg.FallbackURI != "" {
		slog.WarnContext(ctx, "primary mongodb uri failed, trying fallback", "error", err.Error())
		client, err = dial(ctx, cfg.FallbackURI)
	}
	if err != nil {
		return nil, nil, err
	}

	dbName := cfg.DBName
	if dbName == "" {
		dbName = "evently"
	}
	return client, client.Database(dbName), nil
}

func dial(ctx context.Context, uri string) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(connectTimeout).
		SetConnectTimeout(connectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errs.Wrap(err, "mongo connect")
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errs.Wrap(err, "mongo ping")
	}
	return client, nil
}

// EnsureIndexes creates the indexes the ledger relies on. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(CollectionBookings).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "eventId", Value: 1}, {Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("bookings_event_user_key"),
		},
		{
			Keys:    bson.D{{Key: "resources.resourceId", Value: 1}},
			Options: options.Index().SetName("bookings_resource_idx"),
		},
	})
	if err != nil {
		return errs.Wrap(err, "create booking indexes")
	}

	_, err = db.Collection(CollectionResources).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("resources_created_idx"),
	})
	if err != nil {
		return errs.Wrap(err, "create resource indexes")
	}
	return nil
}
