//go:build integration

package dbtest

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nekogravitycat/evently-backend/internal/docstore"
)

var (
	mongoOnce sync.Once
	mongoURI  string
	mongoErr  error
)

// Book and Unbook run in multi-document transactions, which MongoDB only
// allows on a replica set.
func startMongo() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	c, err := mongodb.Run(ctx, "mongo:7", mongodb.WithReplicaSet("rs0"))
	if err != nil {
		mongoErr = err
		return
	}
	uri, err := c.ConnectionString(ctx)
	if err != nil {
		mongoErr = err
		return
	}
	mongoURI, mongoErr = directURI(uri)
}

// directURI pins the client to the mapped port. The single member advertises
// its in-container address, which the host cannot reach.
func directURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", err
	}
	q := u.Query()
	if q.Get("directConnection") == "" {
		q.Set("directConnection", "true")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// NewMongoDatabase returns a fresh database with the ledger indexes on a
// single-node replica set. The database is dropped when the test finishes.
func NewMongoDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	mongoOnce.Do(startMongo)
	require.NoError(t, mongoErr, "start mongodb container")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbName := "testdb_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	client, database, err := docstore.Connect(ctx, docstore.Config{URI: mongoURI, DBName: dbName})
	require.NoError(t, err)
	require.NoError(t, docstore.EnsureIndexes(ctx, database))

	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cleanupCancel()
		if err := database.Drop(cleanupCtx); err != nil {
			t.Logf("drop %s: %v", dbName, err)
		}
		_ = client.Disconnect(cleanupCtx)
	})
	return database
}
