package ginblog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// startMongo runs a throwaway MongoDB container and returns a database on it.
// The test is skipped in short mode or when Docker is unavailable.
func startMongo(t *testing.T) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping MongoDB integration test in short mode")
	}
	client, err := testcontainers.NewDockerClientWithOpts(context.Background())
	if err != nil {
		t.Skip("Docker not available:", err)
	}
	client.Close()

	ctx := context.Background()
	container, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	mongoClient, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, mongoClient.Ping(connectCtx, nil))
	t.Cleanup(func() { _ = mongoClient.Disconnect(context.Background()) })

	return mongoClient.Database("ginblog_test")
}
