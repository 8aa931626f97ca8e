package ginblog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcddb "github.com/testcontainers/testcontainers-go/modules/dynamodb"
)

const dynamoLocalPort = "8000/tcp"

// startDynamoDB runs DynamoDB Local and returns a client pointed at it.
func startDynamoDB(t *testing.T) *dynamodb.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping DynamoDB integration test in short mode")
	}
	docker, err := testcontainers.NewDockerClientWithOpts(context.Background())
	if err != nil {
		t.Skip("Docker not available:", err)
	}
	docker.Close()

	ctx := context.Background()
	container, err := tcddb.Run(ctx, "amazon/dynamodb-local:latest")
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, nat.Port(dynamoLocalPort))
	require.NoError(t, err)

	cfg := aws.Config{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("dummy", "dummy", ""),
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("http://%s:%s", host, port.Port()))
	})
}

func TestDynamoDBCacheService_Integration(t *testing.T) {
	client := startDynamoDB(t)
	ctx := context.Background()
	service := NewDynamoDBCacheService(client, NewDynamoDBConfig().WithTableName("ginblog_cache_test"))

	require.NoError(t, service.EnsureTable(ctx))
	require.NoError(t, service.EnsureTable(ctx), "second call finds the table")

	ttl, err := client.DescribeTimeToLive(ctx, &dynamodb.DescribeTimeToLiveInput{TableName: aws.String("ginblog_cache_test")})
	require.NoError(t, err)
	require.NotNil(t, ttl.TimeToLiveDescription)
	assert.Equal(t, "ttl", aws.ToString(ttl.TimeToLiveDescription.AttributeName))

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, service.Set(ctx, "posts?page=1", []byte(`{"content":[]}`), []string{"posts"}, time.Minute))

		got, err := service.Get(ctx, "posts?page=1")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"content":[]}`), got)
	})

	t.Run("miss and expired", func(t *testing.T) {
		got, err := service.Get(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)

		require.NoError(t, service.Set(ctx, "stale", []byte("v"), nil, -time.Minute))
		got, err = service.Get(ctx, "stale")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("invalidate by tag", func(t *testing.T) {
		require.NoError(t, service.Set(ctx, "tags", []byte("1"), []string{"posts", "tags"}, time.Minute))
		require.NoError(t, service.Set(ctx, "comments", []byte("2"), []string{"comments:hello"}, time.Minute))

		require.NoError(t, service.Invalidate(ctx, "tags"))

		got, err := service.Get(ctx, "tags")
		require.NoError(t, err)
		assert.Nil(t, got)
		got, err = service.Get(ctx, "comments")
		require.NoError(t, err)
		assert.Equal(t, []byte("2"), got)
	})

	t.Run("writes larger than one batch", func(t *testing.T) {
		tags := make([]string, 0, 40)
		for i := range 40 {
			tags = append(tags, fmt.Sprintf("tag-%d", i))
		}
		require.NoError(t, service.Set(ctx, "many", []byte("x"), tags, time.Minute))

		got, err := service.Get(ctx, "many")
		require.NoError(t, err)
		assert.Equal(t, []byte("x"), got)

		require.NoError(t, service.Invalidate(ctx, "tag-39"))
		got, err = service.Get(ctx, "many")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
