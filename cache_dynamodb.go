package ginblog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const dynamoBatchSize = 25

type dynamoCacheItem struct {
	PK   string `dynamodbav:"pk"`
	SK   string `dynamodbav:"sk"`
	Data []byte `dynamodbav:"data,omitempty"`
	TTL  int64  `dynamodbav:"ttl"`
}

// DynamoDBCacheService uses a single table: entries live at
// (CACHE#<key>, DATA) and each tag membership at (TAG#<tag>, CACHE#<key>).
type DynamoDBCacheService struct {
	client DynamoDBAPI
	table  string
}

func NewDynamoDBCacheService(client DynamoDBAPI, cfg *DynamoDBConfig) *DynamoDBCacheService {
	return &DynamoDBCacheService{client: client, table: cfg.TableName}
}

// EnsureTable creates the cache table with TTL enabled when it is missing.
func (s *DynamoDBCacheService) EnsureTable(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("failed to describe table %s: %w", s.table, err)
	}

	_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("pk"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("sk"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("pk"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("sk"), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}

	_, err = s.client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(s.table),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			AttributeName: aws.String("ttl"),
			Enabled:       aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to enable ttl on %s: %w", s.table, err)
	}
	return nil
}

func (s *DynamoDBCacheService) Set(ctx context.Context, key string, data []byte, tags []string, duration time.Duration) error {
	ttl := time.Now().Add(duration).Unix()
	cacheKey := CachePartitionPrefix + key

	items := []dynamoCacheItem{{PK: cacheKey, SK: CacheSortKey, Data: data, TTL: ttl}}
	for _, tag := range tags {
		items = append(items, dynamoCacheItem{PK: TagPartitionPrefix + tag, SK: cacheKey, TTL: ttl})
	}

	requests := make([]types.WriteRequest, 0, len(items))
	for _, item := range items {
		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return fmt.Errorf("failed to marshal cache item: %w", err)
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: av}})
	}
	return s.batchWrite(ctx, requests)
}

func (s *DynamoDBCacheService) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       dynamoKey(CachePartitionPrefix+key, CacheSortKey),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read cache item %s: %w", key, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var item dynamoCacheItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache item: %w", err)
	}
	// expired items linger until DynamoDB sweeps them
	if time.Now().Unix() >= item.TTL {
		return nil, nil
	}
	return item.Data, nil
}

func (s *DynamoDBCacheService) Invalidate(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		tagKey := TagPartitionPrefix + tag
		paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
			TableName:              aws.String(s.table),
			KeyConditionExpression: aws.String("pk = :pk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: tagKey},
			},
		})

		var requests []types.WriteRequest
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return fmt.Errorf("failed to query tag %s: %w", tag, err)
			}
			for _, av := range page.Items {
				var item dynamoCacheItem
				if err := attributevalue.UnmarshalMap(av, &item); err != nil {
					return fmt.Errorf("failed to unmarshal tag item: %w", err)
				}
				if !strings.HasPrefix(item.SK, CachePartitionPrefix) {
					continue
				}
				requests = append(requests,
					types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: dynamoKey(item.SK, CacheSortKey)}},
					types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: dynamoKey(tagKey, item.SK)}},
				)
			}
		}
		if err := s.batchWrite(ctx, requests); err != nil {
			return err
		}
	}
	return nil
}

func (s *DynamoDBCacheService) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	for start := 0; start < len(requests); start += dynamoBatchSize {
		end := min(start+dynamoBatchSize, len(requests))
		pending := map[string][]types.WriteRequest{s.table: requests[start:end]}
		for len(pending[s.table]) > 0 {
			out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
			if err != nil {
				return fmt.Errorf("failed to write cache batch: %w", err)
			}
			pending = out.UnprocessedItems
		}
	}
	return nil
}

func dynamoKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: pk},
		"sk": &types.AttributeValueMemberS{Value: sk},
	}
}
