package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klass-lk/ginblog"
	"github.com/klass-lk/ginblog/internal/config"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

type closer func(ctx context.Context) error

// newCache builds the response cache backend named in cfg.
func newCache(ctx context.Context, cfg config.Cache, db *mongo.Database) (ginblog.CacheService, closer, error) {
	noClose := func(context.Context) error { return nil }

	switch cfg.Backend {
	case "none":
		return ginblog.NoopCacheService{}, noClose, nil
	case "mongo":
		return ginblog.NewMongoCacheService(db), noClose, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
		}
		return ginblog.NewRedisCacheService(rdb), func(context.Context) error { return rdb.Close() }, nil
	case "dynamodb":
		dynamoCfg := ginblog.NewDynamoDBConfig().
			WithTableName(cfg.DynamoTable).
			WithRegion(cfg.DynamoRegion).
			WithEndpoint(cfg.DynamoEndpoint)
		client, err := ginblog.NewDynamoDBClient(ctx, dynamoCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create dynamodb client: %w", err)
		}
		cache := ginblog.NewDynamoDBCacheService(client, dynamoCfg)
		if err := cache.EnsureTable(ctx); err != nil {
			return nil, nil, err
		}
		return cache, noClose, nil
	case "postgres":
		sqlDB, err := ginblog.NewSQLConfig().WithDSN(cfg.PostgresDSN).Connect(ctx)
		if err != nil {
			return nil, nil, err
		}
		cache, err := ginblog.NewSQLCacheService(ctx, sqlDB)
		if err != nil {
			_ = sqlDB.Close()
			return nil, nil, err
		}
		return cache, closeSQL(sqlDB), nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

func closeSQL(db *sql.DB) closer {
	return func(context.Context) error { return db.Close() }
}

// newFileService builds the image object store named in cfg.
func newFileService(ctx context.Context, cfg config.Storage) (ginblog.FileService, error) {
	switch cfg.Backend {
	case "local":
		return ginblog.NewDiskFileService(cfg.LocalDir, cfg.PublicURL), nil
	case "s3":
		opts := []func(*awsConfig.LoadOptions) error{awsConfig.WithRegion(cfg.Region)}
		if cfg.AccessKeyID != "" {
			opts = append(opts, awsConfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
			))
		}
		awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
				o.UsePathStyle = true
			}
		})
		publicURL := ""
		if cfg.PublicURL != "" && cfg.PublicURL != config.Default().Storage.PublicURL {
			publicURL = cfg.PublicURL
		}
		slog.Info("Using S3 image storage", slog.String("bucket", cfg.Bucket))
		return ginblog.NewS3FileService(client, cfg.Bucket, cfg.URLExpiry.Duration, publicURL), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func newVerifier(cfg config.Auth) (ginblog.TokenVerifier, error) {
	switch cfg.Provider {
	case "jwt":
		return ginblog.NewJWTVerifier(cfg.JWTSecret, cfg.Issuer), nil
	case "remote":
		return ginblog.NewRemoteVerifier(cfg.LookupURL, cfg.APIKey, 0), nil
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Provider)
	}
}
