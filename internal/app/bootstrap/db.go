// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/dalemusser/waffle/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/acm-uiuc/core-sub001/internal/app/store/dynamo"
)

// ConnectDB builds the DynamoDB and Redis clients and verifies the Redis
// connection responds.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	db, err := dynamo.Connect(ctx, appCfg.AWSRegion)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect dynamodb: %w", err)
	}

	opts, err := redis.ParseURL(appCfg.RedisURL)
	if err != nil {
		return DBDeps{}, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return DBDeps{}, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info("connected backends",
		zap.String("aws_region", appCfg.AWSRegion),
		zap.String("redis", opts.Addr))
	return DBDeps{Dynamo: db, Redis: rdb}, nil
}

// EnsureSchema verifies the configured tables exist. Tables are provisioned
// by infrastructure, not the service, so missing ones abort startup.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	for _, table := range []string{appCfg.SigInfoTable, appCfg.AuditLogTable, appCfg.StripeTable} {
		if _, err := deps.Dynamo.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(table),
		}); err != nil {
			return fmt.Errorf("describe table %s: %w", table, err)
		}
		logger.Debug("table present", zap.String("table", table))
	}
	return nil
}
