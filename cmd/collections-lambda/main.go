package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/reusefull/reusefull/backend/matching-service/internal/config"
	"github.com/reusefull/reusefull/backend/matching-service/internal/db"
	"github.com/reusefull/reusefull/backend/matching-service/internal/logging"
	"go.uber.org/zap"
)

func newApp(ctx context.Context, logger *zap.Logger) (*collectionsApp, func(), error) {
	cfg, _ := config.Load()
	secretArn := os.Getenv("SECRET_ARN")
	if secretArn == "" {
		return nil, nil, fmt.Errorf("SECRET_ARN env var is required")
	}
	ns := os.Getenv("METRIC_NAMESPACE")
	if ns == "" {
		ns = "Reusefull/Collections"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, nil, fmt.Errorf("aws config: %w", err)
	}

	dbURL, err := config.DatabaseURLFromSecret(ctx, secretsmanager.NewFromConfig(awsCfg), secretArn)
	if err != nil {
		return nil, nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse db url: %w", err)
	}
	// keep pool tiny
	poolCfg.MaxConns = 1
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect db: %w", err)
	}

	app := &collectionsApp{
		store:     db.NewFromPool(pool, logger),
		metrics:   cloudwatch.NewFromConfig(awsCfg),
		namespace: ns,
		timeout:   getTimeout(),
		logger:    logger,
	}
	return app, pool.Close, nil
}

func main() {
	logger, err := logging.New(os.Getenv("LOG_LEVEL"), "collections-lambda")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	app, closeFn, err := newApp(context.Background(), logger)
	if err != nil {
		logger.Fatal("collections lambda init failed", zap.Error(err))
	}
	defer closeFn()

	lambda.Start(app.handle)
}

func getTimeout() time.Duration {
	stmtTimeoutMs := int64(10000)
	if v := os.Getenv("STATEMENT_TIMEOUT_MS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			stmtTimeoutMs = n
		}
	}
	return time.Duration(stmtTimeoutMs) * time.Millisecond
}
