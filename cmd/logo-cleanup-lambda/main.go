package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/reusefull/reusefull/backend/matching-service/internal/config"
	"github.com/reusefull/reusefull/backend/matching-service/internal/db"
	"github.com/reusefull/reusefull/backend/matching-service/internal/logging"
	"github.com/reusefull/reusefull/backend/matching-service/internal/storage"
	"go.uber.org/zap"
)

type event struct{}

type logoSource interface {
	ListLogoURLs(ctx context.Context) ([]string, error)
}

type sweeper interface {
	Sweep(ctx context.Context, referenced map[string]bool) (storage.SweepResult, error)
}

type cleanupApp struct {
	logos   logoSource
	sweeper sweeper
	logger  *zap.Logger
}

func (a *cleanupApp) handle(ctx context.Context, _ event) (storage.SweepResult, error) {
	start := time.Now()
	urls, err := a.logos.ListLogoURLs(ctx)
	if err != nil {
		return storage.SweepResult{}, err
	}
	res, err := a.sweeper.Sweep(ctx, storage.ReferencedKeys(urls))
	if err != nil {
		return res, err
	}
	a.logger.Info("logo sweep finished",
		zap.Int("checked", res.Checked),
		zap.Int("deleted", res.Deleted),
		zap.Int("retained", res.Retained),
		zap.Int("errors", res.Errors),
		zap.Any("error_reasons", res.ErrorReasons),
		zap.Strings("orphans", res.Orphans),
		zap.Strings("missing", res.Missing),
		zap.Int64("execution_duration_ms", time.Since(start).Milliseconds()),
	)
	return res, nil
}

func newApp(ctx context.Context, logger *zap.Logger) (*cleanupApp, func(), error) {
	cfg, _ := config.Load()
	if cfg.AWS.LogoBucket == "" {
		return nil, nil, fmt.Errorf("S3_BUCKET env var is required")
	}
	secretArn := os.Getenv("SECRET_ARN")
	if secretArn == "" {
		return nil, nil, fmt.Errorf("SECRET_ARN env var is required")
	}
	grace := 24 * time.Hour
	if v := os.Getenv("LOGO_GRACE_PERIOD"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			grace = d
		}
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, nil, fmt.Errorf("aws config: %w", err)
	}
	dsn, err := config.DatabaseURLFromSecret(ctx, secretsmanager.NewFromConfig(awsCfg), secretArn)
	if err != nil {
		return nil, nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("parse db url: %w", err)
	}
	poolCfg.MaxConns = 1
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect db: %w", err)
	}

	sw := storage.NewSweeper(s3.NewFromConfig(awsCfg), cfg.AWS.LogoBucket, grace, logger)
	sw.DryRun = os.Getenv("DRY_RUN") == "true"

	return &cleanupApp{
		logos:   db.NewFromPool(pool, logger),
		sweeper: sw,
		logger:  logger,
	}, pool.Close, nil
}

func main() {
	logger, err := logging.New(os.Getenv("LOG_LEVEL"), "logo-cleanup-lambda")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	app, closeFn, err := newApp(context.Background(), logger)
	if err != nil {
		logger.Fatal("logo cleanup init failed", zap.Error(err))
	}
	defer closeFn()

	lambda.Start(app.handle)
}
