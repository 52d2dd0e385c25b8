package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/reusefull/reusefull/backend/matching-service/internal/matching"
	"github.com/reusefull/reusefull/backend/matching-service/internal/models"
	"go.uber.org/zap"
)

// Event selects the collection to serve.
type Event struct {
	Collection string `json:"collection"`
}

type collectionStore interface {
	matching.Source
	ListItems(ctx context.Context) ([]models.Item, error)
}

type metricsPutter interface {
	PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

type collectionsApp struct {
	store     collectionStore
	metrics   metricsPutter
	namespace string
	timeout   time.Duration
	logger    *zap.Logger
}

func list[T any](ctx context.Context, fn func(context.Context) ([]T, error)) (any, int, error) {
	rows, err := fn(ctx)
	if err != nil {
		return nil, 0, err
	}
	return rows, len(rows), nil
}

func (a *collectionsApp) fetch(ctx context.Context, name string) (any, int, error) {
	switch name {
	case "orgs":
		return list(ctx, a.store.ListCharities)
	case "org-items":
		return list(ctx, a.store.ListItemAcceptances)
	case "categories":
		return list(ctx, a.store.ListCategories)
	case "org-charity-types":
		return list(ctx, a.store.ListCategoryMappings)
	case "items":
		return list(ctx, a.store.ListItems)
	default:
		return nil, 0, fmt.Errorf("unknown collection %q", name)
	}
}

func (a *collectionsApp) handle(ctx context.Context, evt Event) (any, error) {
	qctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	rows, n, err := a.fetch(qctx, evt.Collection)
	if err != nil {
		a.logger.Error("collection query failed", zap.String("collection", evt.Collection), zap.Error(err))
		return nil, err
	}

	if err := a.putRowsServed(ctx, evt.Collection, n); err != nil {
		a.logger.Warn("put metrics failed", zap.String("collection", evt.Collection), zap.Error(err))
	}
	a.logger.Info("collection served", zap.String("collection", evt.Collection), zap.Int("rows", n))
	return rows, nil
}

func (a *collectionsApp) putRowsServed(ctx context.Context, collection string, n int) error {
	if a.metrics == nil {
		return nil
	}
	now := time.Now()
	_, err := a.metrics.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(a.namespace),
		MetricData: []cwtypes.MetricDatum{{
			MetricName: aws.String("RowsServed"),
			Timestamp:  &now,
			Unit:       cwtypes.StandardUnitCount,
			Value:      aws.Float64(float64(n)),
			Dimensions: []cwtypes.Dimension{{Name: aws.String("Collection"), Value: aws.String(collection)}},
		}},
	})
	return err
}
