package repository

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	models "github.com/Schera-ole/hostmetrics/internal/model"
)

// Publisher is the write side of the registry used by the sampler.
type Publisher interface {
	// SetMetrics writes a group of gauges atomically with respect to readers.
	SetMetrics(ctx context.Context, metrics []models.Metric) error
}

// Repository is the full registry contract shared by the sampler and the exposer.
type Repository interface {
	Publisher
	prometheus.Gatherer

	GetMetricByName(ctx context.Context, name string, label string) (float64, error)
	ListMetrics(ctx context.Context) ([]models.Metric, error)
	Ping(ctx context.Context) error
}
