package repository

import (
	"context"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalerrors "github.com/Schera-ole/hostmetrics/internal/errors"
	models "github.com/Schera-ole/hostmetrics/internal/model"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	registry := NewRegistry()
	require.NoError(t, registry.DeclareAll([]models.Descriptor{
		{Name: "test_gauge", Help: "Test gauge."},
		{Name: "test_labelled", Help: "Test labelled gauge.", LabelName: "strategy", LabelValues: []string{"a", "b"}},
	}))
	return registry
}

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry()
	assert.NotNil(t, registry)
	assert.NotNil(t, registry.reg)
	assert.NotNil(t, registry.gauges)
	assert.NotNil(t, registry.vecs)
	assert.NotNil(t, registry.descs)
}

func TestRegistry_DeclareInitialisesSentinel(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	val, err := registry.GetMetricByName(ctx, "test_gauge", "")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(val))

	val, err = registry.GetMetricByName(ctx, "test_labelled", "b")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(val))
}

func TestRegistry_DeclareDuplicate(t *testing.T) {
	registry := newTestRegistry(t)

	err := registry.Declare(models.Descriptor{Name: "test_gauge", Help: "Again."})
	assert.ErrorIs(t, err, internalerrors.ErrDuplicateMetric)
}

func TestRegistry_DeclareCatalog(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.DeclareAll(models.Catalog()))

	families, err := registry.Gather()
	require.NoError(t, err)
	assert.Len(t, families, len(models.Catalog()))

	err = registry.DeclareAll(models.Catalog())
	assert.ErrorIs(t, err, internalerrors.ErrDuplicateMetric)
}

func TestRegistry_SetAndGetMetric(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	err := registry.SetMetrics(ctx, []models.Metric{
		{Name: "test_gauge", Value: 42.5},
		{Name: "test_labelled", Label: "a", Value: 7},
	})
	require.NoError(t, err)

	val, err := registry.GetMetricByName(ctx, "test_gauge", "")
	require.NoError(t, err)
	assert.Equal(t, 42.5, val)

	val, err = registry.GetMetricByName(ctx, "test_labelled", "a")
	require.NoError(t, err)
	assert.Equal(t, 7.0, val)

	_, err = registry.GetMetricByName(ctx, "nonExistent", "")
	assert.ErrorIs(t, err, internalerrors.ErrMetricNotFound)
}

func TestRegistry_SetMetricsIsAllOrNothing(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	err := registry.SetMetrics(ctx, []models.Metric{
		{Name: "test_gauge", Value: 1},
		{Name: "test_labelled", Label: "c", Value: 2},
	})
	assert.ErrorIs(t, err, internalerrors.ErrUnknownLabel)

	val, err := registry.GetMetricByName(ctx, "test_gauge", "")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(val), "a rejected batch must not write any member")
}

func TestRegistry_LabelMismatch(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	_, err := registry.GetMetricByName(ctx, "test_gauge", "a")
	assert.ErrorIs(t, err, internalerrors.ErrUnknownLabel)

	_, err = registry.GetMetricByName(ctx, "test_labelled", "")
	assert.ErrorIs(t, err, internalerrors.ErrUnknownLabel)
}

func TestRegistry_GatherExposition(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, registry.SetMetrics(ctx, []models.Metric{
		{Name: "test_gauge", Value: 3.14},
		{Name: "test_labelled", Label: "a", Value: 1},
		{Name: "test_labelled", Label: "b", Value: 2},
	}))

	expected := `
# HELP test_gauge Test gauge.
# TYPE test_gauge gauge
test_gauge 3.14
# HELP test_labelled Test labelled gauge.
# TYPE test_labelled gauge
test_labelled{strategy="a"} 1
test_labelled{strategy="b"} 2
`
	err := testutil.GatherAndCompare(registry, strings.NewReader(expected))
	assert.NoError(t, err)
}

func TestRegistry_ListMetrics(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, registry.SetMetrics(ctx, []models.Metric{{Name: "test_gauge", Value: 1.5}}))

	metrics, err := registry.ListMetrics(ctx)
	require.NoError(t, err)
	require.Len(t, metrics, 3)

	assert.Equal(t, models.Metric{Name: "test_gauge", Value: 1.5}, metrics[0])
	assert.Equal(t, "test_labelled", metrics[1].Name)
	assert.Equal(t, "a", metrics[1].Label)
	assert.Equal(t, "b", metrics[2].Label)
}

func TestRegistry_Ping(t *testing.T) {
	assert.Error(t, NewRegistry().Ping(context.Background()))
	assert.NoError(t, newTestRegistry(t).Ping(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, newTestRegistry(t).Ping(ctx))
}

func TestRegistry_GroupsAreNeverTorn(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 500; i++ {
			v := float64(i)
			_ = registry.SetMetrics(ctx, []models.Metric{
				{Name: "test_gauge", Value: v},
				{Name: "test_labelled", Label: "a", Value: v},
				{Name: "test_labelled", Label: "b", Value: v},
			})
		}
	}()

	for i := 0; i < 200; i++ {
		metrics, err := registry.ListMetrics(ctx)
		require.NoError(t, err)
		require.Len(t, metrics, 3)
		if math.IsNaN(metrics[0].Value) {
			assert.True(t, math.IsNaN(metrics[1].Value))
			assert.True(t, math.IsNaN(metrics[2].Value))
			continue
		}
		assert.Equal(t, metrics[0].Value, metrics[1].Value)
		assert.Equal(t, metrics[0].Value, metrics[2].Value)
	}
	wg.Wait()
}
