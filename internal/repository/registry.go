package repository

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	internalerrors "github.com/Schera-ole/hostmetrics/internal/errors"
	models "github.com/Schera-ole/hostmetrics/internal/model"
)

// Registry implements Repository on top of a private prometheus registry.
//
// A single mutex guards every gauge write and every gather, so a batch passed
// to SetMetrics is never observed half-applied.
type Registry struct {
	// mu serializes writes and renders
	mu sync.Mutex

	// reg holds the collectors rendered on scrape
	reg *prometheus.Registry

	// gauges stores unlabelled gauges by name
	gauges map[string]prometheus.Gauge

	// vecs stores labelled gauges by name
	vecs map[string]*prometheus.GaugeVec

	// descs stores the declaration of every metric by name
	descs map[string]models.Descriptor
}

// NewRegistry creates an empty registry. Metrics must be declared before use.
func NewRegistry() *Registry {

	return &Registry{
		reg:    prometheus.NewRegistry(),
		gauges: make(map[string]prometheus.Gauge),
		vecs:   make(map[string]*prometheus.GaugeVec),
		descs:  make(map[string]models.Descriptor),
	}
}

// Declare registers one gauge. Every series starts at NaN, the unset sentinel,
// so it shows up in the exposition before its first successful sample.
func (r *Registry) Declare(d models.Descriptor) error {

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.descs[d.Name]; exists {
		return fmt.Errorf("%w: %s", internalerrors.ErrDuplicateMetric, d.Name)
	}

	opts := prometheus.GaugeOpts{Name: d.Name, Help: d.Help}
	if d.LabelName == "" {
		gauge := prometheus.NewGauge(opts)
		if err := r.reg.Register(gauge); err != nil {
			return fmt.Errorf("registering %s: %w", d.Name, err)
		}
		gauge.Set(math.NaN())
		r.gauges[d.Name] = gauge
	} else {
		vec := prometheus.NewGaugeVec(opts, []string{d.LabelName})
		if err := r.reg.Register(vec); err != nil {
			return fmt.Errorf("registering %s: %w", d.Name, err)
		}
		for _, value := range d.LabelValues {
			vec.WithLabelValues(value).Set(math.NaN())
		}
		r.vecs[d.Name] = vec
	}
	r.descs[d.Name] = d
	return nil
}

// DeclareAll declares every descriptor, stopping at the first failure.
func (r *Registry) DeclareAll(descs []models.Descriptor) error {
	for _, d := range descs {
		if err := r.Declare(d); err != nil {
			return err
		}
	}
	return nil
}

// lookup resolves a metric to its gauge. The caller must hold mu.
func (r *Registry) lookup(name string, label string) (prometheus.Gauge, error) {
	desc, exists := r.descs[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", internalerrors.ErrMetricNotFound, name)
	}
	if desc.LabelName == "" {
		if label != "" {
			return nil, fmt.Errorf("%w: %s has no label, got %q", internalerrors.ErrUnknownLabel, name, label)
		}
		return r.gauges[name], nil
	}
	if !slices.Contains(desc.LabelValues, label) {
		return nil, fmt.Errorf("%w: %s{%s=%q}", internalerrors.ErrUnknownLabel, name, desc.LabelName, label)
	}
	return r.vecs[name].WithLabelValues(label), nil
}

// SetMetrics writes a group of gauges under the lock.
//
// The whole batch is resolved before any write, so an unknown metric leaves
// every gauge of the group untouched.
func (r *Registry) SetMetrics(ctx context.Context, metrics []models.Metric) error {

	r.mu.Lock()
	defer r.mu.Unlock()
	gauges := make([]prometheus.Gauge, len(metrics))
	for i, metric := range metrics {
		gauge, err := r.lookup(metric.Name, metric.Label)
		if err != nil {
			return err
		}
		gauges[i] = gauge
	}
	for i, gauge := range gauges {
		gauge.Set(metrics[i].Value)
	}
	return nil
}

// Gather implements prometheus.Gatherer under the same lock as SetMetrics.
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reg.Gather()
}

// GetMetricByName returns the current value of one series.
func (r *Registry) GetMetricByName(ctx context.Context, name string, label string) (float64, error) {

	r.mu.Lock()
	defer r.mu.Unlock()
	gauge, err := r.lookup(name, label)
	if err != nil {
		return 0, err
	}
	var m dto.Metric
	if err := gauge.Write(&m); err != nil {
		return 0, fmt.Errorf("reading %s: %w", name, err)
	}
	return m.GetGauge().GetValue(), nil
}

// ListMetrics returns every series, sorted by name and label.
func (r *Registry) ListMetrics(ctx context.Context) ([]models.Metric, error) {

	families, err := r.Gather()
	if err != nil {
		return nil, err
	}
	var result []models.Metric
	for _, family := range families {
		for _, m := range family.GetMetric() {
			metric := models.Metric{Name: family.GetName(), Value: m.GetGauge().GetValue()}
			if pairs := m.GetLabel(); len(pairs) > 0 {
				metric.Label = pairs[0].GetValue()
			}
			result = append(result, metric)
		}
	}
	return result, nil
}

// Ping reports whether the registry is ready to be scraped.
func (r *Registry) Ping(ctx context.Context) error {

	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.descs) == 0 {
		return fmt.Errorf("%w: registry has no declared metrics", internalerrors.ErrMetricNotFound)
	}
	return nil
}
