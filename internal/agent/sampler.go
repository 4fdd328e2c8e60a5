// Package agent samples host counters on a fixed cadence, derives the
// published gauges from consecutive snapshots and writes them to the
// registry one metric group at a time.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	internalerrors "github.com/Schera-ole/hostmetrics/internal/errors"
	models "github.com/Schera-ole/hostmetrics/internal/model"
	"github.com/Schera-ole/hostmetrics/internal/repository"
	"github.com/Schera-ole/hostmetrics/internal/source"
)

// AllocatorSource reports the instrumentation of the simulated heaps.
type AllocatorSource interface {
	AllocatorStats(ctx context.Context) ([]models.AllocatorStats, error)
}

// Sampler owns the sample state and is the only writer of the registry.
type Sampler struct {
	source   source.Source
	alloc    AllocatorSource
	registry repository.Publisher
	state    *State
	interval time.Duration
	logger   *zap.SugaredLogger
}

// NewSampler builds a sampler. alloc may be nil, in which case the allocator
// gauges keep their unset value.
func NewSampler(
	src source.Source,
	alloc AllocatorSource,
	registry repository.Publisher,
	interval time.Duration,
	logger *zap.SugaredLogger,
) *Sampler {
	return &Sampler{
		source:   src,
		alloc:    alloc,
		registry: registry,
		state:    NewState(),
		interval: interval,
		logger:   logger,
	}
}

// Run samples immediately and then once per interval until ctx is cancelled.
func (s *Sampler) Run(ctx context.Context) error {
	s.logger.Infow("Sampler started", "interval", s.interval.String())
	s.Tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sampler stopped")
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs every update step once. Steps are independent: a failure is
// logged and the remaining steps still run.
func (s *Sampler) Tick(ctx context.Context) {
	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"cpu", s.updateCPU},
		{"memory", s.updateMemory},
		{"disk", s.updateDisk},
		{"network", s.updateNetwork},
		{"processes", s.updateProcesses},
		{"context_switches", s.updateContextSwitches},
		{"allocator", s.updateAllocator},
	}
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			s.logStepError(step.name, err)
		}
	}
}

func (s *Sampler) logStepError(step string, err error) {
	if errors.Is(err, internalerrors.ErrDegenerateDelta) || errors.Is(err, internalerrors.ErrCounterReset) {
		s.logger.Debugw("Sample skipped", "step", step, "error", err)
		return
	}
	s.logger.Warnw("Sample failed", "step", step, "error", err)
}

// CPUUsage reads the CPU counters and returns the usage since the previous
// reading. When no CPU time elapsed it returns the last published value and
// keeps the baseline. A counter reset replaces the baseline and reports
// ErrCounterReset.
func (s *Sampler) CPUUsage(ctx context.Context) (float64, error) {
	curr, err := s.source.CPU(ctx)
	if err != nil {
		return s.state.cpuUsage, err
	}
	prev, _ := s.state.cpu.Previous()

	usage, err := CPUUsage(prev, curr)
	switch {
	case errors.Is(err, internalerrors.ErrDegenerateDelta):
		return s.state.cpuUsage, nil
	case errors.Is(err, internalerrors.ErrCounterReset):
		s.state.cpu.Set(curr)
		return s.state.cpuUsage, err
	case err != nil:
		return s.state.cpuUsage, err
	}

	s.state.cpu.Set(curr)
	s.state.cpuUsage = usage
	return usage, nil
}

func (s *Sampler) updateCPU(ctx context.Context) error {
	usage, err := s.CPUUsage(ctx)
	if err != nil {
		return err
	}
	return s.publish(ctx, models.Metric{Name: models.CPUUsage, Value: usage})
}

func (s *Sampler) updateMemory(ctx context.Context) error {
	info, err := s.source.Memory(ctx)
	if err != nil {
		return err
	}
	usage, err := MemoryUsage(info)
	if err != nil {
		return err
	}
	return s.publish(ctx, models.Metric{Name: models.MemoryUsage, Value: usage})
}

func (s *Sampler) updateDisk(ctx context.Context) error {
	stats, err := s.source.Disk(ctx)
	if err != nil {
		return err
	}
	return s.publish(ctx,
		models.Metric{Name: models.DiskReads, Value: float64(stats.Reads)},
		models.Metric{Name: models.DiskWrites, Value: float64(stats.Writes)},
		models.Metric{Name: models.DiskReadTime, Value: float64(stats.ReadTimeMs) / 1000},
		models.Metric{Name: models.DiskWriteTime, Value: float64(stats.WriteTimeMs) / 1000},
	)
}

func (s *Sampler) updateNetwork(ctx context.Context) error {
	curr, err := s.source.Network(ctx)
	if err != nil {
		return err
	}
	prev, ok := s.state.network.Previous()
	s.state.network.Set(curr)
	if !ok {
		return nil
	}

	group, err := NetworkRates(prev, curr)
	if err != nil {
		return err
	}
	return s.publish(ctx,
		models.Metric{Name: models.NetworkReceive, Value: group.Receive},
		models.Metric{Name: models.NetworkTransmit, Value: group.Transmit},
		models.Metric{Name: models.NetworkPacketRatio, Value: group.PacketRatio},
	)
}

func (s *Sampler) updateProcesses(ctx context.Context) error {
	running, err := s.source.RunningProcesses(ctx)
	if err != nil {
		return err
	}
	return s.publish(ctx, models.Metric{Name: models.RunningProcesses, Value: float64(running)})
}

func (s *Sampler) updateContextSwitches(ctx context.Context) error {
	curr, err := s.source.ContextSwitches(ctx)
	if err != nil {
		return err
	}
	if curr == 0 {
		return fmt.Errorf("%w: zero context switch counter", internalerrors.ErrMalformedSource)
	}
	prev, ok := s.state.contextSwitches.Previous()
	s.state.contextSwitches.Set(curr)
	if !ok {
		return nil
	}
	if curr < prev {
		return fmt.Errorf("%w: context switches %d -> %d", internalerrors.ErrCounterReset, prev, curr)
	}

	diff, publish := ContextSwitchDelta(prev, curr)
	if !publish {
		return nil
	}
	return s.publish(ctx, models.Metric{Name: models.ContextSwitches, Value: float64(diff)})
}

func (s *Sampler) updateAllocator(ctx context.Context) error {
	if s.alloc == nil {
		return nil
	}
	stats, err := s.alloc.AllocatorStats(ctx)
	if err != nil {
		return err
	}
	metrics := make([]models.Metric, 0, 3*len(stats))
	for _, st := range stats {
		metrics = append(metrics,
			models.Metric{Name: models.FragmentationRate, Label: st.Strategy, Value: st.FragmentationRate},
			models.Metric{Name: models.AllocationCount, Label: st.Strategy, Value: float64(st.Allocations)},
			models.Metric{Name: models.AvgAllocationTime, Label: st.Strategy, Value: st.AvgAllocationTime},
		)
	}
	return s.publish(ctx, metrics...)
}

func (s *Sampler) publish(ctx context.Context, metrics ...models.Metric) error {
	if err := s.registry.SetMetrics(ctx, metrics); err != nil {
		return fmt.Errorf("publishing metrics: %w", err)
	}
	return nil
}
