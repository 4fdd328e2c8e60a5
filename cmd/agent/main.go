package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Schera-ole/hostmetrics/internal/agent"
	"github.com/Schera-ole/hostmetrics/internal/allocator"
	"github.com/Schera-ole/hostmetrics/internal/audit"
	"github.com/Schera-ole/hostmetrics/internal/config"
	"github.com/Schera-ole/hostmetrics/internal/exposer"
	"github.com/Schera-ole/hostmetrics/internal/handler"
	"github.com/Schera-ole/hostmetrics/internal/logger"
	models "github.com/Schera-ole/hostmetrics/internal/model"
	"github.com/Schera-ole/hostmetrics/internal/repository"
	"github.com/Schera-ole/hostmetrics/internal/source"
)

const (
	allocatorStep   = 10 * time.Millisecond
	auditBufferSize = 100
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.NewAgentConfig(args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Flush(log)

	src, err := source.New(cfg.Source, source.Options{
		ProcPath:         cfg.ProcPath,
		SysPath:          cfg.SysPath,
		NetworkInterface: cfg.NetworkInterface,
		DiskDevice:       cfg.DiskDevice,
	})
	if err != nil {
		return fmt.Errorf("opening counter source: %w", err)
	}

	return serve(ctx, cfg, log, src, nil)
}

// serve runs the sampler, the exporter and the allocator simulation until
// ctx is cancelled. ready, if set, receives the bound address.
func serve(
	ctx context.Context,
	cfg *config.AgentConfig,
	log *zap.SugaredLogger,
	src source.Source,
	ready func(addr string),
) error {
	registry := repository.NewRegistry()
	if err := registry.DeclareAll(models.Catalog()); err != nil {
		return fmt.Errorf("declaring metrics: %w", err)
	}

	var sim *allocator.Simulator
	var alloc agent.AllocatorSource
	if cfg.SimulateAllocator {
		sim = allocator.NewSimulator(cfg.HeapSize, time.Now().UnixNano(), log)
		alloc = sim
	}
	interval := time.Duration(cfg.PollInterval) * time.Second
	sampler := agent.NewSampler(src, alloc, registry, interval, log)

	auditor, stopAudit := startAudit(cfg, log)
	defer stopAudit()

	server := exposer.New(cfg.Address, handler.Router(registry, log, auditor), log)
	if err := server.Listen(); err != nil {
		return err
	}
	log.Infow("Agent started",
		"address", server.Addr(),
		"source", cfg.Source,
		"interval", interval.String(),
		"allocator", cfg.SimulateAllocator,
	)
	if ready != nil {
		ready(server.Addr())
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sampler.Run(ctx) })
	g.Go(func() error { return server.Serve(ctx) })
	if sim != nil {
		g.Go(func() error { return sim.Run(ctx, allocatorStep) })
	}
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Agent stopped")
	return nil
}

// startAudit fans scrape events out to the configured subscribers. The
// returned auditor is nil when no subscriber is configured.
func startAudit(cfg *config.AgentConfig, log *zap.SugaredLogger) (audit.AuditLogger, func()) {
	var subs []chan<- models.AuditEvent
	if cfg.AuditFile != "" {
		ch := make(chan models.AuditEvent, auditBufferSize)
		go audit.FileSubscriber(ch, cfg.AuditFile, log)
		subs = append(subs, ch)
	}
	if cfg.AuditURL != "" {
		ch := make(chan models.AuditEvent, auditBufferSize)
		client := &http.Client{Timeout: 5 * time.Second}
		go audit.URLSubscriber(ch, cfg.AuditURL, client, log)
		subs = append(subs, ch)
	}
	if len(subs) == 0 {
		return nil, func() {}
	}

	events := make(chan models.AuditEvent, auditBufferSize)
	go audit.Broadcaster(events, log, subs...)
	auditor := audit.NewAuditLogger(events, log)
	return auditor, auditor.Close
}
