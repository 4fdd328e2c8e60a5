// Package source provides the counter sources the sampler reads from.
//
// Every method returns a fresh, immutable snapshot of cumulative counters or
// an error wrapping ErrSourceUnavailable or ErrMalformedSource. A failing read
// never yields a zero-valued snapshot.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/Schera-ole/hostmetrics/internal/config"
	internalerrors "github.com/Schera-ole/hostmetrics/internal/errors"
	models "github.com/Schera-ole/hostmetrics/internal/model"
)

// Source is the contract every counter provider satisfies.
type Source interface {
	CPU(ctx context.Context) (models.CPUTimes, error)
	Memory(ctx context.Context) (models.MemInfo, error)
	Disk(ctx context.Context) (models.DiskStats, error)
	Network(ctx context.Context) (models.NetStats, error)
	RunningProcesses(ctx context.Context) (uint64, error)
	ContextSwitches(ctx context.Context) (uint64, error)
}

// Options selects the devices a source reports on.
type Options struct {
	ProcPath         string
	SysPath          string
	NetworkInterface string
	DiskDevice       string
}

// New returns the source named by kind.
func New(kind string, opts Options) (Source, error) {
	switch kind {
	case config.SourceProcFS:
		return NewProcFS(opts)
	case config.SourceGopsutil:
		return NewGopsutil(opts), nil
	default:
		return nil, fmt.Errorf("unknown counter source %q", kind)
	}
}

// classify wraps a reader error with the matching sentinel.
func classify(what string, err error) error {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %s: %v", internalerrors.ErrSourceUnavailable, what, err)
	}
	return fmt.Errorf("%w: %s: %v", internalerrors.ErrMalformedSource, what, err)
}

func isLoopback(name string) bool {
	return name == "lo"
}

// isVirtualDisk reports block devices that never back real storage.
func isVirtualDisk(name string) bool {
	for _, prefix := range []string{"loop", "ram", "zram"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
