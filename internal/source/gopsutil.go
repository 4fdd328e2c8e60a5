package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v4/common"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"

	internalerrors "github.com/Schera-ole/hostmetrics/internal/errors"
	models "github.com/Schera-ole/hostmetrics/internal/model"
)

// Gopsutil reads counters through gopsutil, which also works off Linux.
type Gopsutil struct {
	env     common.EnvMap
	sysPath string
	iface   string
	device  string
}

const defaultSysPath = "/sys"

// NewGopsutil returns a gopsutil-backed source rooted at the given mounts.
// An empty sys mount falls back to /sys, as gopsutil itself does.
func NewGopsutil(opts Options) *Gopsutil {
	env := common.EnvMap{}
	if opts.ProcPath != "" {
		env[common.HostProcEnvKey] = opts.ProcPath
	}
	sysPath := opts.SysPath
	if sysPath == "" {
		sysPath = defaultSysPath
	}
	env[common.HostSysEnvKey] = sysPath
	return &Gopsutil{
		env:     env,
		sysPath: sysPath,
		iface:   opts.NetworkInterface,
		device:  opts.DiskDevice,
	}
}

func (g *Gopsutil) withEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, common.EnvKey, g.env)
}

// CPU returns the aggregate CPU time accumulators.
func (g *Gopsutil) CPU(ctx context.Context) (models.CPUTimes, error) {
	times, err := cpu.TimesWithContext(g.withEnv(ctx), false)
	if err != nil {
		return models.CPUTimes{}, classify("cpu times", err)
	}
	if len(times) == 0 {
		return models.CPUTimes{}, fmt.Errorf("%w: no aggregate cpu line", internalerrors.ErrMalformedSource)
	}
	c := times[0]
	return models.CPUTimes{
		User:    c.User,
		Nice:    c.Nice,
		System:  c.System,
		Idle:    c.Idle,
		Iowait:  c.Iowait,
		IRQ:     c.Irq,
		SoftIRQ: c.Softirq,
		Steal:   c.Steal,
	}, nil
}

// Memory returns total and available memory in kB.
func (g *Gopsutil) Memory(ctx context.Context) (models.MemInfo, error) {
	vm, err := mem.VirtualMemoryWithContext(g.withEnv(ctx))
	if err != nil {
		return models.MemInfo{}, classify("virtual memory", err)
	}
	return models.MemInfo{TotalKB: vm.Total / 1024, AvailableKB: vm.Available / 1024}, nil
}

// Disk returns the counters of the configured device, or the sum over every
// whole, non-virtual disk when no device is configured.
func (g *Gopsutil) Disk(ctx context.Context) (models.DiskStats, error) {
	var names []string
	if g.device != "" {
		names = append(names, g.device)
	}
	counters, err := disk.IOCountersWithContext(g.withEnv(ctx), names...)
	if err != nil {
		return models.DiskStats{}, classify("disk io counters", err)
	}

	var result models.DiskStats
	found := false
	for name, c := range counters {
		if g.device == "" && !g.isWholeDisk(name) {
			continue
		}
		found = true
		result.Reads += c.ReadCount
		result.Writes += c.WriteCount
		result.ReadTimeMs += c.ReadTime
		result.WriteTimeMs += c.WriteTime
	}
	if !found {
		return models.DiskStats{}, fmt.Errorf("%w: disk device %q not found", internalerrors.ErrSourceUnavailable, g.device)
	}
	return result, nil
}

func (g *Gopsutil) isWholeDisk(name string) bool {
	if isVirtualDisk(name) {
		return false
	}
	_, err := os.Stat(filepath.Join(g.sysPath, "block", name))
	return err == nil
}

// Network returns the counters of the configured interface, or the sum over
// every interface but loopback when no interface is configured.
func (g *Gopsutil) Network(ctx context.Context) (models.NetStats, error) {
	counters, err := net.IOCountersWithContext(g.withEnv(ctx), true)
	if err != nil {
		return models.NetStats{}, classify("net io counters", err)
	}

	var result models.NetStats
	found := false
	for _, c := range counters {
		if g.iface != "" && c.Name != g.iface {
			continue
		}
		if g.iface == "" && isLoopback(c.Name) {
			continue
		}
		found = true
		result.BytesReceived += c.BytesRecv
		result.BytesTransmitted += c.BytesSent
		result.PacketsReceived += c.PacketsRecv
		result.PacketsTransmitted += c.PacketsSent
	}
	if !found {
		return models.NetStats{}, fmt.Errorf("%w: network interface %q not found", internalerrors.ErrSourceUnavailable, g.iface)
	}
	return result, nil
}

func (g *Gopsutil) misc(ctx context.Context) (*load.MiscStat, error) {
	misc, err := load.MiscWithContext(g.withEnv(ctx))
	if err != nil {
		return nil, classify("misc load stats", err)
	}
	return misc, nil
}

// RunningProcesses returns the number of runnable processes.
func (g *Gopsutil) RunningProcesses(ctx context.Context) (uint64, error) {
	misc, err := g.misc(ctx)
	if err != nil {
		return 0, err
	}
	if misc.ProcsRunning < 0 {
		return 0, fmt.Errorf("%w: negative running process count", internalerrors.ErrMalformedSource)
	}
	return uint64(misc.ProcsRunning), nil
}

// ContextSwitches returns the cumulative context switch count.
func (g *Gopsutil) ContextSwitches(ctx context.Context) (uint64, error) {
	misc, err := g.misc(ctx)
	if err != nil {
		return 0, err
	}
	if misc.Ctxt < 0 {
		return 0, fmt.Errorf("%w: negative context switch count", internalerrors.ErrMalformedSource)
	}
	return uint64(misc.Ctxt), nil
}
