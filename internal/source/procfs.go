package source

import (
	"context"
	"fmt"

	"github.com/prometheus/procfs"
	"github.com/prometheus/procfs/blockdevice"

	internalerrors "github.com/Schera-ole/hostmetrics/internal/errors"
	models "github.com/Schera-ole/hostmetrics/internal/model"
)

// ProcFS reads counters from a procfs/sysfs mount.
type ProcFS struct {
	fs       procfs.FS
	block    blockdevice.FS
	blockErr error
	iface    string
	device   string
}

// NewProcFS opens the proc mount point. A missing sys mount only disables
// disk statistics.
func NewProcFS(opts Options) (*ProcFS, error) {
	fs, err := procfs.NewFS(opts.ProcPath)
	if err != nil {
		return nil, fmt.Errorf("opening procfs at %s: %w", opts.ProcPath, err)
	}
	block, blockErr := blockdevice.NewFS(opts.ProcPath, opts.SysPath)
	return &ProcFS{
		fs:       fs,
		block:    block,
		blockErr: blockErr,
		iface:    opts.NetworkInterface,
		device:   opts.DiskDevice,
	}, nil
}

func (p *ProcFS) stat() (procfs.Stat, error) {
	stat, err := p.fs.Stat()
	if err != nil {
		return procfs.Stat{}, classify("stat", err)
	}
	return stat, nil
}

// CPU returns the aggregate CPU time accumulators.
func (p *ProcFS) CPU(ctx context.Context) (models.CPUTimes, error) {
	stat, err := p.stat()
	if err != nil {
		return models.CPUTimes{}, err
	}
	c := stat.CPUTotal
	return models.CPUTimes{
		User:    c.User,
		Nice:    c.Nice,
		System:  c.System,
		Idle:    c.Idle,
		Iowait:  c.Iowait,
		IRQ:     c.IRQ,
		SoftIRQ: c.SoftIRQ,
		Steal:   c.Steal,
	}, nil
}

// Memory returns MemTotal and MemAvailable.
func (p *ProcFS) Memory(ctx context.Context) (models.MemInfo, error) {
	info, err := p.fs.Meminfo()
	if err != nil {
		return models.MemInfo{}, classify("meminfo", err)
	}
	if info.MemTotal == nil || info.MemAvailable == nil {
		return models.MemInfo{}, fmt.Errorf("%w: meminfo lacks MemTotal or MemAvailable", internalerrors.ErrMalformedSource)
	}
	return models.MemInfo{TotalKB: *info.MemTotal, AvailableKB: *info.MemAvailable}, nil
}

// Disk returns the counters of the configured device, or the sum over every
// whole, non-virtual disk when no device is configured.
func (p *ProcFS) Disk(ctx context.Context) (models.DiskStats, error) {
	if p.blockErr != nil {
		return models.DiskStats{}, classify("block devices", p.blockErr)
	}
	stats, err := p.block.ProcDiskstats()
	if err != nil {
		return models.DiskStats{}, classify("diskstats", err)
	}

	wanted := map[string]bool{}
	if p.device != "" {
		wanted[p.device] = true
	} else {
		devices, err := p.block.SysBlockDevices()
		if err != nil {
			return models.DiskStats{}, classify("sys block", err)
		}
		for _, device := range devices {
			if !isVirtualDisk(device) {
				wanted[device] = true
			}
		}
	}

	var result models.DiskStats
	found := false
	for _, s := range stats {
		if !wanted[s.DeviceName] {
			continue
		}
		found = true
		result.Reads += s.ReadIOs
		result.Writes += s.WriteIOs
		result.ReadTimeMs += s.ReadTicks
		result.WriteTimeMs += s.WriteTicks
	}
	if !found {
		return models.DiskStats{}, fmt.Errorf("%w: disk device %q not found", internalerrors.ErrSourceUnavailable, p.device)
	}
	return result, nil
}

// Network returns the counters of the configured interface, or the sum over
// every interface but loopback when no interface is configured.
func (p *ProcFS) Network(ctx context.Context) (models.NetStats, error) {
	netDev, err := p.fs.NetDev()
	if err != nil {
		return models.NetStats{}, classify("net/dev", err)
	}

	var result models.NetStats
	found := false
	for name, line := range netDev {
		if p.iface != "" && name != p.iface {
			continue
		}
		if p.iface == "" && isLoopback(name) {
			continue
		}
		found = true
		result.BytesReceived += line.RxBytes
		result.BytesTransmitted += line.TxBytes
		result.PacketsReceived += line.RxPackets
		result.PacketsTransmitted += line.TxPackets
	}
	if !found {
		return models.NetStats{}, fmt.Errorf("%w: network interface %q not found", internalerrors.ErrSourceUnavailable, p.iface)
	}
	return result, nil
}

// RunningProcesses returns procs_running from /proc/stat.
func (p *ProcFS) RunningProcesses(ctx context.Context) (uint64, error) {
	stat, err := p.stat()
	if err != nil {
		return 0, err
	}
	return stat.ProcessesRunning, nil
}

// ContextSwitches returns the ctxt counter from /proc/stat.
func (p *ProcFS) ContextSwitches(ctx context.Context) (uint64, error) {
	stat, err := p.stat()
	if err != nil {
		return 0, err
	}
	return stat.ContextSwitches, nil
}
