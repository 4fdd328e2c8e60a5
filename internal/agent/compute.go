package agent

import (
	"fmt"

	internalerrors "github.com/Schera-ole/hostmetrics/internal/errors"
	models "github.com/Schera-ole/hostmetrics/internal/model"
)

// NetworkGroup is the derived metric group of one network snapshot pair.
type NetworkGroup struct {
	Receive     float64
	Transmit    float64
	PacketRatio float64
}

// CPUUsage returns the busy share of the CPU time elapsed between two
// snapshots, in percent.
func CPUUsage(prev, curr models.CPUTimes) (float64, error) {
	totalDelta := curr.Total() - prev.Total()
	idleDelta := curr.IdleTotal() - prev.IdleTotal()

	if totalDelta == 0 {
		return 0, internalerrors.ErrDegenerateDelta
	}
	if totalDelta < 0 || idleDelta < 0 {
		return 0, fmt.Errorf("%w: cpu total delta %g, idle delta %g", internalerrors.ErrCounterReset, totalDelta, idleDelta)
	}

	usage := (totalDelta - idleDelta) / totalDelta * 100
	return min(max(usage, 0), 100), nil
}

// MemoryUsage returns the share of memory not available, in percent.
func MemoryUsage(m models.MemInfo) (float64, error) {
	if m.TotalKB == 0 {
		return 0, fmt.Errorf("%w: zero total memory", internalerrors.ErrMalformedSource)
	}
	if m.AvailableKB > m.TotalKB {
		return 0, fmt.Errorf("%w: available %d kB exceeds total %d kB", internalerrors.ErrMalformedSource, m.AvailableKB, m.TotalKB)
	}
	used := float64(m.TotalKB - m.AvailableKB)
	return used / float64(m.TotalKB) * 100, nil
}

// NetworkRates returns the byte deltas between two snapshots and the
// transmitted/received packet ratio of the current one.
func NetworkRates(prev, curr models.NetStats) (NetworkGroup, error) {
	if curr.BytesReceived < prev.BytesReceived || curr.BytesTransmitted < prev.BytesTransmitted {
		return NetworkGroup{}, fmt.Errorf("%w: network byte counters", internalerrors.ErrCounterReset)
	}

	group := NetworkGroup{
		Receive:  float64(curr.BytesReceived - prev.BytesReceived),
		Transmit: float64(curr.BytesTransmitted - prev.BytesTransmitted),
	}
	if curr.PacketsReceived > 0 {
		group.PacketRatio = float64(curr.PacketsTransmitted) / float64(curr.PacketsReceived)
	}
	return group, nil
}

// ContextSwitchDelta returns the switches since prev; ok is false when there
// is nothing to publish.
func ContextSwitchDelta(prev, curr uint64) (uint64, bool) {
	if curr <= prev {
		return 0, false
	}
	return curr - prev, true
}
