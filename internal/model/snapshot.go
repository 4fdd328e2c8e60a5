package models

// CPUTimes holds the cumulative CPU time accumulators, in seconds.
type CPUTimes struct {
	User    float64
	Nice    float64
	System  float64
	Idle    float64
	Iowait  float64
	IRQ     float64
	SoftIRQ float64
	Steal   float64
}

// IdleTotal is the time spent idle or waiting for I/O.
func (c CPUTimes) IdleTotal() float64 {
	return c.Idle + c.Iowait
}

// Total is the sum of all eight accumulators.
func (c CPUTimes) Total() float64 {
	return c.IdleTotal() + c.User + c.Nice + c.System + c.IRQ + c.SoftIRQ + c.Steal
}

// MemInfo holds memory occupancy in kB.
type MemInfo struct {
	TotalKB     uint64
	AvailableKB uint64
}

// DiskStats holds cumulative I/O counters for one block device (or an aggregate).
type DiskStats struct {
	Reads       uint64
	Writes      uint64
	ReadTimeMs  uint64
	WriteTimeMs uint64
}

// NetStats holds cumulative traffic counters for one interface (or an aggregate).
type NetStats struct {
	BytesReceived      uint64
	BytesTransmitted   uint64
	PacketsReceived    uint64
	PacketsTransmitted uint64
}

// AllocatorStats is the pre-aggregated instrumentation of one allocation strategy.
type AllocatorStats struct {
	// Strategy is the label value of the strategy, e.g. "first_fit"
	Strategy string

	// FragmentationRate is the external fragmentation of the heap, in percent
	FragmentationRate float64

	// Allocations is the number of successful allocations so far
	Allocations uint64

	// AvgAllocationTime is the mean time per allocation, in seconds
	AvgAllocationTime float64
}
