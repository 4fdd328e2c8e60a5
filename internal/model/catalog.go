package models

const (
	CPUUsage           = "cpu_usage_percentage"
	MemoryUsage        = "memory_usage_percentage"
	DiskReads          = "disk_reads_operations"
	DiskWrites         = "disk_writes_operations"
	DiskReadTime       = "disk_read_time"
	DiskWriteTime      = "disk_write_time"
	NetworkReceive     = "network_bandwidth_receive"
	NetworkTransmit    = "network_bandwidth_transmit"
	NetworkPacketRatio = "network_packet_ratio"
	RunningProcesses   = "running_processes_count"
	ContextSwitches    = "context_switches_total"
	FragmentationRate  = "memory_fragmentation_rate"
	AllocationCount    = "allocation_count"
	AvgAllocationTime  = "avg_allocation_time_seconds"
	StrategyLabel      = "strategy"
	StrategyFirstFit   = "first_fit"
	StrategyBestFit    = "best_fit"
	StrategyWorstFit   = "worst_fit"
)

// Strategies lists the allocation strategy label values in declaration order.
var Strategies = []string{StrategyFirstFit, StrategyBestFit, StrategyWorstFit}

// Catalog returns the descriptors of every metric the agent publishes.
func Catalog() []Descriptor {
	return []Descriptor{
		{Name: CPUUsage, Help: "CPU usage in percent."},
		{Name: MemoryUsage, Help: "Memory usage in percent."},
		{Name: DiskReads, Help: "Completed disk read operations."},
		{Name: DiskWrites, Help: "Completed disk write operations."},
		{Name: DiskReadTime, Help: "Time spent on disk reads (seconds)."},
		{Name: DiskWriteTime, Help: "Time spent on disk writes (seconds)."},
		{Name: NetworkReceive, Help: "Receive bandwidth (bytes per sampling interval)."},
		{Name: NetworkTransmit, Help: "Transmit bandwidth (bytes per sampling interval)."},
		{Name: NetworkPacketRatio, Help: "Ratio of transmitted to received packets."},
		{Name: RunningProcesses, Help: "Number of running processes."},
		{Name: ContextSwitches, Help: "Context switches during the last sampling interval."},
		{Name: FragmentationRate, Help: "Heap fragmentation rate (%) per allocation strategy.", LabelName: StrategyLabel, LabelValues: Strategies},
		{Name: AllocationCount, Help: "Allocations performed per allocation strategy.", LabelName: StrategyLabel, LabelValues: Strategies},
		{Name: AvgAllocationTime, Help: "Average allocation time per allocation strategy (seconds).", LabelName: StrategyLabel, LabelValues: Strategies},
	}
}
