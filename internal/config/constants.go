// Package config provides configuration for the telemetry agent.
package config

const (
	// SourceProcFS reads counters through github.com/prometheus/procfs.
	SourceProcFS = "procfs"

	// SourceGopsutil reads counters through github.com/shirou/gopsutil.
	SourceGopsutil = "gopsutil"
)
