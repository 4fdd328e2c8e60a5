// Package hostmetrics implements an agent that samples host telemetry and
// exposes it to Prometheus.
//
// The agent reads cumulative kernel counters (CPU time, memory occupancy,
// block device I/O, network traffic, running processes and context switches)
// on a fixed cadence, derives rates and percentages from consecutive
// snapshots and publishes them as gauges. A simulated heap managed with
// first-fit, best-fit and worst-fit placement reports its fragmentation next
// to the host metrics.
//
// Every derived metric group is written to the registry under the same lock
// that guards rendering, so a scrape never observes half of an update.
//
// Features:
//   - procfs and gopsutil counter sources
//   - Prometheus text exposition on /metrics
//   - Plain text value lookups on /value/{name} and /value/{name}/{label}
//   - Response compression using gzip
//   - Scrape audit logging to a file or an HTTP endpoint
//   - Graceful shutdown handling
//   - Structured logging
//
// The agent is configured with a YAML file, command-line flags and
// environment variables. See internal/config for the precedence rules.
package hostmetrics
