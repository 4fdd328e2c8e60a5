// Package models defines the data structures used throughout the telemetry agent.
package models

// Metric is a single gauge write or read.
type Metric struct {
	// Name is the declared metric name
	Name string `json:"name"`

	// Label is the value of the metric's only label, empty for unlabelled gauges
	Label string `json:"label,omitempty"`

	// Value is the current gauge reading
	Value float64 `json:"value"`
}

// Descriptor declares a gauge before first use.
type Descriptor struct {
	// Name is the unique metric name
	Name string

	// Help is the HELP text rendered in the exposition output
	Help string

	// LabelName is the name of the optional label (empty means no label)
	LabelName string

	// LabelValues is the closed set of values the label may take
	LabelValues []string
}

// AuditEvent represents an audit log entry for a scrape request.
type AuditEvent struct {
	// TS is the timestamp of the event in ISO 8601 format
	TS string `json:"ts"`

	// Path is the requested URL path
	Path string `json:"path"`

	// IPAddress is the IP address of the scraping client
	IPAddress string `json:"ip_address"`

	// Status is the HTTP status code of the response
	Status int `json:"status"`
}
