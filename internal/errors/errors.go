package errors

import "errors"

var (
	// Counter source errors
	ErrSourceUnavailable = errors.New("counter source unavailable")
	ErrMalformedSource   = errors.New("malformed counter source data")

	// Delta errors
	ErrDegenerateDelta = errors.New("no elapsed counter ticks")
	ErrCounterReset    = errors.New("counter went backwards")

	// Registry errors
	ErrDuplicateMetric = errors.New("metric already declared")
	ErrMetricNotFound  = errors.New("metric not found")
	ErrUnknownLabel    = errors.New("unknown label value")

	// Allocator errors
	ErrOutOfMemory = errors.New("no free block large enough")
	ErrInvalidFree = errors.New("free of unallocated block")
)
