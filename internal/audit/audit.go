// Package audit records every scrape of the exporter.
//
// Events are published on a channel and fanned out to file and HTTP
// subscribers.
package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	models "github.com/Schera-ole/hostmetrics/internal/model"
)

// AuditLogger is an interface for logging audit events.
type AuditLogger interface {
	// Log records a served request with its path, client address and status.
	Log(path string, ipAddress string, status int)
}

// ChannelLogger sends events to a channel without blocking the request.
// It owns the channel: Close closes it, and events logged afterwards are
// dropped.
type ChannelLogger struct {
	mu        sync.RWMutex
	closed    bool
	eventChan chan<- models.AuditEvent
	logger    *zap.SugaredLogger
}

// NewAuditLogger creates a logger that sends events to the provided channel.
func NewAuditLogger(eventChan chan<- models.AuditEvent, logger *zap.SugaredLogger) *ChannelLogger {
	return &ChannelLogger{
		eventChan: eventChan,
		logger:    logger,
	}
}

func (a *ChannelLogger) Log(path string, ipAddress string, status int) {
	event := models.AuditEvent{
		TS:        time.Now().Format(time.RFC3339),
		Path:      path,
		IPAddress: ipAddress,
		Status:    status,
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.logger.Debugw("Audit event dropped, auditor closed", "path", path)
		return
	}
	select {
	case a.eventChan <- event:
	default:
		a.logger.Warnw("Audit event dropped, channel is full", "path", path)
	}
}

// Close closes the event channel. It is safe to call more than once.
func (a *ChannelLogger) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	close(a.eventChan)
}

// Broadcaster distributes audit events to every subscriber channel until
// source is closed, then closes the subscribers.
//
// A subscriber that is not ready loses the event instead of blocking the others.
func Broadcaster(source <-chan models.AuditEvent, logger *zap.SugaredLogger, subs ...chan<- models.AuditEvent) {
	defer func() {
		for _, subChan := range subs {
			close(subChan)
		}
	}()
	for evt := range source {
		for _, subChan := range subs {
			select {
			case subChan <- evt:
			default:
				logger.Warnw("Audit event dropped for blocked subscriber", "path", evt.Path)
			}
		}
	}
}

// FileSubscriber appends audit events to path as JSON lines.
func FileSubscriber(events <-chan models.AuditEvent, path string, logger *zap.SugaredLogger) {
	for evt := range events {
		if err := appendEvent(path, evt); err != nil {
			logger.Errorw("Failed to write audit event", "file", path, "error", err)
		}
	}
}

func appendEvent(path string, evt models.AuditEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening audit file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing audit file: %w", err)
	}
	return nil
}

// URLSubscriber posts audit events as JSON to url.
func URLSubscriber(events <-chan models.AuditEvent, url string, client *http.Client, logger *zap.SugaredLogger) {
	for evt := range events {
		if err := postEvent(client, url, evt); err != nil {
			logger.Errorw("Failed to send audit event", "url", url, "error", err)
		}
	}
}

func postEvent(client *http.Client, url string, evt models.AuditEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("sending event: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("audit endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
