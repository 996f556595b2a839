package services

import (
	"sync"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-intake/internal/logger"
)

// NopReporter drops every event.
type NopReporter struct{}

// Report implements driven.ProgressReporter.
func (NopReporter) Report(domain.ProgressEvent) {}

// ChannelReporter forwards events to a channel. Events are dropped when
// the channel is full so a slow reader never stalls the pipeline.
type ChannelReporter struct {
	ch chan<- domain.ProgressEvent

	mu      sync.Mutex
	dropped int
}

// NewChannelReporter creates a reporter writing to ch.
func NewChannelReporter(ch chan<- domain.ProgressEvent) *ChannelReporter {
	return &ChannelReporter{ch: ch}
}

// Report implements driven.ProgressReporter.
func (r *ChannelReporter) Report(event domain.ProgressEvent) {
	select {
	case r.ch <- event:
	default:
		r.mu.Lock()
		r.dropped++
		r.mu.Unlock()
	}
}

// Dropped returns the number of events that did not fit in the channel.
func (r *ChannelReporter) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// FanOutReporter sends each event to several reporters in order.
type FanOutReporter []driven.ProgressReporter

// Report implements driven.ProgressReporter.
func (f FanOutReporter) Report(event domain.ProgressEvent) {
	for _, r := range f {
		if r != nil {
			r.Report(event)
		}
	}
}

// LogReporter writes events to the debug log.
type LogReporter struct{}

// Report implements driven.ProgressReporter.
func (LogReporter) Report(event domain.ProgressEvent) {
	if event.Message != "" {
		logger.Debug("%s: %s (%s)", event.FileID, event.Stage, event.Message)
		return
	}
	logger.Debug("%s: %s", event.FileID, event.Stage)
}
