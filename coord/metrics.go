// Copyright © 2025 Conductor contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: coord/metrics.go
// Summary: Attention-change metrics observer.
// Usage: Attach to a Registry to count ownership handovers and log them.

package coord

import (
	"log"
	"sync"
	"time"
)

// AttentionMetrics counts attention ownership changes.
type AttentionMetrics struct {
	mu         sync.Mutex
	last       string
	changes    uint64
	lastChange time.Time
	logger     *log.Logger
	once       sync.Once
}

// AttentionStats is a point-in-time snapshot of the metrics.
type AttentionStats struct {
	LastOwner  string
	Changes    uint64
	LastChange time.Time
}

// NewAttentionMetrics creates a metrics observer logging to the given logger.
func NewAttentionMetrics(logger *log.Logger) *AttentionMetrics {
	if logger == nil {
		logger = log.Default()
	}
	return &AttentionMetrics{logger: logger}
}

// Attach hooks the metrics into the registry's attention callback, chaining
// any callback already installed.
func (m *AttentionMetrics) Attach(registry *Registry) {
	if registry == nil {
		return
	}
	m.once.Do(func() {
		prevCB := registry.OnAttentionChanged
		registry.OnAttentionChanged = func(prev, next string) {
			m.attentionChanged(next)
			if prevCB != nil {
				prevCB(prev, next)
			}
		}
	})
}

func (m *AttentionMetrics) attentionChanged(owner string) {
	m.mu.Lock()
	m.last = owner
	m.changes++
	m.lastChange = time.Now()
	changes := m.changes
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Printf("metric attention owner=%q changes=%d", owner, changes)
	}
}

// Snapshot returns the current counters.
func (m *AttentionMetrics) Snapshot() AttentionStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return AttentionStats{LastOwner: m.last, Changes: m.changes, LastChange: m.lastChange}
}
