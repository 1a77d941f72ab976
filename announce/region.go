// Copyright © 2025 Conductor contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: announce/region.go
// Summary: Narration live regions for assistive-technology output.
// Usage: The coordinator owns one region per politeness tier; hosts provide
// their own implementation to bridge to a real narration surface.

package announce

import (
	"sync"

	"github.com/mattn/go-runewidth"
)

// LiveRegion is a persistent narration surface. Implementations must accept
// the clear-then-set cycle the coordinator uses to force change detection.
type LiveRegion interface {
	Set(text string)
	Clear()
	Close()
}

// MemoryRegion is the default LiveRegion: it records the current text,
// truncated to a display width, and counts set cycles. Useful on its own
// for tests and headless hosts.
type MemoryRegion struct {
	mu     sync.Mutex
	width  int
	text   string
	sets   int
	closed bool
}

// NewMemoryRegion creates a region truncating to the given display width.
// Width 0 disables truncation.
func NewMemoryRegion(width int) *MemoryRegion {
	return &MemoryRegion{width: width}
}

func (r *MemoryRegion) Set(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if r.width > 0 {
		text = runewidth.Truncate(text, r.width, "…")
	}
	r.text = text
	r.sets++
}

func (r *MemoryRegion) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.text = ""
}

func (r *MemoryRegion) Close() {
	r.mu.Lock()
	r.closed = true
	r.text = ""
	r.mu.Unlock()
}

// Text returns the current narration text.
func (r *MemoryRegion) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.text
}

// SetCount returns how many times text was written, which is the number of
// narration events an assistive technology would have observed.
func (r *MemoryRegion) SetCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sets
}

var _ LiveRegion = (*MemoryRegion)(nil)
