// Copyright © 2025 Conductor contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: options.go
// Summary: Facade construction options and config-driven assembly.

package conductor

import (
	"time"

	"github.com/framegrace/conductor/announce"
	"github.com/framegrace/conductor/config"
	"github.com/framegrace/conductor/coord"
	"github.com/framegrace/conductor/internal/clock"
	"github.com/framegrace/conductor/keyboard"
	"github.com/framegrace/conductor/motion"
)

// Options assembles a coordination instance. Zero values take the
// documented defaults throughout.
type Options struct {
	// RegistryBudget caps the summed cognitive load of registered
	// participants. Non-positive means coord.DefaultBudget.
	RegistryBudget int

	// MotionBudget bounds concurrently running animations.
	MotionBudget motion.Budget

	// AnnounceConfig paces the announcement coordinator.
	AnnounceConfig announce.Config

	// KeyboardConfig tunes the key router.
	KeyboardConfig keyboard.Config

	// Focus supplies the host's focus system. Nil installs an in-memory
	// coord.FocusTracker whose narration feeds the announcer.
	Focus coord.FocusService

	// PoliteRegion and AssertiveRegion are the narration sinks. Nil
	// regions fall back to in-memory ones.
	PoliteRegion    announce.LiveRegion
	AssertiveRegion announce.LiveRegion

	// Clock drives every timer. Nil means the system clock; tests inject
	// a fake.
	Clock clock.Clock

	// TracePath enables the SQLite event trace when non-empty.
	TracePath string

	// Debug enables verbose logging; without a TracePath it also mirrors
	// the event stream into the debug logger.
	Debug bool

	// OnEvent subscribes to the unified event stream at construction.
	OnEvent func(coord.SystemEvent)
}

// FromConfig builds Options from a parsed configuration, typically
// config.System() or the result of config.Parse.
func FromConfig(cfg config.Config) Options {
	opts := Options{
		RegistryBudget: cfg.GetInt("registry", "budget", coord.DefaultBudget),
		MotionBudget: motion.Budget{
			MaxConcurrentAnimations: cfg.GetInt("motion", "max_concurrent_animations", motion.DefaultBudget.MaxConcurrentAnimations),
			MaxTotalCognitiveLoad:   cfg.GetFloat("motion", "max_total_cognitive_load", motion.DefaultBudget.MaxTotalCognitiveLoad),
		},
		AnnounceConfig: announce.Config{
			MaxConcurrentAnnouncements: cfg.GetInt("announce", "max_concurrent", announce.DefaultConfig.MaxConcurrentAnnouncements),
			DebounceDelay:              cfg.GetDuration("announce", "debounce_ms", announce.DefaultConfig.DebounceDelay),
			RerenderDelay:              cfg.GetDuration("announce", "rerender_ms", announce.DefaultConfig.RerenderDelay),
			RegionWidth:                cfg.GetInt("announce", "region_width", 0),
		},
		KeyboardConfig: keyboard.Config{
			TypeAheadDelay:   cfg.GetDuration("keyboard", "typeahead_delay_ms", keyboard.DefaultTypeAheadDelay),
			DisableTypeAhead: !cfg.GetBool("keyboard", "typeahead_enabled", true),
		},
	}
	if cfg.GetBool("trace", "enabled", false) {
		opts.TracePath = cfg.GetString("trace", "path", "")
	}
	return opts
}

// announcePriority maps the focus service's politeness tier onto the
// announcer's.
func announcePriority(p coord.AnnouncePriority) announce.Priority {
	if p == coord.AnnounceAssertive {
		return announce.PriorityAssertive
	}
	return announce.PriorityPolite
}

// detail builds a one-entry event detail map.
func detail(key string, value interface{}) map[string]interface{} {
	return map[string]interface{}{key: value}
}

// now is a convenience for event stamping.
func (c *Conductor) now() time.Time {
	return c.clk.Now()
}
