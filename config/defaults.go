// Copyright © 2025 Conductor contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/defaults.go
// Summary: Default values for the coordination core configuration.

package config

func applySystemDefaults(cfg Config) {
	if cfg == nil {
		return
	}
	cfg.RegisterDefaults("registry", Section{
		"budget": 20,
	})
	cfg.RegisterDefaults("motion", Section{
		"max_concurrent_animations": 3,
		"max_total_cognitive_load":  15,
	})
	cfg.RegisterDefaults("announce", Section{
		"max_concurrent": 3,
		"debounce_ms":    150,
		"rerender_ms":    50,
		"region_width":   0,
	})
	cfg.RegisterDefaults("keyboard", Section{
		"typeahead_enabled":  true,
		"typeahead_delay_ms": 1000,
	})
	cfg.RegisterDefaults("trace", Section{
		"enabled": false,
		"path":    "",
	})
}
