// Copyright © 2025 Conductor contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/clone.go
// Summary: Copy helpers for config maps.

package config

// Clone copies the config and every section in it, so callers can hand a
// Config to SetSystem without sharing section storage with the store.
func Clone(cfg Config) Config {
	if cfg == nil {
		return nil
	}
	out := make(Config, len(cfg))
	for name, raw := range cfg {
		if name != "" {
			if section := cfg.Section(name); section != nil {
				out[name] = section.Clone()
				continue
			}
		}
		out[name] = raw
	}
	return out
}

// Clone returns a copy of the section.
func (s Section) Clone() Section {
	if s == nil {
		return nil
	}
	out := make(Section, len(s))
	for key, value := range s {
		out[key] = value
	}
	return out
}
