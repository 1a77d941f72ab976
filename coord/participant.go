// Copyright © 2025 Conductor contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: coord/participant.go
// Summary: Participant categories, derived priorities, and registrations.

package coord

// Category classifies a UI surface competing for shared resources.
type Category string

const (
	CategoryContext    Category = "context"
	CategoryNavigation Category = "navigation"
	CategoryDropdown   Category = "dropdown"
	CategoryTree       Category = "tree"
	CategorySidebar    Category = "sidebar"
	CategoryBreadcrumb Category = "breadcrumb"
)

// categoryPriorities maps each category to its fixed arbitration priority.
// Lower numbers win.
var categoryPriorities = map[Category]int{
	CategoryContext:    1,
	CategoryNavigation: 2,
	CategoryDropdown:   3,
	CategoryTree:       4,
	CategorySidebar:    5,
	CategoryBreadcrumb: 10,
}

// Valid reports whether the category is one of the six known surfaces.
func (c Category) Valid() bool {
	_, ok := categoryPriorities[c]
	return ok
}

// Priority returns the derived priority for the category (1 = highest).
// Unknown categories sort last.
func (c Category) Priority() int {
	if p, ok := categoryPriorities[c]; ok {
		return p
	}
	return 10
}

// Categories returns all known categories.
func Categories() []Category {
	return []Category{
		CategoryContext,
		CategoryNavigation,
		CategoryDropdown,
		CategoryTree,
		CategorySidebar,
		CategoryBreadcrumb,
	}
}

// Registration describes one mounted participant.
// Priority is derived from Category at registration time; callers only
// supply the cognitive-load weight.
type Registration struct {
	ID            string
	Category      Category
	Priority      int
	CognitiveLoad int
}

// validate checks the caller-supplied shape. Priority is ignored on input.
func (r Registration) validate() bool {
	if r.ID == "" {
		return false
	}
	if !r.Category.Valid() {
		return false
	}
	if r.CognitiveLoad < 1 || r.CognitiveLoad > 10 {
		return false
	}
	return true
}
