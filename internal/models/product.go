// Package models defines the core domain entities for stakewatch.
// These models represent staking product categories, normalized product keys,
// per-cycle availability snapshots, and the events emitted by the tracker.
//
// Terminology (matching Binance Earn's own naming):
//   - Category: a product class with its own endpoint, e.g. locked or DeFi staking.
//   - Product: one (asset, duration) offering within a category. This is the unit we track.
package models

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category is one of the fixed staking product classes.
type Category string

const (
	// CategoryLocked is Binance locked staking.
	CategoryLocked Category = "locked"
	// CategoryDefi is Binance DeFi staking.
	CategoryDefi Category = "defi"
)

// Categories lists every known category in polling order.
var Categories = []Category{CategoryLocked, CategoryDefi}

// ParseCategory converts a configuration name into a Category.
func ParseCategory(name string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", name)
}

// FlexibleDuration is the duration assigned to products without a fixed term.
const FlexibleDuration = "flexible"

// ProductKey identifies a product within a category. Both parts are
// normalized to lower case, so use NewProductKey rather than a literal.
type ProductKey struct {
	Asset    string
	Duration string
}

// NewProductKey builds a normalized key. An empty duration means flexible.
func NewProductKey(asset, duration string) ProductKey {
	asset = strings.ToLower(strings.TrimSpace(asset))
	duration = strings.ToLower(strings.TrimSpace(duration))
	if duration == "" {
		duration = FlexibleDuration
	}
	return ProductKey{Asset: asset, Duration: duration}
}

// String renders the key as asset_duration for logs.
func (k ProductKey) String() string {
	return k.Asset + "_" + k.Duration
}

// PrettyName renders the key for humans, e.g. "Btc (30)".
func (k ProductKey) PrettyName() string {
	return fmt.Sprintf("%s (%s)", cases.Title(language.Und).String(k.Asset), k.Duration)
}
