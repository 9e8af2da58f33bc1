// Package books classifies bookmakers into sharp and market pools and
// resolves their sport-specific consensus weights.
package books

import (
	"fmt"
	"sort"
)

// DefaultWeightKey is the fallback entry every book's weight map must carry.
const DefaultWeightKey = "default"

// Type is the pool a bookmaker's quotes join.
type Type string

const (
	Sharp  Type = "sharp"
	Market Type = "market"
)

// Valid reports whether t is a known pool type.
func (t Type) Valid() bool {
	return t == Sharp || t == Market
}

// Config is one bookmaker's classification and weights keyed by sport.
type Config struct {
	Type    Type               `mapstructure:"type" json:"type"`
	Weights map[string]float64 `mapstructure:"weights" json:"weights"`
}

// Weight returns the sport-specific weight, falling back to the default.
func (c Config) Weight(sportKey string) float64 {
	if w, ok := c.Weights[sportKey]; ok {
		return w
	}
	return c.Weights[DefaultWeightKey]
}

// Table maps bookmaker keys to their configuration. Tables are treated as
// immutable once built.
type Table map[string]Config

// Resolution is the outcome of classifying one bookmaker for one sport.
type Resolution struct {
	Type   Type
	Weight float64
}

// Resolve classifies bookmaker for sportKey. Books absent from the table
// are excluded from every pool and report false.
func (t Table) Resolve(bookmaker, sportKey string) (Resolution, bool) {
	cfg, ok := t[bookmaker]
	if !ok {
		return Resolution{}, false
	}
	return Resolution{Type: cfg.Type, Weight: cfg.Weight(sportKey)}, true
}

// Books returns the configured bookmaker keys in sorted order.
func (t Table) Books() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks that every entry has a known type and positive weights,
// including the default.
func (t Table) Validate() error {
	for _, book := range t.Books() {
		cfg := t[book]
		if !cfg.Type.Valid() {
			return fmt.Errorf("book %s: type must be one of: sharp, market (got %q)", book, cfg.Type)
		}
		if _, ok := cfg.Weights[DefaultWeightKey]; !ok {
			return fmt.Errorf("book %s: weights.default is required", book)
		}
		for sport, w := range cfg.Weights {
			if w <= 0 {
				return fmt.Errorf("book %s: weight for %s must be positive", book, sport)
			}
		}
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate a shared table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for book, cfg := range t {
		weights := make(map[string]float64, len(cfg.Weights))
		for k, v := range cfg.Weights {
			weights[k] = v
		}
		out[book] = Config{Type: cfg.Type, Weights: weights}
	}
	return out
}
