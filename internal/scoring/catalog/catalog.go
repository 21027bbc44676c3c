// Package catalog holds the objective catalog consumed by the eligibility
// guard and the ledger's default point resolution.
package catalog

import "strings"

// Stage identifies an objective's deck.
type Stage string

const (
	// StageOne objectives are worth one point.
	StageOne Stage = "I"
	// StageTwo objectives are worth two points.
	StageTwo Stage = "II"
	// StageSecret objectives are private one-point objectives.
	StageSecret Stage = "Secret"
)

// Objective describes one catalog entry.
type Objective struct {
	ID     string
	Name   string
	Stage  Stage
	Phase  string
	Points int
}

// Secret reports whether the objective occupies a secret slot when scored.
func (o Objective) Secret() bool {
	return o.Stage == StageSecret
}

// Catalog resolves objective references.
type Catalog interface {
	// Objective returns the catalog entry for an id.
	Objective(id string) (Objective, bool)
	// List returns all entries in a stable order.
	List() []Objective
}

type memoryCatalog struct {
	byID  map[string]Objective
	order []string
}

// New builds a catalog from entries. IDs are derived from names when empty.
func New(entries []Objective) Catalog {
	c := &memoryCatalog{byID: make(map[string]Objective, len(entries))}
	for _, entry := range entries {
		if entry.ID == "" {
			entry.ID = Slug(entry.Name)
		}
		if _, ok := c.byID[entry.ID]; ok {
			continue
		}
		c.byID[entry.ID] = entry
		c.order = append(c.order, entry.ID)
	}
	return c
}

// Default returns the catalog seeded with the base-game objective decks.
func Default() Catalog {
	entries := make([]Objective, 0, len(stageOne)+len(stageTwo)+len(secrets))
	entries = append(entries, stageOne...)
	entries = append(entries, stageTwo...)
	entries = append(entries, secrets...)
	return New(entries)
}

func (c *memoryCatalog) Objective(id string) (Objective, bool) {
	obj, ok := c.byID[strings.TrimSpace(id)]
	return obj, ok
}

func (c *memoryCatalog) List() []Objective {
	out := make([]Objective, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Slug derives a stable id from an objective name.
func Slug(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
