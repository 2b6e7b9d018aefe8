package models

import (
	"fmt"
	"strings"
)

// ResourceKind represents the three resource tiers of the economy
type ResourceKind string

const (
	Crystal ResourceKind = "crystal" // primary tier
	Biomass ResourceKind = "biomass" // secondary tier
	Aether  ResourceKind = "aether"  // tertiary tier
)

// AllResourceKinds returns all resource kinds in tier order
func AllResourceKinds() []ResourceKind {
	return []ResourceKind{Crystal, Biomass, Aether}
}

// Tier returns the position of the kind in the conversion chain (1..3), 0 if unknown
func (k ResourceKind) Tier() int {
	switch k {
	case Crystal:
		return 1
	case Biomass:
		return 2
	case Aether:
		return 3
	}
	return 0
}

// Valid reports whether k is one of the known kinds
func (k ResourceKind) Valid() bool {
	return k.Tier() != 0
}

// Next returns the kind one tier above k
func (k ResourceKind) Next() (ResourceKind, bool) {
	switch k {
	case Crystal:
		return Biomass, true
	case Biomass:
		return Aether, true
	}
	return "", false
}

// UnmarshalText accepts kind names case-insensitively, including the tier aliases
func (k *ResourceKind) UnmarshalText(text []byte) error {
	parsed, err := ParseResourceKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseResourceKind parses a kind name or tier alias (primary/secondary/tertiary)
func ParseResourceKind(s string) (ResourceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "crystal", "primary":
		return Crystal, nil
	case "biomass", "secondary":
		return Biomass, nil
	case "aether", "tertiary":
		return Aether, nil
	}
	return "", fmt.Errorf("unknown resource kind %q", s)
}

// Pool holds one integer per resource kind (no maps, deterministic iteration)
type Pool struct {
	Crystal int
	Biomass int
	Aether  int
}

// Get returns the amount for a kind
func (p Pool) Get(k ResourceKind) int {
	switch k {
	case Crystal:
		return p.Crystal
	case Biomass:
		return p.Biomass
	case Aether:
		return p.Aether
	}
	return 0
}

// Set sets the amount for a kind
func (p *Pool) Set(k ResourceKind, v int) {
	switch k {
	case Crystal:
		p.Crystal = v
	case Biomass:
		p.Biomass = v
	case Aether:
		p.Aether = v
	}
}

// Add adds v to the amount for a kind
func (p *Pool) Add(k ResourceKind, v int) {
	p.Set(k, p.Get(k)+v)
}

// Each iterates over all kinds in tier order
func (p Pool) Each(fn func(ResourceKind, int)) {
	fn(Crystal, p.Crystal)
	fn(Biomass, p.Biomass)
	fn(Aether, p.Aether)
}

// IsZero returns true if every amount is zero
func (p Pool) IsZero() bool {
	return p.Crystal == 0 && p.Biomass == 0 && p.Aether == 0
}

// String formats the pool the way costs are shown in logs and tables
func (p Pool) String() string {
	return fmt.Sprintf("C:%d B:%d A:%d", p.Crystal, p.Biomass, p.Aether)
}

// PlayerID identifies a player/account. Zero means "no player".
type PlayerID int

// WorkerID identifies a gatherer unit
type WorkerID string

// SourceID identifies a resource source on the map
type SourceID string
