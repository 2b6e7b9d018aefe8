package combat

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/napolitain/aether-sim/internal/errx"
	"github.com/napolitain/aether-sim/internal/models"
)

// Entry is one (damage type, armor type) coefficient
type Entry struct {
	Damage     models.DamageType
	Armor      models.ArmorType
	Multiplier decimal.Decimal
}

type pair struct {
	damage models.DamageType
	armor  models.ArmorType
}

// MultiplierTable is the immutable rock-paper-scissors coefficient table.
// Pairs not present resolve to 1.0.
type MultiplierTable struct {
	entries map[pair]decimal.Decimal
}

// DefaultEntries returns the standard coefficients
func DefaultEntries() []Entry {
	d := decimal.RequireFromString
	return []Entry{
		{models.Kinetic, models.Light, d("1.5")},
		{models.Kinetic, models.Medium, d("1.0")},
		{models.Kinetic, models.Heavy, d("0.75")},
		{models.AetherDamage, models.Medium, d("1.5")},
		{models.ArmorPiercing, models.Heavy, d("1.5")},
		{models.Siege, models.Fortified, d("2.0")},
	}
}

// DefaultTable returns the table built from DefaultEntries
func DefaultTable() MultiplierTable {
	t, _ := NewMultiplierTable(DefaultEntries())
	return t
}

// NewMultiplierTable validates entries and builds a table.
// Multipliers must be positive; a later duplicate pair replaces an earlier one.
func NewMultiplierTable(entries []Entry) (MultiplierTable, error) {
	m := make(map[pair]decimal.Decimal, len(entries))
	for i, e := range entries {
		if e.Damage == "" || e.Armor == "" {
			return MultiplierTable{}, errx.ErrInvalidConfig.WithData("multipliers", fmt.Sprintf("entry %d has empty type", i))
		}
		if !e.Multiplier.IsPositive() {
			return MultiplierTable{}, errx.ErrInvalidConfig.WithData("multipliers", fmt.Sprintf("%s vs %s: %s not positive", e.Damage, e.Armor, e.Multiplier))
		}
		m[pair{e.Damage, e.Armor}] = e.Multiplier
	}
	return MultiplierTable{entries: m}, nil
}

// Lookup returns the coefficient for a pair, 1.0 when absent
func (t MultiplierTable) Lookup(d models.DamageType, a models.ArmorType) decimal.Decimal {
	if m, ok := t.entries[pair{d, a}]; ok {
		return m
	}
	return decimal.NewFromInt(1)
}

// Entries returns the table content in damage-type then armor-type order
func (t MultiplierTable) Entries() []Entry {
	var out []Entry
	for _, d := range models.AllDamageTypes() {
		for _, a := range models.AllArmorTypes() {
			if m, ok := t.entries[pair{d, a}]; ok {
				out = append(out, Entry{Damage: d, Armor: a, Multiplier: m})
			}
		}
	}
	return out
}
