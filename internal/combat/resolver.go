// Package combat resolves attacks between combatants using a damage-type ×
// armor-type multiplier table. The resolver holds no references to entities
// and knows nothing about teams; friendly fire is decided by the caller.
package combat

import (
	"github.com/shopspring/decimal"
)

// Outcome describes one resolved attack
type Outcome struct {
	Dealt      int
	Multiplier decimal.Decimal
	Killed     bool // this attack brought the defender to zero
}

// Resolver computes damage; it is safe for concurrent use
type Resolver struct {
	table MultiplierTable
}

// NewResolver creates a resolver over a multiplier table
func NewResolver(table MultiplierTable) *Resolver {
	return &Resolver{table: table}
}

// Table returns the resolver's multiplier table
func (r *Resolver) Table() MultiplierTable { return r.table }

// Damage computes max(1, floor(damage × multiplier) − armor) without applying it
func (r *Resolver) Damage(atk Attack, defender Stats) (int, decimal.Decimal) {
	mult := r.table.Lookup(atk.DamageType, defender.ArmorType)
	raw := decimal.NewFromInt(int64(atk.Damage)).Mul(mult).Floor().IntPart()
	return max(1, int(raw)-defender.ArmorValue), mult
}

// Resolve applies one attack to defender and returns the damage dealt.
// Attacks on a dead defender deal 0.
func (r *Resolver) Resolve(atk Attack, defender *Combatant) int {
	return r.ResolveOutcome(atk, defender).Dealt
}

// ResolveOutcome is Resolve with the multiplier used and whether the hit killed
func (r *Resolver) ResolveOutcome(atk Attack, defender *Combatant) Outcome {
	dmg, mult := r.Damage(atk, defender.Stats())
	dealt, killed := defender.applyDamage(dmg)
	if dealt == 0 {
		return Outcome{Multiplier: mult}
	}
	return Outcome{Dealt: dealt, Multiplier: mult, Killed: killed}
}
