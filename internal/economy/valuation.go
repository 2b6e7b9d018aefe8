package economy

import (
	"github.com/shopspring/decimal"

	"github.com/napolitain/aether-sim/internal/models"
)

// Weights converts a pool into a single comparable value, one weight per kind
type Weights struct {
	Crystal decimal.Decimal
	Biomass decimal.Decimal
	Aether  decimal.Decimal
}

// DefaultWeights returns 1.0 / 0.5 / 0.1
func DefaultWeights() Weights {
	return Weights{
		Crystal: decimal.NewFromInt(1),
		Biomass: decimal.RequireFromString("0.5"),
		Aether:  decimal.RequireFromString("0.1"),
	}
}

// Get returns the weight for a kind
func (w Weights) Get(k models.ResourceKind) decimal.Decimal {
	switch k {
	case models.Crystal:
		return w.Crystal
	case models.Biomass:
		return w.Biomass
	case models.Aether:
		return w.Aether
	}
	return decimal.Zero
}

// Score returns sum(amount[k] × weight[k])
func (w Weights) Score(p models.Pool) decimal.Decimal {
	total := decimal.Zero
	p.Each(func(k models.ResourceKind, v int) {
		total = total.Add(decimal.NewFromInt(int64(v)).Mul(w.Get(k)))
	})
	return total
}

// DefaultVictoryThresholds returns the amounts a player must hold at once to win economically
func DefaultVictoryThresholds() models.Pool {
	return models.Pool{Crystal: 10000, Biomass: 5000, Aether: 500}
}

// MeetsThresholds reports whether every pool of p is at or above its threshold
func MeetsThresholds(p, thresholds models.Pool) bool {
	ok := true
	thresholds.Each(func(k models.ResourceKind, v int) {
		if p.Get(k) < v {
			ok = false
		}
	})
	return ok
}
