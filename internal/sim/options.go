package sim

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/napolitain/aether-sim/internal/combat"
	"github.com/napolitain/aether-sim/internal/economy"
	"github.com/napolitain/aether-sim/internal/errx"
	"github.com/napolitain/aether-sim/internal/models"
)

// DefaultGracePeriod is how long a player may hold no buildings before elimination
const DefaultGracePeriod = 30 * time.Second

// OverchargeOptions configures the temporary gather boost bought with Aether
type OverchargeOptions struct {
	Cost       int // Aether spent per activation
	Duration   time.Duration
	Cooldown   time.Duration // counted from activation
	Multiplier decimal.Decimal
}

// Options are the simulation constants supplied at construction
type Options struct {
	Starting        models.Pool
	Capacity        models.Pool
	GatherRate      models.Pool // yield per worker per tick for sources that don't set one
	ConversionRatio int
	MaxWorkers      int
	Upkeep          economy.UpkeepModel
	GracePeriod     time.Duration
	FriendlyFire    bool
	Victory         models.Pool
	Valuation       economy.Weights
	Overcharge      OverchargeOptions
	Multipliers     combat.MultiplierTable
}

// DefaultOptions returns the standard balance values
func DefaultOptions() Options {
	return Options{
		Starting:        models.Pool{Crystal: 500, Biomass: 150, Aether: 0},
		Capacity:        models.Pool{Crystal: 10000, Biomass: 5000, Aether: 1000},
		GatherRate:      models.Pool{Crystal: 10, Biomass: 5, Aether: 3},
		ConversionRatio: 10,
		MaxWorkers:      economy.DefaultMaxWorkers,
		Upkeep:          economy.DefaultUpkeepModel(),
		GracePeriod:     DefaultGracePeriod,
		FriendlyFire:    false,
		Victory:         economy.DefaultVictoryThresholds(),
		Valuation:       economy.DefaultWeights(),
		Overcharge: OverchargeOptions{
			Cost:       50,
			Duration:   10 * time.Second,
			Cooldown:   60 * time.Second,
			Multiplier: decimal.RequireFromString("1.5"),
		},
		Multipliers: combat.DefaultTable(),
	}
}

// Validate checks the options that the economy constructors don't
func (o Options) Validate() error {
	if o.ConversionRatio <= 0 {
		return errx.ErrInvalidConfig.WithData("conversion_ratio", o.ConversionRatio)
	}
	if o.MaxWorkers <= 0 {
		return errx.ErrInvalidConfig.WithData("max_workers", o.MaxWorkers)
	}
	if o.GracePeriod <= 0 {
		return errx.ErrInvalidConfig.WithData("grace_period", o.GracePeriod)
	}
	var err error
	o.Capacity.Each(func(k models.ResourceKind, v int) {
		if v <= 0 && err == nil {
			err = errx.ErrInvalidConfig.WithData("capacity", k)
		}
	})
	o.GatherRate.Each(func(k models.ResourceKind, v int) {
		if v <= 0 && err == nil {
			err = errx.ErrInvalidConfig.WithData("gather_rate", k)
		}
	})
	o.Starting.Each(func(k models.ResourceKind, v int) {
		if v < 0 && err == nil {
			err = errx.ErrInvalidConfig.WithData("starting", k)
		}
	})
	if err != nil {
		return err
	}
	oc := o.Overcharge
	if oc.Cost < 0 || oc.Duration < 0 || oc.Cooldown < 0 {
		return errx.ErrInvalidConfig.WithData("overcharge", "negative value")
	}
	if !oc.Multiplier.IsPositive() {
		return errx.ErrInvalidConfig.WithData("overcharge", "multiplier must be positive")
	}
	if len(o.Upkeep.Bands()) == 0 {
		return errx.ErrInvalidConfig.WithData("upkeep", "no bands")
	}
	return nil
}
