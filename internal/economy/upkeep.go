package economy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/napolitain/aether-sim/internal/errx"
)

// Unbounded marks the last upkeep band, which has no upper unit limit
const Unbounded = -1

// Band is one piece of the piecewise-constant upkeep function.
// A band covers unit counts from the previous band's MaxUnits+1 up to MaxUnits inclusive.
type Band struct {
	MaxUnits   int
	Multiplier decimal.Decimal
}

// UpkeepModel maps a player's total unit count to an income multiplier
type UpkeepModel struct {
	bands []Band
}

// DefaultBands returns the standard bands: 0-40 → 1.0, 41-70 → 0.7, 71+ → 0.4
func DefaultBands() []Band {
	return []Band{
		{MaxUnits: 40, Multiplier: decimal.NewFromInt(1)},
		{MaxUnits: 70, Multiplier: decimal.RequireFromString("0.7")},
		{MaxUnits: Unbounded, Multiplier: decimal.RequireFromString("0.4")},
	}
}

// DefaultUpkeepModel returns the model built from DefaultBands
func DefaultUpkeepModel() UpkeepModel {
	m, _ := NewUpkeepModel(DefaultBands())
	return m
}

// NewUpkeepModel validates bands and builds a model.
// Thresholds must be strictly ascending, the last band must be Unbounded,
// and every multiplier must lie in (0, 1].
func NewUpkeepModel(bands []Band) (UpkeepModel, error) {
	if len(bands) == 0 {
		return UpkeepModel{}, errx.ErrInvalidConfig.WithData("upkeep", "no bands")
	}
	one := decimal.NewFromInt(1)
	prev := -1
	for i, b := range bands {
		last := i == len(bands)-1
		if !b.Multiplier.IsPositive() || b.Multiplier.GreaterThan(one) {
			return UpkeepModel{}, errx.ErrInvalidConfig.WithData("upkeep", fmt.Sprintf("band %d multiplier %s outside (0,1]", i, b.Multiplier))
		}
		if last {
			if b.MaxUnits != Unbounded {
				return UpkeepModel{}, errx.ErrInvalidConfig.WithData("upkeep", "last band must be unbounded")
			}
			continue
		}
		if b.MaxUnits <= prev {
			return UpkeepModel{}, errx.ErrInvalidConfig.WithData("upkeep", fmt.Sprintf("band %d threshold %d not ascending", i, b.MaxUnits))
		}
		prev = b.MaxUnits
	}
	out := make([]Band, len(bands))
	copy(out, bands)
	return UpkeepModel{bands: out}, nil
}

// Multiplier returns the income multiplier for a unit count.
// Negative counts are treated as zero.
func (m UpkeepModel) Multiplier(unitCount int) decimal.Decimal {
	if len(m.bands) == 0 {
		return decimal.NewFromInt(1)
	}
	for _, b := range m.bands {
		if b.MaxUnits == Unbounded || unitCount <= b.MaxUnits {
			return b.Multiplier
		}
	}
	return m.bands[len(m.bands)-1].Multiplier
}

// Bands returns a copy of the configured bands
func (m UpkeepModel) Bands() []Band {
	out := make([]Band, len(m.bands))
	copy(out, m.bands)
	return out
}
