package economy

import (
	"fmt"
	"math"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/napolitain/aether-sim/internal/errx"
	"github.com/napolitain/aether-sim/internal/models"
)

// Ledger is a player's resource storage: three pools, each capped.
//
// Invariant: 0 <= amount[k] <= capacity[k] for every kind, at all times.
// Mutations take the ledger lock so per-player updates may run in parallel.
type Ledger struct {
	mu         sync.Mutex
	amounts    models.Pool
	capacities models.Pool
	upkeep     decimal.Decimal
}

// LedgerSnapshot is an immutable copy of a ledger's state
type LedgerSnapshot struct {
	Amounts    models.Pool
	Capacities models.Pool
	Upkeep     decimal.Decimal
}

// ConvertResult describes a successful conversion
type ConvertResult struct {
	InputSpent int
	Applied    int
	Overflow   int
}

// NewLedger creates a ledger. Capacities must be positive; starting amounts
// must be non-negative and are clamped to capacity.
func NewLedger(starting, capacities models.Pool) (*Ledger, error) {
	l := &Ledger{upkeep: decimal.NewFromInt(1)}
	for _, k := range models.AllResourceKinds() {
		c := capacities.Get(k)
		s := starting.Get(k)
		if c <= 0 {
			return nil, errx.ErrInvalidAmount.WithData("capacity", k)
		}
		if s < 0 {
			return nil, errx.ErrInvalidAmount.WithData("starting", k)
		}
		l.capacities.Set(k, c)
		l.amounts.Set(k, min(s, c))
	}
	return l, nil
}

// Credit adds floor(amount × upkeep) to kind, clamped to capacity.
// It returns the amount actually stored and the amount wasted by the cap.
// Non-positive amounts and unknown kinds credit nothing.
func (l *Ledger) Credit(kind models.ResourceKind, amount int) (applied, overflow int) {
	if amount <= 0 || !kind.Valid() {
		return 0, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	scaled := decimal.NewFromInt(int64(amount)).Mul(l.upkeep).Floor().IntPart()
	return l.store(kind, int(scaled))
}

// store adds amount to kind without upkeep; caller holds the lock
func (l *Ledger) store(kind models.ResourceKind, amount int) (applied, overflow int) {
	current := l.amounts.Get(kind)
	room := l.capacities.Get(kind) - current
	applied = min(amount, room)
	overflow = amount - applied
	l.amounts.Set(kind, current+applied)
	return applied, overflow
}

// CanAfford reports whether every pool covers cost
func (l *Ledger) CanAfford(cost models.Pool) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.covers(cost)
}

func (l *Ledger) covers(cost models.Pool) bool {
	ok := true
	cost.Each(func(k models.ResourceKind, v int) {
		if l.amounts.Get(k) < v {
			ok = false
		}
	})
	return ok
}

// Spend debits cost atomically: either every pool is debited or none is
func (l *Ledger) Spend(cost models.Pool) error {
	if err := validateCost(cost); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.covers(cost) {
		return errx.ErrInsufficientResources.
			WithData("need", cost.String()).
			WithData("have", l.amounts.String())
	}
	cost.Each(func(k models.ResourceKind, v int) {
		l.amounts.Add(k, -v)
	})
	return nil
}

func validateCost(cost models.Pool) error {
	var err error
	cost.Each(func(k models.ResourceKind, v int) {
		if v < 0 && err == nil {
			err = errx.ErrInvalidAmount.WithData("cost", fmt.Sprintf("%s=%d", k, v))
		}
	})
	return err
}

// Convert turns output×ratio units of from into output units of to.
// from must sit exactly one tier below to. The credit to the target pool is
// clamped to capacity but not scaled by upkeep.
func (l *Ledger) Convert(from, to models.ResourceKind, output, ratio int) (ConvertResult, error) {
	if next, ok := from.Next(); !ok || next != to {
		return ConvertResult{}, errx.ErrInvalidConversion.
			WithData("from", from).
			WithData("to", to)
	}
	if output <= 0 || ratio <= 0 || output > math.MaxInt/ratio {
		return ConvertResult{}, errx.ErrInvalidAmount.
			WithData("output", output).
			WithData("ratio", ratio)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	inputNeeded := output * ratio
	if have := l.amounts.Get(from); have < inputNeeded {
		return ConvertResult{}, errx.ErrInsufficientResources.
			WithData("need", inputNeeded).
			WithData("have", have).
			WithData("kind", from)
	}
	if l.amounts.Get(to) >= l.capacities.Get(to) {
		return ConvertResult{}, errx.ErrCapacityExceeded.WithData("kind", to)
	}

	l.amounts.Add(from, -inputNeeded)
	applied, overflow := l.store(to, output)
	return ConvertResult{InputSpent: inputNeeded, Applied: applied, Overflow: overflow}, nil
}

// GrowCapacity raises the cap of kind by a positive delta
func (l *Ledger) GrowCapacity(kind models.ResourceKind, delta int) error {
	if delta <= 0 || !kind.Valid() {
		return errx.ErrInvalidAmount.WithData("delta", delta).WithData("kind", kind)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if have := l.capacities.Get(kind); delta > math.MaxInt-have {
		return errx.ErrInvalidAmount.WithData("delta", delta).WithData("capacity", have)
	}
	l.capacities.Add(kind, delta)
	return nil
}

// SetUpkeep replaces the income multiplier; it applies from the next Credit on
func (l *Ledger) SetUpkeep(m decimal.Decimal) error {
	if !m.IsPositive() || m.GreaterThan(decimal.NewFromInt(1)) {
		return errx.ErrInvalidAmount.WithData("upkeep", m.String())
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.upkeep = m
	return nil
}

// Upkeep returns the current income multiplier
func (l *Ledger) Upkeep() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.upkeep
}

// GetResource returns the stored amount of kind
func (l *Ledger) GetResource(kind models.ResourceKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.amounts.Get(kind)
}

// Capacity returns the cap of kind
func (l *Ledger) Capacity(kind models.ResourceKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.capacities.Get(kind)
}

// Snapshot returns a copy of the ledger state
func (l *Ledger) Snapshot() LedgerSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return LedgerSnapshot{Amounts: l.amounts, Capacities: l.capacities, Upkeep: l.upkeep}
}

// CheckInvariants returns an error if any pool is negative or above its cap.
// A non-nil result is a defect; tests assert on it after every mutation.
func (l *Ledger) CheckInvariants() error {
	s := l.Snapshot()
	var err error
	s.Amounts.Each(func(k models.ResourceKind, v int) {
		if err != nil {
			return
		}
		if v < 0 || v > s.Capacities.Get(k) {
			err = fmt.Errorf("ledger invariant violated: %s=%d capacity=%d", k, v, s.Capacities.Get(k))
		}
	})
	return err
}
