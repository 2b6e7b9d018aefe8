package sim

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/napolitain/aether-sim/internal/economy"
	"github.com/napolitain/aether-sim/internal/models"
)

// PlayerSnapshot is an immutable view of one player
type PlayerSnapshot struct {
	ID              models.PlayerID
	Team            int
	Ledger          economy.LedgerSnapshot
	Units           int
	Buildings       int
	Constructions   int
	Stall           StallState
	StallTimer      time.Duration
	OverchargeLeft  time.Duration
	CooldownLeft    time.Duration
	Score           decimal.Decimal
	EconomicVictory bool
}

// Snapshot is an immutable view of the whole simulation, safe to hand to a presentation layer
type Snapshot struct {
	Tick    int
	Elapsed time.Duration
	Players []PlayerSnapshot // ascending id
	Sources []economy.SourceSnapshot
}

// Snapshot captures the current state
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	snap := Snapshot{Tick: o.tick, Elapsed: o.elapsed}
	for _, id := range o.playerOrder {
		pl := o.players[id]
		ls := pl.ledger.Snapshot()
		snap.Players = append(snap.Players, PlayerSnapshot{
			ID:              id,
			Team:            pl.team,
			Ledger:          ls,
			Units:           pl.units,
			Buildings:       pl.buildings,
			Constructions:   pl.constructions,
			Stall:           pl.stall.state,
			StallTimer:      pl.stall.timer,
			OverchargeLeft:  pl.overchargeLeft,
			CooldownLeft:    pl.cooldownLeft,
			Score:           o.opts.Valuation.Score(ls.Amounts),
			EconomicVictory: pl.stall.state != Eliminated && economy.MeetsThresholds(ls.Amounts, o.opts.Victory),
		})
	}
	for _, sid := range o.sourceOrder {
		snap.Sources = append(snap.Sources, o.sources[sid].Snapshot())
	}
	return snap
}

// Standings returns players ordered by valuation score, highest first.
// Eliminated players sort last; ties break on ascending id.
func (s Snapshot) Standings() []PlayerSnapshot {
	out := slices.Clone(s.Players)
	slices.SortStableFunc(out, func(a, b PlayerSnapshot) int {
		ae, be := a.Stall == Eliminated, b.Stall == Eliminated
		if ae != be {
			if ae {
				return 1
			}
			return -1
		}
		if c := b.Score.Cmp(a.Score); c != 0 {
			return c
		}
		return int(a.ID - b.ID)
	})
	return out
}
