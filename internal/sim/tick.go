package sim

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/napolitain/aether-sim/internal/economy"
	"github.com/napolitain/aether-sim/internal/models"
)

// PlayerTick is what one player gathered during a tick
type PlayerTick struct {
	Player     models.PlayerID
	Gathered   models.Pool // extracted from sources, after overcharge
	Applied    models.Pool // stored after upkeep and caps
	Overflow   models.Pool
	Stall      StallState
	Transition bool // stall state changed this tick
}

// TickReport summarizes one Tick
type TickReport struct {
	Tick       int
	Elapsed    time.Duration
	Players    []PlayerTick
	Eliminated []models.PlayerID
	Depleted   []models.SourceID // sources that ran out this tick
}

// Tick advances the simulation by dt: every assigned worker gathers once,
// overcharge timers run down, then each player's stall countdown advances.
func (o *Orchestrator) Tick(dt time.Duration) TickReport {
	o.mu.Lock()
	defer o.mu.Unlock()

	if dt < 0 {
		dt = 0
	}
	o.tick++
	o.elapsed += dt

	ticks := make(map[models.PlayerID]*PlayerTick, len(o.players))
	for _, id := range o.playerOrder {
		ticks[id] = &PlayerTick{Player: id}
	}

	report := TickReport{Tick: o.tick, Elapsed: o.elapsed}
	for _, sid := range o.sourceOrder {
		src := o.sources[sid]
		wasDepleted := src.Depleted()
		for _, w := range src.Workers() {
			a := o.workers[w]
			pl, ok := o.players[a.player]
			if !ok || pl.stall.state == Eliminated {
				continue
			}
			if src.Capturable() && src.Owner() != pl.id {
				continue
			}
			amount := src.Gather()
			if amount == 0 {
				continue
			}
			if pl.overchargeLeft > 0 {
				amount = int(decimal.NewFromInt(int64(amount)).Mul(o.opts.Overcharge.Multiplier).Floor().IntPart())
			}
			applied, overflow := pl.ledger.Credit(src.Kind(), amount)
			pt := ticks[pl.id]
			pt.Gathered.Add(src.Kind(), amount)
			pt.Applied.Add(src.Kind(), applied)
			pt.Overflow.Add(src.Kind(), overflow)
		}
		if !wasDepleted && src.Depleted() {
			report.Depleted = append(report.Depleted, sid)
			o.logger.Debug("source depleted", zap.String("source", string(sid)))
		}
	}

	for _, id := range o.playerOrder {
		pl := o.players[id]
		pl.overchargeLeft = max(0, pl.overchargeLeft-dt)
		pl.cooldownLeft = max(0, pl.cooldownLeft-dt)

		present := pl.buildings > 0 || o.hasConstruction(pl)
		changed := pl.stall.observe(present, dt, o.opts.GracePeriod)
		pt := ticks[id]
		pt.Stall = pl.stall.state
		pt.Transition = changed
		if changed {
			o.logStall(pl)
		}
		if changed && pl.stall.state == Eliminated {
			o.eliminate(pl)
			report.Eliminated = append(report.Eliminated, id)
		}
		report.Players = append(report.Players, *pt)
	}
	return report
}

func (o *Orchestrator) logStall(pl *player) {
	switch pl.stall.state {
	case StallWarning:
		o.logger.Warn("stall warning",
			zap.Int("player", int(pl.id)),
			zap.Duration("grace", o.opts.GracePeriod))
	case Normal:
		o.logger.Info("stall cleared", zap.Int("player", int(pl.id)))
	case Eliminated:
		o.logger.Warn("player eliminated", zap.Int("player", int(pl.id)), zap.Duration("stalled", pl.stall.timer))
	}
}

// eliminate frees everything the player held on the map
func (o *Orchestrator) eliminate(pl *player) {
	var freed []models.WorkerID
	for w, a := range o.workers {
		if a.player == pl.id {
			freed = append(freed, w)
		}
	}
	slices.Sort(freed)
	for _, w := range freed {
		o.unassign(w)
	}
	for _, sid := range o.sourceOrder {
		if s := o.sources[sid]; s.Capturable() && s.Owner() == pl.id {
			s.Release()
		}
	}
	pl.overchargeLeft = 0
}

// StallStatus returns a player's stall state and countdown
func (o *Orchestrator) StallStatus(p models.PlayerID) (StallState, time.Duration, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	pl, err := o.player(p)
	if err != nil {
		return Normal, 0, err
	}
	return pl.stall.state, pl.stall.timer, nil
}

// CheckEconomicVictory reports whether p currently holds every victory threshold.
// Unknown and eliminated players never win.
func (o *Orchestrator) CheckEconomicVictory(p models.PlayerID) bool {
	o.mu.Lock()
	pl, err := o.livePlayer(p)
	o.mu.Unlock()
	if err != nil {
		return false
	}
	return economy.MeetsThresholds(pl.ledger.Snapshot().Amounts, o.opts.Victory)
}
