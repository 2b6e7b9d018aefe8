package sim

import (
	"go.uber.org/zap"

	"github.com/napolitain/aether-sim/internal/combat"
	"github.com/napolitain/aether-sim/internal/errx"
	"github.com/napolitain/aether-sim/internal/models"
)

// Engage resolves an attack between two combatants. Attacks involving an
// eliminated player are refused, and same-team attacks are refused unless
// friendly fire is enabled and the attack is Siege. Kills update the
// defender owner's unit or building count.
func (o *Orchestrator) Engage(attacker, defender *combat.Combatant) (combat.Outcome, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	atkTeam, err := o.teamOf(attacker.Owner())
	if err != nil {
		return combat.Outcome{}, err
	}
	defTeam, err := o.teamOf(defender.Owner())
	if err != nil {
		return combat.Outcome{}, err
	}
	if !attacker.Alive() {
		return combat.Outcome{}, nil
	}
	atk := attacker.Attack()
	if atkTeam != 0 && atkTeam == defTeam {
		if !o.opts.FriendlyFire || atk.DamageType != models.Siege {
			return combat.Outcome{}, errx.ErrFriendlyFire.
				WithData("attacker", attacker.ID()).
				WithData("defender", defender.ID())
		}
	}

	out := o.resolver.ResolveOutcome(atk, defender)
	if out.Killed {
		o.recordKill(attacker, defender)
	}
	return out, nil
}

// teamOf returns 0 for neutral combatants (owner 0)
func (o *Orchestrator) teamOf(owner models.PlayerID) (int, error) {
	if owner == 0 {
		return 0, nil
	}
	pl, err := o.livePlayer(owner)
	if err != nil {
		return 0, err
	}
	return pl.team, nil
}

func (o *Orchestrator) recordKill(attacker, defender *combat.Combatant) {
	o.logger.Info("combatant killed",
		zap.String("attacker", attacker.ID()),
		zap.String("defender", defender.ID()),
		zap.String("kind", string(defender.Kind())))

	pl, ok := o.players[defender.Owner()]
	if !ok {
		return
	}
	switch defender.Kind() {
	case models.UnitEntity, models.HeroEntity:
		pl.units = max(0, pl.units-1)
		if err := o.recomputeUpkeep(pl); err != nil {
			o.logger.Error("upkeep recompute failed", zap.Error(err))
		}
	case models.BuildingEntity:
		pl.buildings = max(0, pl.buildings-1)
	}
}
