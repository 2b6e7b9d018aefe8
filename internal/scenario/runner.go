package scenario

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/napolitain/aether-sim/internal/combat"
	"github.com/napolitain/aether-sim/internal/economy"
	"github.com/napolitain/aether-sim/internal/errx"
	"github.com/napolitain/aether-sim/internal/models"
	"github.com/napolitain/aether-sim/internal/sim"
)

// Outcome records how one scripted event went. Expected failures
// (not enough resources, full slots, ...) are recorded, not fatal.
type Outcome struct {
	Tick   int
	Type   EventType
	Player models.PlayerID
	Detail string
	Err    error
}

// CombatRecord is one resolved attack
type CombatRecord struct {
	Tick     int
	Attacker string
	Defender string
	Dealt    int
	Health   int
	Killed   bool
}

// Step is the result of advancing one tick
type Step struct {
	Tick     sim.TickReport
	Outcomes []Outcome
	Combat   []CombatRecord
	Snapshot sim.Snapshot
}

// Report summarizes a full run
type Report struct {
	Name     string
	Ticks    int
	Outcomes []Outcome
	Combat   []CombatRecord
	Final    sim.Snapshot
	Winners  []models.PlayerID // players meeting the economic victory thresholds at the end
}

// Runner drives an orchestrator through a scenario
type Runner struct {
	sc         *Scenario
	orch       *sim.Orchestrator
	queue      *EventQueue
	combatants map[string]*combat.Combatant
	logger     *zap.Logger
	tick       int
}

// NewRunner builds the orchestrator and sets up players, sources and combatants
func NewRunner(sc *Scenario, opts sim.Options, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	orch, err := sim.New(opts, sim.WithLogger(logger.Named("sim")))
	if err != nil {
		return nil, err
	}
	r := &Runner{
		sc:         sc,
		orch:       orch,
		queue:      NewEventQueue(),
		combatants: make(map[string]*combat.Combatant),
		logger:     logger,
	}

	for _, p := range sc.Players {
		if err := orch.AddPlayer(p.ID, p.Team); err != nil {
			return nil, fmt.Errorf("player %d: %w", p.ID, err)
		}
		for i := 0; i < p.Buildings; i++ {
			if err := orch.BuildingCompleted(p.ID); err != nil {
				return nil, fmt.Errorf("player %d: %w", p.ID, err)
			}
		}
		if err := orch.SetUnitCount(p.ID, p.Units); err != nil {
			return nil, fmt.Errorf("player %d: %w", p.ID, err)
		}
	}
	for _, s := range sc.Sources {
		spec := economy.SourceSpec{
			ID:           s.ID,
			Kind:         s.Kind,
			Remaining:    s.Remaining,
			Infinite:     s.Infinite,
			YieldPerTick: s.Yield,
			MaxWorkers:   s.MaxWorkers,
			Capturable:   s.Capturable,
			Owner:        s.Owner,
		}
		if err := orch.AddSource(spec); err != nil {
			return nil, fmt.Errorf("source %s: %w", s.ID, err)
		}
	}
	for _, c := range sc.Combatants {
		if err := r.addCombatant(c.ID, c.Owner, c.Unit); err != nil {
			return nil, err
		}
	}
	for _, e := range sc.Events {
		r.queue.Push(e)
	}
	return r, nil
}

// Orchestrator returns the driven orchestrator
func (r *Runner) Orchestrator() *sim.Orchestrator { return r.orch }

// Combatant returns a named combatant, nil if unknown
func (r *Runner) Combatant(id string) *combat.Combatant { return r.combatants[id] }

// Done reports whether the scenario's tick budget is used up.
// Scenarios without a budget end after their last event.
func (r *Runner) Done() bool {
	if r.sc.Ticks > 0 {
		return r.tick >= r.sc.Ticks
	}
	return r.queue.Len() == 0 && r.tick > 0
}

// Step applies the events due at the next tick, then advances the simulation
func (r *Runner) Step() Step {
	r.tick++
	var step Step
	for _, e := range r.queue.PopDue(r.tick) {
		out, records := r.apply(e)
		step.Outcomes = append(step.Outcomes, out)
		step.Combat = append(step.Combat, records...)
		if out.Err != nil {
			r.logger.Debug("event rejected",
				zap.Int("tick", r.tick),
				zap.String("type", string(e.Type)),
				zap.Error(out.Err))
		}
	}
	step.Tick = r.orch.Tick(r.sc.TickDuration())
	step.Snapshot = r.orch.Snapshot()
	return step
}

// Run steps until Done, or for maxTicks when positive
func (r *Runner) Run(maxTicks int) Report {
	rep := Report{Name: r.sc.Name}
	for !r.Done() && (maxTicks <= 0 || rep.Ticks < maxTicks) {
		step := r.Step()
		rep.Ticks++
		rep.Outcomes = append(rep.Outcomes, step.Outcomes...)
		rep.Combat = append(rep.Combat, step.Combat...)
	}
	rep.Final = r.orch.Snapshot()
	for _, p := range rep.Final.Players {
		if p.EconomicVictory {
			rep.Winners = append(rep.Winners, p.ID)
		}
	}
	r.logger.Info("scenario finished",
		zap.String("name", r.sc.Name),
		zap.Int("ticks", rep.Ticks),
		zap.Int("events", len(rep.Outcomes)))
	return rep
}

func (r *Runner) addCombatant(id string, owner models.PlayerID, ut models.UnitType) error {
	c, err := r.newCombatant(id, owner, ut)
	if err != nil {
		return err
	}
	r.combatants[id] = c
	return nil
}

// newCombatant builds a combatant without registering it
func (r *Runner) newCombatant(id string, owner models.PlayerID, ut models.UnitType) (*combat.Combatant, error) {
	if _, ok := r.combatants[id]; ok {
		return nil, fmt.Errorf("combatant %q already exists", id)
	}
	c, err := combat.NewFromCatalog(id, owner, ut)
	if err != nil {
		return nil, fmt.Errorf("combatant %q: %w", id, err)
	}
	return c, nil
}

func (r *Runner) apply(e Event) (Outcome, []CombatRecord) {
	out := Outcome{Tick: r.tick, Type: e.Type, Player: e.Player}
	var records []CombatRecord
	o := r.orch

	switch e.Type {
	case EventBuild:
		out.Err = o.BuildingCompleted(e.Player)
		e.Storage.Each(func(k models.ResourceKind, v int) {
			if v > 0 && out.Err == nil {
				out.Err = o.GrowCapacity(e.Player, k, v)
			}
		})
		out.Detail = "storage +" + e.Storage.String()
	case EventDestroy:
		out.Err = o.BuildingDestroyed(e.Player)
	case EventConstruction:
		if e.Active {
			out.Err = o.ConstructionStarted(e.Player)
		} else {
			out.Err = o.ConstructionStopped(e.Player)
		}
	case EventGrow:
		out.Err = o.GrowCapacity(e.Player, e.Kind, e.Amount)
		out.Detail = fmt.Sprintf("%s +%d", e.Kind, e.Amount)
	case EventSpawn:
		out.Err = r.spawn(e)
		out.Detail = string(e.Unit)
	case EventDeath:
		for i := 0; i < max(1, e.Count) && out.Err == nil; i++ {
			out.Err = o.UnitDied(e.Player)
		}
	case EventCapture:
		out.Err = o.Capture(e.Player, e.Source)
		out.Detail = string(e.Source)
	case EventRelease:
		prev, err := o.Release(e.Source)
		out.Err = err
		out.Detail = fmt.Sprintf("%s released by %d", e.Source, prev)
	case EventAssign:
		out.Err = o.AssignWorker(e.Player, e.Worker, e.Source)
		out.Detail = fmt.Sprintf("%s -> %s", e.Worker, e.Source)
	case EventUnassign:
		if !o.UnassignWorker(e.Worker) {
			out.Detail = string(e.Worker) + " was idle"
		}
	case EventSpend:
		out.Err = o.Spend(e.Player, e.Cost)
		out.Detail = e.Cost.String()
	case EventConvert:
		res, err := o.Convert(e.Player, e.From, e.To, e.Amount)
		out.Err = err
		out.Detail = fmt.Sprintf("%s->%s spent %d got %d", e.From, e.To, res.InputSpent, res.Applied)
	case EventOvercharge:
		out.Err = o.Overcharge(e.Player)
	case EventAttack:
		records, out.Err = r.attack(e)
		out.Detail = e.Attacker + " -> " + e.Defender
	case EventHeal:
		c := r.combatants[e.ID]
		if c == nil {
			out.Err = errx.ErrInvalidConfig.WithData("combatant", e.ID)
			break
		}
		out.Detail = fmt.Sprintf("%s healed %d", e.ID, c.Heal(e.Amount))
	}
	return out, records
}

// spawn counts the new entity for its owner, paying its catalog cost when asked.
// A rejected spawn charges nothing and registers nothing.
func (r *Runner) spawn(e Event) error {
	kind := models.UnitEntity
	var def *models.UnitDefinition
	if e.Unit != "" {
		def = models.GetUnitDefinition(e.Unit)
		kind = def.Kind
	}
	var c *combat.Combatant
	if e.ID != "" && def != nil {
		var err error
		if c, err = r.newCombatant(e.ID, e.Player, e.Unit); err != nil {
			return err
		}
	}
	if e.Pay && def != nil {
		if err := r.orch.Spend(e.Player, def.Cost); err != nil {
			return err
		}
	}
	if c != nil {
		r.combatants[e.ID] = c
	}
	n := max(1, e.Count)
	for i := 0; i < n; i++ {
		var err error
		if kind == models.BuildingEntity {
			err = r.orch.BuildingCompleted(e.Player)
		} else {
			err = r.orch.UnitSpawned(e.Player)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) attack(e Event) ([]CombatRecord, error) {
	atk, def := r.combatants[e.Attacker], r.combatants[e.Defender]
	if atk == nil || def == nil {
		return nil, errx.ErrInvalidConfig.
			WithData("attacker", e.Attacker).
			WithData("defender", e.Defender)
	}
	var records []CombatRecord
	for i := 0; i < max(1, e.Repeat); i++ {
		res, err := r.orch.Engage(atk, def)
		if err != nil {
			return records, err
		}
		records = append(records, CombatRecord{
			Tick:     r.tick,
			Attacker: e.Attacker,
			Defender: e.Defender,
			Dealt:    res.Dealt,
			Health:   def.Health(),
			Killed:   res.Killed,
		})
		if !def.Alive() {
			break
		}
	}
	return records, nil
}
