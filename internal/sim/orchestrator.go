// Package sim ties gatherers, sources and ledgers together once per tick,
// runs each player's anti-stall countdown and gates combat between players.
package sim

import (
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/napolitain/aether-sim/internal/combat"
	"github.com/napolitain/aether-sim/internal/economy"
	"github.com/napolitain/aether-sim/internal/errx"
	"github.com/napolitain/aether-sim/internal/models"
)

// ConstructionTracker reports whether a player has construction underway.
// It is owned by the building system; the orchestrator only queries it.
type ConstructionTracker interface {
	HasActiveConstruction(p models.PlayerID) bool
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithLogger sets the logger; the default discards everything
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithConstructionTracker plugs in an external construction predicate.
// It is combined with the orchestrator's own construction counter.
func WithConstructionTracker(t ConstructionTracker) Option {
	return func(o *Orchestrator) { o.tracker = t }
}

type player struct {
	id            models.PlayerID
	team          int
	ledger        *economy.Ledger
	units         int
	buildings     int
	constructions int
	stall         stallMachine

	overchargeLeft time.Duration
	cooldownLeft   time.Duration
}

type assignment struct {
	player models.PlayerID
	source models.SourceID
}

// Orchestrator owns the players' ledgers and the map's sources
type Orchestrator struct {
	mu       sync.Mutex
	opts     Options
	logger   *zap.Logger
	tracker  ConstructionTracker
	resolver *combat.Resolver

	players     map[models.PlayerID]*player
	playerOrder []models.PlayerID // ascending
	sources     map[models.SourceID]*economy.Source
	sourceOrder []models.SourceID // registration order
	workers     map[models.WorkerID]assignment

	tick    int
	elapsed time.Duration
}

// New creates an orchestrator from validated options
func New(opts Options, options ...Option) (*Orchestrator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	o := &Orchestrator{
		opts:     opts,
		logger:   zap.NewNop(),
		resolver: combat.NewResolver(opts.Multipliers),
		players:  make(map[models.PlayerID]*player),
		sources:  make(map[models.SourceID]*economy.Source),
		workers:  make(map[models.WorkerID]assignment),
	}
	for _, opt := range options {
		opt(o)
	}
	return o, nil
}

// Options returns the constants the orchestrator was built with
func (o *Orchestrator) Options() Options { return o.opts }

// Resolver returns the combat resolver used by Engage
func (o *Orchestrator) Resolver() *combat.Resolver { return o.resolver }

// AddPlayer registers a player with a fresh ledger. team 0 puts the player on its own team.
func (o *Orchestrator) AddPlayer(id models.PlayerID, team int) error {
	if id <= 0 {
		return errx.ErrUnknownPlayer.WithData("player", id)
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.players[id]; ok {
		return errx.ErrInvalidConfig.WithData("player", id).WithData("reason", "already registered")
	}
	ledger, err := economy.NewLedger(o.opts.Starting, o.opts.Capacity)
	if err != nil {
		return err
	}
	if team == 0 {
		team = int(id)
	}
	o.players[id] = &player{id: id, team: team, ledger: ledger}
	o.playerOrder = append(o.playerOrder, id)
	slices.Sort(o.playerOrder)
	o.logger.Debug("player registered", zap.Int("player", int(id)), zap.Int("team", team))
	return nil
}

// Players returns registered player ids in ascending order
func (o *Orchestrator) Players() []models.PlayerID {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.playerOrder)
}

// Ledger returns a player's ledger
func (o *Orchestrator) Ledger(id models.PlayerID) (*economy.Ledger, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, err := o.player(id)
	if err != nil {
		return nil, err
	}
	return p.ledger, nil
}

func (o *Orchestrator) player(id models.PlayerID) (*player, error) {
	p, ok := o.players[id]
	if !ok {
		return nil, errx.ErrUnknownPlayer.WithData("player", id)
	}
	return p, nil
}

func (o *Orchestrator) livePlayer(id models.PlayerID) (*player, error) {
	p, err := o.player(id)
	if err != nil {
		return nil, err
	}
	if p.stall.state == Eliminated {
		return nil, errx.ErrEliminated.WithData("player", id)
	}
	return p, nil
}

// AddSource registers a source. A zero yield takes the configured gather rate
// for the kind, and zero slots take the configured worker limit.
func (o *Orchestrator) AddSource(spec economy.SourceSpec) error {
	if spec.YieldPerTick == 0 {
		spec.YieldPerTick = o.opts.GatherRate.Get(spec.Kind)
	}
	if spec.MaxWorkers == 0 {
		spec.MaxWorkers = o.opts.MaxWorkers
	}
	src, err := economy.NewSource(spec)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.sources[spec.ID]; ok {
		return errx.ErrInvalidConfig.WithData("source", spec.ID).WithData("reason", "already registered")
	}
	if spec.Owner != 0 {
		if _, err := o.player(spec.Owner); err != nil {
			return err
		}
	}
	o.sources[spec.ID] = src
	o.sourceOrder = append(o.sourceOrder, spec.ID)
	return nil
}

// Source returns a registered source
func (o *Orchestrator) Source(id models.SourceID) (*economy.Source, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.source(id)
}

func (o *Orchestrator) source(id models.SourceID) (*economy.Source, error) {
	s, ok := o.sources[id]
	if !ok {
		return nil, errx.ErrUnknownSource.WithData("source", id)
	}
	return s, nil
}

// AssignWorker sends a player's worker to a source. A worker already gathering
// elsewhere moves only once the new slot is secured. A worker assigned by
// another player cannot be reassigned until it is unassigned.
func (o *Orchestrator) AssignWorker(p models.PlayerID, w models.WorkerID, src models.SourceID) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, err := o.livePlayer(p); err != nil {
		return err
	}
	target, err := o.source(src)
	if err != nil {
		return err
	}
	prev, had := o.workers[w]
	if had && prev.player != p {
		return errx.ErrWorkerNotOwned.
			WithData("worker", w).
			WithData("owner", prev.player)
	}
	if had && prev.source == src {
		return nil
	}
	if err := target.AssignWorker(w); err != nil {
		return err
	}
	if had {
		o.sources[prev.source].RemoveWorker(w)
	}
	o.workers[w] = assignment{player: p, source: src}
	return nil
}

// UnassignWorker stops a worker gathering; it reports whether it was assigned
func (o *Orchestrator) UnassignWorker(w models.WorkerID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.unassign(w)
}

func (o *Orchestrator) unassign(w models.WorkerID) bool {
	a, ok := o.workers[w]
	if !ok {
		return false
	}
	o.sources[a.source].RemoveWorker(w)
	delete(o.workers, w)
	return true
}

// Capture claims a capturable source for p
func (o *Orchestrator) Capture(p models.PlayerID, src models.SourceID) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, err := o.livePlayer(p); err != nil {
		return err
	}
	s, err := o.source(src)
	if err != nil {
		return err
	}
	prev, err := s.Capture(p)
	if err != nil {
		return err
	}
	o.logger.Info("source captured",
		zap.String("source", string(src)),
		zap.Int("player", int(p)),
		zap.Int("previous", int(prev)))
	return nil
}

// Release clears a source's claim and returns the previous owner
func (o *Orchestrator) Release(src models.SourceID) (models.PlayerID, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, err := o.source(src)
	if err != nil {
		return 0, err
	}
	return s.Release(), nil
}

// UnitSpawned counts a new unit for p and recomputes upkeep
func (o *Orchestrator) UnitSpawned(p models.PlayerID) error {
	return o.adjustUnits(p, 1)
}

// UnitDied removes a unit from p's count and recomputes upkeep
func (o *Orchestrator) UnitDied(p models.PlayerID) error {
	return o.adjustUnits(p, -1)
}

// SetUnitCount replaces p's unit count and recomputes upkeep
func (o *Orchestrator) SetUnitCount(p models.PlayerID, n int) error {
	if n < 0 {
		return errx.ErrInvalidAmount.WithData("units", n)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	pl, err := o.player(p)
	if err != nil {
		return err
	}
	pl.units = n
	return o.recomputeUpkeep(pl)
}

func (o *Orchestrator) adjustUnits(p models.PlayerID, delta int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	pl, err := o.player(p)
	if err != nil {
		return err
	}
	pl.units = max(0, pl.units+delta)
	return o.recomputeUpkeep(pl)
}

func (o *Orchestrator) recomputeUpkeep(pl *player) error {
	m := o.opts.Upkeep.Multiplier(pl.units)
	if pl.ledger.Upkeep().Equal(m) {
		return nil
	}
	if err := pl.ledger.SetUpkeep(m); err != nil {
		return err
	}
	o.logger.Debug("upkeep changed",
		zap.Int("player", int(pl.id)),
		zap.Int("units", pl.units),
		zap.String("multiplier", m.String()))
	return nil
}

// BuildingCompleted counts a finished building for p
func (o *Orchestrator) BuildingCompleted(p models.PlayerID) error {
	return o.adjustBuildings(p, 1)
}

// BuildingDestroyed removes a building from p's count
func (o *Orchestrator) BuildingDestroyed(p models.PlayerID) error {
	return o.adjustBuildings(p, -1)
}

func (o *Orchestrator) adjustBuildings(p models.PlayerID, delta int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	pl, err := o.player(p)
	if err != nil {
		return err
	}
	pl.buildings = max(0, pl.buildings+delta)
	return nil
}

// ConstructionStarted marks one more construction underway for p
func (o *Orchestrator) ConstructionStarted(p models.PlayerID) error {
	return o.adjustConstructions(p, 1)
}

// ConstructionStopped marks a construction as finished or cancelled
func (o *Orchestrator) ConstructionStopped(p models.PlayerID) error {
	return o.adjustConstructions(p, -1)
}

func (o *Orchestrator) adjustConstructions(p models.PlayerID, delta int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	pl, err := o.player(p)
	if err != nil {
		return err
	}
	pl.constructions = max(0, pl.constructions+delta)
	return nil
}

func (o *Orchestrator) hasConstruction(pl *player) bool {
	if pl.constructions > 0 {
		return true
	}
	return o.tracker != nil && o.tracker.HasActiveConstruction(pl.id)
}

// Spend debits cost from a live player's ledger
func (o *Orchestrator) Spend(p models.PlayerID, cost models.Pool) error {
	o.mu.Lock()
	pl, err := o.livePlayer(p)
	o.mu.Unlock()
	if err != nil {
		return err
	}
	return pl.ledger.Spend(cost)
}

// Convert produces output units of to from the tier below at the configured ratio
func (o *Orchestrator) Convert(p models.PlayerID, from, to models.ResourceKind, output int) (economy.ConvertResult, error) {
	o.mu.Lock()
	pl, err := o.livePlayer(p)
	o.mu.Unlock()
	if err != nil {
		return economy.ConvertResult{}, err
	}
	return pl.ledger.Convert(from, to, output, o.opts.ConversionRatio)
}

// GrowCapacity raises one of a player's storage caps
func (o *Orchestrator) GrowCapacity(p models.PlayerID, kind models.ResourceKind, delta int) error {
	o.mu.Lock()
	pl, err := o.livePlayer(p)
	o.mu.Unlock()
	if err != nil {
		return err
	}
	return pl.ledger.GrowCapacity(kind, delta)
}

// Overcharge spends Aether to boost p's gathering for the configured duration
func (o *Orchestrator) Overcharge(p models.PlayerID) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	pl, err := o.livePlayer(p)
	if err != nil {
		return err
	}
	if pl.cooldownLeft > 0 {
		return errx.ErrOverchargeCooldown.WithData("remaining", pl.cooldownLeft.String())
	}
	oc := o.opts.Overcharge
	if oc.Cost > 0 {
		if err := pl.ledger.Spend(models.Pool{Aether: oc.Cost}); err != nil {
			return err
		}
	}
	pl.overchargeLeft = oc.Duration
	pl.cooldownLeft = oc.Cooldown
	o.logger.Info("overcharge activated",
		zap.Int("player", int(p)),
		zap.Duration("duration", oc.Duration),
		zap.String("multiplier", oc.Multiplier.String()))
	return nil
}
