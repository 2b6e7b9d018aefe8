package sim

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/napolitain/aether-sim/internal/combat"
	"github.com/napolitain/aether-sim/internal/economy"
	"github.com/napolitain/aether-sim/internal/errx"
	"github.com/napolitain/aether-sim/internal/models"
)

func newTestOrchestrator(t testing.TB, players ...models.PlayerID) *Orchestrator {
	t.Helper()
	o, err := New(DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, p := range players {
		if err := o.AddPlayer(p, 0); err != nil {
			t.Fatalf("AddPlayer(%d): %v", p, err)
		}
		// a building keeps the player out of the stall countdown
		if err := o.BuildingCompleted(p); err != nil {
			t.Fatal(err)
		}
	}
	return o
}

func addSource(t testing.TB, o *Orchestrator, spec economy.SourceSpec) {
	t.Helper()
	if err := o.AddSource(spec); err != nil {
		t.Fatalf("AddSource(%s): %v", spec.ID, err)
	}
}

func amounts(t testing.TB, o *Orchestrator, p models.PlayerID) models.Pool {
	t.Helper()
	l, err := o.Ledger(p)
	if err != nil {
		t.Fatal(err)
	}
	return l.Snapshot().Amounts
}

func TestTickGathersIntoOwnerLedger(t *testing.T) {
	o := newTestOrchestrator(t, 1, 2)
	addSource(t, o, economy.SourceSpec{ID: "c1", Kind: models.Crystal, Remaining: 1000})
	addSource(t, o, economy.SourceSpec{ID: "b1", Kind: models.Biomass, Remaining: 1000})

	for _, a := range []struct {
		p   models.PlayerID
		w   models.WorkerID
		src models.SourceID
	}{
		{1, "p1-w1", "c1"},
		{1, "p1-w2", "c1"},
		{2, "p2-w1", "b1"},
	} {
		if err := o.AssignWorker(a.p, a.w, a.src); err != nil {
			t.Fatalf("AssignWorker(%s): %v", a.w, err)
		}
	}

	report := o.Tick(time.Second)
	if report.Tick != 1 || report.Elapsed != time.Second {
		t.Errorf("report tick/elapsed = %d/%s", report.Tick, report.Elapsed)
	}

	if got := amounts(t, o, 1); got != (models.Pool{Crystal: 520, Biomass: 150}) {
		t.Errorf("player 1 = %s, want C:520 B:150", got)
	}
	if got := amounts(t, o, 2); got != (models.Pool{Crystal: 500, Biomass: 155}) {
		t.Errorf("player 2 = %s, want C:500 B:155", got)
	}
	if report.Players[0].Applied.Crystal != 20 {
		t.Errorf("report applied = %s", report.Players[0].Applied)
	}
}

func TestAssignWorkerMovesAndRespectsSlots(t *testing.T) {
	o := newTestOrchestrator(t, 1)
	addSource(t, o, economy.SourceSpec{ID: "c1", Kind: models.Crystal, Remaining: 1000})
	addSource(t, o, economy.SourceSpec{ID: "c2", Kind: models.Crystal, Remaining: 1000, MaxWorkers: 1})

	if err := o.AssignWorker(1, "w1", "c1"); err != nil {
		t.Fatal(err)
	}
	if err := o.AssignWorker(1, "w2", "c2"); err != nil {
		t.Fatal(err)
	}
	if err := o.AssignWorker(1, "w1", "c2"); !errors.Is(err, errx.ErrSlotFull) {
		t.Fatalf("move into full source = %v, want ErrSlotFull", err)
	}
	c1, _ := o.Source("c1")
	if got := c1.Workers(); len(got) != 1 {
		t.Errorf("failed move should keep w1 at c1, workers = %v", got)
	}

	o.UnassignWorker("w2")
	if err := o.AssignWorker(1, "w1", "c2"); err != nil {
		t.Fatalf("move: %v", err)
	}
	if got := c1.Workers(); len(got) != 0 {
		t.Errorf("w1 should have left c1, workers = %v", got)
	}

	if err := o.AssignWorker(1, "w3", "nowhere"); !errors.Is(err, errx.ErrUnknownSource) {
		t.Errorf("unknown source = %v", err)
	}
	if err := o.AssignWorker(9, "w3", "c1"); !errors.Is(err, errx.ErrUnknownPlayer) {
		t.Errorf("unknown player = %v", err)
	}
}

func TestAssignWorkerKeepsOwner(t *testing.T) {
	o := newTestOrchestrator(t, 1, 2)
	addSource(t, o, economy.SourceSpec{ID: "a", Kind: models.Crystal, Infinite: true})
	addSource(t, o, economy.SourceSpec{ID: "b", Kind: models.Crystal, Infinite: true})

	if err := o.AssignWorker(1, "w1", "a"); err != nil {
		t.Fatal(err)
	}
	for _, src := range []models.SourceID{"a", "b"} {
		if err := o.AssignWorker(2, "w1", src); !errors.Is(err, errx.ErrWorkerNotOwned) {
			t.Errorf("player 2 taking w1 to %s = %v, want ErrWorkerNotOwned", src, err)
		}
	}
	b, _ := o.Source("b")
	if got := b.Workers(); len(got) != 0 {
		t.Errorf("rejected move touched b, workers = %v", got)
	}

	o.Tick(time.Second)
	if p1, p2 := amounts(t, o, 1).Crystal, amounts(t, o, 2).Crystal; p1 != 510 || p2 != 500 {
		t.Errorf("crystal p1=%d p2=%d, want 510 and 500", p1, p2)
	}

	// once released the id is free for anyone
	o.UnassignWorker("w1")
	if err := o.AssignWorker(2, "w1", "b"); err != nil {
		t.Errorf("assign after unassign: %v", err)
	}
}

func TestUpkeepAppliedToGathering(t *testing.T) {
	o := newTestOrchestrator(t, 1)
	addSource(t, o, economy.SourceSpec{ID: "c1", Kind: models.Crystal, Infinite: true})
	if err := o.AssignWorker(1, "w1", "c1"); err != nil {
		t.Fatal(err)
	}
	if err := o.SetUnitCount(1, 41); err != nil {
		t.Fatal(err)
	}

	o.Tick(time.Second)
	if got := amounts(t, o, 1).Crystal; got != 507 {
		t.Errorf("Crystal = %d, want 507 (10 × 0.7)", got)
	}

	for i := 0; i < 30; i++ {
		if err := o.UnitSpawned(1); err != nil {
			t.Fatal(err)
		}
	}
	o.Tick(time.Second)
	if got := amounts(t, o, 1).Crystal; got != 511 {
		t.Errorf("Crystal = %d, want 511 (10 × 0.4)", got)
	}
}

func TestCapturableSourceOnlyFeedsOwner(t *testing.T) {
	o := newTestOrchestrator(t, 1, 2)
	addSource(t, o, economy.SourceSpec{ID: "well", Kind: models.Aether, Infinite: true, Capturable: true})
	addSource(t, o, economy.SourceSpec{ID: "c1", Kind: models.Crystal, Remaining: 100})

	if err := o.Capture(1, "c1"); !errors.Is(err, errx.ErrNotCapturable) {
		t.Errorf("Capture(c1) = %v, want ErrNotCapturable", err)
	}

	_ = o.AssignWorker(1, "a", "well")
	_ = o.AssignWorker(2, "b", "well")

	o.Tick(time.Second)
	if amounts(t, o, 1).Aether != 0 || amounts(t, o, 2).Aether != 0 {
		t.Fatal("unclaimed well should not yield")
	}

	if err := o.Capture(1, "well"); err != nil {
		t.Fatal(err)
	}
	o.Tick(time.Second)
	if got := amounts(t, o, 1).Aether; got != 3 {
		t.Errorf("owner Aether = %d, want 3", got)
	}
	if got := amounts(t, o, 2).Aether; got != 0 {
		t.Errorf("non-owner Aether = %d, want 0", got)
	}

	if err := o.Capture(2, "well"); err != nil {
		t.Fatal(err)
	}
	o.Tick(time.Second)
	if got := amounts(t, o, 2).Aether; got != 3 {
		t.Errorf("new owner Aether = %d, want 3", got)
	}
}

func TestStallStateMachine(t *testing.T) {
	o, err := New(DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if err := o.AddPlayer(1, 0); err != nil {
		t.Fatal(err)
	}

	// no buildings: 29 one-second ticks stay in warning
	for i := 0; i < 29; i++ {
		o.Tick(time.Second)
	}
	state, timer, _ := o.StallStatus(1)
	if state != StallWarning || timer != 29*time.Second {
		t.Fatalf("after 29s: %s %s, want stall_warning 29s", state, timer)
	}

	// a building appears before the threshold
	if err := o.BuildingCompleted(1); err != nil {
		t.Fatal(err)
	}
	o.Tick(time.Second)
	state, timer, _ = o.StallStatus(1)
	if state != Normal || timer != 0 {
		t.Fatalf("after building: %s %s, want normal 0s", state, timer)
	}

	if err := o.BuildingDestroyed(1); err != nil {
		t.Fatal(err)
	}
	var eliminatedAt int
	for i := 1; i <= 40 && eliminatedAt == 0; i++ {
		r := o.Tick(time.Second)
		if len(r.Eliminated) == 1 {
			eliminatedAt = i
		}
	}
	if eliminatedAt != 30 {
		t.Errorf("eliminated after %d ticks, want 30", eliminatedAt)
	}

	// terminal
	_ = o.BuildingCompleted(1)
	o.Tick(time.Second)
	if state, _, _ := o.StallStatus(1); state != Eliminated {
		t.Errorf("state = %s, want eliminated to be terminal", state)
	}
}

type fakeTracker map[models.PlayerID]bool

func (f fakeTracker) HasActiveConstruction(p models.PlayerID) bool { return f[p] }

func TestConstructionPreventsStall(t *testing.T) {
	tracker := fakeTracker{1: true}
	o, err := New(DefaultOptions(), WithConstructionTracker(tracker))
	if err != nil {
		t.Fatal(err)
	}
	_ = o.AddPlayer(1, 0)
	_ = o.AddPlayer(2, 0)
	_ = o.ConstructionStarted(2)

	for i := 0; i < 60; i++ {
		o.Tick(time.Second)
	}
	for _, p := range []models.PlayerID{1, 2} {
		if state, _, _ := o.StallStatus(p); state != Normal {
			t.Errorf("player %d: %s, want normal", p, state)
		}
	}

	_ = o.ConstructionStopped(2)
	o.Tick(time.Second)
	if state, _, _ := o.StallStatus(2); state != StallWarning {
		t.Errorf("player 2 after construction stopped: %s", state)
	}
}

func TestEliminatedPlayerIsFrozen(t *testing.T) {
	opts := DefaultOptions()
	opts.GracePeriod = 2 * time.Second
	o, _ := New(opts)
	_ = o.AddPlayer(1, 0)
	_ = o.AddPlayer(2, 0)
	_ = o.BuildingCompleted(2)
	addSource(t, o, economy.SourceSpec{ID: "c1", Kind: models.Crystal, Infinite: true})
	_ = o.AssignWorker(1, "w1", "c1")

	o.Tick(time.Second)
	r := o.Tick(time.Second)
	if len(r.Eliminated) != 1 || r.Eliminated[0] != 1 {
		t.Fatalf("eliminated = %v, want [1]", r.Eliminated)
	}
	before := amounts(t, o, 1)
	o.Tick(time.Second)
	if got := amounts(t, o, 1); got != before {
		t.Errorf("eliminated player credited: %s -> %s", before, got)
	}
	c1, _ := o.Source("c1")
	if len(c1.Workers()) != 0 {
		t.Error("eliminated player's workers should be unassigned")
	}

	if err := o.Spend(1, models.Pool{Crystal: 1}); !errors.Is(err, errx.ErrEliminated) {
		t.Errorf("Spend = %v, want ErrEliminated", err)
	}
	if err := o.AssignWorker(1, "w1", "c1"); !errors.Is(err, errx.ErrEliminated) {
		t.Errorf("AssignWorker = %v, want ErrEliminated", err)
	}

	a, _ := combat.NewFromCatalog("a", 2, models.Volt)
	d, _ := combat.NewFromCatalog("d", 1, models.Volt)
	if _, err := o.Engage(a, d); !errors.Is(err, errx.ErrEliminated) {
		t.Errorf("Engage = %v, want ErrEliminated", err)
	}
	if d.Health() != 80 {
		t.Errorf("defender took damage after elimination")
	}
}

func TestCheckEconomicVictory(t *testing.T) {
	opts := DefaultOptions()
	opts.Starting = models.Pool{Crystal: 10000, Biomass: 5000, Aether: 499}
	o, _ := New(opts)
	_ = o.AddPlayer(1, 0)

	if o.CheckEconomicVictory(1) {
		t.Error("Aether 499 should not win")
	}
	l, _ := o.Ledger(1)
	l.Credit(models.Aether, 1)
	if !o.CheckEconomicVictory(1) {
		t.Error("all thresholds met should win")
	}
	if o.CheckEconomicVictory(7) {
		t.Error("unknown player should not win")
	}
	if !o.Snapshot().Players[0].EconomicVictory {
		t.Error("snapshot should report victory")
	}
}

func TestEngageFriendlyFire(t *testing.T) {
	tests := []struct {
		name         string
		friendlyFire bool
		attacker     models.UnitType
		wantErr      bool
	}{
		{"kinetic blocked", false, models.Volt, true},
		{"siege blocked when disabled", false, models.Bombard, true},
		{"kinetic blocked when enabled", true, models.Volt, true},
		{"siege allowed when enabled", true, models.Bombard, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.FriendlyFire = tt.friendlyFire
			o, _ := New(opts)
			_ = o.AddPlayer(1, 7)
			_ = o.AddPlayer(2, 7)

			atk, _ := combat.NewFromCatalog("atk", 1, tt.attacker)
			wall, _ := combat.NewFromCatalog("wall", 2, models.Bastion)
			_, err := o.Engage(atk, wall)
			if tt.wantErr != errors.Is(err, errx.ErrFriendlyFire) {
				t.Errorf("Engage = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEngageKillBookkeeping(t *testing.T) {
	o := newTestOrchestrator(t, 1, 2)
	_ = o.SetUnitCount(2, 41)
	l2, _ := o.Ledger(2)
	if !l2.Upkeep().Equal(decimal.RequireFromString("0.7")) {
		t.Fatalf("upkeep = %s, want 0.7", l2.Upkeep())
	}

	bombard, _ := combat.NewFromCatalog("b", 1, models.Bombard)
	volt, _ := combat.NewFromCatalog("v", 2, models.Volt)
	var kills int
	for volt.Alive() {
		out, err := o.Engage(bombard, volt) // 40 − 2 per hit
		if err != nil {
			t.Fatal(err)
		}
		if out.Killed {
			kills++
		}
	}
	if kills != 1 {
		t.Fatalf("kills = %d, want 1", kills)
	}
	if !l2.Upkeep().Equal(decimal.NewFromInt(1)) {
		t.Errorf("upkeep after kill = %s, want 1", l2.Upkeep())
	}

	bastion, _ := combat.NewFromCatalog("keep", 2, models.Bastion)
	for bastion.Alive() {
		if _, err := o.Engage(bombard, bastion); err != nil {
			t.Fatal(err)
		}
	}
	if got := o.Snapshot().Players[1].Buildings; got != 0 {
		t.Errorf("buildings = %d, want 0 after bastion destroyed", got)
	}

	out, err := o.Engage(bombard, bastion)
	if err != nil || out.Dealt != 0 {
		t.Errorf("attack on dead building = %+v, %v", out, err)
	}
}

func TestOvercharge(t *testing.T) {
	opts := DefaultOptions()
	opts.Starting = models.Pool{Aether: 120}
	o, _ := New(opts)
	_ = o.AddPlayer(1, 0)
	_ = o.BuildingCompleted(1)
	addSource(t, o, economy.SourceSpec{ID: "c1", Kind: models.Crystal, Infinite: true})
	_ = o.AssignWorker(1, "w1", "c1")

	if err := o.Overcharge(1); err != nil {
		t.Fatalf("Overcharge: %v", err)
	}
	if got := amounts(t, o, 1).Aether; got != 70 {
		t.Errorf("Aether = %d, want 70", got)
	}
	r := o.Tick(time.Second)
	if got := r.Players[0].Gathered.Crystal; got != 15 {
		t.Errorf("overcharged gather = %d, want 15", got)
	}
	if err := o.Overcharge(1); !errors.Is(err, errx.ErrOverchargeCooldown) {
		t.Errorf("second activation = %v, want ErrOverchargeCooldown", err)
	}

	for i := 0; i < 9; i++ {
		o.Tick(time.Second)
	}
	r = o.Tick(time.Second)
	if got := r.Players[0].Gathered.Crystal; got != 10 {
		t.Errorf("gather after boost expired = %d, want 10", got)
	}

	for i := 0; i < 49; i++ {
		o.Tick(time.Second)
	}
	if err := o.Overcharge(1); err != nil {
		t.Errorf("after cooldown: %v", err)
	}
	if err := o.Overcharge(1); !errors.Is(err, errx.ErrOverchargeCooldown) {
		t.Errorf("got %v, want ErrOverchargeCooldown", err)
	}
}

func TestStandings(t *testing.T) {
	o := newTestOrchestrator(t, 1, 2, 3)
	l2, _ := o.Ledger(2)
	l2.Credit(models.Crystal, 100)
	l3, _ := o.Ledger(3)
	l3.Credit(models.Crystal, 100)

	got := o.Snapshot().Standings()
	want := []models.PlayerID{2, 3, 1}
	for i, p := range got {
		if p.ID != want[i] {
			t.Fatalf("standings = %v, want %v", ids(got), want)
		}
	}
}

func ids(ps []PlayerSnapshot) []models.PlayerID {
	out := make([]models.PlayerID, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestOptionsValidate(t *testing.T) {
	mutations := map[string]func(*Options){
		"ratio":    func(o *Options) { o.ConversionRatio = 0 },
		"workers":  func(o *Options) { o.MaxWorkers = 0 },
		"grace":    func(o *Options) { o.GracePeriod = 0 },
		"capacity": func(o *Options) { o.Capacity.Aether = 0 },
		"rate":     func(o *Options) { o.GatherRate.Biomass = -1 },
		"starting": func(o *Options) { o.Starting.Crystal = -5 },
		"boost":    func(o *Options) { o.Overcharge.Multiplier = decimal.Zero },
	}
	for name, mutate := range mutations {
		opts := DefaultOptions()
		mutate(&opts)
		if _, err := New(opts); !errors.Is(err, errx.ErrInvalidConfig) {
			t.Errorf("%s: got %v, want ErrInvalidConfig", name, err)
		}
	}
}

func BenchmarkTick(b *testing.B) {
	o := newTestOrchestrator(b, 1, 2, 3, 4)
	kinds := models.AllResourceKinds()
	for i := 0; i < 24; i++ {
		id := models.SourceID("s" + string(rune('a'+i)))
		addSource(b, o, economy.SourceSpec{ID: id, Kind: kinds[i%3], Infinite: true})
		for j := 0; j < 3; j++ {
			w := models.WorkerID(string(id) + "-" + string(rune('0'+j)))
			_ = o.AssignWorker(models.PlayerID(i%4+1), w, id)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		o.Tick(100 * time.Millisecond)
	}
}
