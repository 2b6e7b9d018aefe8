package scenario

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/napolitain/aether-sim/internal/errx"
	"github.com/napolitain/aether-sim/internal/models"
	"github.com/napolitain/aether-sim/internal/sim"
)

const skirmishPath = "../../scenarios/skirmish.json"

func loadSkirmish(t testing.TB) *Scenario {
	t.Helper()
	sc, err := Load(skirmishPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return sc
}

func newRunner(t testing.TB, sc *Scenario) *Runner {
	t.Helper()
	r, err := NewRunner(sc, sim.DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return r
}

func TestEventQueueOrdering(t *testing.T) {
	q := NewEventQueue()
	q.Push(Event{Tick: 2, Type: EventAttack, Attacker: "late"})
	q.Push(Event{Tick: 1, Type: EventSpend, Player: 1})
	q.Push(Event{Tick: 1, Type: EventBuild, Player: 1})
	q.Push(Event{Tick: 1, Type: EventAssign, Worker: "a"})
	q.Push(Event{Tick: 1, Type: EventAssign, Worker: "b"})

	if q.LastTick() != 2 {
		t.Errorf("LastTick = %d, want 2", q.LastTick())
	}

	due := q.PopDue(1)
	var got []string
	for _, e := range due {
		got = append(got, string(e.Type)+string(e.Worker))
	}
	want := "build,assigna,assignb,spend"
	if strings.Join(got, ",") != want {
		t.Errorf("order = %v, want %s", got, want)
	}
	if q.Len() != 1 {
		t.Errorf("Len = %d, want 1", q.Len())
	}
	if len(q.PopDue(1)) != 0 {
		t.Error("tick 2 event popped at tick 1")
	}
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{"no players", `{"players":[]}`, "no players"},
		{"duplicate player", `{"players":[{"id":1},{"id":1}]}`, "duplicate player"},
		{"bad kind", `{"players":[{"id":1}],"sources":[{"id":"s","kind":"gold"}]}`, "unknown resource kind"},
		{"unknown event", `{"players":[{"id":1}],"events":[{"tick":1,"type":"dance","player":1}]}`, "unknown type"},
		{"unknown player", `{"players":[{"id":1}],"events":[{"tick":1,"type":"spend","player":2}]}`, "unknown player"},
		{"unknown unit", `{"players":[{"id":1}],"combatants":[{"id":"x","owner":1,"unit":"dragon"}]}`, "unknown unit"},
		{"spawn reuses combatant id", `{"players":[{"id":1}],"combatants":[{"id":"v1","owner":1,"unit":"volt"}],"events":[{"tick":1,"type":"spawn","player":1,"unit":"volt","id":"v1"}]}`, "duplicate combatant"},
		{"spawns share an id", `{"players":[{"id":1}],"events":[{"tick":1,"type":"spawn","player":1,"unit":"volt","id":"v"},{"tick":2,"type":"spawn","player":1,"unit":"guard","id":"v"}]}`, "duplicate combatant"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.json))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestSkirmishRun(t *testing.T) {
	sc := loadSkirmish(t)
	r := newRunner(t, sc)
	rep := r.Run(0)

	if rep.Ticks != sc.Ticks {
		t.Errorf("ran %d ticks, want %d", rep.Ticks, sc.Ticks)
	}
	if len(rep.Outcomes) != len(sc.Events) {
		t.Errorf("outcomes = %d, want one per event (%d)", len(rep.Outcomes), len(sc.Events))
	}

	var spendErr error
	for _, o := range rep.Outcomes {
		if o.Type == EventSpend {
			spendErr = o.Err
		}
	}
	if !errors.Is(spendErr, errx.ErrInsufficientResources) {
		t.Errorf("oversized spend = %v, want ErrInsufficientResources", spendErr)
	}

	if c := r.Combatant("p2-bastion"); c.Alive() {
		t.Errorf("bastion should fall to the bombard, health %d", c.Health())
	}
	if got := rep.Final.Players[1].Buildings; got != 1 {
		t.Errorf("player 2 buildings = %d, want 1 after bastion destroyed", got)
	}
	if got := rep.Final.Players[0].Ledger.Capacities.Aether; got != 1500 {
		t.Errorf("player 1 aether capacity = %d, want 1500", got)
	}

	well := rep.Final.Sources[4]
	if well.Owner != 2 {
		t.Errorf("well owner = %d, want 2", well.Owner)
	}
	for _, p := range rep.Final.Players {
		if err := ledgerInvariant(p); err != nil {
			t.Error(err)
		}
	}
}

func ledgerInvariant(p sim.PlayerSnapshot) error {
	var err error
	p.Ledger.Amounts.Each(func(k models.ResourceKind, v int) {
		if v < 0 || v > p.Ledger.Capacities.Get(k) {
			err = fmt.Errorf("player %d: %s=%d outside [0,%d]", p.ID, k, v, p.Ledger.Capacities.Get(k))
		}
	})
	return err
}

func TestStallEliminationInScenario(t *testing.T) {
	sc, err := Parse([]byte(`{
		"name": "stall",
		"ticks": 40,
		"players": [{"id": 1, "buildings": 1}, {"id": 2}],
		"sources": [{"id": "c", "kind": "crystal", "infinite": true}],
		"events": [
			{"tick": 1, "type": "assign", "player": 2, "worker": "w", "source": "c"},
			{"tick": 35, "type": "build", "player": 2}
		]
	}`))
	if err != nil {
		t.Fatal(err)
	}
	rep := newRunner(t, sc).Run(0)

	p2 := rep.Final.Players[1]
	if p2.Stall != sim.Eliminated {
		t.Fatalf("player 2 state = %s, want eliminated", p2.Stall)
	}
	// credited for 30 ticks before elimination, nothing after
	if p2.Ledger.Amounts.Crystal != 500+30*10 {
		t.Errorf("player 2 crystal = %d, want %d", p2.Ledger.Amounts.Crystal, 800)
	}
	var buildErr error
	for _, o := range rep.Outcomes {
		if o.Type == EventBuild {
			buildErr = o.Err
		}
	}
	// building counts are bookkeeping only; an eliminated player stays eliminated
	if buildErr != nil {
		t.Errorf("build after elimination = %v", buildErr)
	}
	if rep.Final.Players[0].Stall != sim.Normal {
		t.Errorf("player 1 state = %s", rep.Final.Players[0].Stall)
	}
	if got := rep.Final.Standings()[0].ID; got != 1 {
		t.Errorf("leader = %d, eliminated players should rank last", got)
	}
}

func TestRejectedSpawnChargesNothing(t *testing.T) {
	// built directly so the runner sees what Validate would refuse
	sc := &Scenario{
		Name:       "spawn",
		Ticks:      1,
		Players:    []PlayerSetup{{ID: 1, Buildings: 1}},
		Combatants: []CombatantSetup{{ID: "v1", Owner: 1, Unit: models.Volt}},
		Events: []Event{
			{Tick: 1, Type: EventSpawn, Player: 1, Unit: models.Volt, ID: "v1", Pay: true},
			{Tick: 1, Type: EventSpawn, Player: 1, Unit: models.Hero, ID: "h1", Pay: true},
			{Tick: 1, Type: EventSpawn, Player: 1, Unit: models.Guard, ID: "g1", Pay: true},
		},
	}
	r := newRunner(t, sc)
	rep := r.Run(0)

	if len(rep.Outcomes) != 3 {
		t.Fatalf("outcomes = %d, want 3", len(rep.Outcomes))
	}
	if rep.Outcomes[0].Err == nil {
		t.Error("spawn over an existing combatant id should fail")
	}
	if !errors.Is(rep.Outcomes[1].Err, errx.ErrInsufficientResources) {
		t.Errorf("unaffordable hero = %v, want ErrInsufficientResources", rep.Outcomes[1].Err)
	}
	if r.Combatant("h1") != nil {
		t.Error("unpaid hero was registered")
	}
	if rep.Outcomes[2].Err != nil || r.Combatant("g1") == nil {
		t.Errorf("guard spawn = %v", rep.Outcomes[2].Err)
	}

	p := rep.Final.Players[0]
	// only the guard is paid for, and nothing is gathered
	if p.Ledger.Amounts.Crystal != 410 || p.Ledger.Amounts.Biomass != 125 {
		t.Errorf("ledger = %s, want only the guard's cost charged", p.Ledger.Amounts)
	}
	if p.Units != 1 {
		t.Errorf("units = %d, want 1", p.Units)
	}
}

// TestRunDeterminism runs the same scenario repeatedly and requires identical results
func TestRunDeterminism(t *testing.T) {
	sc := loadSkirmish(t)
	baseline := render(newRunner(t, sc).Run(0))

	for i := 0; i < 20; i++ {
		if got := render(newRunner(t, sc).Run(0)); got != baseline {
			t.Fatalf("run %d differs from baseline", i)
		}
	}
}

func render(rep Report) string {
	var b strings.Builder
	for _, o := range rep.Outcomes {
		fmt.Fprintf(&b, "%d %s %d %s %v\n", o.Tick, o.Type, o.Player, o.Detail, o.Err)
	}
	for _, c := range rep.Combat {
		fmt.Fprintf(&b, "%+v\n", c)
	}
	fmt.Fprintf(&b, "%v\n", rep.Final)
	return b.String()
}

func BenchmarkSkirmish(b *testing.B) {
	sc := loadSkirmish(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r := newRunner(b, sc)
		r.Run(0)
	}
}
