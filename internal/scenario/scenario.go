// Package scenario loads scripted matches from JSON and drives an
// orchestrator through them tick by tick.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/napolitain/aether-sim/internal/models"
)

// DefaultTick is the simulated time per tick when a scenario doesn't set one
const DefaultTick = time.Second

// PlayerSetup registers a player at the start of the run
type PlayerSetup struct {
	ID        models.PlayerID `json:"id"`
	Team      int             `json:"team,omitempty"`
	Buildings int             `json:"buildings,omitempty"`
	Units     int             `json:"units,omitempty"`
}

// SourceSetup places a source on the map
type SourceSetup struct {
	ID         models.SourceID     `json:"id"`
	Kind       models.ResourceKind `json:"kind"`
	Remaining  int                 `json:"remaining,omitempty"`
	Infinite   bool                `json:"infinite,omitempty"`
	Yield      int                 `json:"yield,omitempty"` // 0 takes the configured gather rate
	MaxWorkers int                 `json:"max_workers,omitempty"`
	Capturable bool                `json:"capturable,omitempty"`
	Owner      models.PlayerID     `json:"owner,omitempty"`
}

// CombatantSetup declares a named catalog combatant
type CombatantSetup struct {
	ID    string          `json:"id"`
	Owner models.PlayerID `json:"owner"`
	Unit  models.UnitType `json:"unit"`
}

// Scenario is a parsed scenario file
type Scenario struct {
	Name       string           `json:"name"`
	TickMillis int              `json:"tick_ms,omitempty"`
	Ticks      int              `json:"ticks,omitempty"` // 0 runs until the last event
	Players    []PlayerSetup    `json:"players"`
	Sources    []SourceSetup    `json:"sources"`
	Combatants []CombatantSetup `json:"combatants"`
	Events     []Event          `json:"events"`
}

// TickDuration returns the simulated time per tick
func (s *Scenario) TickDuration() time.Duration {
	if s.TickMillis <= 0 {
		return DefaultTick
	}
	return time.Duration(s.TickMillis) * time.Millisecond
}

// Load reads and validates a scenario file
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates scenario JSON
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks references and event types
func (s *Scenario) Validate() error {
	if len(s.Players) == 0 {
		return fmt.Errorf("scenario has no players")
	}
	players := make(map[models.PlayerID]bool, len(s.Players))
	for _, p := range s.Players {
		if p.ID <= 0 {
			return fmt.Errorf("player id must be positive, got %d", p.ID)
		}
		if players[p.ID] {
			return fmt.Errorf("duplicate player %d", p.ID)
		}
		players[p.ID] = true
	}

	sources := make(map[models.SourceID]bool, len(s.Sources))
	for _, src := range s.Sources {
		if sources[src.ID] {
			return fmt.Errorf("duplicate source %q", src.ID)
		}
		sources[src.ID] = true
	}

	combatants := make(map[string]bool, len(s.Combatants))
	for _, c := range s.Combatants {
		if combatants[c.ID] {
			return fmt.Errorf("duplicate combatant %q", c.ID)
		}
		if models.GetUnitDefinition(c.Unit) == nil {
			return fmt.Errorf("combatant %q: unknown unit %q", c.ID, c.Unit)
		}
		combatants[c.ID] = true
	}

	for i, e := range s.Events {
		if !e.Type.Valid() {
			return fmt.Errorf("event %d: unknown type %q", i, e.Type)
		}
		if e.Tick < 0 {
			return fmt.Errorf("event %d: negative tick %d", i, e.Tick)
		}
		if needsPlayer(e.Type) && !players[e.Player] {
			return fmt.Errorf("event %d (%s): unknown player %d", i, e.Type, e.Player)
		}
		if e.Type == EventSpawn && e.Unit != "" && models.GetUnitDefinition(e.Unit) == nil {
			return fmt.Errorf("event %d: unknown unit %q", i, e.Unit)
		}
		if e.Type == EventSpawn && e.Unit != "" && e.ID != "" {
			if combatants[e.ID] {
				return fmt.Errorf("event %d: duplicate combatant %q", i, e.ID)
			}
			combatants[e.ID] = true
		}
	}
	return nil
}

func needsPlayer(et EventType) bool {
	switch et {
	case EventRelease, EventUnassign, EventAttack, EventHeal:
		return false
	}
	return true
}
