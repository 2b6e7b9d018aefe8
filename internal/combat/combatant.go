package combat

import (
	"sync"

	"github.com/napolitain/aether-sim/internal/errx"
	"github.com/napolitain/aether-sim/internal/models"
)

// Stats are the static properties of a combatant
type Stats struct {
	Name       string
	Kind       models.EntityKind
	MaxHealth  int
	Damage     int
	DamageType models.DamageType
	ArmorType  models.ArmorType
	ArmorValue int
}

// StatsFromDefinition copies the combat part of a catalog entry
func StatsFromDefinition(def *models.UnitDefinition) Stats {
	return Stats{
		Name:       def.Name,
		Kind:       def.Kind,
		MaxHealth:  def.MaxHealth,
		Damage:     def.Damage,
		DamageType: def.DamageType,
		ArmorType:  def.ArmorType,
		ArmorValue: def.ArmorValue,
	}
}

// Attack is what the resolver reads from an attacker
type Attack struct {
	Damage     int
	DamageType models.DamageType
}

// Combatant is the mutable health state of anything that can fight.
// Once health reaches zero the combatant is dead and ignores further damage and heals.
type Combatant struct {
	mu     sync.Mutex
	id     string
	owner  models.PlayerID
	stats  Stats
	health int
	alive  bool
}

// CombatantSnapshot is an immutable copy of a combatant
type CombatantSnapshot struct {
	ID         string
	Owner      models.PlayerID
	Name       string
	Kind       models.EntityKind
	Health     int
	MaxHealth  int
	Alive      bool
	ArmorType  models.ArmorType
	ArmorValue int
}

// New creates a combatant at full health
func New(id string, owner models.PlayerID, stats Stats) (*Combatant, error) {
	if stats.MaxHealth <= 0 {
		return nil, errx.ErrInvalidAmount.WithData("max_health", stats.MaxHealth)
	}
	if stats.Damage <= 0 {
		return nil, errx.ErrInvalidAmount.WithData("damage", stats.Damage)
	}
	if stats.ArmorValue < 0 {
		return nil, errx.ErrInvalidAmount.WithData("armor", stats.ArmorValue)
	}
	if stats.Kind == "" {
		stats.Kind = models.UnitEntity
	}
	return &Combatant{id: id, owner: owner, stats: stats, health: stats.MaxHealth, alive: true}, nil
}

// NewFromCatalog creates a combatant from a unit catalog entry
func NewFromCatalog(id string, owner models.PlayerID, ut models.UnitType) (*Combatant, error) {
	def := models.GetUnitDefinition(ut)
	if def == nil {
		return nil, errx.ErrInvalidConfig.WithData("unit", ut)
	}
	return New(id, owner, StatsFromDefinition(def))
}

// ID returns the combatant id
func (c *Combatant) ID() string { return c.id }

// Owner returns the owning player
func (c *Combatant) Owner() models.PlayerID { return c.owner }

// Kind returns what the combatant is (unit, hero, building)
func (c *Combatant) Kind() models.EntityKind { return c.stats.Kind }

// Stats returns the static properties
func (c *Combatant) Stats() Stats { return c.stats }

// Attack returns the combatant's outgoing attack
func (c *Combatant) Attack() Attack {
	return Attack{Damage: c.stats.Damage, DamageType: c.stats.DamageType}
}

// Health returns current health
func (c *Combatant) Health() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.health
}

// Alive reports whether the combatant still has health
func (c *Combatant) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}

// applyDamage takes health away and reports whether this hit killed
func (c *Combatant) applyDamage(dmg int) (dealt int, killed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.alive {
		return 0, false
	}
	c.health = max(0, c.health-dmg)
	if c.health == 0 {
		c.alive = false
		return dmg, true
	}
	return dmg, false
}

// Heal restores up to amount health, clamped to max. Dead combatants are not healed.
// It returns the health actually restored.
func (c *Combatant) Heal(amount int) int {
	if amount <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.alive {
		return 0
	}
	restored := min(amount, c.stats.MaxHealth-c.health)
	c.health += restored
	return restored
}

// Snapshot returns a copy of the combatant state
func (c *Combatant) Snapshot() CombatantSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CombatantSnapshot{
		ID:         c.id,
		Owner:      c.owner,
		Name:       c.stats.Name,
		Kind:       c.stats.Kind,
		Health:     c.health,
		MaxHealth:  c.stats.MaxHealth,
		Alive:      c.alive,
		ArmorType:  c.stats.ArmorType,
		ArmorValue: c.stats.ArmorValue,
	}
}
