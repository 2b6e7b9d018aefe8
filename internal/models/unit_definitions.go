package models

// UnitType names an entry of the unit catalog
type UnitType string

const (
	Volt    UnitType = "volt"
	Guard   UnitType = "guard"
	Worker  UnitType = "worker"
	Bombard UnitType = "bombard"
	Bastion UnitType = "bastion"
	Hero    UnitType = "hero"
)

// AllUnitTypes returns all catalog entries in deterministic order
func AllUnitTypes() []UnitType {
	return []UnitType{Volt, Guard, Worker, Bombard, Bastion, Hero}
}

// UnitDefinition contains static combat and cost data for a catalog entry
type UnitDefinition struct {
	Type       UnitType
	Name       string
	Kind       EntityKind
	Cost       Pool
	MaxHealth  int
	Damage     int
	DamageType DamageType
	ArmorType  ArmorType
	ArmorValue int
}

// AllUnitDefinitions returns the definitions for every catalog entry
func AllUnitDefinitions() []*UnitDefinition {
	return []*UnitDefinition{
		{
			Type:       Volt,
			Name:       "Volt",
			Kind:       UnitEntity,
			Cost:       Pool{Crystal: 60, Biomass: 10},
			MaxHealth:  80,
			Damage:     15,
			DamageType: Kinetic,
			ArmorType:  Light,
			ArmorValue: 2,
		},
		{
			Type:       Guard,
			Name:       "Guard",
			Kind:       UnitEntity,
			Cost:       Pool{Crystal: 90, Biomass: 25},
			MaxHealth:  150,
			Damage:     12,
			DamageType: Kinetic,
			ArmorType:  Medium,
			ArmorValue: 8,
		},
		{
			Type:       Worker,
			Name:       "Worker",
			Kind:       UnitEntity,
			Cost:       Pool{Crystal: 50},
			MaxHealth:  250,
			Damage:     5,
			DamageType: Kinetic,
			ArmorType:  Light,
			ArmorValue: 0,
		},
		{
			Type:       Bombard,
			Name:       "Bombard",
			Kind:       UnitEntity,
			Cost:       Pool{Crystal: 150, Biomass: 60, Aether: 10},
			MaxHealth:  120,
			Damage:     40,
			DamageType: Siege,
			ArmorType:  Heavy,
			ArmorValue: 4,
		},
		{
			Type:       Bastion,
			Name:       "Bastion",
			Kind:       BuildingEntity,
			Cost:       Pool{Crystal: 200, Biomass: 100},
			MaxHealth:  1200,
			Damage:     20,
			DamageType: ArmorPiercing,
			ArmorType:  Fortified,
			ArmorValue: 10,
		},
		{
			Type:       Hero,
			Name:       "Hero",
			Kind:       HeroEntity,
			Cost:       Pool{Crystal: 300, Biomass: 100, Aether: 25},
			MaxHealth:  100,
			Damage:     10,
			DamageType: AetherDamage,
			ArmorType:  Medium,
			ArmorValue: 5,
		},
	}
}

// GetUnitDefinition returns the definition for a unit type, nil if unknown
func GetUnitDefinition(ut UnitType) *UnitDefinition {
	for _, def := range AllUnitDefinitions() {
		if def.Type == ut {
			return def
		}
	}
	return nil
}
