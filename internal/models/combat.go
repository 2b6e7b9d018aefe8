package models

import (
	"fmt"
	"strings"
)

// DamageType is the damage category of an attack
type DamageType string

const (
	Kinetic       DamageType = "kinetic"        // strong vs Light
	AetherDamage  DamageType = "aether"         // strong vs Medium
	ArmorPiercing DamageType = "armor_piercing" // strong vs Heavy
	Siege         DamageType = "siege"          // strong vs Fortified, may hit allies
)

// AllDamageTypes returns all damage types in deterministic order
func AllDamageTypes() []DamageType {
	return []DamageType{Kinetic, AetherDamage, ArmorPiercing, Siege}
}

// ParseDamageType parses a damage type name
func ParseDamageType(s string) (DamageType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kinetic":
		return Kinetic, nil
	case "aether":
		return AetherDamage, nil
	case "armor_piercing", "armorpiercing", "ap":
		return ArmorPiercing, nil
	case "siege":
		return Siege, nil
	}
	return "", fmt.Errorf("unknown damage type %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *DamageType) UnmarshalText(text []byte) error {
	parsed, err := ParseDamageType(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ArmorType is the armor category of a defender
type ArmorType string

const (
	Light     ArmorType = "light"
	Medium    ArmorType = "medium"
	Heavy     ArmorType = "heavy"
	Fortified ArmorType = "fortified"
)

// AllArmorTypes returns all armor types in deterministic order
func AllArmorTypes() []ArmorType {
	return []ArmorType{Light, Medium, Heavy, Fortified}
}

// ParseArmorType parses an armor type name
func ParseArmorType(s string) (ArmorType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light":
		return Light, nil
	case "medium":
		return Medium, nil
	case "heavy":
		return Heavy, nil
	case "fortified":
		return Fortified, nil
	}
	return "", fmt.Errorf("unknown armor type %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *ArmorType) UnmarshalText(text []byte) error {
	parsed, err := ParseArmorType(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// EntityKind tells what a combatant is, which decides the bookkeeping on death
type EntityKind string

const (
	UnitEntity     EntityKind = "unit"
	HeroEntity     EntityKind = "hero"
	BuildingEntity EntityKind = "building"
)
