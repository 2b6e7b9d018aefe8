// Package config loads simulation constants from a config file and the
// environment, and turns them into sim.Options.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/napolitain/aether-sim/internal/combat"
	"github.com/napolitain/aether-sim/internal/economy"
	"github.com/napolitain/aether-sim/internal/errx"
	"github.com/napolitain/aether-sim/internal/models"
	"github.com/napolitain/aether-sim/internal/sim"
)

// EnvPrefix prefixes every environment override, e.g. AETHER_STALL_GRACE_PERIOD
const EnvPrefix = "AETHER"

// PoolConfig is one integer per resource kind
type PoolConfig struct {
	Crystal int `mapstructure:"crystal"`
	Biomass int `mapstructure:"biomass"`
	Aether  int `mapstructure:"aether"`
}

// Pool converts to the model type
func (p PoolConfig) Pool() models.Pool {
	return models.Pool{Crystal: p.Crystal, Biomass: p.Biomass, Aether: p.Aether}
}

func poolConfig(p models.Pool) PoolConfig {
	return PoolConfig{Crystal: p.Crystal, Biomass: p.Biomass, Aether: p.Aether}
}

// EconomyConfig holds the ledger and source constants
type EconomyConfig struct {
	Starting        PoolConfig `mapstructure:"starting"`
	Capacity        PoolConfig `mapstructure:"capacity"`
	GatherRate      PoolConfig `mapstructure:"gather_rate"`
	ConversionRatio int        `mapstructure:"conversion_ratio"`
	MaxWorkers      int        `mapstructure:"max_workers"`
}

// BandConfig is one upkeep band; max_units -1 marks the open-ended last band
type BandConfig struct {
	MaxUnits   int             `mapstructure:"max_units"`
	Multiplier decimal.Decimal `mapstructure:"multiplier"`
}

// UpkeepConfig holds the upkeep bands
type UpkeepConfig struct {
	Bands []BandConfig `mapstructure:"bands"`
}

// StallConfig holds the anti-stall constants
type StallConfig struct {
	GracePeriod time.Duration `mapstructure:"grace_period"`
}

// MultiplierConfig is one damage table entry
type MultiplierConfig struct {
	Damage     models.DamageType `mapstructure:"damage"`
	Armor      models.ArmorType  `mapstructure:"armor"`
	Multiplier decimal.Decimal   `mapstructure:"multiplier"`
}

// CombatConfig holds the combat constants
type CombatConfig struct {
	FriendlyFire bool               `mapstructure:"friendly_fire"`
	Multipliers  []MultiplierConfig `mapstructure:"multipliers"`
}

// WeightsConfig holds the valuation weights
type WeightsConfig struct {
	Crystal decimal.Decimal `mapstructure:"crystal"`
	Biomass decimal.Decimal `mapstructure:"biomass"`
	Aether  decimal.Decimal `mapstructure:"aether"`
}

// OverchargeConfig holds the overcharge constants
type OverchargeConfig struct {
	Cost       int             `mapstructure:"cost"`
	Duration   time.Duration   `mapstructure:"duration"`
	Cooldown   time.Duration   `mapstructure:"cooldown"`
	Multiplier decimal.Decimal `mapstructure:"multiplier"`
}

// Config is the full set of simulation constants
type Config struct {
	Economy    EconomyConfig    `mapstructure:"economy"`
	Upkeep     UpkeepConfig     `mapstructure:"upkeep"`
	Stall      StallConfig      `mapstructure:"stall"`
	Combat     CombatConfig     `mapstructure:"combat"`
	Victory    PoolConfig       `mapstructure:"victory"`
	Valuation  WeightsConfig    `mapstructure:"valuation"`
	Overcharge OverchargeConfig `mapstructure:"overcharge"`
}

// Default returns the standard balance values
func Default() Config {
	opts := sim.DefaultOptions()
	cfg := Config{
		Economy: EconomyConfig{
			Starting:        poolConfig(opts.Starting),
			Capacity:        poolConfig(opts.Capacity),
			GatherRate:      poolConfig(opts.GatherRate),
			ConversionRatio: opts.ConversionRatio,
			MaxWorkers:      opts.MaxWorkers,
		},
		Stall:   StallConfig{GracePeriod: opts.GracePeriod},
		Combat:  CombatConfig{FriendlyFire: opts.FriendlyFire},
		Victory: poolConfig(opts.Victory),
		Valuation: WeightsConfig{
			Crystal: opts.Valuation.Crystal,
			Biomass: opts.Valuation.Biomass,
			Aether:  opts.Valuation.Aether,
		},
		Overcharge: OverchargeConfig{
			Cost:       opts.Overcharge.Cost,
			Duration:   opts.Overcharge.Duration,
			Cooldown:   opts.Overcharge.Cooldown,
			Multiplier: opts.Overcharge.Multiplier,
		},
	}
	for _, b := range opts.Upkeep.Bands() {
		cfg.Upkeep.Bands = append(cfg.Upkeep.Bands, BandConfig{MaxUnits: b.MaxUnits, Multiplier: b.Multiplier})
	}
	for _, e := range opts.Multipliers.Entries() {
		cfg.Combat.Multipliers = append(cfg.Combat.Multipliers, MultiplierConfig{Damage: e.Damage, Armor: e.Armor, Multiplier: e.Multiplier})
	}
	return cfg
}

// Load reads path (YAML, JSON or TOML by extension) over the defaults, then
// applies AETHER_* environment overrides. An empty path uses defaults and
// environment only.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook())); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	def := Default()
	if len(cfg.Upkeep.Bands) == 0 {
		cfg.Upkeep.Bands = def.Upkeep.Bands
	}
	if len(cfg.Combat.Multipliers) == 0 {
		cfg.Combat.Multipliers = def.Combat.Multipliers
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	pool := func(prefix string, p PoolConfig) {
		v.SetDefault(prefix+".crystal", p.Crystal)
		v.SetDefault(prefix+".biomass", p.Biomass)
		v.SetDefault(prefix+".aether", p.Aether)
	}
	pool("economy.starting", d.Economy.Starting)
	pool("economy.capacity", d.Economy.Capacity)
	pool("economy.gather_rate", d.Economy.GatherRate)
	v.SetDefault("economy.conversion_ratio", d.Economy.ConversionRatio)
	v.SetDefault("economy.max_workers", d.Economy.MaxWorkers)
	v.SetDefault("stall.grace_period", d.Stall.GracePeriod.String())
	v.SetDefault("combat.friendly_fire", d.Combat.FriendlyFire)
	pool("victory", d.Victory)
	v.SetDefault("valuation.crystal", d.Valuation.Crystal.String())
	v.SetDefault("valuation.biomass", d.Valuation.Biomass.String())
	v.SetDefault("valuation.aether", d.Valuation.Aether.String())
	v.SetDefault("overcharge.cost", d.Overcharge.Cost)
	v.SetDefault("overcharge.duration", d.Overcharge.Duration.String())
	v.SetDefault("overcharge.cooldown", d.Overcharge.Cooldown.String())
	v.SetDefault("overcharge.multiplier", d.Overcharge.Multiplier.String())
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

// decimalHook turns config numbers and strings into decimal.Decimal
func decimalHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != decimalType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case decimal.Decimal:
		return v, nil
	}
	return data, nil
}

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.DecodeHookFuncType(decimalHook),
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	)
}

// Validate rejects values the simulation cannot run with
func (c Config) Validate() error {
	_, err := c.Options()
	return err
}

// Options converts the config into simulation options, validating as it goes
func (c Config) Options() (sim.Options, error) {
	bands := make([]economy.Band, 0, len(c.Upkeep.Bands))
	for _, b := range c.Upkeep.Bands {
		bands = append(bands, economy.Band{MaxUnits: b.MaxUnits, Multiplier: b.Multiplier})
	}
	upkeep, err := economy.NewUpkeepModel(bands)
	if err != nil {
		return sim.Options{}, err
	}

	entries := make([]combat.Entry, 0, len(c.Combat.Multipliers))
	for _, m := range c.Combat.Multipliers {
		entries = append(entries, combat.Entry{Damage: m.Damage, Armor: m.Armor, Multiplier: m.Multiplier})
	}
	table, err := combat.NewMultiplierTable(entries)
	if err != nil {
		return sim.Options{}, err
	}

	weights := economy.Weights{Crystal: c.Valuation.Crystal, Biomass: c.Valuation.Biomass, Aether: c.Valuation.Aether}
	if weights.Crystal.IsNegative() || weights.Biomass.IsNegative() || weights.Aether.IsNegative() {
		return sim.Options{}, errx.ErrInvalidConfig.WithData("valuation", "negative weight")
	}
	var victoryErr error
	c.Victory.Pool().Each(func(k models.ResourceKind, v int) {
		if v < 0 {
			victoryErr = errors.Join(victoryErr, errx.ErrInvalidConfig.WithData("victory", k))
		}
	})
	if victoryErr != nil {
		return sim.Options{}, victoryErr
	}

	opts := sim.Options{
		Starting:        c.Economy.Starting.Pool(),
		Capacity:        c.Economy.Capacity.Pool(),
		GatherRate:      c.Economy.GatherRate.Pool(),
		ConversionRatio: c.Economy.ConversionRatio,
		MaxWorkers:      c.Economy.MaxWorkers,
		Upkeep:          upkeep,
		GracePeriod:     c.Stall.GracePeriod,
		FriendlyFire:    c.Combat.FriendlyFire,
		Victory:         c.Victory.Pool(),
		Valuation:       weights,
		Overcharge: sim.OverchargeOptions{
			Cost:       c.Overcharge.Cost,
			Duration:   c.Overcharge.Duration,
			Cooldown:   c.Overcharge.Cooldown,
			Multiplier: c.Overcharge.Multiplier,
		},
		Multipliers: table,
	}
	if err := opts.Validate(); err != nil {
		return sim.Options{}, err
	}
	return opts, nil
}
