package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz         int `yaml:"tick_rate_hz"`
	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`
	DedupeTTLTicks     int `yaml:"dedupe_ttl_ticks"`

	Inventory  Inventory  `yaml:"inventory"`
	Resources  Resources  `yaml:"resources"`
	Fishing    Fishing    `yaml:"fishing"`
	Pickups    Pickups    `yaml:"pickups"`
	RateLimits RateLimits `yaml:"rate_limits"`
}

type ItemCount struct {
	Item  int `yaml:"item"`
	Count int `yaml:"count"`
}

type Inventory struct {
	RestoreTTLTicks int         `yaml:"restore_ttl_ticks"`
	StarterGold     int         `yaml:"starter_gold"`
	StarterItems    []ItemCount `yaml:"starter_items"`
}

type Resources struct {
	ToolSpeedMultiplier float64 `yaml:"tool_speed_multiplier"`
}

type Fishing struct {
	CastTicks       int `yaml:"cast_ticks"`
	LureFlightTicks int `yaml:"lure_flight_ticks"`
	BiteTicks       int `yaml:"bite_ticks"`
	HitsRequired    int `yaml:"hits_required"`
	CatchItem       int `yaml:"catch_item"`
	CatchCount      int `yaml:"catch_count"`
}

type Pickups struct {
	LandingDelaySteps int     `yaml:"landing_delay_steps"`
	ScatterRadius     float64 `yaml:"scatter_radius"`
}

type RateLimits struct {
	CommandsPerSecond float64 `yaml:"commands_per_second"`
	Burst             int     `yaml:"burst"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:    "1.0",
		TickRateHz:         20,
		SnapshotEveryTicks: 6000,
		DedupeTTLTicks:     600,
		Inventory: Inventory{
			RestoreTTLTicks: 200,
		},
		Resources: Resources{ToolSpeedMultiplier: 1},
		Fishing: Fishing{
			CastTicks:       10,
			LureFlightTicks: 20,
			BiteTicks:       60,
			HitsRequired:    5,
		},
		Pickups:    Pickups{LandingDelaySteps: 2, ScatterRadius: 1.5},
		RateLimits: RateLimits{CommandsPerSecond: 30, Burst: 60},
	}
}

// Load reads tuning.yaml on top of Defaults, so omitted keys keep their
// default values.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.TickRateHz <= 0 || t.TickRateHz > 240 {
		return fmt.Errorf("tick_rate_hz %d out of range", t.TickRateHz)
	}
	if t.Inventory.RestoreTTLTicks <= 0 {
		return fmt.Errorf("inventory.restore_ttl_ticks must be positive")
	}
	if t.Inventory.StarterGold < 0 {
		return fmt.Errorf("inventory.starter_gold must not be negative")
	}
	if t.Fishing.HitsRequired <= 0 || t.Fishing.HitsRequired > 255 {
		return fmt.Errorf("fishing.hits_required %d out of range", t.Fishing.HitsRequired)
	}
	if t.Resources.ToolSpeedMultiplier < 0 {
		return fmt.Errorf("resources.tool_speed_multiplier must not be negative")
	}
	return nil
}

// TickSeconds is the simulated duration of one tick.
func (t Tuning) TickSeconds() float64 {
	if t.TickRateHz <= 0 {
		return 0
	}
	return 1 / float64(t.TickRateHz)
}
