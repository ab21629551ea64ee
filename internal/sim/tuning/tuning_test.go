package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigTuning(t *testing.T) {
	tu, err := Load("../../../configs/tuning.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tu.TickRateHz != 20 {
		t.Fatalf("expected tick rate 20, got %d", tu.TickRateHz)
	}
	if tu.Fishing.CatchItem == 0 || tu.Fishing.HitsRequired != 5 {
		t.Fatalf("unexpected fishing tuning: %+v", tu.Fishing)
	}
	if len(tu.Inventory.StarterItems) == 0 {
		t.Fatalf("expected starter items")
	}
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(p, []byte("tick_rate_hz: 10\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tu, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tu.TickRateHz != 10 {
		t.Fatalf("expected override, got %d", tu.TickRateHz)
	}
	if tu.Inventory.RestoreTTLTicks != Defaults().Inventory.RestoreTTLTicks {
		t.Fatalf("expected default restore ttl, got %d", tu.Inventory.RestoreTTLTicks)
	}
	if tu.TickSeconds() != 0.1 {
		t.Fatalf("expected 0.1s ticks, got %f", tu.TickSeconds())
	}
}

func TestLoadRejectsBadTickRate(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(p, []byte("tick_rate_hz: 0\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(p); err == nil {
		t.Fatalf("expected zero tick rate to be rejected")
	}
}
