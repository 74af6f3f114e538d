package tuning

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoad_RepoTuningMatchesDefaults(t *testing.T) {
	got, err := Load("../../../configs/tuning.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, Defaults()) {
		t.Fatalf("configs/tuning.yaml drifted from Defaults():\n got=%+v\nwant=%+v", got, Defaults())
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(p, []byte("tick_rate_hz: 30\nworld:\n  unbounded: true\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.TickRateHz != 30 || !got.World.Unbounded || got.BeltSpeed != 1.875 {
		t.Fatalf("unexpected tuning: %+v", got)
	}
}

func TestLoad_RejectsBadSpacing(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tuning.yaml")
	_ = os.WriteFile(p, []byte("item_spacing: 2\n"), 0o644)
	if _, err := Load(p); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestDigest_ChangesWithValues(t *testing.T) {
	a := Defaults()
	b := Defaults()
	if a.Digest() != b.Digest() {
		t.Fatalf("equal tunings must share a digest")
	}
	b.BeltSpeed = 3.75
	if a.Digest() == b.Digest() {
		t.Fatalf("digest did not change with belt_speed")
	}
}
