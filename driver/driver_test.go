package driver

import (
	"os"
	"testing"
	"time"

	"github.com/linux-perf-tools/hperf/catalog"
	"github.com/linux-perf-tools/hperf/config"
)

func testCatalog() catalog.Catalog {
	return catalog.Catalog{
		Model: "test",
		Fixed: []catalog.Event{{Name: "cpu_cycles", Encoding: 0x11}},
		Groups: [][]catalog.Event{
			{{Name: "a", Encoding: 1}, {Name: "b", Encoding: 2}},
			{{Name: "c", Encoding: 3}},
		},
	}
}

func TestSlotNames(t *testing.T) {
	d := New(config.NewDefault(config.SystemWide), testCatalog(), nil)

	got := d.slotNames(0)
	want := []string{"cpu_cycles", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("slotNames(0) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("slotNames(0)[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	got = d.slotNames(1)
	want = []string{"cpu_cycles", "c"}
	if len(got) != len(want) {
		t.Fatalf("slotNames(1) = %v, want %v", got, want)
	}
}

func TestIntervalDefaultsWhenUnset(t *testing.T) {
	cfg := config.NewDefault(config.SystemWide)
	cfg.IntervalMS = 0
	d := New(cfg, testCatalog(), nil)
	if got := d.interval(); got != time.Second {
		t.Fatalf("interval() = %v, want 1s", got)
	}
}

func TestIntervalUsesConfiguredValue(t *testing.T) {
	cfg := config.NewDefault(config.SystemWide)
	cfg.IntervalMS = 250
	d := New(cfg, testCatalog(), nil)
	if got := d.interval(); got != 250*time.Millisecond {
		t.Fatalf("interval() = %v, want 250ms", got)
	}
}

func TestCheckProcessExistsForSelf(t *testing.T) {
	if err := checkProcessExists(os.Getpid()); err != nil {
		t.Fatalf("checkProcessExists(self) = %v, want nil", err)
	}
}

func TestCheckProcessExistsForBogusPID(t *testing.T) {
	if err := checkProcessExists(1<<30 - 1); err == nil {
		t.Fatal("expected error for a nonexistent pid")
	}
}

func TestProcessAliveForSelf(t *testing.T) {
	if !processAlive(os.Getpid()) {
		t.Fatal("processAlive(self) = false, want true")
	}
}

func TestNewDriverExposesEstimator(t *testing.T) {
	d := New(config.NewDefault(config.SystemWide), testCatalog(), nil)
	if d.Estimator() == nil {
		t.Fatal("Estimator() = nil")
	}
}
