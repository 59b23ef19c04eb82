package detect

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capacities")
	want := []int{4, 4, 6, -1}

	if err := save(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok := load(path, len(want))
	if !ok {
		t.Fatal("load: expected usable result")
	}
	if len(got) != len(want) {
		t.Fatalf("load: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("load[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestLoadRejectsLengthMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capacities")
	if err := save(path, []int{4, 4, 6}); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, ok := load(path, 4); ok {
		t.Fatal("load: expected length mismatch to be rejected")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, ok := load(filepath.Join(t.TempDir(), "nope"), 4); ok {
		t.Fatal("load: expected missing file to be rejected")
	}
}

func TestDetectorCapacityBeforeDetect(t *testing.T) {
	d := New([]int{0, 1}, filepath.Join(t.TempDir(), "capacities"))
	if _, err := d.Capacity(0); err == nil {
		t.Fatal("expected error before Detect has run")
	}
}

func TestDetectorUsesCachedCapacities(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capacities")
	if err := save(path, []int{4, 6}); err != nil {
		t.Fatalf("save: %v", err)
	}

	d := New([]int{10, 20}, path)
	if err := d.Detect(context.Background()); err != nil {
		t.Fatalf("Detect: %v", err)
	}

	got, err := d.Capacity(10)
	if err != nil || got != 4 {
		t.Fatalf("Capacity(10) = %d, %v, want 4, nil", got, err)
	}
	got, err = d.Capacity(20)
	if err != nil || got != 6 {
		t.Fatalf("Capacity(20) = %d, %v, want 6, nil", got, err)
	}

	min, err := d.MinCapacity()
	if err != nil || min != 4 {
		t.Fatalf("MinCapacity() = %d, %v, want 4, nil", min, err)
	}
}

func TestDetectorUndeterminedCapacityIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capacities")
	if err := save(path, []int{-1}); err != nil {
		t.Fatalf("save: %v", err)
	}

	d := New([]int{0}, path)
	if err := d.Detect(context.Background()); err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if _, err := d.Capacity(0); err == nil {
		t.Fatal("expected error for an undetermined (-1) capacity")
	}
}
