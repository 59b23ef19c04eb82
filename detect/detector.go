// Package detect implements the counter-capacity probe: discovering how
// many hardware PMU counters a CPU can run simultaneously before the
// kernel starts multiplexing them, grounded on counter_detector.{h,cpp}.
package detect

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// Detector discovers and caches the number of general-purpose PMU
// counters available on each CPU in its set.
type Detector struct {
	cpuIDs       []int
	capacityPath string
	capacities   map[int]int
}

// New returns a Detector for the given CPU ids (order is preserved for
// persistence) using path as the capacity cache file.
func New(cpuIDs []int, path string) *Detector {
	ids := make([]int, len(cpuIDs))
	copy(ids, cpuIDs)
	return &Detector{cpuIDs: ids, capacityPath: path}
}

// Detect loads a cached result if it holds exactly one entry per CPU in
// d's set (only the count is compared, not which CPU ids wrote it), or
// else probes every CPU and persists the result. It is safe to call at
// most once per Detector.
func (d *Detector) Detect(ctx context.Context) error {
	if cached, ok := load(d.capacityPath, len(d.cpuIDs)); ok {
		d.capacities = make(map[int]int, len(d.cpuIDs))
		for i, id := range d.cpuIDs {
			d.capacities[id] = cached[i]
		}
		return nil
	}

	capacities := make([]int, len(d.cpuIDs))
	d.capacities = make(map[int]int, len(d.cpuIDs))
	for i, id := range d.cpuIDs {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "counter detection cancelled")
		}
		n, err := probeCPU(ctx, id)
		if err != nil {
			return errors.Wrapf(err, "probe cpu %d", id)
		}
		capacities[i] = n
		d.capacities[id] = n
	}

	return errors.Wrap(save(d.capacityPath, capacities), "persist detected capacities")
}

// Capacity returns the detected counter count for cpuID, or an error if
// Detect has not run for that CPU, or the probe left it undetected (-1).
func (d *Detector) Capacity(cpuID int) (int, error) {
	n, ok := d.capacities[cpuID]
	if !ok {
		return 0, fmt.Errorf("no capacity detected for cpu %d", cpuID)
	}
	if n < 0 {
		return 0, fmt.Errorf("cpu %d: capacity undetermined by probing", cpuID)
	}
	return n, nil
}

// MinCapacity returns the smallest detected capacity across all probed
// CPUs: the safe group-size budget for a heterogeneous CPU set.
func (d *Detector) MinCapacity() (int, error) {
	if len(d.capacities) == 0 {
		return 0, errors.New("no capacities detected")
	}
	min := -1
	for _, id := range d.cpuIDs {
		n, err := d.Capacity(id)
		if err != nil {
			return 0, err
		}
		if min < 0 || n < min {
			min = n
		}
	}
	return min, nil
}
