// Package estimate turns a stream of per-group raw counter reads into
// whole-measurement estimates: fixed events (present in every group)
// are summed across groups, and schedulable events (present in only
// one group) are scaled up by how much of the total wall time their
// group was actually enabled. Grounded on reporter.{h,cpp}.
package estimate

import "github.com/linux-perf-tools/hperf/catalog"

// Record is one group's counter snapshot at one point in time, the
// unit process_a_record accumulates.
type Record struct {
	TimestampNS uint64
	CPU         int // -1 for per-process mode
	GroupIdx    int
	SlotIdx     int // index into fixed events, then this group's schedulable events
	Value       uint64
}

// Stats holds one event's accumulated raw total and, after Estimate,
// its estimated whole-measurement value.
type Stats struct {
	Total     uint64
	Estimated uint64
}

// Estimator accumulates Records for one catalog (every measured CPU,
// summed together, in system-wide mode; the whole process, in
// per-process mode) and computes estimated whole-measurement counts
// once measurement ends.
type Estimator struct {
	fixedEventNum int
	groupSizes    []int // fixed + schedulable per group, matches stat_[i].size()

	stat        [][]Stats
	enabledNS   []uint64
	totalNS     uint64
	prevTSNS    uint64
}

// New returns an Estimator sized for cat's fixed-event count and the
// size of each of its event groups.
func New(cat catalog.Catalog) *Estimator {
	groupSizes := make([]int, cat.GroupCount())
	stat := make([][]Stats, cat.GroupCount())
	for i := range stat {
		groupSizes[i] = len(cat.Fixed) + len(cat.Group(i))
		stat[i] = make([]Stats, groupSizes[i])
	}
	return &Estimator{
		fixedEventNum: len(cat.Fixed),
		groupSizes:    groupSizes,
		stat:          stat,
		enabledNS:     make([]uint64, cat.GroupCount()),
	}
}

// Process accumulates one Record, advancing the enabled-time and
// total-time clocks from its timestamp. Records must be fed in
// non-decreasing timestamp order; a Record with a timestamp no later
// than the previous one contributes its value but advances no clock,
// matching process_a_record's "record.timestamp > prev_timestamp_"
// guard.
func (e *Estimator) Process(r Record) {
	if r.TimestampNS > e.prevTSNS {
		delta := r.TimestampNS - e.prevTSNS
		e.enabledNS[r.GroupIdx] += delta
		e.totalNS += delta
		e.prevTSNS = r.TimestampNS
	}
	e.stat[r.GroupIdx][r.SlotIdx].Total += r.Value
}

// Estimate computes every event's estimated whole-measurement value:
// fixed events are summed across all groups and stored under group 0;
// schedulable events are scaled by total measured time divided by the
// time their own group was enabled.
func (e *Estimator) Estimate() {
	for slot := 0; slot < e.fixedEventNum; slot++ {
		var total uint64
		for group := range e.stat {
			total += e.stat[group][slot].Total
		}
		e.stat[0][slot].Estimated = total
	}

	for group := range e.stat {
		if e.enabledNS[group] == 0 {
			continue
		}
		ratio := float64(e.totalNS) / float64(e.enabledNS[group])
		for slot := e.fixedEventNum; slot < e.groupSizes[group]; slot++ {
			e.stat[group][slot].Estimated = uint64(float64(e.stat[group][slot].Total) * ratio)
		}
	}
}

// FixedStat returns the estimated fixed-event stats (valid after
// Estimate), indexed the same way as catalog.Catalog.Fixed.
func (e *Estimator) FixedStat(slot int) Stats {
	return e.stat[0][slot]
}

// SchedulableStat returns the stats for the slot'th schedulable event
// (0-indexed within its own group) of the given group.
func (e *Estimator) SchedulableStat(group, slot int) Stats {
	return e.stat[group][e.fixedEventNum+slot]
}

// EnabledTime returns how long the given group was enabled, in
// nanoseconds.
func (e *Estimator) EnabledTime(group int) uint64 { return e.enabledNS[group] }

// TotalTime returns the total measured wall time, in nanoseconds.
func (e *Estimator) TotalTime() uint64 { return e.totalNS }
