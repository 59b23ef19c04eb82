package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/linux-perf-tools/hperf/catalog"
	"github.com/linux-perf-tools/hperf/estimate"
)

// PrintStats writes the aggregated per-event summary, matching
// Reporter::print_stats: fixed events first (counted across all
// groups), then each group's schedulable events alongside how much of
// the total measurement time that group was actually enabled for.
func PrintStats(w io.Writer, cat catalog.Catalog, est *estimate.Estimator) {
	fmt.Fprintln(w, "========== Performance Statistics ==========")

	totalMS := float64(est.TotalTime()) / 1e6
	fmt.Fprintf(w, "Fixed events (%.2f ms, 100.00 %%)\n", totalMS)
	for i, ev := range cat.Fixed {
		printEventCount(w, est.FixedStat(i).Estimated, ev.Name)
	}

	for g := 0; g < cat.GroupCount(); g++ {
		enabledMS := float64(est.EnabledTime(g)) / 1e6
		var pct float64
		if est.TotalTime() > 0 {
			pct = float64(est.EnabledTime(g)) * 100.0 / float64(est.TotalTime())
		}
		fmt.Fprintf(w, "Group %d (%.2f ms, %.2f %%)\n", g+1, enabledMS, pct)

		for slot, ev := range cat.Group(g) {
			printEventCount(w, est.SchedulableStat(g, slot).Estimated, ev.Name)
		}
	}
}

func printEventCount(w io.Writer, c uint64, name string) {
	fmt.Fprintf(w, "  %-22s%20s\n", name, formatWithCommas(c))
}

func formatWithCommas(v uint64) string {
	s := strconv.FormatUint(v, 10)
	n := len(s) - 3
	for n > 0 {
		s = s[:n] + "," + s[n:]
		n -= 3
	}
	return s
}

// PrintMetrics writes the evaluated derived metrics for one metric
// set, replacing the original's compile-time print_metrics_oryon_ /
// print_metrics_cortex_x4_ split.
func PrintMetrics(w io.Writer, ms MetricSet, vars map[string]interface{}) {
	fmt.Fprintln(w, "=========== Performance Metrics ============")
	for _, r := range Evaluate(ms, vars) {
		if r.Err != nil {
			fmt.Fprintf(w, "  %-30s%12s\n", r.Name, "n/a")
			continue
		}
		unit := r.Unit
		if unit != "" {
			unit = " " + unit
		}
		fmt.Fprintf(w, "  %-30s%12.4f%s\n", r.Name, r.Value, unit)
	}
	fmt.Fprintln(w, "============================================")
}
