package report

import (
	"github.com/pkg/errors"

	"github.com/linux-perf-tools/hperf/catalog"
	"github.com/linux-perf-tools/hperf/estimate"
)

// MetricResult is one evaluated metric.
type MetricResult struct {
	Name  string
	Unit  string
	Value float64
	Err   error
}

// Evaluate runs every metric in ms against vars (typically built from
// an estimate.Estimator's fixed and schedulable event estimates, keyed
// by event name). A metric whose expression references a variable that
// is absent or whose evaluation otherwise fails still produces a
// MetricResult, with Err set, so one bad metric cannot hide the rest.
func Evaluate(ms MetricSet, vars map[string]interface{}) []MetricResult {
	results := make([]MetricResult, len(ms.Metrics))
	for i, m := range ms.Metrics {
		results[i] = MetricResult{Name: m.Name, Unit: m.Unit}
		if m.evaluable == nil {
			results[i].Err = errors.Errorf("metric %q was never compiled", m.Name)
			continue
		}
		v, err := evaluateExpression(m, vars)
		if err != nil {
			results[i].Err = errors.Wrapf(err, "evaluate %q", m.Name)
			continue
		}
		f, ok := v.(float64)
		if !ok {
			results[i].Err = errors.Errorf("metric %q did not evaluate to a number: %v", m.Name, v)
			continue
		}
		results[i].Value = f
	}
	return results
}

// Variables builds the variable bindings a metric expression can
// reference from an estimator's current results: every fixed event
// name and every schedulable event name across all of cat's groups,
// mapped to its estimated count. Callers that want a live snapshot
// rather than a final one should call est.Estimate() before Variables;
// repeated calls are safe, each one just recomputes over however much
// has accumulated so far.
func Variables(cat catalog.Catalog, est *estimate.Estimator) map[string]interface{} {
	vars := make(map[string]interface{}, len(cat.Fixed)+4)
	for i, ev := range cat.Fixed {
		vars[ev.Name] = float64(est.FixedStat(i).Estimated)
	}
	for g := 0; g < cat.GroupCount(); g++ {
		for slot, ev := range cat.Group(g) {
			vars[ev.Name] = float64(est.SchedulableStat(g, slot).Estimated)
		}
	}
	return vars
}

// evaluateExpression runs one metric's compiled expression, converting
// a panic from a malformed custom function call into an error rather
// than crashing the whole report.
func evaluateExpression(m MetricDefinition, vars map[string]interface{}) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic evaluating %q: %v", m.Name, r)
		}
	}()
	return m.evaluable.Evaluate(vars)
}
