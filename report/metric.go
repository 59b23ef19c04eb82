// Package report turns accumulated counter estimates into the three
// output forms hperf produces: a raw per-interval CSV stream (grounded
// on Reporter::print_a_record), an aggregated console summary
// (Reporter::print_stats / print_metrics), and, as an expansion, a live
// Prometheus exporter of the evaluated derived metrics.
package report

import (
	"github.com/Knetic/govaluate"
	"github.com/pkg/errors"
)

// MetricDefinition is one derived metric: a human name, an optional
// display unit, and a formula over event/variable names produced by an
// estimate.Estimator (e.g. "cpu_cycles / inst_retired" for CPI).
type MetricDefinition struct {
	Name       string `yaml:"name"`
	Unit       string `yaml:"unit"`
	Expression string `yaml:"expression"`

	evaluable *govaluate.EvaluableExpression
}

// MetricSet is the metrics defined for one CPU model, replacing the
// original's compile-time print_metrics_oryon_/print_metrics_cortex_x4_
// split with data-driven per-model metric definitions.
type MetricSet struct {
	Model   string             `yaml:"model"`
	Metrics []MetricDefinition `yaml:"metrics"`
}

// compile parses every metric's expression once. Metrics loaded through
// Lookup are already compiled; Load calls it too, so a caller-supplied
// metric set gets the same validation.
func (ms *MetricSet) compile() error {
	fns := evaluatorFunctions()
	for i := range ms.Metrics {
		expr, err := govaluate.NewEvaluableExpressionWithFunctions(ms.Metrics[i].Expression, fns)
		if err != nil {
			return errors.Wrapf(err, "metric %q: parse expression %q", ms.Metrics[i].Name, ms.Metrics[i].Expression)
		}
		ms.Metrics[i].evaluable = expr
	}
	return nil
}

// evaluatorFunctions returns the functions available inside metric
// expressions, beyond govaluate's arithmetic built-ins.
func evaluatorFunctions() map[string]govaluate.ExpressionFunction {
	return map[string]govaluate.ExpressionFunction{
		"max": func(args ...interface{}) (interface{}, error) {
			if len(args) == 0 {
				return nil, errors.New("max requires at least one argument")
			}
			max := args[0].(float64)
			for _, a := range args[1:] {
				if v := a.(float64); v > max {
					max = v
				}
			}
			return max, nil
		},
	}
}
