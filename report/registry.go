package report

import (
	"embed"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/linux-perf-tools/hperf/internal/lazycache"
)

//go:embed metrics/*.yaml
var builtinMetricsFS embed.FS

var builtinCache = lazycache.New(loadBuiltinMetricSet)

// Lookup returns the built-in metric set for model (e.g. "oryon",
// "cortex_x4"), compiling and caching it on first use.
func Lookup(model string) (MetricSet, error) {
	return builtinCache.Get(model)
}

func loadBuiltinMetricSet(model string) (MetricSet, error) {
	data, err := builtinMetricsFS.ReadFile("metrics/" + model + ".yaml")
	if err != nil {
		return MetricSet{}, errors.Wrapf(err, "no built-in metric set for model %q", model)
	}

	ms, err := Load(data)
	if err != nil {
		return MetricSet{}, errors.Wrapf(err, "metric set %q", model)
	}
	return ms, nil
}

// Load parses and compiles a metric set from YAML, for a user-supplied
// metric definition file.
func Load(data []byte) (MetricSet, error) {
	var ms MetricSet
	if err := yaml.Unmarshal(data, &ms); err != nil {
		return MetricSet{}, errors.Wrap(err, "parse metric set")
	}
	if err := ms.compile(); err != nil {
		return MetricSet{}, err
	}
	return ms, nil
}
