package catalog

import (
	"embed"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/linux-perf-tools/hperf/internal/lazycache"
)

//go:embed models/*.yaml
var builtinModels embed.FS

// builtin is a registry of catalog loader functions keyed by CPU-model
// tag. It replaces the original tool's compile-time
// "#if defined(CPU_TAISHAN) / #elif defined(CPU_ICX) / ..." selection
// with a runtime dispatch table, per DESIGN NOTES "Polymorphism over CPU
// model": callers choose a tag (e.g. from /proc/cpuinfo or a flag) and
// Lookup returns the matching Catalog.
var builtin = lazycache.New(loadBuiltin)

func loadBuiltin(model string) (Catalog, error) {
	data, err := builtinModels.ReadFile("models/" + model + ".yaml")
	if err != nil {
		return Catalog{}, errors.Wrapf(err, "unknown CPU model %q", model)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, errors.Wrapf(err, "parsing catalog for model %q", model)
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, errors.Wrapf(err, "catalog for model %q", model)
	}
	return c, nil
}

// Lookup returns the built-in Catalog for the given CPU-model tag (e.g.
// "oryon", "cortex_x4"). The result is parsed and validated once and
// cached; every caller shares the same validated Catalog.
func Lookup(model string) (Catalog, error) {
	return builtin.Get(model)
}

// Models returns the list of known built-in CPU-model tags.
func Models() ([]string, error) {
	ents, err := builtinModels.ReadDir("models")
	if err != nil {
		return nil, err
	}
	models := make([]string, 0, len(ents))
	for _, e := range ents {
		name := e.Name()
		models = append(models, name[:len(name)-len(".yaml")])
	}
	return models, nil
}

// Load parses and validates a Catalog from raw YAML bytes, for callers
// that supply their own catalog file instead of a built-in model tag.
func Load(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, errors.Wrap(err, "parsing catalog")
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, errors.Wrap(err, "catalog")
	}
	return c, nil
}
