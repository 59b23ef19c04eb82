// Package catalog holds the static, per-CPU-model description of the
// hardware events hperf can measure: which events are always on
// ("fixed") and which ones are grouped into candidate measurement
// groups that the scheduler and adaptive grouper operate on.
package catalog

// Event is a single hardware performance event: a name and description
// for humans, and the raw encoding passed to the kernel counter
// interface.
type Event struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Encoding    uint64 `yaml:"encoding"`
}
