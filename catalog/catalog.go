package catalog

import (
	"github.com/pkg/errors"
)

// Catalog is the immutable set of events for one CPU model: an ordered
// list of fixed events measured in every group, and an ordered list of
// candidate event groups. Adaptive grouping (see package group) rewrites
// the Groups slice once, before any scheduler is constructed; Fixed is
// never mutated.
type Catalog struct {
	Model  string  `yaml:"model"`
	Fixed  []Event `yaml:"fixed_events"`
	Groups [][]Event `yaml:"event_groups"`
}

// ErrInvalid is returned by Validate for a catalog with no fixed events,
// no groups, or any empty group.
var ErrInvalid = errors.New("catalog invalid: empty fixed events, empty groups, or an empty group")

// Validate checks the catalog invariants from the spec: the fixed event
// list and the group list must both be non-empty, and no group may be
// empty.
func (c Catalog) Validate() error {
	if len(c.Fixed) == 0 || len(c.Groups) == 0 {
		return ErrInvalid
	}
	for _, g := range c.Groups {
		if len(g) == 0 {
			return ErrInvalid
		}
	}
	return nil
}

// GroupCount returns the number of candidate/adapted event groups.
func (c Catalog) GroupCount() int {
	return len(c.Groups)
}

// Group returns the schedulable events of the group at idx, or nil if
// idx is out of range.
func (c Catalog) Group(idx int) []Event {
	if idx < 0 || idx >= len(c.Groups) {
		return nil
	}
	return c.Groups[idx]
}

// Event returns the PMU event at group_idx/event_idx, where indices
// 0..len(Fixed) alias the fixed events (present in every group) and the
// remainder index into that group's schedulable events. The zero Event
// is returned for an out-of-range index, mirroring
// PMUConfig::get_pmu_event in the original implementation.
func (c Catalog) Event(groupIdx, eventIdx int) Event {
	if groupIdx < 0 || groupIdx >= len(c.Groups) {
		return Event{}
	}
	total := len(c.Fixed) + len(c.Groups[groupIdx])
	if eventIdx < 0 || eventIdx >= total {
		return Event{}
	}
	if eventIdx < len(c.Fixed) {
		return c.Fixed[eventIdx]
	}
	return c.Groups[groupIdx][eventIdx-len(c.Fixed)]
}

// SetGroups replaces the event groups, e.g. with the output of
// group.Merge. It does not touch Fixed.
func (c *Catalog) SetGroups(groups [][]Event) {
	c.Groups = groups
}
