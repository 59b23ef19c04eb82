// Package sched implements the event scheduler: it opens one perf_event
// group per catalog event group, and rotates which group is the active,
// counting one during measurement. Grounded on event_scheduler.{h,cpp}.
package sched

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/linux-perf-tools/hperf/buffer"
	"github.com/linux-perf-tools/hperf/catalog"
)

// state is the scheduler's lifecycle, as an explicit tagged variant
// rather than a loose bool/int combination.
type state int

const (
	stateClosed state = iota
	stateOpened
	stateEnabled
	stateDisabled
)

func (s state) String() string {
	switch s {
	case stateClosed:
		return "closed"
	case stateOpened:
		return "opened"
	case stateEnabled:
		return "enabled"
	case stateDisabled:
		return "disabled"
	default:
		return "invalid"
	}
}

// Target selects what a Scheduler measures: exactly one of pid or cpu
// is meaningful, matching perf_event_open's own pid/cpu pairing rules.
type Target struct {
	// PID is the process to measure, or -1 for system-wide.
	PID int
	// CPU is the CPU to pin to for system-wide measurement, or -1 to
	// let the kernel run the counter on whichever CPU the target
	// thread lands on.
	CPU int
}

// handle is one open event group: the group leader's fd plus its
// children. openGroup, and the concrete type satisfying handle, are
// provided per-OS by scheduler_linux.go / scheduler_other.go. read
// returns the number of bytes actually read, so a caller can tell a
// genuine short read from the zero-byte and error cases.
type handle interface {
	reset() error
	enable() error
	disable() error
	read(buf *buffer.GroupReadBuffer) (int, error)
	close()
}

// ErrShortRead means a read() on an event group's file descriptor
// returned fewer bytes than the buffer sized for it, but more than
// zero. This should not normally happen, but is a warning rather than
// a fatal condition: whatever was read is still returned from
// ReadActiveGroupData alongside the wrapped error, matching
// read_active_group_data's own "log a warning, keep going" policy.
var ErrShortRead = errors.New("short read from event group")

// Scheduler owns one perf_event group per event group in a catalog, and
// switches which one is actively counting. For system-wide measurement,
// callers construct one Scheduler per CPU.
type Scheduler struct {
	target      Target
	fixed       []catalog.Event
	groups      [][]catalog.Event // schedulable events per group, pmu_config order
	handles     []handle          // len(groups), one group leader + children each
	readBuffers []*buffer.GroupReadBuffer
	activeIdx   int
	state       state
}

// New returns a Scheduler for target that will, once Initialize is
// called, open one group per entry in groups, each also carrying the
// catalog's fixed events.
func New(target Target, fixed []catalog.Event, groups [][]catalog.Event) *Scheduler {
	return &Scheduler{target: target, fixed: fixed, groups: groups, state: stateClosed}
}

// Initialize opens file descriptors for every event in every group.
// Calling Initialize twice is a no-op returning nil, matching
// event_scheduler.cpp's initialize().
func (s *Scheduler) Initialize() error {
	if s.state != stateClosed {
		return nil
	}

	handles := make([]handle, len(s.groups))
	readBuffers := make([]*buffer.GroupReadBuffer, len(s.groups))

	for i, schedulable := range s.groups {
		events := make([]catalog.Event, 0, len(s.fixed)+len(schedulable))
		events = append(events, s.fixed...)
		events = append(events, schedulable...)

		h, err := openGroup(events, s.target.PID, s.target.CPU)
		if err != nil {
			for _, opened := range handles[:i] {
				opened.close()
			}
			return errors.Wrapf(err, "open event group %d", i)
		}
		handles[i] = h
		readBuffers[i] = buffer.NewGroupReadBuffer(len(events))
	}

	s.handles = handles
	s.readBuffers = readBuffers
	s.activeIdx = 0
	s.state = stateOpened
	return nil
}

// Close releases every file descriptor. Close is idempotent.
func (s *Scheduler) Close() {
	for _, h := range s.handles {
		h.close()
	}
	s.handles = nil
	s.readBuffers = nil
	s.state = stateClosed
}

// NumGroups returns the number of event groups, or 0 before
// Initialize.
func (s *Scheduler) NumGroups() int {
	if s.state == stateClosed {
		return 0
	}
	return len(s.groups)
}

// ActiveGroupIdx returns the index of the currently active group.
func (s *Scheduler) ActiveGroupIdx() int { return s.activeIdx }

// EventsInActiveGroup returns the schedulable events of the active
// group (excluding fixed events), matching
// get_pmu_events_in_active_group's scope.
func (s *Scheduler) EventsInActiveGroup() []catalog.Event {
	if s.state == stateClosed {
		return nil
	}
	return s.groups[s.activeIdx]
}

func (s *Scheduler) requireOpen() error {
	if s.state == stateClosed {
		return errors.New("scheduler not initialized")
	}
	return nil
}

// ResetAllGroups resets the event count of every group. Call this
// before measurement starts.
func (s *Scheduler) ResetAllGroups() error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	for i, h := range s.handles {
		if err := h.reset(); err != nil {
			return errors.Wrapf(err, "reset group %d", i)
		}
	}
	return nil
}

// ResetActiveGroup resets only the active group's event count.
func (s *Scheduler) ResetActiveGroup() error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	return errors.Wrapf(s.handles[s.activeIdx].reset(), "reset active group %d", s.activeIdx)
}

// EnableActiveGroup starts counting on the active group.
func (s *Scheduler) EnableActiveGroup() error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	if err := s.handles[s.activeIdx].enable(); err != nil {
		return errors.Wrapf(err, "enable active group %d", s.activeIdx)
	}
	s.state = stateEnabled
	return nil
}

// DisableActiveGroup stops counting on the active group.
func (s *Scheduler) DisableActiveGroup() error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	if err := s.handles[s.activeIdx].disable(); err != nil {
		return errors.Wrapf(err, "disable active group %d", s.activeIdx)
	}
	s.state = stateDisabled
	return nil
}

// SwitchToNextGroup disables the current group, advances to the next
// one (wrapping around), resets it, and enables it. If a disable
// fails, SwitchToNextGroup logs nothing itself (callers should, via
// the returned wrapped error context) but still attempts the switch,
// matching switch_to_next_group's "log and proceed" behavior -- unlike
// that C++ version, a disable failure here is surfaced to the caller
// rather than silently swallowed.
func (s *Scheduler) SwitchToNextGroup() error {
	if err := s.requireOpen(); err != nil {
		return err
	}

	numGroups := len(s.groups)
	if numGroups <= 1 {
		if numGroups == 1 {
			if err := s.ResetActiveGroup(); err != nil {
				return err
			}
			return s.EnableActiveGroup()
		}
		return errors.New("no event groups to switch between")
	}

	disableErr := s.DisableActiveGroup()

	s.activeIdx = (s.activeIdx + 1) % numGroups

	if err := s.ResetActiveGroup(); err != nil {
		return err
	}
	if err := s.EnableActiveGroup(); err != nil {
		return err
	}

	if disableErr != nil {
		return fmt.Errorf("switched groups despite a failure disabling the previous one: %w", disableErr)
	}
	return nil
}

// ReadActiveGroupData reads the active group's counters into its read
// buffer and returns it. The buffer is reused across calls; callers
// must not retain it past the next Read/SwitchToNextGroup call.
//
// A read of zero bytes, or a syscall error, is fatal: buf is nil and
// the error is not ErrShortRead. A short (but non-zero) read still
// returns buf, wrapped around ErrShortRead -- callers should log that
// case as a warning and otherwise proceed to use buf normally, per
// read_active_group_data's own policy of gating on bytes_read > 0
// rather than bytes_read == len(buf).
func (s *Scheduler) ReadActiveGroupData() (*buffer.GroupReadBuffer, error) {
	if err := s.requireOpen(); err != nil {
		return nil, err
	}
	buf := s.readBuffers[s.activeIdx]
	n, err := s.handles[s.activeIdx].read(buf)
	if err != nil {
		return nil, errors.Wrapf(err, "read group %d", s.activeIdx)
	}
	if n == 0 {
		return nil, errors.Errorf("read group %d: no data read", s.activeIdx)
	}
	if n < buf.Size() {
		return buf, errors.Wrapf(ErrShortRead, "read group %d: got %d of %d bytes", s.activeIdx, n, buf.Size())
	}
	return buf, nil
}
