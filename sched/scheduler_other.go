//go:build !linux

package sched

import (
	"github.com/pkg/errors"

	"github.com/linux-perf-tools/hperf/buffer"
	"github.com/linux-perf-tools/hperf/catalog"
)

// groupHandle is an empty stub outside Linux: perf_event_open is a
// Linux-only syscall, matching perfbench's counters_noop.go.
type groupHandle struct{}

func openGroup(_ []catalog.Event, _, _ int) (groupHandle, error) {
	return groupHandle{}, errors.New("event scheduling requires linux")
}

func (groupHandle) reset() error                       { return errors.New("event scheduling requires linux") }
func (groupHandle) enable() error                       { return errors.New("event scheduling requires linux") }
func (groupHandle) disable() error                      { return errors.New("event scheduling requires linux") }
func (groupHandle) read(_ *buffer.GroupReadBuffer) (int, error) {
	return 0, errors.New("event scheduling requires linux")
}
func (groupHandle) close()                               {}
