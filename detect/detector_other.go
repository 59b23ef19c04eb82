//go:build !linux

package detect

import (
	"context"

	"github.com/pkg/errors"
)

// probeCPU is unimplemented outside Linux: perf_event_open is a
// Linux-only syscall. Mirrors perfbench's counters_noop.go: the API
// stays usable, it just reports that nothing was measured.
func probeCPU(_ context.Context, cpuID int) (int, error) {
	return -1, errors.Errorf("counter detection requires linux (cpu %d)", cpuID)
}
