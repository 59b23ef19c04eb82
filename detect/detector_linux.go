//go:build linux

package detect

import (
	"context"
	"os"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/linux-perf-tools/hperf/buffer"
)

const probeSleep = 100 * time.Millisecond

// probeHandle is one open, pinned-CPU raw counter used only during
// probing; it is intentionally simpler than sched's handle since it
// never needs a group leader.
type probeHandle struct {
	f *os.File
}

func openProbeCounter(encoding uint64, cpuID int) (probeHandle, error) {
	attr := unix.PerfEventAttr{
		Type:        unix.PERF_TYPE_RAW,
		Size:        uint32(unsafe.Sizeof(unix.PerfEventAttr{})),
		Config:      encoding,
		Bits:        unix.PerfBitDisabled,
		Read_format: unix.PERF_FORMAT_TOTAL_TIME_ENABLED | unix.PERF_FORMAT_TOTAL_TIME_RUNNING | unix.PERF_FORMAT_ID,
	}

	fd, err := unix.PerfEventOpen(&attr, -1, cpuID, -1, 0)
	if err != nil {
		return probeHandle{}, err
	}
	return probeHandle{f: os.NewFile(uintptr(fd), "probe-counter")}, nil
}

func (h probeHandle) enable() error {
	return unix.IoctlSetInt(int(h.f.Fd()), unix.PERF_EVENT_IOC_ENABLE, 0)
}

func (h probeHandle) disable() error {
	return unix.IoctlSetInt(int(h.f.Fd()), unix.PERF_EVENT_IOC_DISABLE, 0)
}

func (h probeHandle) multiplexed() (bool, error) {
	buf := buffer.NewSingleReadBuffer()
	if _, err := h.f.Read(buf.Bytes()); err != nil {
		return false, err
	}
	return buf.TimeEnabled() != buf.TimeRunning(), nil
}

func (h probeHandle) close() {
	h.f.Close()
}

// probeCPU implements counter_detector.cpp's per-CPU probe: open an
// increasing number of raw counters (in probeEvents order), enable them
// all together, sleep briefly, disable, and check for multiplexing.
// Per spec.md §4.1, a failure to open a probe counter aborts the probe
// for this CPU and leaves it undetected (-1) rather than reporting the
// count reached so far.
func probeCPU(ctx context.Context, cpuID int) (int, error) {
	var handles []probeHandle
	defer func() {
		for _, h := range handles {
			h.close()
		}
	}()

	capacity := -1

	for n := 1; n < len(probeEvents); n++ {
		if err := ctx.Err(); err != nil {
			return -1, err
		}

		for len(handles) < n {
			h, err := openProbeCounter(probeEvents[len(handles)].encoding, cpuID)
			if err != nil {
				return -1, nil
			}
			handles = append(handles, h)
		}

		for _, h := range handles {
			if err := h.enable(); err != nil {
				return -1, err
			}
		}
		time.Sleep(probeSleep)
		for _, h := range handles {
			if err := h.disable(); err != nil {
				return -1, err
			}
		}

		mux := false
		for _, h := range handles {
			m, err := h.multiplexed()
			if err != nil {
				return -1, err
			}
			if m {
				mux = true
				break
			}
		}
		if mux {
			capacity = n - 1
			break
		}
	}

	return capacity, nil
}
