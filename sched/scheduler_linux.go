//go:build linux

package sched

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/linux-perf-tools/hperf/buffer"
	"github.com/linux-perf-tools/hperf/catalog"
)

// groupHandle owns the kernel file descriptors for one perf_event
// group: fds[0] is the group leader. It is move-only by convention --
// callers pass it by value but must not use a groupHandle after
// close(), and there is no exported copy constructor.
type groupHandle struct {
	fds []*os.File
}

func openGroup(events []catalog.Event, pid, cpu int) (groupHandle, error) {
	fds := make([]*os.File, 0, len(events))

	cleanup := func() {
		for _, f := range fds {
			f.Close()
		}
	}

	leaderFD := -1
	for i, ev := range events {
		isLeader := i == 0

		attr := unix.PerfEventAttr{
			Type:   unix.PERF_TYPE_RAW,
			Size:   uint32(unsafe.Sizeof(unix.PerfEventAttr{})),
			Config: ev.Encoding,
		}
		if isLeader {
			attr.Read_format = unix.PERF_FORMAT_TOTAL_TIME_ENABLED |
				unix.PERF_FORMAT_TOTAL_TIME_RUNNING |
				unix.PERF_FORMAT_ID |
				unix.PERF_FORMAT_GROUP
			attr.Bits = unix.PerfBitDisabled
		}

		fd, err := unix.PerfEventOpen(&attr, pid, cpu, leaderFD, 0)
		if err != nil {
			cleanup()
			return groupHandle{}, errWrapOpen(ev.Name, pid, cpu, err)
		}

		f := os.NewFile(uintptr(fd), "perf-event-"+ev.Name)
		fds = append(fds, f)
		if isLeader {
			leaderFD = int(f.Fd())
		}
	}

	return groupHandle{fds: fds}, nil
}

func (h groupHandle) control(request uint) error {
	if len(h.fds) == 0 {
		return errNotOpened
	}
	return unix.IoctlSetInt(int(h.fds[0].Fd()), request, unix.PERF_IOC_FLAG_GROUP)
}

func (h groupHandle) reset() error   { return h.control(unix.PERF_EVENT_IOC_RESET) }
func (h groupHandle) enable() error  { return h.control(unix.PERF_EVENT_IOC_ENABLE) }
func (h groupHandle) disable() error { return h.control(unix.PERF_EVENT_IOC_DISABLE) }

func (h groupHandle) read(buf *buffer.GroupReadBuffer) (int, error) {
	if len(h.fds) == 0 {
		return 0, errNotOpened
	}
	return h.fds[0].Read(buf.Bytes())
}

func (h groupHandle) close() {
	for _, f := range h.fds {
		f.Close()
	}
}
