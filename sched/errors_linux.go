//go:build linux

package sched

import "github.com/pkg/errors"

var errNotOpened = errors.New("event group has no open file descriptors")

func errWrapOpen(name string, pid, cpu int, err error) error {
	return errors.Wrapf(err, "open event %q (pid=%d, cpu=%d)", name, pid, cpu)
}
