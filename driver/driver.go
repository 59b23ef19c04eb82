// Package driver orchestrates one measurement run: opening schedulers,
// driving the enable/read/switch loop at the configured interval, and
// feeding every read into an estimator and the raw CSV stream.
// Grounded on main.cpp's system_wide_measurement / per_process_measurement.
package driver

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os/exec"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/linux-perf-tools/hperf/catalog"
	"github.com/linux-perf-tools/hperf/config"
	"github.com/linux-perf-tools/hperf/estimate"
	"github.com/linux-perf-tools/hperf/report"
	"github.com/linux-perf-tools/hperf/sched"
)

// Driver runs one measurement for a given config and catalog, emitting
// raw records to csv (may be nil) and accumulating them into an
// estimate.Estimator.
type Driver struct {
	cfg config.Config
	cat catalog.Catalog
	csv *report.CSVWriter

	est *estimate.Estimator

	liveExporter *report.Exporter
	liveMetrics  report.MetricSet
}

// New returns a Driver. csv may be nil to skip raw-record output.
func New(cfg config.Config, cat catalog.Catalog, csv *report.CSVWriter) *Driver {
	return &Driver{cfg: cfg, cat: cat, csv: csv, est: estimate.New(cat)}
}

// Estimator returns the accumulated estimator. Valid to call at any
// time; call Estimate() on it yourself once Run returns.
func (d *Driver) Estimator() *estimate.Estimator { return d.est }

// SetLiveMetrics arms exporter to be refreshed with a current snapshot
// of ms's evaluated metrics every time a full interval's records have
// been recorded, for the duration of Run.
func (d *Driver) SetLiveMetrics(exporter *report.Exporter, ms report.MetricSet) {
	d.liveExporter = exporter
	d.liveMetrics = ms
}

// updateLiveMetrics refreshes the live exporter, if armed, with the
// metrics evaluated against the estimator's results so far. Safe to
// call repeatedly: Estimate recomputes over whatever has accumulated.
func (d *Driver) updateLiveMetrics() {
	if d.liveExporter == nil {
		return
	}
	d.est.Estimate()
	d.liveExporter.Update(-1, report.Evaluate(d.liveMetrics, report.Variables(d.cat, d.est)))
}

// Run launches a subprocess if the config calls for one, then drives
// the measurement to completion: system-wide across the configured
// CPUs, or per-process against a single PID.
func (d *Driver) Run(ctx context.Context) error {
	pid := d.cfg.TargetPID

	if d.cfg.Mode == config.Subprocess {
		cmd := exec.Command(d.cfg.CommandArgs[0], d.cfg.CommandArgs[1:]...)
		if err := cmd.Start(); err != nil {
			return errors.Wrapf(err, "execute command %q", d.cfg.CommandArgs[0])
		}
		pid = cmd.Process.Pid
		slog.Info("command started", slog.Int("pid", pid))
		time.Sleep(100 * time.Millisecond)
	}

	if d.cfg.Mode == config.TrackPID || d.cfg.Mode == config.Subprocess {
		if err := checkProcessExists(pid); err != nil {
			return err
		}
		slog.Info("monitoring process", slog.Int("pid", pid))
	}

	if d.cfg.Mode == config.SystemWide {
		return d.runSystemWide(ctx)
	}
	return d.runPerProcess(ctx, pid)
}

func checkProcessExists(pid int) error {
	if err := syscall.Kill(pid, 0); err != nil {
		return errors.Wrapf(err, "process %d does not exist", pid)
	}
	return nil
}

func (d *Driver) interval() time.Duration {
	ms := d.cfg.IntervalMS
	if ms <= 0 {
		ms = 1000
	}
	return time.Duration(ms) * time.Millisecond
}

// runSystemWide measures all configured CPUs in lockstep: one
// scheduler per CPU, all advancing through their groups together.
func (d *Driver) runSystemWide(ctx context.Context) error {
	schedulers := make([]*sched.Scheduler, len(d.cfg.CPUIDs))
	for i, cpu := range d.cfg.CPUIDs {
		s := sched.New(sched.Target{PID: -1, CPU: cpu}, d.cat.Fixed, d.cat.Groups)
		if err := s.Initialize(); err != nil {
			closeAll(schedulers[:i])
			return errors.Wrapf(err, "initialize scheduler on cpu %d", cpu)
		}
		schedulers[i] = s
	}
	defer closeAll(schedulers)

	for i, s := range schedulers {
		if err := s.ResetAllGroups(); err != nil {
			return errors.Wrapf(err, "reset counters on cpu %d", d.cfg.CPUIDs[i])
		}
	}

	start := time.Now()
	deadline := start.Add(time.Duration(d.cfg.EffectiveDuration()) * time.Second)

	for i, s := range schedulers {
		if err := s.EnableActiveGroup(); err != nil {
			return errors.Wrapf(err, "enable counters on cpu %d", d.cfg.CPUIDs[i])
		}
	}

	slog.Info("system-wide: collecting data")

	ticker := time.NewTicker(d.interval())
	defer ticker.Stop()

loop:
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
		}
		if !time.Now().Before(deadline) {
			break
		}

		now := uint64(time.Since(start).Nanoseconds())
		for i, s := range schedulers {
			d.readAndRecord(s, -1, d.cfg.CPUIDs[i], now)
		}
		d.updateLiveMetrics()
		for i, s := range schedulers {
			if err := s.SwitchToNextGroup(); err != nil {
				slog.Warn("failed to switch event group", slog.Int("cpu", d.cfg.CPUIDs[i]), slog.Any("error", err))
			}
		}
	}

	for i, s := range schedulers {
		if err := s.DisableActiveGroup(); err != nil {
			slog.Error("failed to stop counters", slog.Int("cpu", d.cfg.CPUIDs[i]), slog.Any("error", err))
		}
	}

	slog.Info("system-wide: data collection finished")
	return nil
}

// runPerProcess measures a single PID, polling its liveness every
// interval and stopping early if it exits.
func (d *Driver) runPerProcess(ctx context.Context, pid int) error {
	s := sched.New(sched.Target{PID: pid, CPU: -1}, d.cat.Fixed, d.cat.Groups)
	if err := s.Initialize(); err != nil {
		return errors.Wrapf(err, "initialize event groups for pid %d", pid)
	}
	defer s.Close()

	if err := s.ResetAllGroups(); err != nil {
		return errors.Wrapf(err, "reset counters for pid %d", pid)
	}

	start := time.Now()
	deadline := start.Add(time.Duration(d.cfg.EffectiveDuration()) * time.Second)

	if err := s.EnableActiveGroup(); err != nil {
		return errors.Wrapf(err, "enable counters for pid %d", pid)
	}

	slog.Info("per-process: collecting data", slog.Int("pid", pid))

	ticker := time.NewTicker(d.interval())
	defer ticker.Stop()

loop:
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
		}
		if !time.Now().Before(deadline) {
			break
		}

		if !processAlive(pid) {
			slog.Info("target process has terminated, stopping measurement", slog.Int("pid", pid))
			break
		}

		now := uint64(time.Since(start).Nanoseconds())
		d.readAndRecord(s, pid, -1, now)
		d.updateLiveMetrics()

		if err := s.SwitchToNextGroup(); err != nil {
			slog.Warn("failed to switch event group", slog.Int("pid", pid), slog.Any("error", err))
		}
	}

	if err := s.DisableActiveGroup(); err != nil {
		slog.Error("failed to stop counters", slog.Int("pid", pid), slog.Any("error", err))
	}

	slog.Info("per-process: data collection finished", slog.Int("pid", pid))
	return nil
}

// processAlive reports whether pid is still running, reaping it first
// if it is our own terminated child (mirroring main.cpp's waitpid +
// kill(pid, 0) fallback for externally-tracked PIDs).
func processAlive(pid int) bool {
	var status syscall.WaitStatus
	result, err := syscall.Wait4(pid, &status, syscall.WNOHANG, nil)
	if result > 0 {
		return false
	}
	if err != nil && err != syscall.ECHILD {
		return false
	}
	return syscall.Kill(pid, 0) == nil
}

func (d *Driver) readAndRecord(s *sched.Scheduler, cpuForRecord, cpuForLog int, timestampNS uint64) {
	groupIdx := s.ActiveGroupIdx()
	buf, err := s.ReadActiveGroupData()
	if err != nil && !stderrors.Is(err, sched.ErrShortRead) {
		slog.Error("failed to read event counts", slog.Int("cpu", cpuForLog), slog.Any("error", err))
		return
	}
	if err != nil {
		slog.Warn("short read from event group, using partial data", slog.Int("cpu", cpuForLog), slog.Any("error", err))
	}

	names := d.slotNames(groupIdx)
	for slot := 0; slot < len(names); slot++ {
		entry, ok := buf.Entry(slot)
		if !ok {
			break
		}
		d.est.Process(estimate.Record{
			TimestampNS: timestampNS,
			CPU:         cpuForRecord,
			GroupIdx:    groupIdx,
			SlotIdx:     slot,
			Value:       entry.Value,
		})
		if d.csv != nil {
			if err := d.csv.WriteRecord(timestampNS, cpuForRecord, groupIdx, names[slot], entry.Value); err != nil {
				slog.Error("failed to write raw record", slog.Any("error", err))
			}
		}
	}
}

func (d *Driver) slotNames(groupIdx int) []string {
	schedulable := d.cat.Group(groupIdx)
	names := make([]string, 0, len(d.cat.Fixed)+len(schedulable))
	for _, ev := range d.cat.Fixed {
		names = append(names, ev.Name)
	}
	for _, ev := range schedulable {
		names = append(names, ev.Name)
	}
	return names
}

func closeAll(schedulers []*sched.Scheduler) {
	for _, s := range schedulers {
		if s != nil {
			s.Close()
		}
	}
}
