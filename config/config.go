// Package config holds the profiling options hperf's core is driven by.
// The core never parses command-line arguments itself (spec.md's
// "consumed by the core via a config object, not parsed by it"): a
// front end such as cmd/hperf builds a Config, validates it, and passes
// it to the driver.
package config

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Mode selects what hperf measures.
type Mode int

const (
	// SystemWide measures all processes on a set of CPUs.
	SystemWide Mode = iota
	// TrackPID measures a single, externally-running process by PID.
	TrackPID
	// Subprocess launches a command and measures it.
	Subprocess
)

func (m Mode) String() string {
	switch m {
	case SystemWide:
		return "system-wide"
	case TrackPID:
		return "track-pid"
	case Subprocess:
		return "subprocess"
	default:
		return "unknown"
	}
}

// MaxSubprocessDurationSeconds is the compile-time ceiling spec.md §4.4
// applies to per-process measurement when no duration was given.
const MaxSubprocessDurationSeconds = 600

// DefaultCapacityFilePath is the well-known path the counter detector
// persists its result to, per spec.md §4.1.
const DefaultCapacityFilePath = "/tmp/.hperf"

// Config is the full set of profiling options, matching spec.md §6's
// command surface one field at a time.
type Config struct {
	Mode Mode

	// DurationSeconds is required (>0) for SystemWide; optional for
	// TrackPID/Subprocess, where MaxSubprocessDurationSeconds applies if
	// unset (<=0).
	DurationSeconds int

	// IntervalMS is the event-group switch interval. Defaults to 1000.
	IntervalMS int

	// CPUIDs is the set of CPUs to measure, system-wide only. Empty means
	// "all online CPUs".
	CPUIDs []int

	// TargetPID is the PID to track in TrackPID mode; -1 in the other
	// modes. The child launched for Subprocess mode is tracked by the
	// driver itself and its PID is not stored here.
	TargetPID int

	// OutputPath is the raw-CSV destination file. Empty means stdout.
	OutputPath string

	// DetectCountersOnly, if true, only runs the counter detector and
	// prints its result; no measurement occurs.
	DetectCountersOnly bool

	// OptimizeGroups runs the counter detector and feeds its result into
	// the adaptive grouper before measurement.
	OptimizeGroups bool

	// CommandArgs is the command (argv[0] plus arguments) to launch for
	// Subprocess mode.
	CommandArgs []string

	// CPUModel selects the catalog.Lookup tag for the static event
	// catalog. Expansion over spec.md: the catalog is "supplied
	// configuration data", and this field is how a caller supplies it.
	CPUModel string

	// CapacityFilePath overrides DefaultCapacityFilePath, mainly for
	// tests.
	CapacityFilePath string

	// MetricsAddr, if non-empty, serves a Prometheus exporter of live
	// estimator output at this address (expansion; see report package).
	MetricsAddr string
}

// NewDefault returns a Config with the spec's defaults (interval 1000ms,
// no target, -1 PID, default capacity file path) and the given mode.
func NewDefault(mode Mode) Config {
	return Config{
		Mode:             mode,
		IntervalMS:       1000,
		TargetPID:        -1,
		CapacityFilePath: DefaultCapacityFilePath,
	}
}

// Validate checks the exclusivity and field requirements from spec.md
// §6: exactly one of (system-wide, PID given, command given), and
// system-wide requires a positive duration.
func (c Config) Validate() error {
	if c.DetectCountersOnly {
		// detect-counters exits before any other validation, matching
		// args_parser.cpp's "if '--detect-counters' specified, end parsing
		// immediately".
		return nil
	}

	switch c.Mode {
	case SystemWide:
		if c.TargetPID >= 0 {
			return errors.New("system-wide mode cannot combine with a target PID")
		}
		if len(c.CommandArgs) > 0 {
			return errors.New("system-wide mode cannot combine with a command")
		}
		if c.DurationSeconds <= 0 {
			return errors.New("system-wide measurement requires duration_seconds > 0")
		}
		for _, id := range c.CPUIDs {
			if id < 0 {
				return errors.Errorf("invalid CPU id %d in cpu_ids", id)
			}
		}
	case TrackPID:
		if c.TargetPID < 0 {
			return errors.New("track-pid mode requires a non-negative target_pid")
		}
		if len(c.CommandArgs) > 0 {
			return errors.New("track-pid mode cannot combine with a command")
		}
	case Subprocess:
		if len(c.CommandArgs) == 0 {
			return errors.New("subprocess mode requires command_args")
		}
		if c.TargetPID >= 0 {
			return errors.New("subprocess mode cannot combine with a target PID")
		}
	default:
		return errors.Errorf("unknown mode %v", c.Mode)
	}

	if c.IntervalMS <= 0 {
		return errors.New("interval_ms must be > 0")
	}

	return nil
}

// EffectiveDuration returns the duration to measure for, applying
// MaxSubprocessDurationSeconds when the mode allows an unbounded
// duration and none was given.
func (c Config) EffectiveDuration() int {
	if c.DurationSeconds > 0 {
		return c.DurationSeconds
	}
	if c.Mode == TrackPID || c.Mode == Subprocess {
		return MaxSubprocessDurationSeconds
	}
	return 0
}

// ParseCPUList parses a comma-separated list of CPU ids and/or
// ascending ranges ("1,3-5,7" -> [1,3,4,5,7]), per spec.md §6. Any
// malformed token anywhere in the string (empty token, non-numeric
// bound, negative id, or a descending range) makes the whole parse fail
// and returns nil. An empty string also returns nil.
func ParseCPUList(s string) []int {
	var result []int
	if s == "" {
		return result
	}

	for _, token := range strings.Split(s, ",") {
		if token == "" {
			return nil
		}

		if dash := strings.IndexByte(token, '-'); dash < 0 {
			cpu, err := strconv.Atoi(token)
			if err != nil || cpu < 0 {
				return nil
			}
			result = append(result, cpu)
		} else {
			startStr, endStr := token[:dash], token[dash+1:]
			start, err1 := strconv.Atoi(startStr)
			end, err2 := strconv.Atoi(endStr)
			if err1 != nil || err2 != nil || start < 0 || end < 0 || end < start {
				return nil
			}
			for i := start; i <= end; i++ {
				result = append(result, i)
			}
		}
	}
	return result
}
