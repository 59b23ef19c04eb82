// Command hperf samples ARM PMU hardware counters and reports estimated
// whole-measurement event counts and derived metrics, either
// system-wide across a set of CPUs or against a single process.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/linux-perf-tools/hperf/catalog"
	"github.com/linux-perf-tools/hperf/config"
	"github.com/linux-perf-tools/hperf/detect"
	"github.com/linux-perf-tools/hperf/driver"
	"github.com/linux-perf-tools/hperf/group"
	"github.com/linux-perf-tools/hperf/report"
)

var (
	flagDuration     int
	flagInterval     int
	flagSystemWide   bool
	flagCPUList      string
	flagPID          int
	flagOutput       string
	flagDetectOnly   bool
	flagOptimize     bool
	flagCPUModel     string
	flagCapacityFile string
	flagMetricsAddr  string
	flagLogLevel     string
)

const (
	flagDurationName     = "duration"
	flagIntervalName     = "interval"
	flagSystemWideName   = "system-wide"
	flagCPUListName      = "cpu"
	flagPIDName          = "pid"
	flagOutputName       = "output"
	flagDetectOnlyName   = "detect-counters"
	flagOptimizeName     = "optimize-event-groups"
	flagCPUModelName     = "cpu-model"
	flagCapacityFileName = "capacity-file"
	flagMetricsAddrName  = "metrics-addr"
	flagLogLevelName     = "log-level"
)

// parseLogLevel maps a --log-level value onto a slog.Level, defaulting
// to Info for an empty or unrecognized value.
func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hperf [flags] [-- command [args...]]",
		Short: "Sample ARM PMU hardware counters",
		RunE:  runRoot,
	}

	cmd.Flags().IntVarP(&flagDuration, flagDurationName, "d", 0, "measurement duration in seconds (required for --system-wide)")
	cmd.Flags().IntVarP(&flagInterval, flagIntervalName, "i", 1000, "event group switch interval in milliseconds")
	cmd.Flags().BoolVarP(&flagSystemWide, flagSystemWideName, "a", false, "measure system-wide across all or selected CPUs")
	cmd.Flags().StringVarP(&flagCPUList, flagCPUListName, "c", "", "comma-separated CPU ids/ranges for --system-wide, e.g. 0,2-3")
	cmd.Flags().IntVarP(&flagPID, flagPIDName, "p", -1, "PID of a running process to measure")
	cmd.Flags().StringVarP(&flagOutput, flagOutputName, "o", "", "raw per-interval CSV output file (default stdout)")
	cmd.Flags().BoolVar(&flagDetectOnly, flagDetectOnlyName, false, "only detect available counters per CPU and exit")
	cmd.Flags().BoolVar(&flagOptimize, flagOptimizeName, false, "detect counters and adaptively merge event groups before measuring")
	cmd.Flags().StringVar(&flagCPUModel, flagCPUModelName, "oryon", "PMU event catalog to use (oryon, cortex_x4)")
	cmd.Flags().StringVar(&flagCapacityFile, flagCapacityFileName, config.DefaultCapacityFilePath, "counter capacity cache file")
	cmd.Flags().StringVar(&flagMetricsAddr, flagMetricsAddrName, "", "if set, serve live metrics as Prometheus gauges on this address")
	cmd.Flags().StringVar(&flagLogLevel, flagLogLevelName, "info", "log level: debug, info, warn, or error")

	return cmd
}

func buildConfig(commandArgs []string) (config.Config, error) {
	modesGiven := 0
	for _, given := range []bool{flagSystemWide, flagPID >= 0, len(commandArgs) > 0} {
		if given {
			modesGiven++
		}
	}
	if modesGiven > 1 && !flagDetectOnly {
		return config.Config{}, fmt.Errorf("--system-wide, --pid, and a command to run are mutually exclusive")
	}

	mode := config.SystemWide
	switch {
	case flagPID >= 0:
		mode = config.TrackPID
	case len(commandArgs) > 0:
		mode = config.Subprocess
	case flagSystemWide || flagDetectOnly:
		mode = config.SystemWide
	default:
		return config.Config{}, fmt.Errorf("specify --system-wide, --pid, or a command to run")
	}

	cfg := config.NewDefault(mode)
	cfg.DurationSeconds = flagDuration
	cfg.IntervalMS = flagInterval
	cfg.OutputPath = flagOutput
	cfg.DetectCountersOnly = flagDetectOnly
	cfg.OptimizeGroups = flagOptimize
	cfg.CPUModel = flagCPUModel
	cfg.CapacityFilePath = flagCapacityFile
	cfg.MetricsAddr = flagMetricsAddr
	cfg.CommandArgs = commandArgs

	if mode == config.TrackPID {
		cfg.TargetPID = flagPID
	}

	if mode == config.SystemWide {
		cpuIDs := config.ParseCPUList(flagCPUList)
		if flagCPUList != "" && cpuIDs == nil {
			return config.Config{}, fmt.Errorf("invalid --cpu list %q", flagCPUList)
		}
		if cpuIDs == nil {
			cpuIDs = onlineCPUs()
		}
		cfg.CPUIDs = cpuIDs
	}

	return cfg, nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(flagLogLevel),
	})))

	cfg, err := buildConfig(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DetectCountersOnly {
		return runDetectOnly(ctx, cfg)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	cat, err := catalog.Lookup(cfg.CPUModel)
	if err != nil {
		return err
	}

	if cfg.OptimizeGroups {
		if cat, err = optimizeCatalog(ctx, cfg, cat); err != nil {
			return err
		}
	}

	out := os.Stdout
	if cfg.OutputPath != "" {
		f, err := os.Create(cfg.OutputPath)
		if err != nil {
			return fmt.Errorf("open output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	csv := report.NewCSVWriter(out)
	defer csv.Flush()

	d := driver.New(cfg, cat, csv)

	ms, msErr := report.Lookup(cfg.CPUModel)
	if msErr != nil {
		slog.Warn("no metric set for model, derived metrics disabled", slog.String("model", cfg.CPUModel))
	}

	if cfg.MetricsAddr != "" && msErr == nil {
		exporter := report.NewExporter(ms)
		d.SetLiveMetrics(exporter, ms)
		go func() {
			if err := exporter.Serve(ctx, cfg.MetricsAddr); err != nil {
				slog.Error("metrics server stopped", slog.Any("error", err))
			}
		}()
	}

	if err := d.Run(ctx); err != nil {
		return err
	}

	est := d.Estimator()
	est.Estimate()

	report.PrintStats(os.Stdout, cat, est)

	if msErr == nil {
		report.PrintMetrics(os.Stdout, ms, report.Variables(cat, est))
	}

	return nil
}

func runDetectOnly(ctx context.Context, cfg config.Config) error {
	cpuIDs := cfg.CPUIDs
	if len(cpuIDs) == 0 {
		cpuIDs = onlineCPUs()
	}

	fmt.Println("Detecting available programmable counters on each CPU ...")
	det := detect.New(cpuIDs, cfg.CapacityFilePath)
	if err := det.Detect(ctx); err != nil {
		return err
	}
	for _, cpu := range cpuIDs {
		n, err := det.Capacity(cpu)
		if err != nil {
			fmt.Printf("CPU %d: %v\n", cpu, err)
			continue
		}
		fmt.Printf("CPU %d: %d counters\n", cpu, n)
	}
	return nil
}

func optimizeCatalog(ctx context.Context, cfg config.Config, cat catalog.Catalog) (catalog.Catalog, error) {
	cpuIDs := cfg.CPUIDs
	if len(cpuIDs) == 0 {
		cpuIDs = onlineCPUs()
	}

	fmt.Println("Detecting available programmable counters on each CPU ...")
	det := detect.New(cpuIDs, cfg.CapacityFilePath)
	if err := det.Detect(ctx); err != nil {
		return cat, err
	}
	minCap, err := det.MinCapacity()
	if err != nil {
		return cat, err
	}

	budget := minCap - len(cat.Fixed)
	if budget < 0 {
		budget = 0
	}

	fmt.Println("Adaptive grouping:")
	fmt.Printf("Before: %d groups\n", cat.GroupCount())
	cat.SetGroups(group.Merge(cat.Groups, budget))
	fmt.Printf("After: %d groups\n", cat.GroupCount())

	return cat, nil
}

// onlineCPUs returns every CPU id runtime.NumCPU reports as available to
// this process, used as the default --cpu set for system-wide mode.
func onlineCPUs() []int {
	ids := make([]int, runtime.NumCPU())
	for i := range ids {
		ids[i] = i
	}
	return ids
}
