package report

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const promMetricPrefix = "hperf_"

var rxTrailingPct = regexp.MustCompile(`%$`)

// Exporter serves the currently evaluated metrics as Prometheus gauges,
// an expansion over the console/CSV outputs for continuous monitoring.
// Grounded on PerfSpect's metrics_server.go.
type Exporter struct {
	registry *prometheus.Registry
	gauges   map[string]*prometheus.GaugeVec
	server   *http.Server
}

// NewExporter registers one gauge per metric in ms, labeled by CPU id.
func NewExporter(ms MetricSet) *Exporter {
	reg := prometheus.NewRegistry()
	gauges := make(map[string]*prometheus.GaugeVec, len(ms.Metrics))
	for _, m := range ms.Metrics {
		name := promMetricPrefix + sanitizeMetricName(m.Name)
		gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: name,
			Help: m.Name + " (expr: " + m.Expression + ")",
		}, []string{"cpu"})
		reg.MustRegister(gauge)
		gauges[m.Name] = gauge
	}
	return &Exporter{registry: reg, gauges: gauges}
}

func sanitizeMetricName(name string) string {
	s := rxTrailingPct.ReplaceAllString(name, "pct")
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, s)
	return s
}

// Update sets each metric's gauge for the given CPU. A cpu of -1 is
// recorded as label "all", for values not tied to one CPU: a
// per-process run, or a system-wide run aggregated across its CPUs.
func (e *Exporter) Update(cpu int, results []MetricResult) {
	cpuLabel := "all"
	if cpu >= 0 {
		cpuLabel = strconv.Itoa(cpu)
	}
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		if g, ok := e.gauges[r.Name]; ok {
			g.WithLabelValues(cpuLabel).Set(r.Value)
		}
	}
}

// Serve starts the "/metrics" HTTP endpoint on addr and blocks until
// ctx is cancelled, then shuts the server down.
func (e *Exporter) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))
	e.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 3 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting prometheus metrics server", slog.String("address", addr))
		errCh <- e.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return e.server.Close()
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}
