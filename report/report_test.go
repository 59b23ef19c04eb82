package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linux-perf-tools/hperf/catalog"
	"github.com/linux-perf-tools/hperf/estimate"
)

func TestLookupBuiltinMetricSets(t *testing.T) {
	for _, model := range []string{"oryon", "cortex_x4"} {
		ms, err := Lookup(model)
		require.NoError(t, err)
		assert.Equal(t, model, ms.Model)
		assert.NotEmpty(t, ms.Metrics)
		for _, m := range ms.Metrics {
			assert.NotEmpty(t, m.Expression)
		}
	}
}

func TestLookupUnknownModel(t *testing.T) {
	_, err := Lookup("does-not-exist")
	assert.Error(t, err)
}

func TestEvaluateComputesCPI(t *testing.T) {
	ms, err := Load([]byte(`
model: test
metrics:
  - name: CPI
    unit: ""
    expression: cycles / instructions
`))
	require.NoError(t, err)

	results := Evaluate(ms, map[string]interface{}{
		"cycles":       float64(200),
		"instructions": float64(100),
	})
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, 2.0, results[0].Value)
}

func TestEvaluateMissingVariableProducesErrorNotPanic(t *testing.T) {
	ms, err := Load([]byte(`
model: test
metrics:
  - name: Bad
    expression: missing_var * 2
`))
	require.NoError(t, err)

	results := Evaluate(ms, map[string]interface{}{})
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}

func TestCSVWriterHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	require.NoError(t, w.WriteRecord(1000, 0, 0, "cpu_cycles", 12345))
	require.NoError(t, w.WriteRecord(2000, 0, 1, "inst_retired", 6789))
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "timestamp,cpu,group,event,value", lines[0])
	assert.Equal(t, "1000,0,1,cpu_cycles,12345", lines[1])
	assert.Equal(t, "2000,0,2,inst_retired,6789", lines[2])
}

func TestFormatWithCommas(t *testing.T) {
	cases := map[uint64]string{
		0:         "0",
		7:         "7",
		999:       "999",
		1000:      "1,000",
		1234567:   "1,234,567",
		123456789: "123,456,789",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatWithCommas(in))
	}
}

func TestPrintStatsIncludesFixedAndGroupSections(t *testing.T) {
	cat := catalog.Catalog{
		Model: "test",
		Fixed: []catalog.Event{{Name: "cpu_cycles", Encoding: 0x11}},
		Groups: [][]catalog.Event{
			{{Name: "inst_spec", Encoding: 0x1b}},
		},
	}
	est := estimate.New(cat)
	est.Process(estimate.Record{TimestampNS: 1_000_000_000, GroupIdx: 0, SlotIdx: 0, Value: 1000})
	est.Process(estimate.Record{TimestampNS: 1_000_000_000, GroupIdx: 0, SlotIdx: 1, Value: 500})
	est.Estimate()

	var buf bytes.Buffer
	PrintStats(&buf, cat, est)

	out := buf.String()
	assert.Contains(t, out, "Fixed events")
	assert.Contains(t, out, "cpu_cycles")
	assert.Contains(t, out, "Group 1")
	assert.Contains(t, out, "inst_spec")
}
