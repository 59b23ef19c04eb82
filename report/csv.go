package report

import (
	"bufio"
	"fmt"
	"io"
)

// CSVWriter writes the raw per-interval record stream, one row per
// event read, matching Reporter::print_a_record's column order
// (1-indexed group number).
type CSVWriter struct {
	w           *bufio.Writer
	wroteHeader bool
}

// NewCSVWriter wraps w for buffered row-at-a-time writes. Call Flush
// when done.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: bufio.NewWriter(w)}
}

// WriteRecord appends one row. cpuID is -1 in per-process mode.
func (c *CSVWriter) WriteRecord(timestampNS uint64, cpuID, groupIdx int, eventName string, value uint64) error {
	if !c.wroteHeader {
		if _, err := c.w.WriteString("timestamp,cpu,group,event,value\n"); err != nil {
			return err
		}
		c.wroteHeader = true
	}
	_, err := fmt.Fprintf(c.w, "%d,%d,%d,%s,%d\n", timestampNS, cpuID, groupIdx+1, eventName, value)
	return err
}

// Flush flushes any buffered rows to the underlying writer.
func (c *CSVWriter) Flush() error { return c.w.Flush() }
