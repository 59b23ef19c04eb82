package detect

import (
	"bufio"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// save writes one decimal capacity per line to path, one line per CPU,
// in CPU-id order. A capacity of -1 means "undetected".
func save(path string, capacities []int) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, c := range capacities {
		if _, err := w.WriteString(strconv.Itoa(c) + "\n"); err != nil {
			return errors.Wrapf(err, "write %s", path)
		}
	}
	return w.Flush()
}

// load reads path and returns its capacities along with whether the
// file was usable: it is usable only when it holds exactly cpuCount
// lines, each a valid integer, per counter_detector.cpp's
// load_detected_result (a length mismatch forces a fresh probe).
func load(path string, cpuCount int) ([]int, bool) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	var capacities []int
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		v, err := strconv.Atoi(sc.Text())
		if err != nil {
			return nil, false
		}
		capacities = append(capacities, v)
	}
	if sc.Err() != nil {
		return nil, false
	}
	if len(capacities) != cpuCount {
		return nil, false
	}
	return capacities, true
}
