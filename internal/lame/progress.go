package lame

import "sync"

// progressTable holds the last reported percent per worker. Every update
// recomputes the arithmetic mean over all entries and hands it to the
// report callback. The mean is not monotonic when workers advance at
// different rates.
type progressTable struct {
	mu      sync.Mutex
	percent []int
	report  func(int)
}

func newProgressTable(workers int, report func(int)) *progressTable {
	return &progressTable{
		percent: make([]int, workers),
		report:  report,
	}
}

// set records a worker's percent and reports the new aggregate. The
// report call happens under the lock so aggregates are delivered in the
// order they were computed.
func (t *progressTable) set(worker, percent int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.percent[worker] = percent
	if t.report == nil {
		return
	}

	sum := 0
	for _, p := range t.percent {
		sum += p
	}
	t.report(sum / len(t.percent))
}
