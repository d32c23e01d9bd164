package patterns

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// patternStats holds the effectiveness counters for one pattern. All fields
// are updated atomically so concurrent analyses never block each other.
type patternStats struct {
	matches    atomic.Int64
	totalNanos atomic.Int64
}

// PatternStats is a read-only snapshot of one pattern's effectiveness counters.
type PatternStats struct {
	Name          string
	Matches       int64
	AvgProcessing time.Duration
}

// Tracker accumulates pattern match counts and processing times. It is kept
// separate from the pattern definitions themselves so the active pattern set
// can be snapshotted and shared between unlimited concurrent readers.
type Tracker struct {
	stats sync.Map // pattern name -> *patternStats
}

// NewTracker creates a new effectiveness tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// RecordMatch records one match of the named pattern and its matching duration.
func (t *Tracker) RecordMatch(name string, elapsed time.Duration) {
	entry, _ := t.stats.LoadOrStore(name, &patternStats{})
	ps := entry.(*patternStats)
	ps.matches.Add(1)
	ps.totalNanos.Add(elapsed.Nanoseconds())
}

// Snapshot returns the current counters for every tracked pattern, sorted by
// match count descending. The snapshot is eventually consistent.
func (t *Tracker) Snapshot() []PatternStats {
	var out []PatternStats
	t.stats.Range(func(key, value any) bool {
		ps := value.(*patternStats)
		matches := ps.matches.Load()
		stat := PatternStats{
			Name:    key.(string),
			Matches: matches,
		}
		if matches > 0 {
			stat.AvgProcessing = time.Duration(ps.totalNanos.Load() / matches)
		}
		out = append(out, stat)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Matches > out[j].Matches })
	return out
}
