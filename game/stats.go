package game

import (
	"math"
	"sync"
	"time"
)

const (
	// slowExecutionThreshold defines handler executions considered "slow".
	slowExecutionThreshold = 50 * time.Millisecond
	// maxErrorMessageLength is the maximum length of error messages stored.
	maxErrorMessageLength = 128
)

// RateStats tracks EMA of event counts (events per second) over several
// windows.
type RateStats struct {
	SecondRate float64
	MinuteRate float64
	HourRate   float64
	lastUpdate time.Time
}

// update applies a new observation. count is the number of events since the
// last update; alpha = 1 - exp(-elapsed/window) handles variable intervals.
func (r *RateStats) update(count uint64) {
	now := time.Now()
	if r.lastUpdate.IsZero() {
		r.lastUpdate = now
		return
	}
	elapsed := now.Sub(r.lastUpdate).Seconds()
	if elapsed <= 0 {
		return
	}
	instantRate := float64(count) / elapsed

	alphaSecond := 1 - math.Exp(-elapsed/1.0)
	alphaMinute := 1 - math.Exp(-elapsed/60.0)
	alphaHour := 1 - math.Exp(-elapsed/3600.0)

	r.SecondRate = alphaSecond*instantRate + (1-alphaSecond)*r.SecondRate
	r.MinuteRate = alphaMinute*instantRate + (1-alphaMinute)*r.MinuteRate
	r.HourRate = alphaHour*instantRate + (1-alphaHour)*r.HourRate

	r.lastUpdate = now
}

// ScriptStats accumulates execution metrics for one script id.
type ScriptStats struct {
	Execs     uint64
	Errors    uint64
	Slow      uint64
	Total     time.Duration
	Max       time.Duration
	LastEvent string
	LastError string
	Rate      RateStats
}

// Stats tracks handler executions per script. Recording happens on the tick
// thread; the lock exists so debug tooling can snapshot from outside it.
type Stats struct {
	mu       sync.Mutex
	byScript map[string]*ScriptStats
}

func NewStats() *Stats {
	return &Stats{
		byScript: map[string]*ScriptStats{},
	}
}

func (s *Stats) Record(scriptID string, event string, dur time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.byScript[scriptID]
	if stats == nil {
		stats = &ScriptStats{}
		s.byScript[scriptID] = stats
	}
	stats.Execs++
	stats.Total += dur
	if dur > stats.Max {
		stats.Max = dur
	}
	if dur >= slowExecutionThreshold {
		stats.Slow++
	}
	stats.LastEvent = event
	if err != nil {
		stats.Errors++
		msg := err.Error()
		if len(msg) > maxErrorMessageLength {
			msg = msg[:maxErrorMessageLength]
		}
		stats.LastError = msg
	}
	stats.Rate.update(1)
}

// Forget drops accumulated stats for a script id, typically on unload.
func (s *Stats) Forget(scriptID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byScript, scriptID)
}

// Snapshot returns a copy of all per-script stats.
func (s *Stats) Snapshot() map[string]ScriptStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[string]ScriptStats, len(s.byScript))
	for id, stats := range s.byScript {
		result[id] = *stats
	}
	return result
}
