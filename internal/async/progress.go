package async

import (
	"context"
	"sync"
	"time"
)

// Phase is one named span of a simulated progress run. Percent advances
// towards Target over roughly Estimate.
type Phase struct {
	Name     string
	Status   string
	Target   int
	Estimate time.Duration
}

// ProgressUpdate is a point-in-time progress report.
type ProgressUpdate struct {
	Phase   string
	Status  string
	Percent int
}

// ProgressReporter receives progress updates for a long-running request.
type ProgressReporter interface {
	Report(u ProgressUpdate)
}

// ProgressDriver produces progress updates until its context is cancelled.
// The phase ticker below simulates progress locally; swapping in a driver
// fed by genuine server-reported progress requires no client changes.
type ProgressDriver interface {
	Drive(ctx context.Context, r ProgressReporter)
}

// PhaseTicker simulates phased progress on a fixed interval. It never
// reports 100%: completion is signalled by the request itself, not by the
// simulation.
type PhaseTicker struct {
	Phases   []Phase
	Interval time.Duration
}

func (t *PhaseTicker) Drive(ctx context.Context, r ProgressReporter) {
	interval := t.Interval
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	percent := 0
	for _, phase := range t.Phases {
		ticks := int(phase.Estimate / interval)
		if ticks < 1 {
			ticks = 1
		}
		step := (phase.Target - percent) / ticks
		if step < 1 {
			step = 1
		}

		r.Report(ProgressUpdate{Phase: phase.Name, Status: phase.Status, Percent: percent})
		for percent < phase.Target {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			percent += step
			if percent > phase.Target {
				percent = phase.Target
			}
			r.Report(ProgressUpdate{Phase: phase.Name, Status: phase.Status, Percent: percent})
		}
	}

	// Hold at the last phase until the request completes or is cancelled.
	<-ctx.Done()
}

// ProgressState is a thread-safe ProgressReporter that keeps the latest
// update for display.
type ProgressState struct {
	mu   sync.Mutex
	last ProgressUpdate
}

func (s *ProgressState) Report(u ProgressUpdate) {
	s.mu.Lock()
	s.last = u
	s.mu.Unlock()
}

// Last returns the most recent update.
func (s *ProgressState) Last() ProgressUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Reset clears the state back to zero progress.
func (s *ProgressState) Reset() {
	s.mu.Lock()
	s.last = ProgressUpdate{}
	s.mu.Unlock()
}

// NopReporter discards updates; used in tests and headless runs.
type NopReporter struct{}

func (NopReporter) Report(ProgressUpdate) {}
