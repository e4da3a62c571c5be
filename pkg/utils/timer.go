package utils

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase is one named, timed span of work recorded on a Timer.
type Phase struct {
	Name      string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	completed bool
}

// PhaseTimer is the handle Start returns; Stop records the phase duration.
// Safe to call Stop more than once; only the first call takes effect, which
// makes `defer pt.Stop()` safe alongside an explicit Stop on the happy path.
type PhaseTimer struct {
	timer *Timer
	name  string
}

// Stop ends the phase and returns its duration.
func (pt *PhaseTimer) Stop() time.Duration {
	return pt.timer.StopPhase(pt.name)
}

// Timer records named phases (per-node execution, per-group joins) and
// renders a summary through a Logger. A disabled Timer is a no-op so callers
// never need to branch on whether timing is wanted.
type Timer struct {
	mu      sync.RWMutex
	name    string
	started time.Time
	phases  map[string]*Phase
	order   []string
	logger  Logger
	enabled bool
	clock   Clock
}

// TimerOption configures a Timer at construction.
type TimerOption func(*Timer)

// WithLogger directs PrintSummary output at logger. A nil logger keeps the
// summary silent.
func WithLogger(logger Logger) TimerOption {
	return func(t *Timer) { t.logger = logger }
}

// WithEnabled switches timing off entirely when false.
func WithEnabled(enabled bool) TimerOption {
	return func(t *Timer) { t.enabled = enabled }
}

// WithClock substitutes the clock, letting tests drive phase durations.
func WithClock(clock Clock) TimerOption {
	return func(t *Timer) { t.clock = clock }
}

// NewTimer creates a Timer named name.
func NewTimer(name string, opts ...TimerOption) *Timer {
	t := &Timer{
		name:    name,
		phases:  make(map[string]*Phase),
		enabled: true,
		clock:   NewRealClock(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.started = t.clock.Now()
	return t
}

// Start begins timing a phase. Starting an existing name restarts it.
func (t *Timer) Start(name string) *PhaseTimer {
	pt := &PhaseTimer{timer: t, name: name}
	if !t.enabled {
		return pt
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.phases[name]; !exists {
		t.order = append(t.order, name)
	}
	t.phases[name] = &Phase{Name: name, StartTime: t.clock.Now()}
	return pt
}

// StopPhase ends the named phase and returns its duration. Stopping an
// unknown or already-stopped phase returns the recorded duration (zero for
// unknown) without error.
func (t *Timer) StopPhase(name string) time.Duration {
	if !t.enabled {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	phase, ok := t.phases[name]
	if !ok {
		return 0
	}
	if phase.completed {
		return phase.Duration
	}
	phase.EndTime = t.clock.Now()
	phase.Duration = phase.EndTime.Sub(phase.StartTime)
	phase.completed = true
	return phase.Duration
}

// GetDuration returns the recorded duration of a phase, zero if unknown.
func (t *Timer) GetDuration(name string) time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if phase, ok := t.phases[name]; ok {
		return phase.Duration
	}
	return 0
}

// TotalDuration is the time elapsed since the Timer was created.
func (t *Timer) TotalDuration() time.Duration {
	return t.clock.Since(t.started)
}

// Phases returns copies of all phases in start order.
func (t *Timer) Phases() []Phase {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Phase, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, *t.phases[name])
	}
	return out
}

// Summary renders the phase timings as a multi-line string.
func (t *Timer) Summary() string {
	if !t.enabled {
		return ""
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== %s timing ===\n", t.name)
	for i, name := range t.order {
		fmt.Fprintf(&sb, "  %d. %s: %v\n", i+1, name, t.phases[name].Duration)
	}
	fmt.Fprintf(&sb, "total: %v\n", t.TotalDuration())
	return sb.String()
}

// PrintSummary logs the phase timings at debug level, one line per phase.
func (t *Timer) PrintSummary() {
	if !t.enabled || t.logger == nil {
		return
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	t.logger.Debug("=== %s timing ===", t.name)
	for i, name := range t.order {
		t.logger.Debug("  %d. %s: %v", i+1, name, t.phases[name].Duration)
	}
	t.logger.Debug("total: %v", t.TotalDuration())
}

// Reset drops every recorded phase and restarts the total-duration clock.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = make(map[string]*Phase)
	t.order = nil
	t.started = t.clock.Now()
}
