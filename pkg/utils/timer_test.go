package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimer_StartStopRecordsDuration(t *testing.T) {
	clock := NewMockClock(time.Now())
	timer := NewTimer("build", WithClock(clock))

	pt := timer.Start("insert")
	clock.Advance(250 * time.Millisecond)
	d := pt.Stop()

	assert.Equal(t, 250*time.Millisecond, d)
	assert.Equal(t, 250*time.Millisecond, timer.GetDuration("insert"))
}

func TestTimer_StopIsIdempotent(t *testing.T) {
	clock := NewMockClock(time.Now())
	timer := NewTimer("build", WithClock(clock))

	pt := timer.Start("merge")
	clock.Advance(time.Second)
	first := pt.Stop()
	clock.Advance(time.Second)
	second := pt.Stop()

	assert.Equal(t, first, second)
}

func TestTimer_StopUnknownPhaseIsZero(t *testing.T) {
	timer := NewTimer("build")
	assert.Equal(t, time.Duration(0), timer.StopPhase("never-started"))
	assert.Equal(t, time.Duration(0), timer.GetDuration("never-started"))
}

func TestTimer_PhasesKeepStartOrder(t *testing.T) {
	clock := NewMockClock(time.Now())
	timer := NewTimer("run", WithClock(clock))

	timer.Start("load").Stop()
	timer.Start("analyze").Stop()
	timer.Start("report").Stop()

	phases := timer.Phases()
	names := make([]string, len(phases))
	for i, p := range phases {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"load", "analyze", "report"}, names)
}

func TestTimer_TotalDuration(t *testing.T) {
	clock := NewMockClock(time.Now())
	timer := NewTimer("run", WithClock(clock))
	clock.Advance(3 * time.Second)
	assert.Equal(t, 3*time.Second, timer.TotalDuration())
}

func TestTimer_DisabledIsNoOp(t *testing.T) {
	clock := NewMockClock(time.Now())
	timer := NewTimer("run", WithClock(clock), WithEnabled(false))

	pt := timer.Start("phase")
	clock.Advance(time.Second)
	assert.Equal(t, time.Duration(0), pt.Stop())
	assert.Empty(t, timer.Phases())
	assert.Equal(t, "", timer.Summary())
}

func TestTimer_Summary(t *testing.T) {
	clock := NewMockClock(time.Now())
	timer := NewTimer("workflow", WithClock(clock))

	pt := timer.Start("node-a")
	clock.Advance(100 * time.Millisecond)
	pt.Stop()

	summary := timer.Summary()
	assert.Contains(t, summary, "workflow timing")
	assert.Contains(t, summary, "node-a")
	assert.Contains(t, summary, "100ms")
}

func TestTimer_Reset(t *testing.T) {
	clock := NewMockClock(time.Now())
	timer := NewTimer("run", WithClock(clock))
	timer.Start("phase").Stop()
	timer.Reset()
	assert.Empty(t, timer.Phases())
}
