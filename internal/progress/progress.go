package progress

import (
	"fmt"
	"sync/atomic"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Tracker tracks progress for a single export job.
type Tracker interface {
	SetStage(stage string)
	SetProgress(current, total int64)
	Done()
	Fail(err error)
}

// Manager creates trackers for individual jobs.
type Manager interface {
	NewTracker(index, total int, name string) Tracker
	Wait()
}

// MPBManager implements Manager using the mpb multi-progress-bar library.
type MPBManager struct {
	container *mpb.Progress
}

// NewMPBManager creates a new mpb-based progress manager.
func NewMPBManager() *MPBManager {
	p := mpb.New(mpb.WithWidth(40))
	return &MPBManager{container: p}
}

// NewTracker creates a new progress bar for a job.
func (m *MPBManager) NewTracker(index, total int, name string) Tracker {
	stageVal := &atomic.Value{}
	stageVal.Store("queued")
	bar := m.container.AddBar(100,
		mpb.PrependDecorators(
			decor.Name(fmt.Sprintf("[%d/%d] %s ", index+1, total, name), decor.WCSyncSpaceR),
		),
		mpb.AppendDecorators(
			decor.Any(func(s decor.Statistics) string {
				return stageVal.Load().(string)
			}),
		),
	)

	return &mpbTracker{bar: bar, stagePtr: stageVal}
}

// Wait waits for all progress bars to finish.
func (m *MPBManager) Wait() {
	m.container.Wait()
}

type mpbTracker struct {
	bar      *mpb.Bar
	stagePtr *atomic.Value
}

func (t *mpbTracker) SetStage(stage string) {
	t.stagePtr.Store(stage)
}

func (t *mpbTracker) SetProgress(current, total int64) {
	if total > 0 {
		pct := int64(float64(current) / float64(total) * 100)
		t.bar.SetCurrent(pct)
	}
}

func (t *mpbTracker) Done() {
	t.stagePtr.Store("done")
	t.bar.SetCurrent(100)
	t.bar.Abort(false) // complete without removing
}

func (t *mpbTracker) Fail(err error) {
	t.stagePtr.Store("failed: " + err.Error())
	t.bar.Abort(false) // keep the bar visible
}

// NoopManager is a silent progress manager that only counts outcomes.
type NoopManager struct {
	Completed int32
	Failed    int32
}

func (m *NoopManager) NewTracker(index, total int, name string) Tracker {
	return &noopTracker{mgr: m}
}

func (m *NoopManager) Wait() {}

type noopTracker struct {
	mgr *NoopManager
}

func (t *noopTracker) SetStage(stage string)            {}
func (t *noopTracker) SetProgress(current, total int64) {}
func (t *noopTracker) Done()                            { atomic.AddInt32(&t.mgr.Completed, 1) }
func (t *noopTracker) Fail(err error)                   { atomic.AddInt32(&t.mgr.Failed, 1) }
