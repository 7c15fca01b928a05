package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// LogManager implements Manager with line-based output for non-TTY
// environments (CI, cron, piped output). Prints one status line per stage
// instead of interactive progress bars.
type LogManager struct {
	mu  sync.Mutex
	out io.Writer
}

// NewLogManager creates a log-based progress manager writing to stderr.
func NewLogManager() *LogManager {
	return &LogManager{out: os.Stderr}
}

// NewLogManagerTo writes status lines to w.
func NewLogManagerTo(w io.Writer) *LogManager {
	return &LogManager{out: w}
}

func (m *LogManager) NewTracker(index, total int, name string) Tracker {
	return &logTracker{
		mgr:   m,
		index: index,
		total: total,
		name:  name,
		start: time.Now(),
	}
}

func (m *LogManager) Wait() {}

// logTracker implements Tracker with one line per stage.
type logTracker struct {
	mgr   *LogManager
	index int
	total int
	name  string
	start time.Time
	stage string
}

func (t *logTracker) log(msg string) {
	t.mgr.mu.Lock()
	defer t.mgr.mu.Unlock()
	ts := time.Now().Format("15:04:05")
	fmt.Fprintf(t.mgr.out, "%s [%d/%d] %s  %s\n", ts, t.index+1, t.total, t.name, msg)
}

func (t *logTracker) SetStage(stage string) {
	t.stage = stage
	t.log(stage)
}

// SetProgress is a no-op; stage lines are enough for short jobs.
func (t *logTracker) SetProgress(current, total int64) {}

func (t *logTracker) Done() {
	elapsed := time.Since(t.start).Truncate(time.Millisecond)
	t.log(fmt.Sprintf("Finished in %s", elapsed))
}

func (t *logTracker) Fail(err error) {
	t.log(fmt.Sprintf("FAILED during %s: %v", t.stage, err))
}

// HumanBytes formats a byte count for status lines.
func HumanBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
