package progress

import (
	"log/slog"
)

// Log reports progress through slog, roughly every tenth of the batch.
type Log struct {
	title   string
	counter Counter
	step    int
}

// NewLog creates a log-based Reporter.
func NewLog(title string) *Log {
	return &Log{title: title}
}

func (l *Log) Start(total int) {
	l.counter.Reset(total)
	l.step = max(1, total/10)
	slog.Info(l.title, "total", total)
}

func (l *Log) Advance() {
	done := l.counter.Inc()
	total := l.counter.Total()
	if done%l.step == 0 || done == total {
		slog.Info("Progress", "done", done, "total", total)
	}
}

func (l *Log) Finish() {
	slog.Debug("Progress finished", "done", l.counter.Done(), "total", l.counter.Total())
}

// Done returns the number of items reported so far.
func (l *Log) Done() int {
	return l.counter.Done()
}
