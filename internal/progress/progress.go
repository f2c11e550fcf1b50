// Package progress reports N-of-total completion for a batch of lookups.
package progress

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/mattn/go-isatty"
)

// Reporter receives batch progress. Advance is safe for concurrent use.
type Reporter interface {
	// Start announces how many items the batch will process.
	Start(total int)
	// Advance records one finished item.
	Advance()
	// Finish is called once after the last item, even if Advance was never called.
	Finish()
}

// Counter is the shared completion count behind every Reporter.
type Counter struct {
	total int64
	done  atomic.Int64
}

// Reset sets the total and zeroes the count.
func (c *Counter) Reset(total int) {
	atomic.StoreInt64(&c.total, int64(total))
	c.done.Store(0)
}

// Inc records one finished item and returns the new count.
func (c *Counter) Inc() int {
	return int(c.done.Add(1))
}

// Done returns the number of finished items.
func (c *Counter) Done() int {
	return int(c.done.Load())
}

// Total returns the announced total.
func (c *Counter) Total() int {
	return int(atomic.LoadInt64(&c.total))
}

// Nop discards progress.
type Nop struct{}

func (Nop) Start(int) {}
func (Nop) Advance()  {}
func (Nop) Finish()   {}

// New picks a Reporter for out: an animated bar when out is a terminal,
// periodic log lines otherwise, nothing when disabled.
func New(title string, out io.Writer, enabled bool) Reporter {
	if !enabled {
		return Nop{}
	}
	if f, ok := out.(*os.File); ok && isTerminal(f) {
		return NewBar(title, out)
	}
	return NewLog(title)
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
