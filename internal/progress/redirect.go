package progress

import (
	"io"
	"os"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Logs is where the log handler writes. A running Bar points it at the
// program so log lines print above the bar instead of through it.
var Logs = NewRedirect(os.Stderr)

// Redirect is an io.Writer whose destination can be swapped while in use.
type Redirect struct {
	mu  sync.Mutex
	out io.Writer
}

// NewRedirect creates a Redirect writing to out.
func NewRedirect(out io.Writer) *Redirect {
	return &Redirect{out: out}
}

func (r *Redirect) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.out.Write(p)
}

// Swap points the Redirect at out and returns the previous destination.
// It waits for an in-flight Write to finish.
func (r *Redirect) Swap(out io.Writer) io.Writer {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.out
	r.out = out
	return prev
}

// programWriter prints each write as a line above a running program.
type programWriter struct {
	program *tea.Program
}

func (w programWriter) Write(p []byte) (int, error) {
	// Send rather than Println: Send gives up once the program has exited.
	w.program.Send(tea.Println(strings.TrimRight(string(p), "\n"))())
	return len(p), nil
}
