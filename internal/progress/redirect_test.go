package progress

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedirectSwap(t *testing.T) {
	var first, second bytes.Buffer
	r := NewRedirect(&first)

	fmt.Fprint(r, "one")
	prev := r.Swap(&second)
	fmt.Fprint(r, "two")

	assert.Same(t, &first, prev)
	assert.Equal(t, "one", first.String())
	assert.Equal(t, "two", second.String())
}

func TestBarPrintsLogLinesAboveItself(t *testing.T) {
	var logs bytes.Buffer
	orig := Logs.Swap(&logs)
	t.Cleanup(func() { Logs.Swap(orig) })

	var out bytes.Buffer
	bar := NewBar("Fetching product details", &out)

	bar.Start(1)
	_, err := fmt.Fprintln(Logs, "WARN catalog slow")
	require.NoError(t, err)
	bar.Advance()
	bar.Finish()

	assert.Contains(t, out.String(), "WARN catalog slow")
	assert.Empty(t, logs.String(), "log lines go through the bar while it runs")

	fmt.Fprintln(Logs, "after")
	assert.Equal(t, "after\n", logs.String(), "Finish restores the log destination")
}
