package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/johndauphine/db-utility/internal/logging"
	"github.com/schollz/progressbar/v3"
)

// Tracker draws one progress bar per table.
type Tracker struct {
	w         io.Writer
	bar       *progressbar.ProgressBar
	table     string
	tables    int
	rows      int64
	startTime time.Time
}

// New creates a tracker writing to w (stderr when nil).
func New(w io.Writer) *Tracker {
	if w == nil {
		w = os.Stderr
	}
	return &Tracker{w: w, startTime: time.Now()}
}

// StartTable begins a bar for table with total rows.
func (t *Tracker) StartTable(table string, total int64) {
	t.table = table
	t.bar = progressbar.NewOptions64(
		total,
		progressbar.OptionSetWriter(t.w),
		progressbar.OptionSetDescription(table),
		progressbar.OptionShowBytes(false),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("rows"),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(t.w) }),
	)
}

// Add advances the current table by n rows.
func (t *Tracker) Add(n int64) {
	t.rows += n
	if t.bar != nil {
		t.bar.Add64(n)
	}
}

// EndTable completes the current table's bar.
func (t *Tracker) EndTable(table string) {
	if t.bar != nil && t.table == table {
		t.bar.Finish()
		t.bar = nil
	}
	t.tables++
}

// Finish logs the totals.
func (t *Tracker) Finish() {
	elapsed := time.Since(t.startTime)
	rowsPerSec := float64(t.rows) / elapsed.Seconds()
	logging.Info("Processed %d rows across %d tables in %s (%.0f rows/sec)",
		t.rows, t.tables, elapsed.Round(time.Millisecond), rowsPerSec)
}
