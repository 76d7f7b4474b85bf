package progress

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/johndauphine/db-utility/internal/logging"
)

// ProgressUpdate is one JSON progress line, for runs driven by automation.
type ProgressUpdate struct {
	Timestamp      string  `json:"timestamp"`
	Phase          string  `json:"phase"`
	Table          string  `json:"table,omitempty"`
	TablesComplete int     `json:"tables_complete"`
	RowsDone       int64   `json:"rows_done"`
	RowsTotal      int64   `json:"rows_total"`
	ProgressPct    float64 `json:"progress_pct"`
}

// JSONReporter writes throttled JSON progress lines instead of drawing bars.
// Table start and end are always reported.
type JSONReporter struct {
	writer     io.Writer
	mu         sync.Mutex
	interval   time.Duration
	lastReport time.Time

	table     string
	done      int64
	total     int64
	completed int
}

// NewJSONReporter creates a reporter writing to writer (stderr when nil).
func NewJSONReporter(writer io.Writer, interval time.Duration) *JSONReporter {
	if writer == nil {
		writer = os.Stderr
	}
	return &JSONReporter{writer: writer, interval: interval}
}

func (r *JSONReporter) StartTable(table string, total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.table, r.done, r.total = table, 0, total
	r.emit("table_started")
}

func (r *JSONReporter) Add(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done += n
	if r.interval > 0 && time.Since(r.lastReport) < r.interval {
		return
	}
	r.emit("transferring")
}

func (r *JSONReporter) EndTable(table string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
	r.emit("table_complete")
}

func (r *JSONReporter) emit(phase string) {
	update := ProgressUpdate{
		Timestamp:      time.Now().Format(time.RFC3339),
		Phase:          phase,
		Table:          r.table,
		TablesComplete: r.completed,
		RowsDone:       r.done,
		RowsTotal:      r.total,
	}
	if r.total > 0 {
		update.ProgressPct = float64(r.done) * 100 / float64(r.total)
	}

	data, err := json.Marshal(update)
	if err != nil {
		logging.Warn("Failed to marshal progress update: %v", err)
		return
	}
	fmt.Fprintln(r.writer, string(data))
	r.lastReport = time.Now()
}

// Nop discards progress.
type Nop struct{}

func (Nop) StartTable(string, int64) {}
func (Nop) Add(int64)                {}
func (Nop) EndTable(string)          {}
