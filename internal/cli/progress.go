package cli

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/skelly-dev/marktree/internal/prompt"
)

// scanProgressReporter draws a one-line spinner on stderr while files are
// scanned. Updates arrive from several goroutines.
type scanProgressReporter struct {
	mu      sync.Mutex
	enabled bool
	label   string
	total   int
	count   int
	start   time.Time
	spinner int
	lastLen int
}

func newScanProgressReporter(label string, total int, asJSON bool) *scanProgressReporter {
	return &scanProgressReporter{
		enabled: prompt.IsInteractive(os.Stderr) && !asJSON,
		label:   label,
		total:   total,
		start:   time.Now(),
	}
}

func (r *scanProgressReporter) Update(file string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
	if !r.enabled {
		return
	}
	frames := [4]string{"-", "\\", "|", "/"}
	frame := frames[r.spinner%len(frames)]
	r.spinner++
	file = strings.TrimSpace(file)
	if len(file) > 88 {
		file = "..." + file[len(file)-85:]
	}

	status := fmt.Sprintf("%s %s %d scanning %s", frame, r.label, r.count, file)
	if r.total > 0 {
		status = fmt.Sprintf("%s %s %d/%d scanning %s", frame, r.label, r.count, r.total, file)
	}
	r.printStatus(status)
}

func (r *scanProgressReporter) Done() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled {
		return
	}
	elapsed := time.Since(r.start).Round(time.Millisecond)
	status := fmt.Sprintf("%s complete (%d files in %s)", r.label, r.count, elapsed)
	r.printStatus(status)
	fmt.Fprintln(os.Stderr)
}

func (r *scanProgressReporter) printStatus(status string) {
	if r.lastLen > len(status) {
		status = status + strings.Repeat(" ", r.lastLen-len(status))
	}
	r.lastLen = len(status)
	fmt.Fprintf(os.Stderr, "\r%s", status)
}
