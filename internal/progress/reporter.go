// Package progress reports long-running work such as site export and
// search indexing.
package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// Reporter provides progress feedback over a known number of lectures.
type Reporter interface {
	Start(total int)
	Update(current int, message string)
	Finish()
}

// NewReporter returns a TerminalReporter when stderr is an interactive
// terminal, and a line-based LogReporter under CI or when stderr is piped.
// description labels the output.
func NewReporter(description string) Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" || !term.IsTerminal(int(os.Stderr.Fd())) {
		return &LogReporter{Description: description, Out: os.Stderr}
	}
	return &TerminalReporter{Description: description}
}

// TerminalReporter draws a progress bar counting lectures.
type TerminalReporter struct {
	Description string
	bar         *progressbar.ProgressBar
}

func (r *TerminalReporter) Start(total int) {
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription(r.Description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetItsString("lectures"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// Update names the lecture just finished next to the bar.
func (r *TerminalReporter) Update(current int, lecture string) {
	if r.bar == nil {
		return
	}
	r.bar.Describe(fmt.Sprintf("%s [%s]", r.Description, lecture))
	_ = r.bar.Set(current)
}

func (r *TerminalReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// LogReporter writes one line per lecture, for CI logs and redirected output.
type LogReporter struct {
	Description string
	Out         io.Writer

	total   int
	started time.Time
	now     func() time.Time
}

func (r *LogReporter) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *LogReporter) Start(total int) {
	r.total = total
	r.started = r.clock()
	fmt.Fprintf(r.Out, "%s %d lecture(s)\n", r.Description, total)
}

func (r *LogReporter) Update(current int, lecture string) {
	fmt.Fprintf(r.Out, "  [%d/%d] %s\n", current, r.total, lecture)
}

func (r *LogReporter) Finish() {
	elapsed := r.clock().Sub(r.started).Round(time.Millisecond)
	fmt.Fprintf(r.Out, "%s done in %s\n", r.Description, elapsed)
}

// Discard ignores all progress.
type Discard struct{}

func (Discard) Start(int)          {}
func (Discard) Update(int, string) {}
func (Discard) Finish()            {}
