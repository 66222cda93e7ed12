package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Reporter provides progress feedback while a document streams in.
type Reporter interface {
	Start(label string)
	Add(bytes int)
	Finish()
}

// NewReporter returns a TerminalReporter if running in an interactive terminal,
// or a CIReporter if the CI environment variable is set.
func NewReporter() Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &CIReporter{Out: os.Stderr}
	}
	return &TerminalReporter{}
}

// TerminalReporter shows a byte-counting spinner on stderr.
type TerminalReporter struct {
	bar *progressbar.ProgressBar
}

func (r *TerminalReporter) Start(label string) {
	r.bar = progressbar.NewOptions64(-1,
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *TerminalReporter) Add(bytes int) {
	if r.bar != nil {
		_ = r.bar.Add(bytes)
	}
}

func (r *TerminalReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// ciStep is how many bytes pass between CI progress lines.
const ciStep = 16 << 10

// CIReporter prints line-by-line progress suitable for CI logs.
type CIReporter struct {
	Out io.Writer

	label   string
	bytes   int
	chunks  int
	started time.Time
}

func (r *CIReporter) Start(label string) {
	r.label = label
	r.bytes, r.chunks = 0, 0
	r.started = time.Now()
	fmt.Fprintf(r.Out, "%s\n", label)
}

func (r *CIReporter) Add(bytes int) {
	before := r.bytes / ciStep
	r.bytes += bytes
	r.chunks++
	if r.bytes/ciStep > before {
		fmt.Fprintf(r.Out, "  received %d bytes\n", r.bytes)
	}
}

func (r *CIReporter) Finish() {
	fmt.Fprintf(r.Out, "%s: %d bytes in %d chunks (%s)\n",
		r.label, r.bytes, r.chunks, time.Since(r.started).Round(time.Millisecond))
}
