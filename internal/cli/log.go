// Package cli implements the genelim command-line interface.
//
// The commands load a pedigree dataset, run the per-locus pipeline and
// print or write the results. The CLI is built using cobra and logs with
// charmbracelet/log.
//
// # Commands
//
//   - check: eliminate genotypes at every locus, optionally diagnosing inconsistencies
//   - peel: print the compiled peel sequences of a locus
//   - render: draw the pedigree or a peel sequence with Graphviz
//   - serve: run the HTTP API
//   - history: list stored diagnoses of a dataset
//   - cache: manage the result cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/genelim/pkg/locate"
)

// newLogger creates a logger with "HH:MM:SS.ms" timestamps that writes to w
// and filters messages at level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with
// elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Checked 12 loci (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// logLocate returns a locator progress callback that logs at debug level
// every n checks.
func logLocate(l *log.Logger, n int) func(string, locate.Progress) {
	if n < 1 {
		n = 1
	}
	return func(locus string, p locate.Progress) {
		if p.Checks%n != 0 {
			return
		}
		l.Debug("locating", "locus", locus, "pass", p.Pass, "checks", p.Checks,
			"families", p.Families, "blanked", p.Blanked)
	}
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default() when
// none is attached.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
