package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/genelim/pkg/locate"
	"github.com/matzehuels/genelim/pkg/observability"
)

// stageLabels names the pipeline stages the way the spinner shows them.
var stageLabels = map[string]string{
	"prune":     "pruning",
	"recode":    "recoding",
	"eliminate": "eliminating",
	"locate":    "locating",
	"peel":      "compiling",
}

// Spinner is a one-line progress indicator on stderr. It shows the dataset,
// the locus and pipeline stage being worked on and, while the locator
// runs, its progress.
type Spinner struct {
	w       io.Writer
	dataset string
	locus   string
	stage   string
	detail  string
	start   time.Time
	width   int // widest line drawn so far

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	stopped chan struct{}
	frames  []string
	mu      sync.Mutex
	once    sync.Once
}

// newSpinnerWithContext creates a spinner that stops when ctx is cancelled.
func newSpinnerWithContext(ctx context.Context, dataset string) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		w:       os.Stderr,
		dataset: dataset,
		start:   time.Now(),
		ctx:     spinnerCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	}
}

// Start begins the animation.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.done:
				return
			case <-ticker.C:
				s.draw(s.frames[i%len(s.frames)])
			}
		}
	}()
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := s.statusLocked()
	elapsed := time.Since(s.start).Round(100 * time.Millisecond).String()
	n := len(status) + len(elapsed) + 2
	s.width = max(s.width, n)
	fmt.Fprintf(s.w, "\r%s %s  %s%s", styleIconSpinner.Render(frame), StyleDim.Render(status),
		StyleDim.Render(elapsed), strings.Repeat(" ", s.width-n))
}

// enter records that stage started on locus.
func (s *Spinner) enter(locus, stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if label, ok := stageLabels[stage]; ok {
		stage = label
	}
	s.locus, s.stage, s.detail = locus, stage, ""
}

// locating shows locator progress for locus.
func (s *Spinner) locating(locus string, p locate.Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locus, s.stage = locus, stageLabels["locate"]
	s.detail = fmt.Sprintf("pass %d, %d checks, %d blanked", p.Pass, p.Checks, p.Blanked)
}

// status returns the text drawn next to the frame, without styling.
func (s *Spinner) status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Spinner) statusLocked() string {
	parts := []string{s.dataset}
	for _, p := range []string{s.locus, s.stage, s.detail} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "  ")
}

// track forwards pipeline stage events to the spinner on top of the
// registered hooks. The returned function restores the previous hooks.
func (s *Spinner) track() func() {
	prev := observability.Pipeline()
	observability.SetPipelineHooks(stageHooks{PipelineHooks: prev, s: s})
	return func() { observability.SetPipelineHooks(prev) }
}

type stageHooks struct {
	observability.PipelineHooks
	s *Spinner
}

func (h stageHooks) OnStageStart(ctx context.Context, locus, stage string) {
	h.s.enter(locus, stage)
	h.PipelineHooks.OnStageStart(ctx, locus, stage)
}

// Stop stops the spinner and clears the line. It may be called more than
// once.
func (s *Spinner) Stop() {
	s.cancel()
	s.once.Do(func() { close(s.done) })
	<-s.stopped
	s.clearLine()
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width+4))
}

// Cancelled reports whether the spinner's context was cancelled.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}
