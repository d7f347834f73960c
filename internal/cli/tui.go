package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/genelim/pkg/locate"
	"github.com/matzehuels/genelim/pkg/pipeline"
)

var (
	tuiDimStyle     = lipgloss.NewStyle().Foreground(colorDim)
	tuiActiveStyle  = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	tuiHeaderStyle  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	tuiSpinnerFrame = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
)

// =============================================================================
// LocateModel - live view of the inconsistency locator
// =============================================================================

type progressMsg struct {
	locus string
	p     locate.Progress
}

type runDoneMsg struct{ err error }

type tickMsg time.Time

// LocateModel shows the locator's progress per locus while a diagnosing
// check runs. ctrl+c cancels the search; the model waits for the run to
// return its partial result before quitting.
type LocateModel struct {
	Loci       []string
	Progress   map[string]locate.Progress
	Current    string
	Cancelling bool
	Err        error

	cancel context.CancelFunc
	frame  int
	start  time.Time
}

// NewLocateModel creates a model whose ctrl+c handler calls cancel.
func NewLocateModel(cancel context.CancelFunc) LocateModel {
	return LocateModel{
		Progress: make(map[string]locate.Progress),
		cancel:   cancel,
		start:    time.Now(),
	}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m LocateModel) Init() tea.Cmd {
	return tick()
}

func (m LocateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.Cancelling && m.cancel != nil {
				m.Cancelling = true
				m.cancel()
			}
		}
	case progressMsg:
		if _, seen := m.Progress[msg.locus]; !seen {
			m.Loci = append(m.Loci, msg.locus)
		}
		m.Progress[msg.locus] = msg.p
		m.Current = msg.locus
	case runDoneMsg:
		m.Err = msg.err
		m.Current = ""
		return m, tea.Quit
	case tickMsg:
		m.frame++
		return m, tick()
	}
	return m, nil
}

func (m LocateModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Locating inconsistencies"))
	b.WriteString("\n")
	if m.Cancelling {
		b.WriteString(StyleWarning.Render("cancelling, waiting for the current check"))
	} else {
		b.WriteString(tuiDimStyle.Render("ctrl+c cancel"))
	}
	b.WriteString("\n\n")

	if len(m.Loci) == 0 {
		frame := tuiSpinnerFrame[m.frame%len(tuiSpinnerFrame)]
		b.WriteString(styleIconSpinner.Render(frame) + " " + tuiDimStyle.Render("checking loci"))
		b.WriteString("\n")
		return b.String()
	}

	rows := make([][]string, 0, len(m.Loci))
	for _, name := range m.Loci {
		p := m.Progress[name]
		status := outcomeConsistent.icon()
		if name == m.Current {
			status = tuiSpinnerFrame[m.frame%len(tuiSpinnerFrame)]
		}
		rows = append(rows, []string{
			status, name,
			strconv.Itoa(p.Pass),
			strconv.Itoa(p.Checks),
			strconv.Itoa(p.Families),
			strconv.Itoa(p.Blanked),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Locus", "Pass", "Checks", "Families", "Blanked").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return tuiHeaderStyle
			}
			if row < len(m.Loci) && m.Loci[row] == m.Current {
				return tuiActiveStyle
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(tuiDimStyle.Render(fmt.Sprintf("  %s elapsed", time.Since(m.start).Round(time.Second))))
	b.WriteString("\n")
	return b.String()
}

// runWithTUI runs fn under a LocateModel drawn on stderr. fn receives a
// cancellable context and the progress callback to hand to the runner.
func runWithTUI(ctx context.Context, fn func(context.Context, func(string, locate.Progress)) (*pipeline.Result, error)) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prog := tea.NewProgram(NewLocateModel(cancel), tea.WithOutput(os.Stderr))

	var (
		res  *pipeline.Result
		err  error
		done = make(chan struct{})
	)
	go func() {
		defer close(done)
		res, err = fn(ctx, func(locus string, p locate.Progress) {
			prog.Send(progressMsg{locus: locus, p: p})
		})
		prog.Send(runDoneMsg{err: err})
	}()

	if _, perr := prog.Run(); perr != nil {
		cancel()
		<-done
		if err == nil {
			err = perr
		}
		return res, err
	}
	<-done
	return res, err
}
