package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/genelim/pkg/pipeline"
)

var (
	colorCyan   = lipgloss.Color("36")  // stages, titles
	colorGreen  = lipgloss.Color("35")  // consistent loci
	colorYellow = lipgloss.Color("220") // blanked or cleaned loci
	colorRed    = lipgloss.Color("167") // inconsistent or failed loci
	colorBlue   = lipgloss.Color("75")  // suggested commands
	colorWhite  = lipgloss.Color("255") // locus names, paths
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	// StyleTitle for dataset names and headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for component headings.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for run IDs, counts and durations.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for locus names and paths.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for consistent loci.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for loci that needed blanking or lost observations.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for inconsistent loci.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

var (
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

const (
	iconInfo     = "›"
	iconArrow    = "→"
	iconCached   = "cached"
	iconComputed = "computed"
)

// outcome is what the pipeline made of a locus.
type outcome int

const (
	outcomeConsistent   outcome = iota
	outcomeCleaned              // consistent after deleting sex-linked observations
	outcomeBlanked              // consistent after the locator blanked individuals
	outcomeInconsistent         // left inconsistent
	outcomeFailed               // the locator gave up or a stage errored
)

func outcomeOf(lr *pipeline.LocusResult) outcome {
	switch {
	case lr.Error != "":
		return outcomeFailed
	case lr.Diagnosis != nil:
		return outcomeBlanked
	case !lr.Consistent:
		return outcomeInconsistent
	case len(lr.Deleted) > 0:
		return outcomeCleaned
	}
	return outcomeConsistent
}

func (o outcome) style() lipgloss.Style {
	switch o {
	case outcomeConsistent:
		return StyleSuccess
	case outcomeCleaned, outcomeBlanked:
		return StyleWarning
	}
	return StyleError
}

func (o outcome) icon() string {
	switch o {
	case outcomeConsistent:
		return "✓"
	case outcomeCleaned, outcomeBlanked:
		return "!"
	}
	return "✗"
}

func printOutcome(o outcome, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if o != outcomeConsistent {
		msg = o.style().Render(msg)
	}
	fmt.Println(o.style().Render(o.icon()) + " " + msg)
}

func printSuccess(format string, args ...any) { printOutcome(outcomeConsistent, format, args...) }
func printWarning(format string, args ...any) { printOutcome(outcomeCleaned, format, args...) }
func printError(format string, args ...any)   { printOutcome(outcomeInconsistent, format, args...) }

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written dataset, result or image path.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// statsLine joins the non-empty parts of a locus summary with dim
// separators and appends whether the locus came from the result cache,
// e.g. "M1 · 2 pruned · 7 elimination steps · cached".
func statsLine(parts []string, cached bool) string {
	status, statusStyle := iconComputed, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}

	var b strings.Builder
	b.WriteString("  ")
	for _, part := range parts {
		if part == "" {
			continue
		}
		b.WriteString(StyleDim.Render(part))
		b.WriteString(StyleDim.Render(" · "))
	}
	b.WriteString(statusStyle.Render(status))
	return b.String()
}

// printNextStep suggests a follow-up genelim command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Println()
}
