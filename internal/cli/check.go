package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	gerrors "github.com/matzehuels/genelim/pkg/errors"
	"github.com/matzehuels/genelim/pkg/io"
	"github.com/matzehuels/genelim/pkg/locate"
	"github.com/matzehuels/genelim/pkg/pipeline"
)

// defaultReportLimit caps the genotypes listed per individual in --report.
const defaultReportLimit = 8

// checkOpts holds the command-line flags for the check command.
type checkOpts struct {
	loci     []string
	diagnose bool
	tui      bool
	report   bool
	limit    int
	output   string // result JSON
	write    string // cleaned dataset
	refresh  bool
	runner   runnerOpts
	pipe     pipelineFlags
}

// checkCommand creates the check command, the main entry point of the CLI.
func (c *CLI) checkCommand() *cobra.Command {
	opts := checkOpts{limit: defaultReportLimit}

	cmd := &cobra.Command{
		Use:   "check DATASET",
		Short: "Eliminate impossible genotypes and check Mendelian consistency",
		Long: `Check runs genotype elimination on every locus of a dataset and compiles
its peel sequences.

A locus whose observations contradict Mendelian inheritance stops the
check. With --diagnose the inconsistency locator blanks a small set of
observations instead, records them in the configured store and continues.`,
		Example: `  genelim check family.toml
  genelim check family.json --locus D1S243 --report
  genelim check family.toml --diagnose --tui --write cleaned.toml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(cmd, args[0], &opts)
		},
	}

	fs := cmd.Flags()
	fs.StringSliceVarP(&opts.loci, "locus", "l", nil, "check only these loci (repeatable)")
	fs.BoolVarP(&opts.diagnose, "diagnose", "d", false, "locate and blank inconsistent observations")
	fs.BoolVar(&opts.tui, "tui", false, "show live locator progress (with --diagnose)")
	fs.BoolVarP(&opts.report, "report", "r", false, "list the possible genotypes of every individual")
	fs.IntVar(&opts.limit, "report-limit", opts.limit, "genotypes listed per individual in the report (0 for all)")
	fs.StringVarP(&opts.output, "output", "o", "", "write the full result as JSON")
	fs.StringVarP(&opts.write, "write", "w", "", "write the dataset with deleted and blanked observations removed")
	fs.BoolVar(&opts.refresh, "refresh", false, "ignore cached results")
	fs.BoolVar(&opts.runner.noCache, "no-cache", false, "disable the result cache")
	fs.StringVar(&opts.runner.storeDir, "store", "", "keep error files in this directory instead of the configured store")
	opts.pipe.register(cmd)

	return cmd
}

func (c *CLI) runCheck(cmd *cobra.Command, path string, opts *checkOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := c.config()
	if err != nil {
		return err
	}
	ds, err := io.Import(path)
	if err != nil {
		return err
	}

	popts := cfg.Pipeline
	opts.pipe.apply(cmd, &popts)
	if len(opts.loci) > 0 {
		popts.Loci = opts.loci
	}
	popts.Diagnose = popts.Diagnose || opts.diagnose
	popts.Report = popts.Report || opts.report
	popts.Refresh = opts.refresh

	runner, closeRunner, err := c.newRunner(ctx, cfg, opts.runner)
	if err != nil {
		return err
	}
	defer closeRunner()

	prog := newProgress(logger)
	res, runErr := execute(ctx, runner, ds, popts, opts.tui)
	if res == nil {
		return runErr
	}

	printCheck(res, popts.Report, opts.limit)

	if opts.output != "" {
		if err := writeResult(opts.output, res); err != nil {
			return err
		}
		printFile(opts.output)
	}

	if runErr != nil {
		if gerrors.Is(runErr, gerrors.ErrCodeInconsistent) {
			printNextStep("Locate the inconsistent observations", fmt.Sprintf("genelim check %s --diagnose", path))
		}
		return runErr
	}

	if opts.write != "" {
		n := res.UpdateDataset(ds)
		if err := io.Export(ds, opts.write); err != nil {
			return gerrors.Wrap(gerrors.ErrCodeInvalidPath, err, "write dataset")
		}
		printSuccess("Updated %d loci", n)
		printFile(opts.write)
	}

	prog.done(fmt.Sprintf("Checked %d loci", len(res.Loci)))
	return nil
}

// execute runs the pipeline behind a spinner, or behind the locator view
// when useTUI is set and the run diagnoses.
func execute(ctx context.Context, r *pipeline.Runner, ds *io.Dataset, opts pipeline.Options, useTUI bool) (*pipeline.Result, error) {
	logDebug := logLocate(loggerFromContext(ctx), 50)

	if opts.Diagnose && useTUI {
		return runWithTUI(ctx, func(ctx context.Context, onProgress func(string, locate.Progress)) (*pipeline.Result, error) {
			opts.OnProgress = onProgress
			return r.Run(ctx, ds, opts)
		})
	}

	spin := newSpinnerWithContext(ctx, ds.Name)
	opts.OnProgress = func(locus string, p locate.Progress) {
		spin.locating(locus, p)
		logDebug(locus, p)
	}
	restore := spin.track()
	defer restore()
	spin.Start()
	res, err := r.Run(ctx, ds, opts)
	spin.Stop()
	return res, err
}

// printCheck prints the loci table and the per-locus findings.
func printCheck(res *pipeline.Result, report bool, limit int) {
	fmt.Println(StyleTitle.Render(res.Dataset) + " " + StyleDim.Render(res.RunID.String()))
	fmt.Println(lociTable(res))

	for _, lr := range res.Loci {
		if len(lr.Deleted) > 0 {
			printWarning("%s: removed %d impossible sex-linked observations", lr.Locus, len(lr.Deleted))
			for _, d := range lr.Deleted {
				printDetail("%s: %s", d.ID, d.Reason)
			}
		}
		if inc := lr.Inconsistency; inc != nil && lr.Diagnosis == nil {
			printError("%s: family %s x %s is inconsistent", lr.Locus, inc.Sire, inc.Dam)
		}
		if d := lr.Diagnosis; d != nil {
			from := ""
			if d.FromSuspects {
				from = " (from stored suspects)"
			}
			printOutcome(outcomeBlanked, "%s: blanked %s%s", lr.Locus, d.Summary(), from)
			for _, b := range d.Blanked {
				printDetail("%s in family %s x %s", b.ID, b.Sire, b.Dam)
			}
			if d.Partial {
				printWarning("%s: search stopped early, blanked set is partial", lr.Locus)
			}
		}
		if lr.Error != "" {
			printError("%s: %s", lr.Locus, lr.Error)
		}
		printLocusStats(lr)
	}

	if !report {
		return
	}
	for _, lr := range res.Loci {
		for _, comp := range lr.Components {
			if len(comp.Possible) == 0 {
				continue
			}
			printNewline()
			fmt.Println(StyleHighlight.Render(fmt.Sprintf("%s component %d", lr.Locus, comp.Component)) +
				" " + StyleDim.Render(fmt.Sprintf("alleles %v", comp.Alleles)))
			fmt.Println(possibilityTable(comp, limit))
		}
	}
}

func printLocusStats(lr *pipeline.LocusResult) {
	pruned, steps := 0, 0
	for _, c := range lr.Components {
		pruned += c.Pruned
		steps += c.Steps
	}
	parts := []string{
		StyleValue.Render(lr.Locus),
		fmt.Sprintf("%d pruned", pruned),
		fmt.Sprintf("%d elimination steps", steps),
		lr.Duration.String(),
	}
	fmt.Println(statsLine(parts, lr.CacheHit))
}

func writeResult(path string, res *pipeline.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return gerrors.Wrap(gerrors.ErrCodeInvalidPath, err, "create %s", path)
	}
	err = io.WriteJSON(f, res)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
