package cli

import (
	"fmt"
	stdio "io"
	"os"

	"github.com/spf13/cobra"

	gerrors "github.com/matzehuels/genelim/pkg/errors"
	"github.com/matzehuels/genelim/pkg/io"
	"github.com/matzehuels/genelim/pkg/peel"
	"github.com/matzehuels/genelim/pkg/pipeline"
)

const (
	peelFormatText = "text"
	peelFormatJSON = "json"
)

type peelOpts struct {
	locus    string
	format   string
	output   string
	diagnose bool
	runner   runnerOpts
	pipe     pipelineFlags
}

// peelCommand creates the peel command, which prints the compiled peel
// sequences of one locus.
func (c *CLI) peelCommand() *cobra.Command {
	opts := peelOpts{format: peelFormatText}

	cmd := &cobra.Command{
		Use:   "peel DATASET",
		Short: "Print the peel sequence of a locus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch opts.format {
			case peelFormatText, peelFormatJSON:
			default:
				return gerrors.New(gerrors.ErrCodeInvalidInput, "invalid format %q (must be text or json)", opts.format)
			}
			return c.runPeel(cmd, args[0], &opts)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&opts.locus, "locus", "l", "", "locus to compile (required)")
	fs.StringVarP(&opts.format, "format", "f", opts.format, "output format: text, json")
	fs.StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	fs.BoolVarP(&opts.diagnose, "diagnose", "d", false, "blank inconsistent observations before compiling")
	fs.BoolVar(&opts.runner.noCache, "no-cache", false, "disable the result cache")
	fs.StringVar(&opts.runner.storeDir, "store", "", "keep error files in this directory instead of the configured store")
	_ = cmd.MarkFlagRequired("locus")
	opts.pipe.register(cmd)

	return cmd
}

func (c *CLI) runPeel(cmd *cobra.Command, path string, opts *peelOpts) error {
	ctx := cmd.Context()

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
	popts.Loci = []string{opts.locus}
	popts.Diagnose = popts.Diagnose || opts.diagnose

	runner, closeRunner, err := c.newRunner(ctx, cfg, opts.runner)
	if err != nil {
		return err
	}
	defer closeRunner()

	res, err := runner.Run(ctx, ds, popts)
	if err != nil {
		return err
	}
	lr := res.Locus(opts.locus)
	if lr.Error != "" {
		return gerrors.New(gerrors.ErrCodeInconsistent, "locus %s: %s", opts.locus, lr.Error)
	}

	w := cmd.OutOrStdout()
	var f *os.File
	if opts.output != "" {
		if f, err = os.Create(opts.output); err != nil {
			return gerrors.Wrap(gerrors.ErrCodeInvalidPath, err, "create %s", opts.output)
		}
		w = f
	}

	err = writePeel(w, res, lr, opts.format)
	if f != nil {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err == nil {
			printFile(opts.output)
		}
	}
	return err
}

func writePeel(w stdio.Writer, res *pipeline.Result, lr *pipeline.LocusResult, format string) error {
	seqs := make([]*peel.Sequence, 0, len(lr.Components))
	for _, comp := range lr.Components {
		if comp.Sequence != nil {
			seqs = append(seqs, comp.Sequence)
		}
	}
	if format == peelFormatJSON {
		return io.WriteJSON(w, seqs)
	}
	for k, seq := range seqs {
		if k > 0 {
			fmt.Fprintln(w)
		}
		writeSequence(w, res.Pedigree(), seq)
	}
	return nil
}
