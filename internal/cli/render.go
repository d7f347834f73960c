package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	gerrors "github.com/matzehuels/genelim/pkg/errors"
	"github.com/matzehuels/genelim/pkg/io"
	"github.com/matzehuels/genelim/pkg/pedigree"
	"github.com/matzehuels/genelim/pkg/pipeline"
	"github.com/matzehuels/genelim/pkg/render"
	"github.com/matzehuels/genelim/pkg/render/nodelink"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string
	format    string
	locus     string
	peel      bool // draw the peel sequence instead of the pedigree
	component int
	scale     float64
	runner    runnerOpts
	pipe      pipelineFlags
}

// renderCommand creates the render command. Without --locus it draws the
// bare pedigree; with a locus the individuals are coloured by their state
// after elimination, and --peel draws the compiled sequence instead.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{scale: 2}

	cmd := &cobra.Command{
		Use:   "render DATASET",
		Short: "Draw a pedigree or a peel sequence with Graphviz",
		Example: `  genelim render family.toml -o family.svg
  genelim render family.toml --locus D1S243 --format png
  genelim render family.toml --locus D1S243 --peel -o peel.dot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format == "" {
				opts.format = formatFromPath(opts.output)
			}
			if err := render.ValidateFormat(opts.format); err != nil {
				return err
			}
			if opts.peel && opts.locus == "" {
				return gerrors.New(gerrors.ErrCodeInvalidInput, "--peel needs --locus")
			}
			return c.runRender(cmd, args[0], &opts)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&opts.output, "output", "o", "", "output file (default <dataset>[-<locus>].<format>)")
	fs.StringVarP(&opts.format, "format", "f", "", "output format: "+strings.Join(render.Formats, ", ")+" (default from --output, else svg)")
	fs.StringVarP(&opts.locus, "locus", "l", "", "colour individuals by their state at this locus")
	fs.BoolVar(&opts.peel, "peel", false, "draw the peel sequence of the locus")
	fs.IntVar(&opts.component, "component", 0, "component whose peel sequence is drawn")
	fs.Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	fs.BoolVar(&opts.runner.noCache, "no-cache", false, "disable the result cache")
	fs.StringVar(&opts.runner.storeDir, "store", "", "keep error files in this directory instead of the configured store")
	opts.pipe.register(cmd)

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, path string, opts *renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	ds, err := io.Import(path)
	if err != nil {
		return err
	}

	var dot string
	if opts.locus == "" {
		p, _, err := ds.Build()
		if err != nil {
			return err
		}
		dot = nodelink.PedigreeDOT(p, nodelink.Options{Title: ds.Name})
	} else {
		cfg, err := c.config()
		if err != nil {
			return err
		}
		popts := cfg.Pipeline
		opts.pipe.apply(cmd, &popts)
		popts.Loci = []string{opts.locus}
		popts.Report = true

		runner, closeRunner, err := c.newRunner(ctx, cfg, opts.runner)
		if err != nil {
			return err
		}
		defer closeRunner()

		res, runErr := runner.Run(ctx, ds, popts)
		var lr *pipeline.LocusResult
		if res != nil {
			lr = res.Locus(opts.locus)
		}
		if lr == nil {
			return runErr
		}
		if runErr != nil {
			logger.Warn("locus is inconsistent", "locus", opts.locus)
		}

		if opts.peel {
			dot, err = sequenceDOT(res.Pedigree(), lr, opts.component)
			if err != nil {
				return err
			}
		} else {
			dot = nodelink.PedigreeDOT(res.Pedigree(), nodelink.LocusOptions(res.Pedigree(), lr, ds.Locus(opts.locus).Genotypes))
		}
	}

	data, err := nodelink.Render(dot, opts.format, opts.scale)
	if err != nil {
		return err
	}

	out := opts.output
	if out == "" {
		out = defaultOutput(path, opts.locus, opts.format)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return gerrors.Wrap(gerrors.ErrCodeInvalidPath, err, "write %s", out)
	}
	printSuccess("Rendered %s", opts.format)
	printFile(out)
	return nil
}

func sequenceDOT(p *pedigree.Pedigree, lr *pipeline.LocusResult, component int) (string, error) {
	for _, comp := range lr.Components {
		if comp.Component == component && comp.Sequence != nil {
			return nodelink.SequenceDOT(p, comp.Sequence), nil
		}
	}
	return "", gerrors.New(gerrors.ErrCodeNotFound, "locus %s has no peel sequence for component %d", lr.Locus, component)
}

// formatFromPath infers the format from an output extension, falling back
// to SVG.
func formatFromPath(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, f := range render.Formats {
		if ext == f {
			return f
		}
	}
	return render.FormatSVG
}

func defaultOutput(dataset, locus, format string) string {
	base := strings.TrimSuffix(dataset, filepath.Ext(dataset))
	if locus != "" {
		base = fmt.Sprintf("%s-%s", base, locus)
	}
	return base + "." + format
}
