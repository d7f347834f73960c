package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/genelim/internal/config"
	"github.com/matzehuels/genelim/pkg/buildinfo"
	gerrors "github.com/matzehuels/genelim/pkg/errors"
	"github.com/matzehuels/genelim/pkg/pipeline"
	"github.com/matzehuels/genelim/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "genelim",
		Short: "genelim checks pedigree genotypes and compiles peel sequences",
		Long: `genelim removes impossible genotypes from pedigree data by genotype
elimination, locates the observations behind Mendelian inconsistencies, and
compiles the peel sequence a likelihood evaluator runs over each locus.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/genelim/config.toml)")

	root.AddCommand(c.checkCommand())
	root.AddCommand(c.peelCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config loads the configuration file once per CLI.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// runnerOpts selects the cache and store of a CLI runner.
type runnerOpts struct {
	noCache  bool
	storeDir string // overrides the configured store with error files
}

// newRunner creates a pipeline runner for CLI use. The returned function
// releases the cache and store.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, ro runnerOpts) (*pipeline.Runner, func(), error) {
	ch, err := cfg.OpenCache(ctx, ro.noCache)
	if err != nil {
		return nil, nil, err
	}

	var st store.Store
	if ro.storeDir != "" {
		st, err = store.NewFileStore(ro.storeDir)
	} else {
		st, err = cfg.OpenStore(ctx)
	}
	if err != nil {
		ch.Close()
		return nil, nil, err
	}

	r := pipeline.NewRunner(ch, nil, c.Logger)
	r.Store = st
	if ttl := cfg.Cache.TTL.Duration; ttl > 0 {
		r.TTL = ttl
	}
	closeFn := func() {
		if err := ch.Close(); err != nil {
			c.Logger.Warn("close cache", "error", err)
		}
		if st != nil {
			if err := st.Close(); err != nil {
				c.Logger.Warn("close store", "error", err)
			}
		}
	}
	return r, closeFn, nil
}

// =============================================================================
// Pipeline Flags
// =============================================================================

// pipelineFlags are the stage switches shared by check, peel and render.
// They override the [pipeline] section of the config file only when set.
type pipelineFlags struct {
	noPrune       bool
	noRecode      bool
	noExtraAllele bool
	noPrimary     bool
	noBothParents bool
	wordBits      int
	maxInvolved   int
}

func (f *pipelineFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.BoolVar(&f.noPrune, "no-prune", false, "keep uninformative individuals")
	fs.BoolVar(&f.noRecode, "no-recode", false, "skip allele recoding")
	fs.BoolVar(&f.noExtraAllele, "no-extra-allele", false, "do not add the lump allele for unobserved alleles")
	fs.BoolVar(&f.noPrimary, "no-primary", false, "compile every family with the joint pass")
	fs.BoolVar(&f.noBothParents, "no-both-parents", false, "never peel a family onto both parents")
	fs.IntVar(&f.wordBits, "word-bits", pipeline.DefaultWordBits, "bits available to pack an R-function index")
	fs.IntVar(&f.maxInvolved, "max-involved", pipeline.DefaultMaxInvolved, "largest number of genes one operation may involve")
}

func (f *pipelineFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	fs := cmd.Flags()
	set := func(name string, dst *bool, v bool) {
		if fs.Changed(name) {
			*dst = v
		}
	}
	set("no-prune", &opts.SkipPrune, f.noPrune)
	set("no-recode", &opts.SkipRecode, f.noRecode)
	set("no-extra-allele", &opts.SkipExtraAllele, f.noExtraAllele)
	set("no-primary", &opts.SkipPrimary, f.noPrimary)
	set("no-both-parents", &opts.NoBothParents, f.noBothParents)
	if fs.Changed("word-bits") {
		opts.WordBits = f.wordBits
	}
	if fs.Changed("max-involved") {
		opts.MaxInvolved = f.maxInvolved
	}
}

// =============================================================================
// Errors
// =============================================================================

// ExitCode maps an error returned by the root command to a process exit
// status: 130 for cancellation, 2 for an inconsistent locus and 1 otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled), gerrors.Is(err, gerrors.ErrCodeCancelled):
		return 130
	case gerrors.Is(err, gerrors.ErrCodeInconsistent):
		return 2
	}
	return 1
}

// Report prints err the way the CLI shows failures.
func Report(err error) {
	code := gerrors.GetCode(err)
	if code == "" {
		printError("%s", gerrors.UserMessage(err))
		return
	}
	printError("%s %s", gerrors.UserMessage(err), StyleDim.Render(fmt.Sprintf("[%s]", code)))
}
