package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/genelim/internal/server"
)

type serveOpts struct {
	addr    string
	noCache bool
}

// serveCommand creates the serve command, which runs the HTTP API until
// interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve exposes the pipeline over HTTP:

  GET  /healthz
  POST /v1/check    run every stage, report per-locus results
  POST /v1/peel     return the compiled peel sequences
  POST /v1/render   draw a locus (?locus=L&format=svg)

Requests carry {"dataset": {...}, "options": {...}}. The cache, store and
pipeline defaults come from the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")
	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts *serveOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := c.config()
	if err != nil {
		return err
	}
	srvCfg := cfg.Server
	if opts.addr != "" {
		srvCfg.Addr = opts.addr
	}

	ch, err := cfg.OpenCache(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer ch.Close()
	st, err := cfg.OpenStore(ctx)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	printKeyValue("Address", srvCfg.Addr)
	printKeyValue("Cache", cfg.Cache.Backend)
	printKeyValue("Store", cfg.Store.Backend)

	srv := server.New(server.Options{
		Cache:    ch,
		Store:    st,
		Logger:   logger,
		Defaults: cfg.Pipeline,
		MaxBody:  srvCfg.MaxBody,
		TTL:      cfg.Cache.TTL.Duration,
	})
	return srv.ListenAndServe(ctx, srvCfg)
}
