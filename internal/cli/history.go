package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	gerrors "github.com/matzehuels/genelim/pkg/errors"
	"github.com/matzehuels/genelim/pkg/store"
)

// historyCommand lists the diagnoses stored for a dataset. Only stores
// that keep every run (sqlite, mongo) support it.
func (c *CLI) historyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history DATASET-NAME",
		Short: "List stored diagnoses of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.config()
			if err != nil {
				return err
			}
			st, err := cfg.OpenStore(ctx)
			if err != nil {
				return err
			}
			if st == nil {
				return gerrors.New(gerrors.ErrCodeConfiguration, "no store configured")
			}
			defer st.Close()

			h, ok := st.(store.Historian)
			if !ok {
				return gerrors.New(gerrors.ErrCodeUnsupported, "the %s store keeps no history", cfg.Store.Backend)
			}
			diags, err := h.History(ctx, args[0])
			if err != nil {
				return err
			}
			if len(diags) == 0 {
				printInfo("No diagnoses stored for %s", args[0])
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), historyTable(diags))
			return nil
		},
	}
}

func historyTable(diags []store.Diagnosis) string {
	rows := make([][]string, len(diags))
	for k, d := range diags {
		rows[k] = []string{
			d.CreatedAt.Local().Format("2006-01-02 15:04"),
			d.Locus,
			strconv.Itoa(d.Typed),
			strconv.Itoa(d.Checks),
			d.RunID,
			d.Version,
		}
	}
	return newTable("Created", "Locus", "Typed", "Checks", "Run", "Version").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return tableHeaderStyle
			}
			if col >= 4 {
				return StyleDim
			}
			return lipgloss.NewStyle()
		}).
		Render()
}
