package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stockintel/internal/store"
)

func newHistoryCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [symbol]",
		Short: "Show past analysis runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if app.Store == nil {
				return fmt.Errorf("history store is not available")
			}

			filter := store.AnalysisFilter{Limit: limit}
			if len(args) == 1 {
				filter.Symbol = strings.ToUpper(args[0])
			}

			records, err := app.Store.GetAnalyses(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(records)
			}

			if len(records) == 0 {
				output.Dim("No analysis history yet.")
				return nil
			}

			table := NewTable(output, "DATE", "SYMBOL", "VERDICT", "SCORE", "QUALITY", "SOURCES")
			for _, r := range records {
				table.AddRow(
					r.Timestamp.Format("2006-01-02 15:04"),
					r.Symbol,
					output.Verdict(r.Label),
					fmt.Sprintf("%.0f%%", r.Percentage),
					output.Quality(r.QualityLabel),
					fmt.Sprintf("%d/5", r.SourceCount),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum records to show")
	return cmd
}
