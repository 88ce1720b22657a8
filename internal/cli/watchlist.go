package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newWatchlistCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Manage the watchlist",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <symbol>",
		Short: "Add a symbol to the watchlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("watchlist store is not available")
			}
			symbol := strings.ToUpper(args[0])
			if err := app.Store.AddToWatchlist(cmd.Context(), symbol); err != nil {
				return err
			}
			output.Success("✓ Added %s to watchlist", symbol)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "remove <symbol>",
		Aliases: []string{"rm"},
		Short:   "Remove a symbol from the watchlist",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("watchlist store is not available")
			}
			symbol := strings.ToUpper(args[0])
			if err := app.Store.RemoveFromWatchlist(cmd.Context(), symbol); err != nil {
				return err
			}
			output.Success("✓ Removed %s from watchlist", symbol)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List watchlist symbols with current quotes",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("watchlist store is not available")
			}

			symbols, err := app.Store.GetWatchlist(cmd.Context())
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(symbols)
			}

			if len(symbols) == 0 {
				output.Dim("Watchlist is empty. Add symbols with 'stockintel watchlist add <symbol>'.")
				return nil
			}

			table := NewTable(output, "SYMBOL", "PRICE", "CHANGE%")
			for _, symbol := range symbols {
				price, change := "-", "-"
				if app.QuoteCache != nil {
					if quote, err := app.QuoteCache.Get(cmd.Context(), symbol); err == nil {
						price = fmt.Sprintf("%.2f", quote.Price)
						change = output.FormatPercent(quote.ChangePercent)
					}
				}
				table.AddRow(symbol, price, change)
			}
			table.Render()
			return nil
		},
	})

	return cmd
}
