package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	apperrors "stockintel/internal/errors"
	"stockintel/pkg/utils"
)

func newQuoteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quote <symbol> [symbol...]",
		Short: "Show cached real-time quotes",
		Long: `Quote shows the latest price for one or more symbols. Quotes are
served from a short-lived cache; a stale quote returns immediately while
a background refresh runs.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if app.QuoteCache == nil {
				return fmt.Errorf("%w: quotes require a Finnhub API key", apperrors.ErrMissingCredential)
			}

			if output.IsJSON() {
				quotes := make(map[string]interface{}, len(args))
				for _, arg := range args {
					symbol := strings.ToUpper(arg)
					quote, err := app.QuoteCache.Get(cmd.Context(), symbol)
					if err != nil {
						quotes[symbol] = map[string]string{"error": err.Error()}
						continue
					}
					quotes[symbol] = quote
				}
				return output.JSON(quotes)
			}

			table := NewTable(output, "SYMBOL", "PRICE", "CHANGE", "CHANGE%", "DAY RANGE")
			for _, arg := range args {
				symbol := strings.ToUpper(arg)
				quote, err := app.QuoteCache.Get(cmd.Context(), symbol)
				if err != nil {
					output.Error("%s: %v", symbol, err)
					continue
				}
				table.AddRow(
					symbol,
					utils.FormatUSD(quote.Price),
					output.FormatChange(quote.Change),
					output.FormatPercent(quote.ChangePercent),
					fmt.Sprintf("%.2f – %.2f", quote.Low, quote.High),
				)
			}
			table.Render()
			return nil
		},
	}
}
