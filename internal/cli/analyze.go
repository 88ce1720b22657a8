package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "stockintel/internal/errors"
	"stockintel/internal/intel"
	"stockintel/internal/models"
	"stockintel/internal/store"
	"stockintel/internal/synthesis"
)

// historyDays is the candle span fetched for indicator computation.
// Long enough for the 200-day averages behind cross detection.
const historyDays = 320

func newAnalyzeCmd(app *App) *cobra.Command {
	var noSynthesis bool
	var prompt string

	cmd := &cobra.Command{
		Use:   "analyze <symbol>",
		Short: "Run the full multi-source analysis for a symbol",
		Long: `Analyze gathers every available intelligence source concurrently,
scores the composite verdict, and synthesizes bull/bear/base scenarios
when a model provider is configured.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbol := strings.ToUpper(args[0])
			ctx := cmd.Context()

			bundle, err := runAnalysis(ctx, app, symbol, prompt, false)
			if err != nil {
				return err
			}

			var result *synthesis.Result
			if !noSynthesis && app.Synthesizer.HasProviders() {
				synthCtx, cancel := context.WithTimeout(ctx,
					time.Duration(app.Config.Synthesis.TimeoutSecs)*time.Second)
				result, err = app.Synthesizer.Synthesize(synthCtx, bundle)
				cancel()
				if err != nil {
					var malformed *apperrors.MalformedResponseError
					if apperrors.As(err, &malformed) {
						return err
					}
					// Providers unreachable: the aggregated view still stands
					output.Warning("Synthesis unavailable: %v", err)
				}
			}

			persistAnalysis(ctx, app, bundle, result)

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"bundle":    bundle,
					"synthesis": result,
				})
			}

			renderBundle(output, bundle)
			if result != nil {
				renderScenarios(output, result)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noSynthesis, "no-synthesis", false, "skip scenario synthesis")
	cmd.Flags().StringVar(&prompt, "focus", "", "extra focus for the research source")
	return cmd
}

func newQuickCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quick <symbol>",
		Short: "Technical-only analysis, no network sources or synthesis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbol := strings.ToUpper(args[0])

			bundle, err := runAnalysis(cmd.Context(), app, symbol, "", true)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(bundle)
			}
			renderBundle(output, bundle)
			return nil
		},
	}
}

// runAnalysis loads price history, builds the gather request, and runs
// the aggregator. quick restricts the run to the technical source.
func runAnalysis(ctx context.Context, app *App, symbol, prompt string, quick bool) (*intel.Bundle, error) {
	points, err := loadHistory(ctx, app, symbol)
	if err != nil {
		return nil, err
	}

	req := intel.GatherRequest{
		Symbol:       symbol,
		PriceData:    points,
		CustomPrompt: prompt,
	}

	if app.QuoteCache != nil {
		if quote, err := app.QuoteCache.Get(ctx, symbol); err == nil {
			req.CurrentPrice = quote.Price
		}
	}
	if app.Finnhub != nil {
		if name, err := app.Finnhub.CompanyName(ctx, symbol); err == nil {
			req.CompanyName = name
		}
	}

	if quick {
		return app.Aggregator.GatherQuick(ctx, req), nil
	}
	return app.Aggregator.Gather(ctx, req), nil
}

// loadHistory returns daily candles for the analysis window. Fresh data
// comes from Finnhub and lands in the store; on fetch failure the cached
// candles serve, so the technical source degrades instead of failing.
func loadHistory(ctx context.Context, app *App, symbol string) ([]models.PricePoint, error) {
	from := time.Now().AddDate(0, 0, -historyDays)
	to := time.Now()

	if app.Finnhub != nil {
		points, err := app.Finnhub.DailyCandles(ctx, symbol, from, to)
		if err == nil {
			if app.Store != nil {
				if saveErr := app.Store.SaveCandles(ctx, symbol, points); saveErr != nil {
					app.Logger.Warn().Err(saveErr).Str("symbol", symbol).Msg("Failed to cache candles")
				}
			}
			return points, nil
		}
		app.Logger.Warn().Err(err).Str("symbol", symbol).Msg("Candle fetch failed, trying cache")
	}

	if app.Store != nil {
		points, err := app.Store.GetCandles(ctx, symbol, from, to)
		if err == nil && len(points) > 0 {
			return points, nil
		}
	}

	// Analysis proceeds with no history; only credentialed network
	// sources can contribute
	return nil, nil
}

// persistAnalysis records the run in history. Persistence failures are
// logged, never surfaced.
func persistAnalysis(ctx context.Context, app *App, bundle *intel.Bundle, result *synthesis.Result) {
	if app.Store == nil {
		return
	}

	record := &store.AnalysisRecord{
		Symbol:       bundle.Symbol,
		Timestamp:    bundle.GatheredAt,
		DataQuality:  bundle.DataQuality,
		QualityLabel: bundle.QualityLabel,
		SourceCount:  len(bundle.Reports),
	}

	if tech := bundle.ReportFor(intel.SourceTechnical); tech != nil && tech.Technical != nil {
		record.Percentage = tech.Technical.Aggregate.Percentage
		record.Label = tech.Technical.Aggregate.Label
		record.Summary = tech.Summary
	}

	if result != nil {
		if data, err := json.Marshal(result.Scenarios); err == nil {
			record.Scenarios = string(data)
		}
	}

	if err := app.Store.SaveAnalysis(ctx, record); err != nil {
		app.Logger.Warn().Err(err).Str("symbol", bundle.Symbol).Msg("Failed to save analysis")
	}
}

func renderBundle(output *Output, bundle *intel.Bundle) {
	title := bundle.Symbol
	if bundle.CompanyName != "" {
		title += " — " + bundle.CompanyName
	}
	output.Bold("%s", title)
	output.Dim("Gathered %s in %s", bundle.GatheredAt.Format("2006-01-02 15:04:05"),
		bundle.Elapsed.Round(time.Millisecond))
	output.Println()

	if tech := bundle.ReportFor(intel.SourceTechnical); tech != nil && tech.Technical != nil {
		renderTechnical(output, tech.Technical)
	}

	for _, report := range bundle.Reports {
		if report.Source == intel.SourceTechnical {
			continue
		}
		output.Bold("%s (confidence %.0f)", report.Source, report.Confidence)
		output.Printf("  %s\n\n", report.Summary)
	}

	if len(bundle.MissingSources) > 0 {
		names := make([]string, 0, len(bundle.MissingSources))
		for _, s := range bundle.MissingSources {
			names = append(names, string(s))
		}
		output.Dim("Unavailable: %s", strings.Join(names, ", "))
	}

	output.Printf("Data quality: %.0f/100 (%s)\n\n",
		bundle.DataQuality, output.Quality(bundle.QualityLabel))
}

func renderTechnical(output *Output, tech *intel.TechnicalData) {
	set := tech.Indicators

	output.Bold("Technical Analysis")
	output.Printf("  Price %.2f  RSI %.1f  MACD hist %+.2f  ATR %.2f\n",
		tech.CurrentPrice, set.RSI, set.MACD.Histogram, set.ATR)
	output.Printf("  SMA20 %.2f  SMA50 %.2f  Bollinger %.2f / %.2f / %.2f\n",
		set.SMA20, set.SMA50, set.Bollinger.Lower, set.Bollinger.Middle, set.Bollinger.Upper)
	output.Printf("  Volume %.2fx average (%s)\n\n", set.VolumeRatio, set.Volume.Class)

	table := NewTable(output, "SIGNAL", "DIRECTION", "STRENGTH")
	for _, signal := range tech.Signals {
		table.AddRow(signal.Indicator,
			output.Direction(string(signal.Direction)),
			fmt.Sprintf("%.2f", signal.Strength))
	}
	table.Render()
	output.Println()

	agg := tech.Aggregate
	output.Printf("Composite: %s  (%.0f%%, %d↑ %d↓ %d•)\n",
		output.Verdict(agg.Label), agg.Percentage,
		agg.BullishCount, agg.BearishCount, agg.NeutralCount)
	trend := string(tech.Trend.Direction)
	if tech.Trend.Strong {
		trend = "strong " + trend
	}
	output.Printf("Trend: %s\n\n", output.Direction(trend))
}

func renderScenarios(output *Output, result *synthesis.Result) {
	output.Bold("Scenario Synthesis (%s / %s)", result.Provider, result.Model)
	if result.Assessment != "" {
		output.Printf("  %s\n", result.Assessment)
	}
	if result.Renormalized {
		output.Dim("  Probabilities renormalized to sum to 100")
	}
	output.Println()

	for _, scenario := range result.Scenarios {
		header := fmt.Sprintf("%s — %s (%.0f%%)",
			strings.ToUpper(scenario.Kind), scenario.Title, scenario.Probability)

		lines := []string{
			fmt.Sprintf("Target %.2f over %s", scenario.PriceTarget, scenario.Timeframe),
			scenario.Summary,
		}
		for _, c := range scenario.Catalysts {
			lines = append(lines, "+ "+c)
		}
		for _, r := range scenario.Risks {
			lines = append(lines, "- "+r)
		}
		output.Box(header, lines)
		output.Println()
	}
}
