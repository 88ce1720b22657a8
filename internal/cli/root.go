package cli

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stockintel/internal/cache"
	"stockintel/internal/config"
	"stockintel/internal/intel"
	"stockintel/internal/logging"
	"stockintel/internal/providers"
	"stockintel/internal/store"
	"stockintel/internal/synthesis"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2025-08-01"
)

// App holds the application dependencies.
type App struct {
	Config      *config.Config
	Logger      zerolog.Logger
	Store       store.HistoryStore
	Finnhub     *providers.FinnhubClient
	QuoteCache  *cache.QuoteCache
	Aggregator  *intel.Aggregator
	Synthesizer *synthesis.Synthesizer
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	creds := intel.NewConfigCredentials(cfg.Credentials)

	// Market data client; quotes and candles come from Finnhub
	if cfg.Credentials.Finnhub.APIKey != "" {
		app.Finnhub = providers.NewFinnhubClient(cfg.Credentials.Finnhub.APIKey, logger)
		app.QuoteCache = cache.NewQuoteCache(app.Finnhub,
			time.Duration(cfg.Cache.QuoteTTLSecs)*time.Second, logger)
		logger.Debug().Msg("Finnhub client initialized")
	}

	// Synthesis providers, tried in configured order
	var synthProviders []synthesis.Provider
	for _, name := range cfg.Synthesis.Providers {
		switch name {
		case "anthropic":
			if cfg.Credentials.Anthropic.APIKey != "" {
				synthProviders = append(synthProviders,
					synthesis.NewAnthropicProvider(cfg.Credentials.Anthropic.APIKey, cfg.Synthesis.AnthropicModel))
			}
		case "openai":
			if cfg.Credentials.OpenAI.APIKey != "" {
				synthProviders = append(synthProviders,
					synthesis.NewOpenAIProvider(cfg.Credentials.OpenAI.APIKey, cfg.Synthesis.OpenAIModel))
			}
		}
	}
	app.Synthesizer = synthesis.NewSynthesizer(synthProviders, logger)

	// Research rides the first configured model backend
	var llm intel.LLMClient
	if len(synthProviders) > 0 {
		llm = synthProviders[0]
	}

	gatherers := buildGatherers(app, creds, llm, logger)

	weights := make(map[intel.Source]float64, len(cfg.Analysis.SourceWeights))
	for name, w := range cfg.Analysis.SourceWeights {
		weights[intel.Source(name)] = w
	}
	app.Aggregator = intel.NewAggregator(gatherers, weights,
		time.Duration(cfg.Analysis.SourceTimeoutSecs)*time.Second, logger)

	// SQLite store for history and the candle cache
	dbPath := config.DefaultConfigDir() + "/stockintel.db"
	historyStore, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, history features unavailable")
	} else {
		app.Store = historyStore
		logger.Debug().Msg("SQLite store initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "stockintel",
		Short: "Multi-source stock intelligence CLI",
		Long: `Stockintel aggregates technical analysis, news, social sentiment,
web research, and options flow into a single composite read on a stock,
then synthesizes bull, bear, and base scenarios with an AI model.

Sources with missing credentials are skipped; the analysis runs with
whatever is available and reports its data quality.

Use 'stockintel help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/stockintel)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newQuickCmd(app))
	rootCmd.AddCommand(newQuoteCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))
	rootCmd.AddCommand(newWatchlistCmd(app))
	rootCmd.AddCommand(newSourcesCmd(app))

	return rootCmd
}

// buildGatherers assembles the five intelligence sources. Order follows
// intel.AllSources.
func buildGatherers(app *App, creds *intel.ConfigCredentials, llm intel.LLMClient, logger zerolog.Logger) []intel.Gatherer {
	cfg := app.Config

	var newsClient intel.NewsClient
	if app.Finnhub != nil {
		newsClient = app.Finnhub
	}

	var socialClient intel.SocialClient
	if cfg.Credentials.Stocktwits.AccessToken != "" {
		socialClient = providers.NewStocktwitsClient(cfg.Credentials.Stocktwits.AccessToken, logger)
	}

	var optionsClient intel.OptionsClient
	if cfg.Credentials.Polygon.APIKey != "" {
		optionsClient = providers.NewPolygonClient(cfg.Credentials.Polygon.APIKey, logger)
	}

	return []intel.Gatherer{
		intel.NewTechnicalGatherer(newScorer(cfg), logger),
		intel.NewNewsGatherer(creds, newsClient, logger),
		intel.NewSocialGatherer(creds, socialClient, logger),
		intel.NewResearchGatherer(creds, llm, logger),
		intel.NewOptionsGatherer(creds, optionsClient, logger),
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("stockintel v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Analysis Configuration")
	output.Printf("  RSI Oversold:       %.0f\n", cfg.Analysis.RSIOversold)
	output.Printf("  RSI Overbought:     %.0f\n", cfg.Analysis.RSIOverbought)
	output.Printf("  Bollinger Proximity: %.1f%%\n", cfg.Analysis.BollingerProximity*100)
	output.Printf("  High Volume Ratio:  %.2f\n", cfg.Analysis.HighVolumeRatio)
	output.Printf("  Source Timeout:     %ds\n", cfg.Analysis.SourceTimeoutSecs)
	output.Println()

	output.Bold("Synthesis Configuration")
	output.Printf("  Providers:          %v\n", cfg.Synthesis.Providers)
	output.Printf("  Anthropic Model:    %s\n", cfg.Synthesis.AnthropicModel)
	output.Printf("  OpenAI Model:       %s\n", cfg.Synthesis.OpenAIModel)
	output.Printf("  Timeout:            %ds\n", cfg.Synthesis.TimeoutSecs)
	output.Println()

	output.Bold("Cache Configuration")
	output.Printf("  Quote TTL:          %ds\n", cfg.Cache.QuoteTTLSecs)
}
