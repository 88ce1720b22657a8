package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"stockintel/internal/intel"
)

// sourceRequirements names the credential behind each source for the
// status display.
var sourceRequirements = map[intel.Source]string{
	intel.SourceTechnical: "none (built-in)",
	intel.SourceNews:      "FINNHUB_API_KEY",
	intel.SourceSocial:    "STOCKTWITS_ACCESS_TOKEN",
	intel.SourceResearch:  "OPENAI_API_KEY or ANTHROPIC_API_KEY",
	intel.SourceOptions:   "POLYGON_API_KEY",
}

func newSourcesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "Show intelligence source availability",
		Long: `Sources shows which of the five intelligence sources can run with the
current credentials, and the data-quality weight each carries.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			creds := intel.NewConfigCredentials(app.Config.Credentials)
			weights := intel.DefaultSourceWeights()

			if output.IsJSON() {
				status := make(map[string]interface{}, 5)
				for _, source := range intel.AllSources() {
					status[string(source)] = map[string]interface{}{
						"available": creds.HasCredential(source),
						"weight":    weights[source],
					}
				}
				return output.JSON(status)
			}

			table := NewTable(output, "SOURCE", "STATUS", "WEIGHT", "REQUIRES")
			for _, source := range intel.AllSources() {
				status := output.Red("unavailable")
				if creds.HasCredential(source) {
					status = output.Green("available")
				}
				table.AddRow(
					string(source),
					status,
					fmt.Sprintf("%.0f", weights[source]),
					sourceRequirements[source],
				)
			}
			table.Render()
			return nil
		},
	}
}
