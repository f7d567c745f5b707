// internal/cli/run.go
package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/record-harvest/harvest/internal/export"
	"github.com/record-harvest/harvest/internal/sites"
	"github.com/record-harvest/harvest/internal/ui"
	"github.com/record-harvest/harvest/pkg/models"
)

var (
	siteName      string
	outputPath    string
	sessionName   string
	maxPerTerm    int
	enrichLimit   int
	transformPath string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <term>...",
	Short: "Harvest records for one or more search terms",
	Long: `Searches the chosen site for every term, walks the result pages and
extracts structured records. Duplicates across terms are removed and the
first few records are enriched from their detail pages.`,
	Example: `  # Search the marketplace for two terms
  harvest run "notebook gamer" "smartphone" --site=marketplace

  # Cap results and write CSV
  harvest run notebook --site=marketplace --max=20 -o results.csv

  # Job search with a saved login session
  harvest run "golang developer" --site=jobboard --session=work

  # Post-process records with a script
  harvest run notebook --site=marketplace --transform=clean.js`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHarvest,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&siteName, "site", "marketplace", "Target site: "+strings.Join(sites.Names(), ", "))
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "File to save results (.json, .csv or .md)")
	runCmd.Flags().StringVar(&sessionName, "session", "", "Name of a saved session to reuse")
	runCmd.Flags().IntVar(&maxPerTerm, "max", 0, "Maximum records per term (0 = config default)")
	runCmd.Flags().IntVar(&enrichLimit, "enrich", -1, "Detail pages to visit for enrichment (0 disables)")
	runCmd.Flags().StringVar(&transformPath, "transform", "", "JavaScript file run on every record")
}

func runHarvest(cmd *cobra.Command, args []string) error {
	a := GetApp()
	profile := sites.ByName(siteName)
	if profile == nil {
		return fmt.Errorf("unknown site %q, expected one of: %s", siteName, strings.Join(sites.Names(), ", "))
	}

	if maxPerTerm > 0 {
		a.Config.MaxPerTerm = maxPerTerm
	}
	limit := a.Config.EnrichLimit
	if enrichLimit >= 0 {
		limit = enrichLimit
	}

	ctx := cmd.Context()
	pipeline, err := a.NewPipeline(ctx, profile, sessionName, transformPath)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	bar := progressbar.NewOptions(len(args),
		progressbar.OptionSetDescription("harvesting"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetPredictTime(false),
	)
	pipeline.Orchestrator.WithProgress(func(term string) {
		bar.Describe(fmt.Sprintf("harvested %q", term))
		_ = bar.Add(1)
	})

	start := time.Now()
	result, err := pipeline.Orchestrator.Run(ctx, models.ScrapeRequest{
		Terms:       args,
		MaxPerTerm:  a.Config.MaxPerTerm,
		SessionName: sessionName,
		EnrichLimit: limit,
	})
	_ = bar.Finish()

	if err != nil && len(result.Records) == 0 {
		return err
	}
	if err != nil {
		fmt.Println(ui.Error(fmt.Sprintf("run ended early: %v", err)))
	}

	printSummary(result, time.Since(start))

	path := outputPath
	if path == "" {
		path = defaultOutputName()
	}
	if err := export.Save(result, path); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}
	fmt.Printf("%s %s\n", ui.Success("Saved to"), path)
	return nil
}

func printSummary(result *models.RunResult, elapsed time.Duration) {
	fmt.Printf("\n%s\n", ui.Bold("Harvest summary"))
	for _, s := range result.Stats {
		line := fmt.Sprintf("  %-24s %3d records, %d pages", s.Term, s.Extracted, s.Pages)
		if s.Err != "" {
			fmt.Println(ui.Error(line + "  (" + s.Err + ")"))
		} else {
			fmt.Println(line)
		}
	}
	fmt.Printf("  %s %d unique records", ui.Bold("total:"), len(result.Records))
	if result.Enriched > 0 {
		fmt.Printf(", %d enriched", result.Enriched)
	}
	fmt.Printf("  (%s)\n", elapsed.Round(time.Second))
}

func defaultOutputName() string {
	return fmt.Sprintf("harvest-%s.json", time.Now().Format("20060102-150405"))
}
