package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stockscan/internal/analysis"
	"stockscan/internal/analysis/levels"
	"stockscan/internal/logging"
	"stockscan/internal/marketdata"
	"stockscan/internal/models"
	"stockscan/internal/scan"
	"stockscan/pkg/utils"
)

// addAnalysisCommands adds the analysis commands.
func addAnalysisCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newScanCmd(app))
	rootCmd.AddCommand(newLevelsCmd(app))
	rootCmd.AddCommand(newRRCmd(app))
}

// cadenceFlag parses the --cadence flag, defaulting to daily.
func cadenceFlag(cmd *cobra.Command) models.Cadence {
	value, _ := cmd.Flags().GetString("cadence")
	switch models.Cadence(value) {
	case models.CadenceFiveMin, models.CadenceHourly, models.CadenceDaily,
		models.CadenceWeekly, models.CadenceMonthly:
		return models.Cadence(value)
	default:
		return models.CadenceDaily
	}
}

// directionFlag parses the --short flag into a direction.
func directionFlag(cmd *cobra.Command) models.Direction {
	if short, _ := cmd.Flags().GetBool("short"); short {
		return models.Short
	}
	return models.Long
}

// asOfFlag parses the --date flag, defaulting to today.
func asOfFlag(cmd *cobra.Command) (time.Time, error) {
	value, _ := cmd.Flags().GetString("date")
	if value == "" {
		return time.Now().UTC(), nil
	}
	return utils.ParseDateKey(value)
}

func newAnalyzeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <symbol>",
		Short: "Full technical analysis for a symbol",
		Long: `Compute the full indicator reading (SMA crossover, MACD histogram,
ADX, ATR, Bollinger), directional scores, support/resistance levels and
the risk/reward decision for one symbol.`,
		Example: `  stockscan analyze AAPL
  stockscan analyze TSLA --short
  stockscan analyze MSFT --cadence weekly --date 2026-08-28`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if app.Store == nil {
				output.Error("Store not available. Check the database path in config.")
				return fmt.Errorf("store not configured")
			}

			symbol := strings.ToUpper(args[0])
			cadence := cadenceFlag(cmd)
			direction := directionFlag(cmd)
			asOf, err := asOfFlag(cmd)
			if err != nil {
				return err
			}

			result, err := app.analyzeOne(ctx, symbol, asOf, cadence, direction)
			if err != nil {
				output.Error("Analysis failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}
			printResult(output, *result)
			return nil
		},
	}

	cmd.Flags().String("cadence", "daily", "bar cadence (5min, hourly, daily, weekly, monthly)")
	cmd.Flags().Bool("short", false, "score for a short setup instead of long")
	cmd.Flags().String("date", "", "analysis date (YYYY-MM-DD, default today)")
	return cmd
}

// analyzeOne runs the pipeline for one symbol against the store-backed
// series.
func (app *App) analyzeOne(ctx context.Context, symbol string, asOf time.Time, cadence models.Cadence, direction models.Direction) (*analysis.Result, error) {
	source := app.seriesSource(cadence)
	if source == nil {
		return nil, fmt.Errorf("store does not provide bar series")
	}
	bars, err := source.GetSeries(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("loading series for %s: %w", symbol, err)
	}

	benchmark := app.Config.Analysis.Benchmark
	if benchmark != "" && benchmark != symbol {
		if benchBars, err := source.GetSeries(ctx, benchmark); err == nil {
			bars = append(bars, benchBars...)
		}
	}

	index := marketdata.BuildIndex(bars, app.Logger)
	analyzer := scan.NewAnalyzer(app.Config.Analysis, app.Store, app.Logger)
	result := analyzer.Analyze(ctx, index, symbol, asOf, cadence, direction)
	return &result, nil
}

func newScanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the watch-list and rank setups by composite score",
		Long: `Analyze every symbol on the watch-list concurrently, persist the dated
batch, and print the ranked setups. Symbols with too little history are
reported as skipped, not failed.`,
		Example: `  stockscan scan
  stockscan scan --short --cadence weekly
  stockscan scan --approved-only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			if app.Store == nil {
				output.Error("Store not available. Check the database path in config.")
				return fmt.Errorf("store not configured")
			}

			cadence := cadenceFlag(cmd)
			direction := directionFlag(cmd)
			approvedOnly, _ := cmd.Flags().GetBool("approved-only")
			asOf, err := asOfFlag(cmd)
			if err != nil {
				return err
			}

			logger := logging.WithCadence(app.Logger, string(cadence))
			analyzer := scan.NewAnalyzer(app.Config.Analysis, app.Store, logger)
			scanner := scan.NewScanner(analyzer, app.seriesSource(cadence), app.Store, app.Store,
				app.Config.Scan.Concurrency, logger)

			results, err := scanner.Run(ctx, asOf, cadence, direction)
			if err != nil {
				output.Error("Scan failed: %v", err)
				return err
			}
			if len(results) == 0 {
				output.Warning("Watch-list is empty. Add symbols with 'stockscan watch add'.")
				return nil
			}

			if output.IsJSON() {
				return output.JSON(results)
			}
			printScanTable(output, results, approvedOnly)
			return nil
		},
	}

	cmd.Flags().String("cadence", "daily", "bar cadence (5min, hourly, daily, weekly, monthly)")
	cmd.Flags().Bool("short", false, "score for short setups instead of long")
	cmd.Flags().Bool("approved-only", false, "only show fully approved setups")
	cmd.Flags().String("date", "", "analysis date (YYYY-MM-DD, default today)")
	return cmd
}

func newLevelsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "levels <symbol>",
		Short: "Show support and resistance levels for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if app.Store == nil {
				output.Error("Store not available. Check the database path in config.")
				return fmt.Errorf("store not configured")
			}

			symbol := strings.ToUpper(args[0])
			cadence := cadenceFlag(cmd)

			bars, err := app.seriesSource(cadence).GetSeries(ctx, symbol)
			if err != nil {
				output.Error("Loading series: %v", err)
				return err
			}
			reference := bars[len(bars)-1].Close
			detected := levels.Detect(bars, reference, app.Config.Analysis.LevelLookback)

			if output.IsJSON() {
				return output.JSON(detected)
			}

			color.Cyan("Support/Resistance — %s (reference %s)", symbol, utils.FormatPrice(reference))
			if len(detected) == 0 {
				output.Dim("No levels with two or more touches in the window.")
				return nil
			}
			for _, l := range detected {
				marker := "S"
				if l.Type == analysis.LevelResistance {
					marker = "R"
				}
				output.Printf("  [%s] %-10s strength %d  (%s)\n",
					marker, utils.FormatPrice(l.Price), l.Strength, utils.FormatPercent(l.DistancePercent))
			}
			return nil
		},
	}

	cmd.Flags().String("cadence", "daily", "bar cadence (5min, hourly, daily, weekly, monthly)")
	return cmd
}

func newRRCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rr <symbol>",
		Short: "Risk/reward decision for a symbol",
		Long: `Derive stop-loss and target from detected levels (falling back to ATR
multiples), compute the reward:risk ratio and report whether the setup
clears the configured minimum.`,
		Example: `  stockscan rr NVDA
  stockscan rr AMD --short`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if app.Store == nil {
				output.Error("Store not available. Check the database path in config.")
				return fmt.Errorf("store not configured")
			}

			symbol := strings.ToUpper(args[0])
			cadence := cadenceFlag(cmd)
			direction := directionFlag(cmd)
			asOf, err := asOfFlag(cmd)
			if err != nil {
				return err
			}

			result, err := app.analyzeOne(ctx, symbol, asOf, cadence, direction)
			if err != nil {
				output.Error("Analysis failed: %v", err)
				return err
			}
			if result.Skipped {
				output.Warning("Skipped: %s", result.SkipReason)
				return nil
			}

			if output.IsJSON() {
				return output.JSON(result.Setup)
			}
			printRiskReward(output, *result)
			return nil
		},
	}

	cmd.Flags().String("cadence", "daily", "bar cadence (5min, hourly, daily, weekly, monthly)")
	cmd.Flags().Bool("short", false, "evaluate a short setup instead of long")
	cmd.Flags().String("date", "", "analysis date (YYYY-MM-DD, default today)")
	return cmd
}

// seriesSource returns the store-backed bar source for a cadence.
func (app *App) seriesSource(cadence models.Cadence) marketdata.BarSource {
	type sourcer interface {
		SeriesSource(models.Cadence) marketdata.BarSource
	}
	if s, ok := app.Store.(sourcer); ok {
		return s.SeriesSource(cadence)
	}
	return nil
}

func printResult(output *Output, result analysis.Result) {
	color.Cyan("Analysis — %s (%s, %s)", result.Symbol, result.Direction, utils.DateKey(result.AsOfDate))
	if result.Skipped {
		output.Warning("Skipped: %s", result.SkipReason)
		return
	}

	r := result.Reading
	output.Printf("  SMA %-8s / %-8s  crossover: %s\n",
		utils.FormatPrice(r.SMAShort), utils.FormatPrice(r.SMALong), r.Crossover)
	output.Printf("  MACD hist %-8.4f  ADX %.1f (%s)  ATR %s\n",
		r.MACDHist, r.ADX, result.TrendLabel, utils.FormatPrice(r.ATR))
	output.Printf("  Bollinger width %.2f%%  %%b %.2f\n",
		r.Bollinger.WidthPercent, r.Bollinger.PercentB)

	output.Println()
	for _, score := range result.Scores {
		output.Printf("  %-18s %s\n", score.Kind, ScoreBar(score.Value))
	}
	output.Printf("  %-18s %s\n", "composite", ScoreBar(result.Composite))

	output.Println()
	printRiskReward(output, result)
}

func printRiskReward(output *Output, result analysis.Result) {
	rr := result.RiskReward
	output.Printf("  Entry %s  Stop %s (%s)  Target %s (%s)\n",
		utils.FormatPrice(rr.Entry),
		utils.FormatPrice(rr.StopLoss), utils.FormatPercent(-rr.RiskPercent),
		utils.FormatPrice(rr.Target), utils.FormatPercent(rr.RewardPercent))
	output.Printf("  R:R %s  confidence %d  (%s)\n", utils.FormatRatio(rr.Ratio), rr.Confidence, rr.Method)

	if result.Setup.FinalApproval {
		color.Green("✓ APPROVED — composite %d, ratio %s", result.Composite, utils.FormatRatio(rr.Ratio))
	} else if rr.Approved {
		color.Yellow("✗ Rejected — ratio passes but composite %d is below the minimum", result.Composite)
	} else {
		color.Yellow("✗ Rejected — ratio %s below minimum", utils.FormatRatio(rr.Ratio))
	}
}

func printScanTable(output *Output, results []analysis.Result, approvedOnly bool) {
	color.Cyan("%-8s %-6s %-10s %-8s %-8s %-8s %s", "SYMBOL", "SCORE", "R:R", "ENTRY", "STOP", "TARGET", "STATUS")
	var shown, skipped int
	for _, r := range results {
		if r.Skipped {
			skipped++
			continue
		}
		if approvedOnly && !r.Setup.FinalApproval {
			continue
		}
		status := "rejected"
		if r.Setup.FinalApproval {
			status = "APPROVED"
		}
		line := fmt.Sprintf("%-8s %-6d %-10s %-8s %-8s %-8s %s",
			r.Symbol, r.Composite, utils.FormatRatio(r.RiskReward.Ratio),
			utils.FormatPrice(r.RiskReward.Entry), utils.FormatPrice(r.RiskReward.StopLoss),
			utils.FormatPrice(r.RiskReward.Target), status)
		if r.Setup.FinalApproval {
			color.Green("%s", line)
		} else {
			output.Println(line)
		}
		shown++
	}
	output.Println()
	output.Dim("%d shown, %d skipped (insufficient history)", shown, skipped)
}
