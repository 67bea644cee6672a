package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stockscan/internal/models"
	"stockscan/pkg/utils"
)

// addDataCommands adds the bar/quote import commands.
func addDataCommands(rootCmd *cobra.Command, app *App) {
	dataCmd := &cobra.Command{
		Use:   "data",
		Short: "Import bars and quotes into the local database",
	}
	dataCmd.AddCommand(newDataImportCmd(app))
	dataCmd.AddCommand(newDataQuoteCmd(app))
	rootCmd.AddCommand(dataCmd)
}

func newDataImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import OHLCV bars from a CSV file",
		Long: `Import bars from a CSV with the columns
symbol,date,open,high,low,close,volume[,adj_close]. The date must be
YYYY-MM-DD. Re-importing a (symbol,date) pair replaces the stored bar.`,
		Example: `  stockscan data import bars.csv
  stockscan data import weekly.csv --cadence weekly`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			if app.Store == nil {
				return fmt.Errorf("store not configured")
			}

			cadence := cadenceFlag(cmd)
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer file.Close()

			bars, skipped, err := readBarsCSV(file)
			if err != nil {
				output.Error("Import failed: %v", err)
				return err
			}
			if err := app.Store.SaveBars(ctx, cadence, bars); err != nil {
				output.Error("Saving bars: %v", err)
				return err
			}

			output.Success("✓ Imported %d bars (%s)", len(bars), cadence)
			if skipped > 0 {
				output.Warning("%d rows skipped (malformed or invalid OHLC)", skipped)
			}
			return nil
		},
	}
	cmd.Flags().String("cadence", "daily", "bar cadence (5min, hourly, daily, weekly, monthly)")
	return cmd
}

// readBarsCSV parses the bar rows, tolerating a header line and skipping
// rows that fail to parse or violate the OHLC invariant.
func readBarsCSV(r io.Reader) (bars []models.Bar, skipped int, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		if len(record) < 7 {
			skipped++
			continue
		}
		bar, ok := parseBarRecord(record)
		if !ok {
			skipped++
			continue
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, skipped, fmt.Errorf("no valid bar rows found")
	}
	return bars, skipped, nil
}

func parseBarRecord(record []string) (models.Bar, bool) {
	date, err := utils.ParseDateKey(strings.TrimSpace(record[1]))
	if err != nil {
		return models.Bar{}, false
	}
	prices := make([]float64, 4)
	for i, field := range record[2:6] {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return models.Bar{}, false
		}
		prices[i] = v
	}
	volume, err := strconv.ParseInt(strings.TrimSpace(record[6]), 10, 64)
	if err != nil {
		return models.Bar{}, false
	}

	bar := models.Bar{
		Symbol: strings.ToUpper(strings.TrimSpace(record[0])),
		Date:   date,
		Open:   prices[0],
		High:   prices[1],
		Low:    prices[2],
		Close:  prices[3],
		Volume: volume,
	}
	if len(record) > 7 {
		if adj, err := strconv.ParseFloat(strings.TrimSpace(record[7]), 64); err == nil {
			bar.AdjClose = adj
		}
	}
	if bar.Symbol == "" || !bar.Valid() {
		return models.Bar{}, false
	}
	return bar, true
}

func newDataQuoteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quote <symbol> <price>",
		Short: "Record a pre/post-market quote for gap adjustment",
		Example: `  stockscan data quote AAPL 231.55`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if app.Store == nil {
				return fmt.Errorf("store not configured")
			}

			price, err := strconv.ParseFloat(args[1], 64)
			if err != nil || price <= 0 {
				return fmt.Errorf("invalid price %q", args[1])
			}

			quote := models.Quote{
				Symbol:    strings.ToUpper(args[0]),
				Price:     price,
				Timestamp: time.Now().UTC(),
			}
			if err := app.Store.SaveQuote(ctx, quote); err != nil {
				output.Error("Saving quote: %v", err)
				return err
			}
			output.Success("✓ Quote recorded: %s @ %s", quote.Symbol, utils.FormatPrice(price))
			return nil
		},
	}
}
