package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stockscan/internal/models"
	"stockscan/internal/store"
	"stockscan/pkg/utils"
)

// addJournalCommands adds the trade journal commands.
func addJournalCommands(rootCmd *cobra.Command, app *App) {
	journalCmd := &cobra.Command{
		Use:   "journal",
		Short: "Record and review trades taken off approved setups",
	}
	journalCmd.AddCommand(newJournalAddCmd(app))
	journalCmd.AddCommand(newJournalListCmd(app))
	rootCmd.AddCommand(journalCmd)
}

func newJournalAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <symbol> <entry-price>",
		Short: "Record a trade entry",
		Example: `  stockscan journal add AAPL 231.50 --stop 226.80 --target 242.00
  stockscan journal add TSLA 410.00 --short --notes "gap fade"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if app.Store == nil {
				return fmt.Errorf("store not configured")
			}

			entryPrice, err := strconv.ParseFloat(args[1], 64)
			if err != nil || entryPrice <= 0 {
				return fmt.Errorf("invalid entry price %q", args[1])
			}

			stop, _ := cmd.Flags().GetFloat64("stop")
			target, _ := cmd.Flags().GetFloat64("target")
			notes, _ := cmd.Flags().GetString("notes")

			entry := &models.JournalEntry{
				Symbol:     strings.ToUpper(args[0]),
				Direction:  directionFlag(cmd),
				EntryDate:  time.Now().UTC(),
				EntryPrice: entryPrice,
				StopLoss:   stop,
				Target:     target,
				Notes:      notes,
			}
			if err := app.Store.SaveJournalEntry(ctx, entry); err != nil {
				output.Error("Saving journal entry: %v", err)
				return err
			}
			output.Success("✓ Journal entry #%d recorded for %s", entry.ID, entry.Symbol)
			return nil
		},
	}
	cmd.Flags().Bool("short", false, "short trade")
	cmd.Flags().Float64("stop", 0, "stop-loss price")
	cmd.Flags().Float64("target", 0, "target price")
	cmd.Flags().String("notes", "", "free-form notes")
	return cmd
}

func newJournalListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journal entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if app.Store == nil {
				return fmt.Errorf("store not configured")
			}

			filter := store.JournalFilter{}
			if symbol, _ := cmd.Flags().GetString("symbol"); symbol != "" {
				filter.Symbol = strings.ToUpper(symbol)
			}
			filter.Limit, _ = cmd.Flags().GetInt("limit")

			entries, err := app.Store.GetJournal(ctx, filter)
			if err != nil {
				output.Error("Loading journal: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(entries)
			}
			if len(entries) == 0 {
				output.Dim("No journal entries.")
				return nil
			}

			color.Cyan("%-4s %-10s %-8s %-6s %-9s %-9s %-9s %s",
				"ID", "DATE", "SYMBOL", "DIR", "ENTRY", "STOP", "TARGET", "NOTES")
			for _, e := range entries {
				output.Printf("%-4d %-10s %-8s %-6s %-9s %-9s %-9s %s\n",
					e.ID, utils.DateKey(e.EntryDate), e.Symbol, e.Direction,
					utils.FormatPrice(e.EntryPrice), utils.FormatPrice(e.StopLoss),
					utils.FormatPrice(e.Target), e.Notes)
			}
			return nil
		},
	}
	cmd.Flags().String("symbol", "", "filter by symbol")
	cmd.Flags().Int("limit", 50, "maximum entries to show")
	return cmd
}
