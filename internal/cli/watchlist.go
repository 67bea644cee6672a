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
	"stockscan/pkg/utils"
)

// addWatchlistCommands adds the watch-list commands.
func addWatchlistCommands(rootCmd *cobra.Command, app *App) {
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Manage the scan watch-list",
	}
	watchCmd.AddCommand(newWatchAddCmd(app))
	watchCmd.AddCommand(newWatchRemoveCmd(app))
	watchCmd.AddCommand(newWatchListCmd(app))
	rootCmd.AddCommand(watchCmd)
}

func newWatchAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <symbol> [name]",
		Short: "Add a symbol to the watch-list",
		Example: `  stockscan watch add AAPL "Apple Inc"
  stockscan watch add SPY --price 580.25`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if app.Store == nil {
				return fmt.Errorf("store not configured")
			}

			inst := models.Instrument{Symbol: strings.ToUpper(args[0])}
			if len(args) > 1 {
				inst.Name = args[1]
			}
			if price, _ := cmd.Flags().GetString("price"); price != "" {
				p, err := strconv.ParseFloat(price, 64)
				if err != nil {
					return fmt.Errorf("invalid price %q: %w", price, err)
				}
				inst.LastKnownPrice = p
			}

			if err := app.Store.AddFavorite(ctx, inst); err != nil {
				output.Error("Failed to add %s: %v", inst.Symbol, err)
				return err
			}
			output.Success("✓ %s added to watch-list", inst.Symbol)
			return nil
		},
	}
	cmd.Flags().String("price", "", "last known price")
	return cmd
}

func newWatchRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <symbol>",
		Short: "Remove a symbol from the watch-list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if app.Store == nil {
				return fmt.Errorf("store not configured")
			}

			symbol := strings.ToUpper(args[0])
			if err := app.Store.RemoveFavorite(ctx, symbol); err != nil {
				output.Error("Failed to remove %s: %v", symbol, err)
				return err
			}
			output.Success("✓ %s removed from watch-list", symbol)
			return nil
		},
	}
}

func newWatchListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the watch-list",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if app.Store == nil {
				return fmt.Errorf("store not configured")
			}

			instruments, err := app.Store.GetInstruments(ctx)
			if err != nil {
				output.Error("Failed to load watch-list: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(instruments)
			}

			if len(instruments) == 0 {
				output.Dim("Watch-list is empty. Add symbols with 'stockscan watch add'.")
				return nil
			}
			color.Cyan("%-8s %-24s %-10s %s", "SYMBOL", "NAME", "PRICE", "VOLUME")
			for _, inst := range instruments {
				output.Printf("%-8s %-24s %-10s %s\n",
					inst.Symbol, inst.Name,
					utils.FormatPrice(inst.LastKnownPrice), utils.FormatVolume(inst.Volume))
			}
			return nil
		},
	}
}
