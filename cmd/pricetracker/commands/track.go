package commands

import (
	"log/slog"
	"pricetracker/internal/catalog"
	"pricetracker/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var trackAll *bool

func init() {
	trackAll = trackCmd.Flags().Bool("all", false, "Track every product in the catalog.")
	rootCmd.AddCommand(trackCmd)
}

var trackCmd = &cobra.Command{
	Use:   "track [product] [--all]",
	Short: "Fetches the current price of a product from each of its sellers and records it.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a := loadApp(ctx)
		defer a.Close()

		products := []catalog.Product{a.productArg(args)}
		if *trackAll {
			products = a.tracker.Catalog().Products()
		}

		for _, p := range products {
			saved, err := a.tracker.Track(ctx, p.ID)
			if err != nil {
				serviceutil.Fatal("failed to track product", err)
			}
			slog.Info("tracked product", "product", p.ID, "saved", saved, "sellers", len(p.URLs))
		}
	},
}
