package commands

import (
	"pricetracker/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(plotCmd)
}

var plotCmd = &cobra.Command{
	Use:   "plot [product]",
	Short: "Renders the price history of a product to <product>_price_history.png.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a := loadApp(ctx)
		defer a.Close()

		product := a.productArg(args)
		_, err := a.tracker.PlotHistory(ctx, product.ID)
		if err != nil {
			serviceutil.Fatal("failed to plot price history", err)
		}
	},
}
