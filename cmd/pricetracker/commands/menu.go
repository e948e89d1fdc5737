package commands

import (
	"context"
	"os"
	"pricetracker/internal/menu"
	"pricetracker/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(menuCmd)
}

func runMenu(ctx context.Context) {
	a := loadApp(ctx)
	defer a.Close()

	product := a.productArg(nil)
	err := menu.New(a.tracker, product.ID, os.Stdin, os.Stdout).Run(ctx)
	if err != nil {
		serviceutil.Fatal("menu stopped", err)
	}
}

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Starts the interactive menu.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runMenu(cmd.Context())
	},
}
