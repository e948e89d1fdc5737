package commands

import (
	"io"
	"os"
	"pricetracker/internal/catalog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(productsCmd)
}

func renderProducts(out io.Writer, products []catalog.Product) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Product", "Name", "Seller", "URL"})
	for _, p := range products {
		for _, seller := range p.Sellers() {
			t.AppendRow(table.Row{p.ID, p.Name, seller, p.URLs[seller]})
		}
	}
	t.Render()
}

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Lists the products in the catalog and where they are tracked.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := loadApp(cmd.Context())
		defer a.Close()
		renderProducts(os.Stdout, a.tracker.Catalog().Products())
	},
}
