// Package menu is the interactive text menu of the tracker.
package menu

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

const (
	Banner       = "E-commerce Price Tracker - Portfolio Version"
	prompt       = "\nEnter your choice (1-2): "
	choicePlot   = "1"
	choiceExit   = "2"
	bannerMarker = "="
)

// Plotter renders a product's price history.
type Plotter interface {
	PlotHistory(ctx context.Context, productID string) (string, error)
}

type Menu struct {
	plotter   Plotter
	productID string
	in        io.Reader
	out       io.Writer
}

// New returns a menu whose "view price history" choice plots `productID`.
func New(plotter Plotter, productID string, in io.Reader, out io.Writer) Menu {
	return Menu{plotter: plotter, productID: productID, in: in, out: out}
}

func (m Menu) printOptions() {
	fmt.Fprintln(m.out, "\nOptions:")
	fmt.Fprintln(m.out, "1. View sample price history")
	fmt.Fprintln(m.out, "2. Exit")
	fmt.Fprint(m.out, prompt)
}

// Run loops until the exit choice is picked, the input ends or ctx is done.
func (m Menu) Run(ctx context.Context) error {
	fmt.Fprintln(m.out, Banner)
	fmt.Fprintln(m.out, strings.Repeat(bannerMarker, 50))

	scanner := bufio.NewScanner(m.in)
	for {
		m.printOptions()
		if !scanner.Scan() {
			fmt.Fprintln(m.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		switch strings.TrimSpace(scanner.Text()) {
		case choicePlot:
			_, err := m.plotter.PlotHistory(ctx, m.productID)
			if err != nil {
				fmt.Fprintf(m.out, "Error plotting price history: %v\n", err)
			}
		case choiceExit:
			fmt.Fprintln(m.out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(m.out, "Invalid choice. Please try again.")
		}
	}
}
