// Package chart renders price histories as PNG line charts.
package chart

import (
	"errors"
	"fmt"
	"math"
	"os"
	"pricetracker/internal/history"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	Width  = 12 * vg.Inch
	Height = 6 * vg.Inch
	DPI    = 300
)

var ErrNoData = errors.New("no data to plot")

// HistoryFile is the name of a product's chart.
func HistoryFile(productID string) string {
	return fmt.Sprintf("%s_price_history.png", productID)
}

type Point struct {
	Time  time.Time
	Price string
}

// Series is the price line of a single seller, points are in time order.
type Series struct {
	Seller string
	Points []Point
}

// Label is the legend text of the series, "retailer_a" becomes "Retailer A".
func (s Series) Label() string {
	return cases.Title(language.Und).String(strings.ReplaceAll(s.Seller, "_", " "))
}

// BuildSeries sorts observations by time and groups them by seller. Series
// are ordered by seller, so the result does not depend on how sellers were
// interleaved in the log.
func BuildSeries(observations []history.Observation) []Series {
	sorted := make([]history.Observation, len(observations))
	copy(sorted, observations)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	bySeller := map[string]*Series{}
	for _, obs := range sorted {
		s, ok := bySeller[obs.Seller]
		if !ok {
			s = &Series{Seller: obs.Seller}
			bySeller[obs.Seller] = s
		}
		s.Points = append(s.Points, Point{Time: obs.Timestamp, Price: obs.Price})
	}

	out := make([]Series, 0, len(bySeller))
	for _, s := range bySeller {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Seller < out[j].Seller
	})
	return out
}

// Categories returns the distinct price strings in the order they are drawn,
// a price's index is its position on the y axis. Prices are not parsed, so
// the axis is ordered by appearance rather than by value.
func Categories(series []Series) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range series {
		for _, p := range s.Points {
			if seen[p.Price] {
				continue
			}
			seen[p.Price] = true
			out = append(out, p.Price)
		}
	}
	return out
}

func newPlot(title string, series []Series) (*plot.Plot, error) {
	categories := Categories(series)
	position := make(map[string]float64, len(categories))
	ticks := make([]plot.Tick, len(categories))
	for i, c := range categories {
		position[c] = float64(i)
		ticks[i] = plot.Tick{Value: float64(i), Label: c}
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Price (BRL)"
	p.X.Tick.Marker = plot.TimeTicks{
		Format: "2006-01-02 15:04",
		Time:   plot.UnixTimeIn(time.Local),
	}
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	for i, s := range series {
		xys := make(plotter.XYs, len(s.Points))
		for j, point := range s.Points {
			xys[j].X = float64(point.Time.Unix())
			xys[j].Y = position[point.Price]
		}

		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return nil, fmt.Errorf("series %s: %w", s.Seller, err)
		}
		line.Color = plotutil.Color(i)
		points.GlyphStyle.Color = plotutil.Color(i)
		points.GlyphStyle.Shape = draw.CircleGlyph{}

		p.Add(line, points)
		p.Legend.Add(s.Label(), line, points)
	}
	return p, nil
}

// Render draws the series into a PNG at `path`. Nothing is written when
// there are no points.
func Render(path, title string, series []Series) error {
	if len(Categories(series)) == 0 {
		return ErrNoData
	}

	p, err := newPlot(title, series)
	if err != nil {
		return err
	}
	canvas := vgimg.NewWith(vgimg.UseWH(Width, Height), vgimg.UseDPI(DPI))
	p.Draw(draw.New(canvas))

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = vgimg.PngCanvas{Canvas: canvas}.WriteTo(f)
	if err != nil {
		return err
	}
	return f.Close()
}
