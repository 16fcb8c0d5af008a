package indicator

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"

	"github.com/gamma-omg/crypto-sim/internal/market"
	"github.com/pplcc/plotext"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var (
	colorPrice  = color.RGBA{R: 30, G: 30, B: 30, A: 255}
	colorBand   = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	colorSignal = color.RGBA{R: 220, G: 80, B: 40, A: 255}
)

// Chart stacks several plots sharing one time axis into a single PNG.
type Chart struct {
	plots   []*plot.Plot
	heights []float64
	w       int
	h       int
}

func NewChart(w, h int) *Chart {
	return &Chart{w: w, h: h}
}

func (c *Chart) Add(p *plot.Plot, height float64) {
	c.plots = append(c.plots, p)
	c.heights = append(c.heights, height)
}

// NewIndicatorChart draws the price with its Bollinger bands, the RSI and the
// MACD of series. ind must have been computed from series.Values().
func NewIndicatorChart(title string, series market.Series, ind Series) (*Chart, error) {
	c := NewChart(1024, 320)

	price := newTimePlot(title)
	if err := addLine(price, "price", series, series.Values(), colorPrice); err != nil {
		return nil, err
	}
	for _, b := range []struct {
		name string
		data []float64
	}{
		{"upper", ind.Bollinger.Upper},
		{"middle", ind.Bollinger.Middle},
		{"lower", ind.Bollinger.Lower},
	} {
		if err := addLine(price, b.name, series, b.data, colorBand); err != nil {
			return nil, err
		}
	}
	c.Add(price, 2)

	rsi := newTimePlot("RSI")
	rsi.Y.Min, rsi.Y.Max = 0, 100
	if err := addLine(rsi, "rsi", series, ind.RSI, colorPrice); err != nil {
		return nil, err
	}
	c.Add(rsi, 1)

	macd := newTimePlot("MACD")
	if err := addLine(macd, "line", series, ind.MACD.Line, colorPrice); err != nil {
		return nil, err
	}
	if err := addLine(macd, "signal", series, ind.MACD.Signal, colorSignal); err != nil {
		return nil, err
	}
	c.Add(macd, 1)

	return c, nil
}

func newTimePlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	return p
}

// addLine plots data against the timestamps of the trailing len(data) points.
func addLine(p *plot.Plot, name string, series market.Series, data []float64, c color.Color) error {
	if len(data) > len(series) {
		return fmt.Errorf("%s has more values (%d) than the price series (%d)", name, len(data), len(series))
	}

	offset := len(series) - len(data)
	pts := make(plotter.XYs, len(data))
	for i, v := range data {
		pts[i] = plotter.XY{X: float64(series[offset+i].Time), Y: v}
	}

	l, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("failed to create %s graph: %w", name, err)
	}
	l.Color = c

	p.Add(l)
	p.Legend.Add(name, l)
	return nil
}

func (c *Chart) WriteTo(w io.Writer) (int64, error) {
	var axis []*plot.Axis
	for _, p := range c.plots {
		axis = append(axis, &p.X)
	}
	plotext.UniteAxisRanges(axis)

	tbl := plotext.Table{
		RowHeights: c.heights,
		ColWidths:  []float64{1},
	}

	var plots2d [][]*plot.Plot
	for _, p := range c.plots {
		plots2d = append(plots2d, []*plot.Plot{p})
	}

	h := 0.0
	for _, v := range c.heights {
		h += v * float64(c.h)
	}

	img := vgimg.New(vg.Points(float64(c.w)), vg.Points(h))
	dc := draw.New(img)

	canvases := tbl.Align(plots2d, dc)
	for i, p := range c.plots {
		p.Draw(canvases[i][0])
	}

	png := vgimg.PngCanvas{Canvas: img}
	n, err := png.WriteTo(w)
	if err != nil {
		return n, fmt.Errorf("failed to write chart: %w", err)
	}

	return n, nil
}

func (c *Chart) Save(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close chart file: %w", cerr))
		}
	}()

	_, err = c.WriteTo(f)
	return err
}
