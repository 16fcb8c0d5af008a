package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/gamma-omg/crypto-sim/internal/indicator"
	"github.com/gamma-omg/crypto-sim/internal/market"
)

var dumpHeader = []string{"timestamp", "price", "rsi", "macd", "signal", "histogram", "bb_upper", "bb_middle", "bb_lower"}

// csvSeriesDump writes one row per price point. Indicator cells stay empty
// until the indicator has warmed up.
type csvSeriesDump struct {
	w *csv.Writer
}

func newCsvSeriesDump(w io.Writer) *csvSeriesDump {
	return &csvSeriesDump{csv.NewWriter(w)}
}

func (d *csvSeriesDump) Dump(series market.Series, ind indicator.Series) error {
	if err := d.w.Write(dumpHeader); err != nil {
		return fmt.Errorf("failed to write series dump csv header: %w", err)
	}

	n := len(series)
	for i, p := range series {
		row := []string{
			strconv.FormatInt(p.Time, 10),
			formatFloat(p.Value),
			cell(ind.RSI, i, n),
			cell(ind.MACD.Line, i, n),
			cell(ind.MACD.Signal, i, n),
			cell(ind.MACD.Histogram, i, n),
			cell(ind.Bollinger.Upper, i, n),
			cell(ind.Bollinger.Middle, i, n),
			cell(ind.Bollinger.Lower, i, n),
		}

		if err := d.w.Write(row); err != nil {
			return fmt.Errorf("failed to dump point: %w", err)
		}
	}

	d.w.Flush()
	return d.w.Error()
}

// cell picks the value of a trailing-aligned output for row i of n.
func cell(values []float64, i, n int) string {
	j := i - (n - len(values))
	if j < 0 || j >= len(values) {
		return ""
	}

	return formatFloat(values[j])
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
