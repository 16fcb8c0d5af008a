package quote

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gamma-omg/crypto-sim/internal/market"
)

// CSVHistory reads daily price history from one CSV file per asset. A file
// either has two columns (timestamp, price) or a header naming a "time" or
// "timestamp" column and a "close" or "price" column, as in OHLCV exports.
// Times are unix epochs in seconds or milliseconds, or dates in 2006-01-02 or
// RFC 3339 form.
type CSVHistory struct {
	files map[string]string
}

func NewCSVHistory(files map[string]string) *CSVHistory {
	return &CSVHistory{files: files}
}

func (h *CSVHistory) Name() string {
	return "csv"
}

// History returns the last days daily points of asset. Intraday rows are
// resampled to the last value of each UTC day.
func (h *CSVHistory) History(ctx context.Context, asset string, days int) ([]market.RawPoint, error) {
	path, ok := h.files[asset]
	if !ok {
		return nil, fmt.Errorf("%w: no csv data for %s", ErrUnknownAsset, asset)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price history: %w", err)
	}
	defer f.Close()

	points, err := readPoints(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	// resampling needs clean, ordered input
	series, err := market.Validate(points, 1)
	if err != nil {
		return nil, fmt.Errorf("no usable prices in %s: %w", path, err)
	}

	points = make([]market.RawPoint, len(series))
	for i, p := range series {
		points[i] = market.RawPoint{Time: p.Time, Value: p.Value}
	}

	points = market.ResampleDaily(points)
	if days > 0 && len(points) > days {
		points = points[len(points)-days:]
	}

	return points, nil
}

func readPoints(ctx context.Context, r io.Reader) ([]market.RawPoint, error) {
	rdr := csv.NewReader(bufio.NewReader(r))
	rdr.FieldsPerRecord = -1
	rdr.TrimLeadingSpace = true

	first, err := rdr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	timeCol, priceCol, header := columns(first)

	var points []market.RawPoint
	if !header {
		points = append(points, parseRow(first, timeCol, priceCol))
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := rdr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read price data: %w", err)
		}

		points = append(points, parseRow(row, timeCol, priceCol))
	}

	return points, nil
}

func columns(row []string) (timeCol, priceCol int, header bool) {
	timeCol, priceCol = 0, 1
	if len(row) == 0 {
		return
	}
	if _, ok := parseTime(row[0]); ok {
		return
	}

	header = true
	found := false
	for i, name := range row {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "time", "timestamp", "date":
			timeCol = i
		case "close":
			priceCol = i
			found = true
		case "price":
			if !found {
				priceCol = i
			}
		}
	}

	return
}

// parseRow never fails: unreadable fields become zero timestamps or NaN
// prices, which validation drops.
func parseRow(row []string, timeCol, priceCol int) market.RawPoint {
	var p market.RawPoint
	p.Value = math.NaN()

	if timeCol < len(row) {
		if ts, ok := parseTime(row[timeCol]); ok {
			p.Time = ts
		}
	}
	if priceCol < len(row) {
		if v, err := strconv.ParseFloat(strings.TrimSpace(row[priceCol]), 64); err == nil {
			p.Value = v
		}
	}

	return p
}

var dateLayouts = []string{time.DateOnly, time.RFC3339}

func parseTime(v string) (int64, bool) {
	v = strings.TrimSpace(v)
	if ts, err := strconv.ParseFloat(v, 64); err == nil {
		return normalizeTimestamp(ts), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Unix(), true
		}
	}

	return 0, false
}

// normalizeTimestamp converts millisecond epochs to seconds.
func normalizeTimestamp(ts float64) int64 {
	if ts > 1e11 {
		ts /= 1000
	}

	return int64(ts)
}
