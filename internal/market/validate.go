package market

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	ErrInvalidData      = errors.New("invalid price data")
	ErrInsufficientData = errors.New("insufficient data")
)

// Validate cleans a raw feed into a Series. Points with a zero timestamp, a
// non-finite or non-positive price, or a timestamp already seen are dropped;
// the rest is ordered by time.
func Validate(raw []RawPoint, minLength int) (Series, error) {
	seen := make(map[int64]struct{}, len(raw))
	s := make(Series, 0, len(raw))
	for _, r := range raw {
		if r.Time == 0 || !IsValidPrice(r.Value) {
			continue
		}
		if _, dup := seen[r.Time]; dup {
			continue
		}

		seen[r.Time] = struct{}{}
		s = append(s, PricePoint{Time: r.Time, Value: r.Value})
	}

	if len(s) == 0 {
		return nil, fmt.Errorf("%w: no numeric values in %d points", ErrInvalidData, len(raw))
	}

	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Time < s[j].Time
	})

	if len(s) < minLength {
		return nil, fmt.Errorf("%w: requires at least %d points, got %d", ErrInsufficientData, minLength, len(s))
	}

	return s, nil
}

func IsValidPrice(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
