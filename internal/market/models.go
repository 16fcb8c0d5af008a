package market

import "time"

// RawPoint is a (timestamp, price) pair as delivered by a history provider,
// before any validation. Time is in epoch seconds.
type RawPoint struct {
	Time  int64
	Value float64
}

// PricePoint is a validated observation: Time is a non-zero epoch second and
// Value is a finite positive price.
type PricePoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

func (p PricePoint) Timestamp() time.Time {
	return time.Unix(p.Time, 0).UTC()
}

// Series is an ordered sequence of price points, oldest first.
type Series []PricePoint

// Values returns the chronological prices of the series.
func (s Series) Values() []float64 {
	v := make([]float64, len(s))
	for i, p := range s {
		v[i] = p.Value
	}

	return v
}

func (s Series) Last() (p PricePoint, ok bool) {
	if len(s) == 0 {
		return
	}

	return s[len(s)-1], true
}
