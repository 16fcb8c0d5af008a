package market

import "time"

// DailyAggregator collapses an intraday stream into one point per UTC day,
// keeping the last value seen for that day. Input must be ordered by time.
type DailyAggregator struct{}

func (a *DailyAggregator) Aggregate(points <-chan RawPoint) <-chan RawPoint {
	res := make(chan RawPoint)
	go func() {
		defer close(res)

		var cur *RawPoint
		var day int64
		for p := range points {
			d := dayOf(p.Time)
			if cur != nil && d != day {
				res <- *cur
				cur = nil
			}

			if cur == nil {
				day = d
				cur = &RawPoint{}
			}

			cur.Time = p.Time
			cur.Value = p.Value
		}

		if cur != nil {
			res <- *cur
		}
	}()

	return res
}

// ResampleDaily runs points through a DailyAggregator and collects the result.
func ResampleDaily(points []RawPoint) []RawPoint {
	src := make(chan RawPoint)
	go func() {
		defer close(src)
		for _, p := range points {
			src <- p
		}
	}()

	var a DailyAggregator
	out := make([]RawPoint, 0, len(points))
	for p := range a.Aggregate(src) {
		out = append(out, p)
	}

	return out
}

func dayOf(ts int64) int64 {
	return time.Unix(ts, 0).UTC().Truncate(24*time.Hour).Unix()
}
