package indicator

// MovingAverages holds the simple moving averages of the last 20, 50 and 200
// prices. An average whose window is longer than the input is 0.
type MovingAverages struct {
	MA20  float64 `json:"ma20"`
	MA50  float64 `json:"ma50"`
	MA200 float64 `json:"ma200"`
}

func ComputeMovingAverages(prices []float64) MovingAverages {
	return MovingAverages{
		MA20:  trailingSMA(prices, 20),
		MA50:  trailingSMA(prices, 50),
		MA200: trailingSMA(prices, 200),
	}
}

func trailingSMA(prices []float64, period int) float64 {
	if len(prices) < period {
		return 0
	}

	return mean(prices[len(prices)-period:])
}
