package market

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tbl := []struct {
		raw []RawPoint
		min int
		out Series
	}{
		{
			raw: []RawPoint{{1, 10}, {2, 11}, {3, 12}},
			min: 3,
			out: Series{{1, 10}, {2, 11}, {3, 12}},
		},
		{
			raw: []RawPoint{{0, 10}, {2, 11}, {3, -1}, {4, 0}, {5, 13}},
			min: 2,
			out: Series{{2, 11}, {5, 13}},
		},
		{
			raw: []RawPoint{{1, math.NaN()}, {2, math.Inf(1)}, {3, math.Inf(-1)}, {4, 5}},
			min: 1,
			out: Series{{4, 5}},
		},
		{
			raw: []RawPoint{{3, 30}, {1, 10}, {2, 20}},
			min: 1,
			out: Series{{1, 10}, {2, 20}, {3, 30}},
		},
		{
			raw: []RawPoint{{1, 10}, {1, 10}, {2, 20}, {1, 99}},
			min: 1,
			out: Series{{1, 10}, {2, 20}},
		},
	}

	for i, c := range tbl {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			s, err := Validate(c.raw, c.min)
			require.NoError(t, err)
			assert.Equal(t, c.out, s)
		})
	}
}

func TestValidate_invalidData(t *testing.T) {
	tbl := [][]RawPoint{
		nil,
		{},
		{{1, math.NaN()}, {2, -3}},
		{{0, 10}, {0, 11}},
	}

	for i, raw := range tbl {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			_, err := Validate(raw, 0)
			assert.ErrorIs(t, err, ErrInvalidData)
		})
	}
}

func TestValidate_insufficientData(t *testing.T) {
	_, err := Validate([]RawPoint{{1, 10}, {2, 11}, {2, 12}, {3, math.NaN()}}, 3)
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.NotErrorIs(t, err, ErrInvalidData)
}

func TestValidate_doesNotModifyInput(t *testing.T) {
	raw := []RawPoint{{3, 30}, {1, 10}, {2, 20}}
	_, err := Validate(raw, 1)
	require.NoError(t, err)
	assert.Equal(t, []RawPoint{{3, 30}, {1, 10}, {2, 20}}, raw)
}

func TestSeries_Values(t *testing.T) {
	s := Series{{1, 10}, {2, 20.5}}
	assert.Equal(t, []float64{10, 20.5}, s.Values())

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, PricePoint{2, 20.5}, last)

	_, ok = Series{}.Last()
	assert.False(t, ok)
}

func TestPricePoint_Timestamp(t *testing.T) {
	p := PricePoint{Time: 1704067200, Value: 1}
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), p.Timestamp())
	assert.Equal(t, time.UTC, p.Timestamp().Location())
}
