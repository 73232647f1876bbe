package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minuteBar(min int, o, h, l, c float64) Bar {
	return Bar{
		Time: time.Date(2024, time.January, 15, 9, min, 0, 0, time.UTC),
		Open: o, High: h, Low: l, Close: c,
	}
}

func TestAggregate(t *testing.T) {
	t.Run("first max min last", func(t *testing.T) {
		bars := []Bar{
			minuteBar(0, 100, 101, 99, 100.5),
			minuteBar(1, 100.5, 103, 100, 102),
			minuteBar(2, 102, 102.5, 98, 99),
			minuteBar(3, 99, 100, 98.5, 99.5),
			minuteBar(4, 99.5, 101, 99, 100),
		}
		got := Aggregate(bars, FiveMinute)
		require.Len(t, got, 1)
		b := got[0]
		assert.Equal(t, time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC), b.Time)
		assert.Equal(t, 100.0, b.Open)
		assert.Equal(t, 103.0, b.High)
		assert.Equal(t, 98.0, b.Low)
		assert.Equal(t, 100.0, b.Close)
	})

	t.Run("buckets align to top of hour", func(t *testing.T) {
		bars := []Bar{
			minuteBar(3, 1, 1, 1, 1),
			minuteBar(4, 2, 2, 2, 2),
			minuteBar(5, 3, 3, 3, 3),
		}
		got := Aggregate(bars, FiveMinute)
		require.Len(t, got, 2)
		assert.Equal(t, 0, got[0].Time.Minute())
		assert.Equal(t, 5, got[1].Time.Minute())
	})

	t.Run("empty buckets omitted", func(t *testing.T) {
		bars := []Bar{
			minuteBar(0, 1, 1, 1, 1),
			// nothing between 9:05 and 9:25
			minuteBar(27, 2, 2, 2, 2),
		}
		got := Aggregate(bars, FiveMinute)
		require.Len(t, got, 2)
		assert.Equal(t, 0, got[0].Time.Minute())
		assert.Equal(t, 25, got[1].Time.Minute())
	})

	t.Run("no input no output", func(t *testing.T) {
		assert.Empty(t, Aggregate(nil, FiveMinute))
	})

	t.Run("aggregation invariant", func(t *testing.T) {
		bars := []Bar{
			minuteBar(0, 100, 102, 99, 101),
			minuteBar(1, 101, 104, 100, 103),
			minuteBar(6, 103, 105, 101, 102),
			minuteBar(9, 102, 103, 100, 101),
		}
		for _, b := range Aggregate(bars, FiveMinute) {
			assert.LessOrEqual(t, b.Low, b.Open)
			assert.LessOrEqual(t, b.Open, b.High)
			assert.LessOrEqual(t, b.Low, b.Close)
			assert.LessOrEqual(t, b.Close, b.High)
		}
	})
}
