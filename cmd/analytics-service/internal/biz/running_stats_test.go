package biz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunningStats(t *testing.T) {
	t.Run("empty stats report no average", func(t *testing.T) {
		var s RunningStats
		_, ok := s.Average()
		assert.False(t, ok)
		_, ok = s.Max()
		assert.False(t, ok)
		assert.Zero(t, s.Count())
	})

	t.Run("average and max follow observations", func(t *testing.T) {
		values := []float64{3, -1.5, 10, 0.25, 7}

		var s RunningStats
		var sum float64
		for _, v := range values {
			s.Observe(v)
			sum += v
		}

		avg, ok := s.Average()
		assert.True(t, ok)
		assert.InDelta(t, sum/float64(len(values)), avg, 1e-9)

		maxValue, ok := s.Max()
		assert.True(t, ok)
		assert.Equal(t, 10.0, maxValue)
		assert.Equal(t, int64(len(values)), s.Count())
		assert.InDelta(t, sum, s.Sum(), 1e-9)
	})

	t.Run("max of negative values", func(t *testing.T) {
		var s RunningStats
		s.Observe(-3)
		s.Observe(-2)
		maxValue, _ := s.Max()
		assert.Equal(t, -2.0, maxValue)
	})

	t.Run("replace keeps count and moves sum", func(t *testing.T) {
		var s RunningStats
		s.Observe(1)
		s.Observe(1)
		s.Replace(1, 2)

		assert.Equal(t, int64(2), s.Count())
		avg, _ := s.Average()
		assert.InDelta(t, 1.5, avg, 1e-9)
		maxValue, _ := s.Max()
		assert.Equal(t, 2.0, maxValue)
	})

	t.Run("reset", func(t *testing.T) {
		var s RunningStats
		s.Observe(4)
		s.Reset()
		_, ok := s.Average()
		assert.False(t, ok)
	})
}
