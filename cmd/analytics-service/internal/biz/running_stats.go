package biz

// RunningStats 增量统计：计数、总和、最大值
//
// RunningStats is not safe for concurrent use; callers hold their own lock.
type RunningStats struct {
	count int64
	sum   float64
	max   float64
}

// Observe 记录一个值
func (s *RunningStats) Observe(v float64) {
	if s.count == 0 || v > s.max {
		s.max = v
	}
	s.count++
	s.sum += v
}

// Replace swaps a previously observed value for a new one without changing
// the count. Used when a tracked quantity grows in place, such as the message
// count of an existing session.
func (s *RunningStats) Replace(previous, value float64) {
	if s.count == 0 {
		s.Observe(value)
		return
	}
	s.sum += value - previous
	if value > s.max {
		s.max = value
	}
}

// Reset 清空统计
func (s *RunningStats) Reset() {
	*s = RunningStats{}
}

// Count 返回观测次数
func (s *RunningStats) Count() int64 {
	return s.count
}

// Sum 返回总和
func (s *RunningStats) Sum() float64 {
	return s.sum
}

// Average returns sum/count, or false when nothing has been observed.
func (s *RunningStats) Average() (float64, bool) {
	if s.count == 0 {
		return 0, false
	}
	return s.sum / float64(s.count), true
}

// Max 返回最大值，未观测时返回 false
func (s *RunningStats) Max() (float64, bool) {
	if s.count == 0 {
		return 0, false
	}
	return s.max, true
}
