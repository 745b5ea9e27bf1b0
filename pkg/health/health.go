package health

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Status 健康状态
type Status string

const (
	// StatusHealthy 健康
	StatusHealthy Status = "healthy"
	// StatusUnhealthy 不健康
	StatusUnhealthy Status = "unhealthy"
	// StatusDegraded 降级
	StatusDegraded Status = "degraded"
)

// CheckResult 检查结果
type CheckResult struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Duration  time.Duration          `json:"duration"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// Checker 健康检查器接口
type Checker interface {
	Check(ctx context.Context) CheckResult
	Name() string
}

// HealthChecker 健康检查管理器
type HealthChecker struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	// required 必须健康才算就绪的检查器
	required map[string]bool
}

// NewHealthChecker 创建健康检查管理器
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checkers: make(map[string]Checker),
		required: make(map[string]bool),
	}
}

// Register 注册检查器. Required checkers gate readiness, the rest only
// degrade the reported status.
func (h *HealthChecker) Register(checker Checker, required bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[checker.Name()] = checker
	h.required[checker.Name()] = required
}

// Check 并发执行所有检查
func (h *HealthChecker) Check(ctx context.Context) map[string]CheckResult {
	h.mu.RLock()
	checkers := make([]Checker, 0, len(h.checkers))
	for _, checker := range h.checkers {
		checkers = append(checkers, checker)
	}
	h.mu.RUnlock()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]CheckResult, len(checkers))
	)
	for _, checker := range checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()
			result := c.Check(ctx)
			mu.Lock()
			results[c.Name()] = result
			mu.Unlock()
		}(checker)
	}
	wg.Wait()

	return results
}

// Aggregate 汇总整体状态
func Aggregate(results map[string]CheckResult) Status {
	status := StatusHealthy
	for _, result := range results {
		switch result.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// Status summarizes results; an optional check that fails only degrades it.
func (h *HealthChecker) Status(results map[string]CheckResult) Status {
	h.mu.RLock()
	defer h.mu.RUnlock()

	adjusted := make(map[string]CheckResult, len(results))
	for name, result := range results {
		if result.Status == StatusUnhealthy && !h.required[name] {
			result.Status = StatusDegraded
		}
		adjusted[name] = result
	}
	return Aggregate(adjusted)
}

// IsReady 检查是否就绪
func (h *HealthChecker) IsReady(ctx context.Context) (bool, map[string]CheckResult) {
	results := h.Check(ctx)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for name, required := range h.required {
		if !required {
			continue
		}
		if result, ok := results[name]; !ok || result.Status != StatusHealthy {
			return false, results
		}
	}
	return true, results
}

// PingChecker 依赖连通性检查 (settings store, cache)
type PingChecker struct {
	name   string
	pingFn func(context.Context) error
}

// NewPingChecker 创建连通性检查器
func NewPingChecker(name string, pingFn func(context.Context) error) *PingChecker {
	return &PingChecker{name: name, pingFn: pingFn}
}

// Name 返回检查器名称
func (p *PingChecker) Name() string {
	return p.name
}

// Check 执行检查
func (p *PingChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	err := p.pingFn(ctx)
	duration := time.Since(start)

	if err != nil {
		return CheckResult{
			Status:    StatusUnhealthy,
			Timestamp: time.Now(),
			Duration:  duration,
			Error:     err.Error(),
		}
	}
	return CheckResult{Status: StatusHealthy, Timestamp: time.Now(), Duration: duration}
}

// ServiceChecker 外部服务健康检查
type ServiceChecker struct {
	name      string
	checkFn   func(context.Context) error
	threshold time.Duration // 响应时间阈值
}

// NewServiceChecker 创建服务检查器
func NewServiceChecker(name string, checkFn func(context.Context) error, threshold time.Duration) *ServiceChecker {
	return &ServiceChecker{
		name:      name,
		checkFn:   checkFn,
		threshold: threshold,
	}
}

// Name 返回检查器名称
func (s *ServiceChecker) Name() string {
	return s.name
}

// Check 执行检查
func (s *ServiceChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	err := s.checkFn(ctx)
	duration := time.Since(start)

	if err != nil {
		return CheckResult{
			Status:    StatusUnhealthy,
			Timestamp: time.Now(),
			Duration:  duration,
			Error:     err.Error(),
		}
	}

	if s.threshold > 0 && duration > s.threshold {
		return CheckResult{
			Status:    StatusDegraded,
			Timestamp: time.Now(),
			Duration:  duration,
			Details: map[string]interface{}{
				"threshold": s.threshold.String(),
				"actual":    duration.String(),
			},
			Error: fmt.Sprintf("response time exceeds threshold: %v > %v", duration, s.threshold),
		}
	}

	return CheckResult{Status: StatusHealthy, Timestamp: time.Now(), Duration: duration}
}

// FuncChecker reports a static condition, e.g. whether the sentiment backend
// finished warming up. A false condition is reported as degraded.
type FuncChecker struct {
	name string
	fn   func() (bool, string)
}

// NewFuncChecker 创建条件检查器
func NewFuncChecker(name string, fn func() (bool, string)) *FuncChecker {
	return &FuncChecker{name: name, fn: fn}
}

// Name 返回检查器名称
func (f *FuncChecker) Name() string {
	return f.name
}

// Check 执行检查
func (f *FuncChecker) Check(context.Context) CheckResult {
	ok, msg := f.fn()
	if !ok {
		return CheckResult{Status: StatusDegraded, Timestamp: time.Now(), Error: msg}
	}
	return CheckResult{Status: StatusHealthy, Timestamp: time.Now()}
}
