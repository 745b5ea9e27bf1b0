package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHealthChecker(t *testing.T) {
	h := NewHealthChecker()
	h.Register(NewPingChecker("settings", func(context.Context) error { return nil }), true)
	h.Register(NewFuncChecker("sentiment", func() (bool, string) { return false, "warming" }), false)

	results := h.Check(context.Background())
	assert.Len(t, results, 2)
	assert.Equal(t, StatusHealthy, results["settings"].Status)
	assert.Equal(t, StatusDegraded, results["sentiment"].Status)
	assert.Equal(t, "warming", results["sentiment"].Error)
	assert.Equal(t, StatusDegraded, Aggregate(results))

	ready, _ := h.IsReady(context.Background())
	assert.True(t, ready)
}

func TestHealthChecker_RequiredFailure(t *testing.T) {
	h := NewHealthChecker()
	h.Register(NewPingChecker("settings", func(context.Context) error { return errors.New("down") }), true)

	ready, results := h.IsReady(context.Background())
	assert.False(t, ready)
	assert.Equal(t, StatusUnhealthy, Aggregate(results))
	assert.Equal(t, "down", results["settings"].Error)
}

func TestHealthChecker_OptionalFailureDegrades(t *testing.T) {
	h := NewHealthChecker()
	h.Register(NewPingChecker("settings", func(context.Context) error { return nil }), true)
	h.Register(NewServiceChecker("sentiment_service", func(context.Context) error { return errors.New("connection refused") }, time.Second), false)

	results := h.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, results["sentiment_service"].Status)
	assert.Equal(t, StatusDegraded, h.Status(results))

	ready, _ := h.IsReady(context.Background())
	assert.True(t, ready)
}

func TestServiceChecker_Threshold(t *testing.T) {
	slow := NewServiceChecker("pipeline", func(context.Context) error {
		time.Sleep(20 * time.Millisecond)
		return nil
	}, time.Millisecond)
	assert.Equal(t, StatusDegraded, slow.Check(context.Background()).Status)

	fast := NewServiceChecker("pipeline", func(context.Context) error { return nil }, time.Second)
	assert.Equal(t, StatusHealthy, fast.Check(context.Background()).Status)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Equal(t, StatusHealthy, Aggregate(nil))
}
