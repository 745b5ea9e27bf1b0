package sentiment

import "context"

// BackendNone 关闭情绪分析
const BackendNone = "none"

// NoopBackend always reports neutral polarity.
type NoopBackend struct{}

func (NoopBackend) Name() string { return BackendNone }

func (NoopBackend) Classify(context.Context, string) (float64, error) { return 0, nil }
