package metrics

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"
)

// ContentType Prometheus 文本格式 0.0.4
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

// Exposer 渲染过滤后的指标快照
type Exposer struct {
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// NewExposer 创建 Exposer
func NewExposer(catalog *Catalog, logger *zap.Logger) *Exposer {
	return &Exposer{
		gatherer: catalog.Registry(),
		logger:   logger.With(zap.String("component", "metrics_exposer")),
	}
}

// Render gathers a point-in-time snapshot and returns the filtered text
// exposition. A partial gather error is logged and the families that were
// collected are still rendered.
func (e *Exposer) Render() ([]byte, error) {
	families, err := e.gatherer.Gather()
	if err != nil {
		e.logger.Warn("partial metrics gather", zap.Error(err))
	}

	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return nil, err
		}
	}

	return FilterExposition(buf.Bytes()), nil
}

// FilterExposition drops `_created` samples and the bucket lines of the
// legacy sentiment histogram. Comment lines pass through untouched.
func FilterExposition(text []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(text))

	scanner := bufio.NewScanner(bytes.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if dropLine(line) {
			continue
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}

	return out.Bytes()
}

func dropLine(line string) bool {
	if line == "" || strings.HasPrefix(line, "#") {
		return false
	}
	name := sampleName(line)
	return strings.HasSuffix(name, "_created") || name == LegacySentimentHistogram+"_bucket"
}

// sampleName 提取样本行中的指标名
func sampleName(line string) string {
	if i := strings.IndexAny(line, "{ "); i >= 0 {
		return line[:i]
	}
	return line
}
