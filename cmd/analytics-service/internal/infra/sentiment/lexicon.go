package sentiment

import (
	"context"

	"github.com/jonreiter/govader"
)

// BackendLexicon 词典后端名称
const BackendLexicon = "lexicon"

// LexiconBackend scores text with the in-process VADER lexicon. It needs no
// model download and never fails.
type LexiconBackend struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewLexiconBackend 创建词典后端
func NewLexiconBackend() *LexiconBackend {
	return &LexiconBackend{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Name 后端名称
func (b *LexiconBackend) Name() string {
	return BackendLexicon
}

// Classify returns the VADER compound score, already normalised to [-1, 1].
func (b *LexiconBackend) Classify(_ context.Context, text string) (float64, error) {
	return b.analyzer.PolarityScores(text).Compound, nil
}
