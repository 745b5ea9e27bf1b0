package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyPolarity(t *testing.T) {
	tests := []struct {
		polarity float64
		want     SentimentClass
	}{
		{0.06, SentimentPositive},
		{-0.06, SentimentNegative},
		{0.0, SentimentNeutral},
		{0.05, SentimentNeutral},
		{-0.05, SentimentNeutral},
		{1, SentimentPositive},
		{-1, SentimentNegative},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyPolarity(tt.polarity), "polarity %v", tt.polarity)
	}
}

func TestNewSentimentObservation(t *testing.T) {
	obs := NewSentimentObservation(3, SenderUser)
	assert.Equal(t, 1.0, obs.Polarity)
	assert.Equal(t, SentimentPositive, obs.Class)

	obs = NewSentimentObservation(math.NaN(), SenderBot)
	assert.Equal(t, NeutralPolarity, obs.Polarity)
	assert.Equal(t, SentimentNeutral, obs.Class)
	assert.Equal(t, SenderBot, obs.Sender)
}
