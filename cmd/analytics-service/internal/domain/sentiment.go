package domain

import "math"

// SentimentClass is the coarse label derived from a polarity score.
type SentimentClass string

const (
	SentimentNegative SentimentClass = "negative"
	SentimentNeutral  SentimentClass = "neutral"
	SentimentPositive SentimentClass = "positive"
)

// Polarity thresholds. Both bounds belong to the neutral band.
const (
	NegativeThreshold = -0.05
	PositiveThreshold = 0.05

	// NeutralPolarity is the value every failed classification degrades to.
	NeutralPolarity = 0.0
)

// Sender identifies who authored an observed message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// SentimentObservation is one classified message.
type SentimentObservation struct {
	Polarity float64
	Sender   Sender
	Class    SentimentClass
}

// NewSentimentObservation clamps the polarity and derives its class.
func NewSentimentObservation(polarity float64, sender Sender) SentimentObservation {
	p := ClampPolarity(polarity)
	return SentimentObservation{
		Polarity: p,
		Sender:   sender,
		Class:    ClassifyPolarity(p),
	}
}

// ClassifyPolarity maps a polarity onto negative/neutral/positive.
func ClassifyPolarity(polarity float64) SentimentClass {
	switch {
	case polarity < NegativeThreshold:
		return SentimentNegative
	case polarity > PositiveThreshold:
		return SentimentPositive
	default:
		return SentimentNeutral
	}
}

// ClampPolarity bounds p to [-1, 1]; NaN becomes neutral.
func ClampPolarity(p float64) float64 {
	if math.IsNaN(p) {
		return NeutralPolarity
	}
	return math.Max(-1, math.Min(1, p))
}
