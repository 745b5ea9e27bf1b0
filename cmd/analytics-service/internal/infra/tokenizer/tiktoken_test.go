package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTiktokenCounter_WordFallback(t *testing.T) {
	c := &TiktokenCounter{}
	assert.Equal(t, 4, c.CountTokens("the quick  brown\tfox"))
	assert.Equal(t, 0, c.CountTokens(""))
}
