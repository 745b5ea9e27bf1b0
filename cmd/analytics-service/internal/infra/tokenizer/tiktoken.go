package tokenizer

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// DefaultEncoding 通用近似编码
const DefaultEncoding = "cl100k_base"

// TiktokenCounter counts tokens with a BPE encoding. When the encoding
// cannot be loaded it counts whitespace separated words instead.
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenCounter 创建 token 计数器
func NewTiktokenCounter(logger *zap.Logger) *TiktokenCounter {
	enc, err := tiktoken.GetEncoding(DefaultEncoding)
	if err != nil {
		logger.Warn("tiktoken encoding unavailable, counting words",
			zap.String("component", "chat_analytics"),
			zap.String("event", "embedding_token_tracking"),
			zap.String("encoding", DefaultEncoding),
			zap.Error(err),
		)
		return &TiktokenCounter{}
	}
	return &TiktokenCounter{encoding: enc}
}

// CountTokens 计数
func (c *TiktokenCounter) CountTokens(text string) (n int) {
	if c.encoding == nil {
		return len(strings.Fields(text))
	}
	defer func() {
		if recover() != nil {
			n = len(strings.Fields(text))
		}
	}()
	return len(c.encoding.Encode(text, nil, nil))
}
