package biz

import "strings"

// WordCounter counts whitespace separated words. It stands in for a real
// tokenizer when no encoding is available.
type WordCounter struct{}

// CountTokens 按空白分词计数
func (WordCounter) CountTokens(text string) int {
	return len(strings.Fields(text))
}
