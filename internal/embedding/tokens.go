package embedding

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// PricePerMillionTokens is the text-embedding-3-small list price in USD.
const PricePerMillionTokens = 0.02

// TokenCounter counts model tokens in a text.
type TokenCounter interface {
	CountTokens(text string) int
}

// Tiktoken counts tokens with the model's BPE encoding.
type Tiktoken struct {
	tke *tiktoken.Tiktoken
}

// NewTiktoken loads the encoding for model, falling back to cl100k_base.
func NewTiktoken(model string) (*Tiktoken, error) {
	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		tke, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("load tiktoken encoding: %w", err)
		}
	}
	return &Tiktoken{tke: tke}, nil
}

// CountTokens returns the number of BPE tokens in text.
func (t *Tiktoken) CountTokens(text string) int {
	return len(t.tke.Encode(text, nil, nil))
}

// WordCounter approximates tokens by whitespace-separated words.
type WordCounter struct{}

// CountTokens returns the word count of text.
func (WordCounter) CountTokens(text string) int {
	return len(strings.Fields(text))
}

// Estimate is the projected size and cost of an embedding run.
type Estimate struct {
	Texts   int
	Tokens  int
	CostUSD float64
}

// EstimateCost totals tokens across texts and prices them.
func EstimateCost(counter TokenCounter, texts []string) Estimate {
	est := Estimate{Texts: len(texts)}
	for _, t := range texts {
		est.Tokens += counter.CountTokens(t)
	}
	est.CostUSD = float64(est.Tokens) / 1_000_000 * PricePerMillionTokens
	return est
}
