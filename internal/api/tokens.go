package api

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encMu    sync.Mutex
	encCache = make(map[string]*tiktoken.Tiktoken)
)

// CountTokens counts tokens in text for the given model, used when the
// backend omits usage metadata. tiktoken covers the OpenAI-family encodings;
// other models fall back to a word-based heuristic.
func CountTokens(modelID, text string) int {
	if text == "" {
		return 0
	}
	if enc := encodingFor(modelID); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return heuristicTokens(text)
}

func encodingFor(modelID string) *tiktoken.Tiktoken {
	encMu.Lock()
	defer encMu.Unlock()
	if enc, ok := encCache[modelID]; ok {
		return enc
	}
	enc, err := tiktoken.EncodingForModel(modelID)
	if err != nil {
		enc = nil // remember the miss, the heuristic handles this model
	}
	encCache[modelID] = enc
	return enc
}

// heuristicTokens approximates subword tokenization: ~1.3 tokens per word
// for prose, ~3 characters per token for text without word boundaries.
func heuristicTokens(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	if words := len(strings.Fields(text)); words > 0 {
		return max(1, int(float64(words)*1.3))
	}
	return max(1, len(text)/3)
}
