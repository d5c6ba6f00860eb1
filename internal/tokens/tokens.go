// Package tokens estimates prompt token counts so oversized prompts can be
// rejected before spending a network call.
package tokens

import (
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// Token overhead per chat message (role framing plus assistant priming),
// per OpenAI's counting guidance for chat models.
const (
	tokensPerMessage = 4
	tokensPriming    = 3
)

// Estimator counts tokens for chat prompts. The exact encoding of the
// upstream model is unknown, so counts are estimates: o200k_base is used as
// the closest match for current models, with a character-based fallback when
// no codec is available.
type Estimator struct {
	once  sync.Once
	codec tokenizer.Codec
}

// NewEstimator creates a token estimator.
func NewEstimator() *Estimator {
	return &Estimator{}
}

func (e *Estimator) getCodec() tokenizer.Codec {
	e.once.Do(func() {
		// Errors degrade to the character heuristic.
		e.codec, _ = tokenizer.Get(tokenizer.O200kBase)
	})
	return e.codec
}

// EstimatePrompt estimates the token count of a system/user prompt pair,
// including per-message overhead.
func (e *Estimator) EstimatePrompt(system, user string) int {
	return e.CountText(system) + e.CountText(user) + 2*tokensPerMessage + tokensPriming
}

// CountText estimates the token count of a plain string.
func (e *Estimator) CountText(text string) int {
	if text == "" {
		return 0
	}
	if codec := e.getCodec(); codec != nil {
		if ids, _, err := codec.Encode(text); err == nil {
			return len(ids)
		}
	}
	// Rough heuristic: CJK-heavy text runs near one token per rune, Latin
	// text near four characters per token. Split the difference at two.
	return len([]rune(strings.TrimSpace(text)))/2 + 1
}
