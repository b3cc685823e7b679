package embed

import "strings"

// EstimateTokens gives a rough token count from the word count. It only
// sizes embedding requests; chunk boundaries never depend on it.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	// Roughly 0.75 words per token for English text.
	return max(int(float64(words)*1.33), 1)
}
