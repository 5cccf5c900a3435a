// Package summarize produces short extractive summaries of collected
// text by keeping its leading sentences.
package summarize

import "strings"

const (
	maxSentences   = 3
	minSentenceLen = 5
)

func isBoundary(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '\n':
		return true
	}
	return false
}

// Summarize returns the first sentences of a text, skipping fragments
// too short to carry meaning. An empty input yields an empty summary.
func Summarize(text string) string {
	var sentences []string

	for _, raw := range strings.FieldsFunc(text, isBoundary) {
		sentence := strings.TrimSpace(raw)
		if len([]rune(sentence)) <= minSentenceLen {
			continue
		}
		sentences = append(sentences, sentence)
		if len(sentences) == maxSentences {
			break
		}
	}

	return strings.Join(sentences, ". ")
}

// Extractive adapts Summarize to the collaborator shape the ingestion
// pipeline consumes.
type Extractive struct{}

func (Extractive) Summarize(text string) string {
	return Summarize(text)
}
