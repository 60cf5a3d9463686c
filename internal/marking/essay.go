package marking

import (
	"regexp"
	"strings"
	"unicode"
)

var blankLinePattern = regexp.MustCompile(`\n[ \t]*\n`)

// SplitParagraphs splits text on blank lines, dropping empty paragraphs.
func SplitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range blankLinePattern.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SplitSentences splits a paragraph after '.', '!' or '?' when followed by
// whitespace. Terminators are kept with their sentence.
func SplitSentences(paragraph string) []string {
	var out []string
	runes := []rune(paragraph)
	start := 0
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

// normalizeForMatch folds whitespace runs and typographic quotes so that a
// highlight copied with different spacing still matches the essay.
func normalizeForMatch(s string) string {
	replacer := strings.NewReplacer("‘", "'", "’", "'", "“", `"`, "”", `"`)
	return strings.Join(strings.Fields(replacer.Replace(s)), " ")
}

// essayIndex locates highlight text inside the original essay.
type essayIndex struct {
	normalized string
	paragraphs [][]string
}

func newEssayIndex(essay string) *essayIndex {
	idx := &essayIndex{normalized: normalizeForMatch(essay)}
	for _, p := range SplitParagraphs(essay) {
		sentences := SplitSentences(p)
		for i := range sentences {
			sentences[i] = normalizeForMatch(sentences[i])
		}
		idx.paragraphs = append(idx.paragraphs, sentences)
	}
	return idx
}

// Contains reports whether text appears in the essay after normalisation.
func (e *essayIndex) Contains(text string) bool {
	n := normalizeForMatch(text)
	return n != "" && strings.Contains(e.normalized, n)
}

// Locate returns the paragraph and sentence indices of the first sentence
// that contains text, or overlaps its start.
func (e *essayIndex) Locate(text string) (paragraph, sentence int, ok bool) {
	n := normalizeForMatch(text)
	if n == "" {
		return 0, 0, false
	}
	for pi, sentences := range e.paragraphs {
		for si, s := range sentences {
			if strings.Contains(s, n) || strings.HasPrefix(n, s) {
				return pi, si, true
			}
		}
	}
	return 0, 0, false
}
