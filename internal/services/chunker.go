package services

import (
	"strings"
	"unicode/utf8"

	"alfredoptarigan/essay-marker/internal/marking"
)

// TextChunker cuts guidance documents into passages small enough to embed.
type TextChunker interface {
	ChunkText(text string, maxChunkSize int, overlap int) []string
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

// ChunkText implements TextChunker. Paragraphs are packed together up to
// maxChunkSize runes; a paragraph longer than that is packed sentence by
// sentence. Each new chunk starts with the last overlap runes of the previous
// one.
func (tc *textChunker) ChunkText(text string, maxChunkSize int, overlap int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 4
	}

	p := &chunkPacker{max: maxChunkSize, overlap: overlap}
	for _, para := range marking.SplitParagraphs(text) {
		if utf8.RuneCountInString(para) <= maxChunkSize {
			p.add(para, "\n\n")
			continue
		}
		for _, sentence := range marking.SplitSentences(para) {
			p.add(sentence, " ")
		}
	}
	return p.finish()
}

type chunkPacker struct {
	max     int
	overlap int
	current strings.Builder
	size    int
	// carried is set while current holds only the previous chunk's tail.
	carried bool
	chunks  []string
}

func (p *chunkPacker) add(piece, sep string) {
	n := utf8.RuneCountInString(piece)
	if p.size > 0 && !p.carried && p.size+len(sep)+n > p.max {
		p.flush()
	}
	if p.carried && p.size+len(sep)+n > p.max {
		// overlap is dropped when it would push the piece over the limit
		p.current.Reset()
		p.size = 0
	}
	if p.size > 0 {
		p.current.WriteString(sep)
		p.size += len(sep)
	}
	p.current.WriteString(piece)
	p.size += n
	p.carried = false
}

func (p *chunkPacker) flush() {
	chunk := p.current.String()
	p.chunks = append(p.chunks, chunk)
	p.current.Reset()
	p.size = 0

	if tail := lastNRunes(chunk, p.overlap); tail != "" {
		p.current.WriteString(tail)
		p.size = utf8.RuneCountInString(tail)
		p.carried = true
	}
}

func (p *chunkPacker) finish() []string {
	if p.size > 0 && !p.carried {
		p.chunks = append(p.chunks, p.current.String())
	}
	return p.chunks
}

func lastNRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= n {
		return text
	}

	return string(runes[len(runes)-n:])
}
