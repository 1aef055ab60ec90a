package index

import (
	"strings"
	"unicode"

	"github.com/kailas-cloud/docmind/internal/domain/document"
)

// piece is one chunk of section text before embedding.
type piece struct {
	text string
	page int
}

// span is a chunk of text and the rune offset it starts at.
type span struct {
	start int
	text  string
}

// splitRunes cuts text into windows of at most size runes that overlap by
// roughly overlap runes. Cuts fall on whitespace when one exists in the
// second half of the window, and windows start on word boundaries.
func splitRunes(text []rune, size, overlap int) []span {
	n := len(text)
	var out []span
	start := 0
	for start < n {
		for start < n && unicode.IsSpace(text[start]) {
			start++
		}
		if start >= n {
			break
		}

		end := start + size
		if end >= n {
			end = n
		} else if cut := lastSpace(text, start+size/2, end); cut > 0 {
			end = cut
		}

		if s := strings.TrimSpace(string(text[start:end])); s != "" {
			out = append(out, span{start: start, text: s})
		}
		if end >= n {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		for next < end && !unicode.IsSpace(text[next-1]) {
			next++
		}
		start = next
	}
	return out
}

// lastSpace returns the highest index in (lo, hi] holding whitespace, or -1.
func lastSpace(text []rune, lo, hi int) int {
	for i := hi; i > lo; i-- {
		if unicode.IsSpace(text[i]) {
			return i
		}
	}
	return -1
}

// splitSection chunks a section and anchors each chunk to the page its
// first rune came from.
func splitSection(sec *document.Section, size, overlap int) []piece {
	passages := sec.Passages()
	if len(passages) == 0 {
		return nil
	}

	var (
		runes  []rune
		starts = make([]int, len(passages))
	)
	for i, p := range passages {
		if i > 0 {
			runes = append(runes, '\n', '\n')
		}
		starts[i] = len(runes)
		runes = append(runes, []rune(p.Text)...)
	}

	spans := splitRunes(runes, size, overlap)
	out := make([]piece, 0, len(spans))
	pi := 0
	for _, s := range spans {
		for pi+1 < len(starts) && starts[pi+1] <= s.start {
			pi++
		}
		out = append(out, piece{text: s.text, page: passages[pi].Page})
	}
	return out
}
