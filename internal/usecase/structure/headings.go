package structure

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/docmind/internal/domain/document"
)

const (
	maxHeadingRunes = 80
	maxHeadingWords = 6
)

var (
	inlineAbstract = regexp.MustCompile(`(?i)^(abstract|summary)\s*[:.\x{2014}\x{2013}-]\s*(\S.*)$`)
	tableCaption   = regexp.MustCompile(`(?i)^table\s+(\d+|[IVXL]+)\b`)
	numbered       = regexp.MustCompile(`^(\d{1,2})\.?\s+([A-Z].*)$`)
	subsection     = regexp.MustCompile(`^\d+(\.\d+)+\.?\s+[A-Z]`)

	keywordHeadings = []struct {
		re  *regexp.Regexp
		typ document.SectionType
	}{
		{regexp.MustCompile(`(?i)^(abstract|summary)\b`), document.SectionAbstract},
		{regexp.MustCompile(`(?i)^introduction\b`), document.SectionBody},
		{regexp.MustCompile(`(?i)^(methodology|methods?)\b`), document.SectionMethod},
		{regexp.MustCompile(`(?i)^results?\b`), document.SectionResult},
		{regexp.MustCompile(`(?i)^conclusions?\b`), document.SectionConclusion},
		{regexp.MustCompile(`(?i)^(references?|bibliography)\b`), document.SectionReference},
	}
)

// heading describes a line that opens a new section.
type heading struct {
	typ  document.SectionType
	text string
	// inline is body text that followed the heading on the same line.
	inline string
}

// classify decides whether line opens a section.
func classify(line string) (heading, bool) {
	if m := inlineAbstract.FindStringSubmatch(line); m != nil {
		return heading{typ: document.SectionAbstract, text: m[1], inline: m[2]}, true
	}
	if tableCaption.MatchString(line) {
		return heading{typ: document.SectionTable, text: line}, true
	}
	if !headingShaped(line) {
		return heading{}, false
	}
	if subsection.MatchString(line) {
		return heading{}, false
	}
	if m := numbered.FindStringSubmatch(line); m != nil {
		if t, ok := keywordType(m[2]); ok {
			return heading{typ: t, text: line}, true
		}
		return heading{typ: document.SectionBody, text: line}, true
	}
	if t, ok := keywordType(line); ok {
		return heading{typ: t, text: line}, true
	}
	return heading{}, false
}

func keywordType(s string) (document.SectionType, bool) {
	for _, kh := range keywordHeadings {
		if kh.re.MatchString(s) {
			return kh.typ, true
		}
	}
	return "", false
}

// headingShaped rejects prose lines that merely start with a keyword.
func headingShaped(line string) bool {
	if utf8.RuneCountInString(line) > maxHeadingRunes {
		return false
	}
	if len(strings.Fields(line)) > maxHeadingWords {
		return false
	}
	return !strings.HasSuffix(line, ".") || strings.Count(line, " ") == 0
}
