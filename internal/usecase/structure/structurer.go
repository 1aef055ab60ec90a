// Package structure turns extracted page text into a sectioned document.
package structure

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docmind/internal/domain"
	"github.com/kailas-cloud/docmind/internal/domain/document"
)

const (
	titleScanLines = 10
	minTitleRunes  = 10
	maxTitleRunes  = 200
)

var (
	blockSplit   = regexp.MustCompile(`\n[ \t\f\v]*\n`)
	titleExclude = regexp.MustCompile(`(?i)abstract|introduction|page|doi`)
)

// Input is one document's extracted pages.
type Input struct {
	ID       string
	Filename string
	Pages    []document.Page
}

// Service structures documents. It holds no state.
type Service struct {
	logger *zap.Logger
}

// New creates a structurer.
func New(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger}
}

type draft struct {
	typ         document.SectionType
	heading     string
	headingPage int
	passages    []document.Passage
}

func (d *draft) add(page int, text string) {
	if n := len(d.passages); n > 0 && d.passages[n-1].Page == page {
		d.passages[n-1].Text += "\n\n" + text
		return
	}
	d.passages = append(d.passages, document.Passage{Page: page, Text: text})
}

// Structure splits pages into typed sections in reading order. Pages that
// failed extraction or hold mostly control characters become warnings.
func (s *Service) Structure(ctx context.Context, in Input) (document.Document, error) {
	if err := ctx.Err(); err != nil {
		return document.Document{}, err
	}
	if err := document.ValidateID(in.ID); err != nil {
		return document.Document{}, domain.NewValidation("%v", err)
	}
	if strings.TrimSpace(in.Filename) == "" {
		return document.Document{}, domain.NewValidation("filename is required")
	}
	if len(in.Pages) == 0 {
		return document.Document{}, fmt.Errorf("%s: no pages: %w", in.Filename, domain.ErrUnsupportedFormat)
	}

	var (
		warnings  []string
		drafts    []*draft
		cur       *draft
		title     string
		titlePage int
		titleDone bool
		pageCount int
	)

	for i, p := range in.Pages {
		num := p.Number
		if num <= 0 {
			num = i + 1
		}
		pageCount = max(pageCount, num)

		if p.ExtractErr != nil {
			warnings = append(warnings, fmt.Sprintf("page %d: text extraction failed: %v", num, p.ExtractErr))
			continue
		}
		text := strings.ReplaceAll(p.Text, "\r\n", "\n")
		if strings.TrimSpace(text) == "" {
			warnings = append(warnings, fmt.Sprintf("page %d: no text", num))
			continue
		}
		if !readable(text) {
			warnings = append(warnings, fmt.Sprintf("page %d: unreadable text skipped", num))
			continue
		}

		if !titleDone {
			titleDone = true
			if t, rest, ok := extractTitle(text); ok {
				title, titlePage, text = t, num, rest
			}
		}

		for _, block := range blockSplit.Split(text, -1) {
			var run []string
			flush := func() {
				if len(run) == 0 {
					return
				}
				if cur == nil {
					cur = &draft{typ: document.SectionBody, headingPage: num}
					drafts = append(drafts, cur)
				}
				cur.add(num, joinLines(run))
				run = nil
			}
			// Extracted PDF text rarely has blank lines, so every line
			// may open a section.
			for _, line := range blockLines(block) {
				h, ok := classify(line)
				if !ok {
					run = append(run, line)
					continue
				}
				flush()
				cur = &draft{typ: h.typ, heading: h.text, headingPage: num}
				drafts = append(drafts, cur)
				if h.inline != "" {
					run = append(run, h.inline)
				}
			}
			flush()
		}
	}

	sections := make([]document.Section, 0, len(drafts)+1)
	if title != "" {
		sec, err := document.NewSection(document.SectionTitle, "",
			[]document.Passage{{Page: titlePage, Text: title}}, 0)
		if err != nil {
			return document.Document{}, fmt.Errorf("title section: %w", err)
		}
		sections = append(sections, sec)
	}
	for _, d := range drafts {
		if len(d.passages) == 0 {
			// A heading with nothing under it keeps its own line.
			d.passages = []document.Passage{{Page: d.headingPage, Text: d.heading}}
		}
		sec, err := document.NewSection(d.typ, d.heading, d.passages, len(sections))
		if err != nil {
			return document.Document{}, fmt.Errorf("section %d: %w", len(sections), err)
		}
		sections = append(sections, sec)
	}

	if len(sections) == 0 {
		return document.Document{}, fmt.Errorf("%s: no readable text: %w", in.Filename, domain.ErrUnsupportedFormat)
	}

	doc, err := document.New(in.ID, in.Filename, pageCount, sections)
	if err != nil {
		return document.Document{}, domain.NewValidation("%v", err)
	}
	if title == "" {
		title = strings.TrimSuffix(in.Filename, filepath.Ext(in.Filename))
	}
	doc = doc.WithTitle(title).WithWarnings(warnings)

	s.logger.Debug("document structured",
		zap.String("document_id", in.ID),
		zap.Int("pages", pageCount),
		zap.Int("sections", len(sections)),
		zap.Int("warnings", len(warnings)),
	)
	return doc, nil
}

// extractTitle picks the first plausible title line among the first lines
// of a page and returns the page text without it.
func extractTitle(text string) (title, rest string, ok bool) {
	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines) && i < titleScanLines; i++ {
		line := strings.TrimSpace(lines[i])
		n := utf8.RuneCountInString(line)
		if n < minTitleRunes || n > maxTitleRunes {
			continue
		}
		if titleExclude.MatchString(line) {
			continue
		}
		lines = append(lines[:i:i], lines[i+1:]...)
		return line, strings.Join(lines, "\n"), true
	}
	return "", text, false
}

// readable reports whether most runes are printable text.
func readable(text string) bool {
	var total, bad int
	for _, r := range text {
		if r == '\n' || r == '\t' || r == '\r' {
			continue
		}
		total++
		if r == utf8.RuneError || unicode.IsControl(r) {
			bad++
		}
	}
	return total > 0 && bad*2 < total
}

func blockLines(block string) []string {
	raw := strings.Split(block, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// joinLines undoes hard line wraps, including hyphenated word breaks.
func joinLines(lines []string) string {
	var b strings.Builder
	for i, l := range lines {
		last := i == len(lines)-1
		hyphen := false
		if !last && strings.HasSuffix(l, "-") {
			next, _ := utf8.DecodeRuneInString(lines[i+1])
			hyphen = unicode.IsLower(next)
		}
		if hyphen {
			l = strings.TrimSuffix(l, "-")
		}
		b.WriteString(l)
		if !last && !hyphen {
			b.WriteByte(' ')
		}
	}
	return b.String()
}
