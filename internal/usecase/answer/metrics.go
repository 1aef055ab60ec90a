package answer

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/docmind/internal/domain/document"
)

const metricContextRunes = 80

var metricPattern = regexp.MustCompile(
	`(?i)\b(accuracy|f1[-\s]?score|f1|precision|recall|auc|rmse|mae)\b\s*(?:[:=]|of|is|was)?\s*([0-9]+(?:\.[0-9]+)?)\s*(%)?`)

// Metric is an evaluation number found in document text.
type Metric struct {
	Name        string
	Value       float64
	Percent     bool
	Raw         string
	Page        int
	SectionType document.SectionType
	Context     string
}

// Fraction returns the value on a 0..1 scale when it was reported as a percentage.
func (m Metric) Fraction() float64 {
	if m.Percent {
		return m.Value / 100
	}
	return m.Value
}

// ExtractMetrics scans a document for common evaluation metrics.
func (g *Generator) ExtractMetrics(ctx context.Context, documentID string) ([]Metric, error) {
	doc, err := g.docs.Get(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return FindMetrics(&doc), nil
}

// FindMetrics returns every metric mention in reading order. References are skipped.
func FindMetrics(doc *document.Document) []Metric {
	out := []Metric{}
	for _, s := range doc.Sections() {
		if s.Type() == document.SectionReference {
			continue
		}
		for _, p := range s.Passages() {
			for _, m := range metricPattern.FindAllStringSubmatchIndex(p.Text, -1) {
				value, err := strconv.ParseFloat(p.Text[m[4]:m[5]], 64)
				if err != nil {
					continue
				}
				out = append(out, Metric{
					Name:        metricName(p.Text[m[2]:m[3]]),
					Value:       value,
					Percent:     m[6] >= 0,
					Raw:         p.Text[m[0]:m[1]],
					Page:        p.Page,
					SectionType: s.Type(),
					Context:     around(p.Text, m[0], m[1], metricContextRunes),
				})
			}
		}
	}
	return out
}

func metricName(s string) string {
	s = strings.ToLower(s)
	if strings.HasPrefix(s, "f1") {
		return "f1"
	}
	return s
}

// around returns the match with up to pad bytes of text on each side,
// widened to whole runes, with whitespace collapsed.
func around(s string, start, end, pad int) string {
	lo := max(start-pad, 0)
	hi := min(end+pad, len(s))
	for lo > 0 && !utf8RuneStart(s[lo]) {
		lo--
	}
	for hi < len(s) && !utf8RuneStart(s[hi]) {
		hi++
	}
	return strings.Join(strings.Fields(s[lo:hi]), " ")
}
