package arxiv

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	domarxiv "github.com/kailas-cloud/docmind/internal/domain/arxiv"
)

var idPattern = regexp.MustCompile(`abs/([\w.\-/]+?)(?:v\d+)?$`)

// apiErrorPath marks the id of the entry the API sends instead of results
// when it rejects a query.
const apiErrorPath = "/api/errors"

type atomFeed struct {
	XMLName      xml.Name    `xml:"http://www.w3.org/2005/Atom feed"`
	TotalResults string      `xml:"http://a9.com/-/spec/opensearch/1.1/ totalResults"`
	Entries      []atomEntry `xml:"http://www.w3.org/2005/Atom entry"`
}

type atomEntry struct {
	ID         string         `xml:"http://www.w3.org/2005/Atom id"`
	Title      string         `xml:"http://www.w3.org/2005/Atom title"`
	Summary    string         `xml:"http://www.w3.org/2005/Atom summary"`
	Published  string         `xml:"http://www.w3.org/2005/Atom published"`
	Updated    string         `xml:"http://www.w3.org/2005/Atom updated"`
	Authors    []atomAuthor   `xml:"http://www.w3.org/2005/Atom author"`
	Links      []atomLink     `xml:"http://www.w3.org/2005/Atom link"`
	Categories []atomCategory `xml:"http://www.w3.org/2005/Atom category"`
	Primary    atomCategory   `xml:"http://arxiv.org/schemas/atom primary_category"`
	DOI        string         `xml:"http://arxiv.org/schemas/atom doi"`
	JournalRef string         `xml:"http://arxiv.org/schemas/atom journal_ref"`
	Comment    string         `xml:"http://arxiv.org/schemas/atom comment"`
}

type atomAuthor struct {
	Name string `xml:"http://www.w3.org/2005/Atom name"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Title string `xml:"title,attr"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

type parsedFeed struct {
	Records []domarxiv.Record
	Total   int
}

func parseFeed(data []byte) (parsedFeed, error) {
	var feed atomFeed
	dec := xml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&feed); err != nil {
		return parsedFeed{}, fmt.Errorf("decode atom: %w", err)
	}

	out := parsedFeed{Records: make([]domarxiv.Record, 0, len(feed.Entries))}
	if s := strings.TrimSpace(feed.TotalResults); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return parsedFeed{}, fmt.Errorf("total results %q: %w", s, err)
		}
		out.Total = n
	}

	for i := range feed.Entries {
		if e := &feed.Entries[i]; strings.Contains(e.ID, apiErrorPath) {
			_, code, _ := strings.Cut(e.ID, "#")
			return parsedFeed{}, fmt.Errorf("api error %s: %s", strings.TrimSpace(code), collapse(e.Summary))
		}
		rec, ok := toRecord(&feed.Entries[i])
		if !ok {
			continue
		}
		out.Records = append(out.Records, rec)
	}
	// Feeds without opensearch metadata still report what they returned.
	if out.Total < len(out.Records) {
		out.Total = len(out.Records)
	}
	return out, nil
}

// toRecord normalizes one entry. Entries whose id is not an abs/ URL are
// skipped.
func toRecord(e *atomEntry) (domarxiv.Record, bool) {
	m := idPattern.FindStringSubmatch(strings.TrimSpace(e.ID))
	if m == nil {
		return domarxiv.Record{}, false
	}

	rec := domarxiv.Record{
		ID:              m[1],
		Title:           collapse(e.Title),
		Abstract:        collapse(e.Summary),
		PrimaryCategory: e.Primary.Term,
		Published:       parseTime(e.Published),
		Updated:         parseTime(e.Updated),
		DOI:             strings.TrimSpace(e.DOI),
		JournalRef:      collapse(e.JournalRef),
		Comment:         collapse(e.Comment),
	}
	for _, a := range e.Authors {
		if name := collapse(a.Name); name != "" {
			rec.Authors = append(rec.Authors, name)
		}
	}
	for _, l := range e.Links {
		switch {
		case l.Title == "pdf":
			rec.PDFURL = l.Href
		case l.Rel == "alternate":
			rec.HTMLURL = l.Href
		}
	}
	for _, c := range e.Categories {
		if c.Term != "" {
			rec.Categories = append(rec.Categories, c.Term)
		}
	}
	return rec, true
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}
