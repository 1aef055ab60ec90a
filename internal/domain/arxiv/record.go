package arxiv

import "time"

// Record is a normalized arXiv search result. Transient unless imported.
type Record struct {
	ID              string    `json:"arxiv_id"`
	Title           string    `json:"title"`
	Authors         []string  `json:"authors"`
	Abstract        string    `json:"abstract"`
	PrimaryCategory string    `json:"primary_category,omitempty"`
	Categories      []string  `json:"categories,omitempty"`
	Published       time.Time `json:"published"`
	Updated         time.Time `json:"updated"`
	PDFURL          string    `json:"pdf_url,omitempty"`
	HTMLURL         string    `json:"html_url,omitempty"`
	DOI             string    `json:"doi,omitempty"`
	JournalRef      string    `json:"journal_ref,omitempty"`
	Comment         string    `json:"comment,omitempty"`
}

// Category returns the primary category, or the first listed one.
func (r Record) Category() string {
	if r.PrimaryCategory != "" {
		return r.PrimaryCategory
	}
	if len(r.Categories) > 0 {
		return r.Categories[0]
	}
	return ""
}

// Page is one page of arXiv search results.
type Page struct {
	Records  []Record `json:"records"`
	Total    int      `json:"total_results"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
}

// HasMore reports whether another page is available.
func (p Page) HasMore() bool {
	return p.Page*p.PageSize < p.Total
}
