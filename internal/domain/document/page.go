package document

// Page is one page of pre-extracted text. ExtractErr marks a page the intake
// layer could not decode; such pages are skipped with a warning.
type Page struct {
	Number     int
	Text       string
	ExtractErr error
}
