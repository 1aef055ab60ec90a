package batch

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of processing one document in a multi-document upload.
// A failed item never aborts its siblings.
type Result struct {
	id       string
	filename string
	status   ItemStatus
	warnings []string
	chunks   int
	err      error
}

// NewOK creates a successful item result.
func NewOK(id, filename string, chunks int, warnings []string) Result {
	return Result{id: id, filename: filename, status: StatusOK, chunks: chunks, warnings: warnings}
}

// NewError creates a failed item result. id may be empty if none was assigned.
func NewError(id, filename string, err error) Result {
	return Result{id: id, filename: filename, status: StatusError, err: err}
}

// ID returns the document identifier.
func (r Result) ID() string { return r.id }

// Filename returns the submitted file name.
func (r Result) Filename() string { return r.filename }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Chunks returns the number of chunks indexed.
func (r Result) Chunks() int { return r.chunks }

// Warnings returns non-fatal extraction warnings.
func (r Result) Warnings() []string { return r.warnings }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }
