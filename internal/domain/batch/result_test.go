package batch

import (
	"errors"
	"testing"
)

func TestNewOK(t *testing.T) {
	r := NewOK("doc-1", "paper.pdf", 12, []string{"page 3: no text"})
	if r.ID() != "doc-1" || r.Filename() != "paper.pdf" {
		t.Errorf("ID/Filename = %q/%q", r.ID(), r.Filename())
	}
	if r.Status() != StatusOK {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusOK)
	}
	if r.Chunks() != 12 || len(r.Warnings()) != 1 {
		t.Errorf("Chunks/Warnings = %d/%v", r.Chunks(), r.Warnings())
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v, want nil", r.Err())
	}
}

func TestNewError(t *testing.T) {
	err := errors.New("something failed")
	r := NewError("", "broken.pdf", err)
	if r.Status() != StatusError {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusError)
	}
	if r.ID() != "" {
		t.Errorf("ID() = %q, want empty", r.ID())
	}
	if !errors.Is(r.Err(), err) {
		t.Errorf("Err() = %v, want %v", r.Err(), err)
	}
}
