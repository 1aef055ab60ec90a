package chunk

import (
	"testing"

	"github.com/kailas-cloud/docmind/internal/domain/document"
)

func TestNew_Valid(t *testing.T) {
	c, err := New("doc-1", 3, 1, document.SectionMethod, "we train a transformer", 2, []float32{0.1, 0.2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID() != "doc-1:3" {
		t.Errorf("ID() = %q", c.ID())
	}
	if c.SectionType() != document.SectionMethod || c.Page() != 2 || c.SectionIndex() != 1 {
		t.Errorf("unexpected chunk metadata: %+v", c)
	}
}

func TestNew_Validation(t *testing.T) {
	vec := []float32{1}
	tests := []struct {
		name string
		fn   func() error
	}{
		{"no doc", func() error { _, err := New("", 0, 0, document.SectionBody, "x", 1, vec); return err }},
		{"negative seq", func() error { _, err := New("d", -1, 0, document.SectionBody, "x", 1, vec); return err }},
		{"blank text", func() error { _, err := New("d", 0, 0, document.SectionBody, "  \n", 1, vec); return err }},
		{"page zero", func() error { _, err := New("d", 0, 0, document.SectionBody, "x", 0, vec); return err }},
		{"no vector", func() error { _, err := New("d", 0, 0, document.SectionBody, "x", 1, nil); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.fn() == nil {
				t.Error("expected error")
			}
		})
	}
}
