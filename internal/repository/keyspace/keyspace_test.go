package keyspace

import (
	"testing"

	"github.com/kailas-cloud/docmind/internal/db"
)

func TestNew_NormalizesPrefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", DefaultPrefix},
		{"app", "app:"},
		{"app:", "app:"},
	}
	for _, tt := range tests {
		if got := New(tt.in).Prefix(); got != tt.want {
			t.Errorf("New(%q).Prefix() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKeys(t *testing.T) {
	k := New("")
	if got := k.DocKey("arxiv:1706.03762"); got != "docmind:doc:arxiv:1706.03762" {
		t.Errorf("DocKey = %q", got)
	}
	if got := k.DocIDFromKey(k.DocKey("a:b")); got != "a:b" {
		t.Errorf("DocIDFromKey = %q", got)
	}
	if got := k.ChunkKey("d1", 3); got != "docmind:chunk:d1:3" {
		t.Errorf("ChunkKey = %q", got)
	}
	if got := k.BudgetKey("openai", "daily", "2026-10-15"); got != "docmind:budget:openai:daily:2026-10-15" {
		t.Errorf("BudgetKey = %q", got)
	}
}

func TestChunkIndex(t *testing.T) {
	def, err := New("").ChunkIndex(384)
	if err != nil {
		t.Fatalf("ChunkIndex: %v", err)
	}
	if def.Name != "docmind:chunks:idx" {
		t.Errorf("Name = %q", def.Name)
	}
	if len(def.Prefixes) != 1 || def.Prefixes[0] != "docmind:chunk:" {
		t.Errorf("Prefixes = %v", def.Prefixes)
	}
	vf, ok := def.VectorField()
	if !ok || vf.VectorDim != 384 || vf.VectorAlgo != db.VectorFlat || vf.Name != FieldVector {
		t.Errorf("vector field = %+v", vf)
	}

	if _, err := New("").ChunkIndex(0); err == nil {
		t.Error("expected error for zero dimension")
	}
}
