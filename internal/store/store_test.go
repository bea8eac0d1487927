package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/halvard/muninn/internal/apperr"
	"github.com/halvard/muninn/internal/models"
)

func tempBrain(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "brain"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return s
}

func sampleUnit(id, domain string) models.KnowledgeUnit {
	return models.KnowledgeUnit{
		ID:         id,
		Kind:       models.TypeConcept,
		Domain:     domain,
		Tags:       []string{"testing"},
		Confidence: 0.9,
		Body:       "Ownership rules in Go\n\nDetails here.\n",
	}
}

func TestInitCreatesStructure(t *testing.T) {
	s := tempBrain(t)

	if !s.IsInitialized() {
		t.Error("expected brain to be initialized")
	}
	if _, err := os.Stat(s.InboxDir()); err != nil {
		t.Errorf("inbox dir missing: %v", err)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	s := tempBrain(t)
	marker := filepath.Join(s.Root(), "brain.yaml")
	custom := []byte("clipboard:\n  enabled: false\n")
	if err := os.WriteFile(marker, custom, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := s.Init(); err != nil {
		t.Fatalf("re-Init: %v", err)
	}
	got, _ := os.ReadFile(marker)
	if string(got) != string(custom) {
		t.Error("re-init overwrote brain.yaml")
	}
}

func TestWriteAndReadUnit(t *testing.T) {
	s := tempBrain(t)
	unit := sampleUnit("aaa-111", "coding/go")

	path, err := s.WriteUnit(&unit, "ownership.md")
	if err != nil {
		t.Fatalf("WriteUnit: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("written file missing: %v", err)
	}

	got, err := s.ReadUnit("coding/go/ownership.md")
	if err != nil {
		t.Fatalf("ReadUnit: %v", err)
	}
	if got.ID != unit.ID || got.Kind != unit.Kind || got.Domain != unit.Domain {
		t.Errorf("unit = %+v", got)
	}
	if got.Body != unit.Body {
		t.Errorf("body = %q, want %q", got.Body, unit.Body)
	}
}

func TestReadUnit_TraversalBlocked(t *testing.T) {
	s := tempBrain(t)

	for _, p := range []string{"../../etc/passwd", "../outside.md", "/etc/shadow"} {
		_, err := s.ReadUnit(p)
		var pt *apperr.PathTraversalError
		if !errors.As(err, &pt) {
			t.Errorf("ReadUnit(%q): err = %v, want PathTraversalError", p, err)
		}
	}
}

func TestReadUnit_SymlinkEscapeBlocked(t *testing.T) {
	s := tempBrain(t)

	outside := filepath.Join(t.TempDir(), "secret.md")
	if err := os.WriteFile(outside, []byte("---\nid: x\n---\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(s.Root(), "sneaky.md")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	_, err := s.ReadUnit("sneaky.md")
	var pt *apperr.PathTraversalError
	if !errors.As(err, &pt) {
		t.Errorf("err = %v, want PathTraversalError", err)
	}
}

func TestDomains(t *testing.T) {
	s := tempBrain(t)

	if _, err := s.AddDomain("coding/rust", "Rust knowledge"); err != nil {
		t.Fatalf("AddDomain: %v", err)
	}
	if _, err := s.AddDomain("architecture", ""); err != nil {
		t.Fatalf("AddDomain: %v", err)
	}

	domains, err := s.ListDomains()
	if err != nil {
		t.Fatalf("ListDomains: %v", err)
	}
	if len(domains) != 2 || domains[0] != "architecture" || domains[1] != "coding/rust" {
		t.Errorf("domains = %v", domains)
	}

	meta, err := s.ReadDomainMeta("coding/rust")
	if err != nil {
		t.Fatalf("ReadDomainMeta: %v", err)
	}
	if meta.Name != "coding/rust" || meta.Description != "Rust knowledge" {
		t.Errorf("meta = %+v", meta)
	}
}

func TestListKnowledge(t *testing.T) {
	s := tempBrain(t)
	u1 := sampleUnit("aaa-111", "coding")
	u2 := sampleUnit("bbb-222", "coding")
	u2.Kind = models.TypePattern
	u2.Body = "Builder pattern for complex structs\n"

	if _, err := s.WriteUnit(&u1, "ownership.md"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.WriteUnit(&u2, "builder.md"); err != nil {
		t.Fatal(err)
	}
	// A malformed file must be skipped, not fail the listing.
	if err := s.WriteFile("coding/bad.md", []byte("no frontmatter at all")); err != nil {
		t.Fatal(err)
	}

	summaries, err := s.ListKnowledge("coding")
	if err != nil {
		t.Fatalf("ListKnowledge: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("len = %d, want 2", len(summaries))
	}
	for _, sum := range summaries {
		if sum.ID == "aaa-111" && sum.Preview != "Ownership rules in Go" {
			t.Errorf("preview = %q", sum.Preview)
		}
	}
}

func TestListKnowledge_MissingDomain(t *testing.T) {
	s := tempBrain(t)
	summaries, err := s.ListKnowledge("nonexistent")
	if err != nil {
		t.Fatalf("ListKnowledge: %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("summaries = %v", summaries)
	}
}

func TestCountKnowledge(t *testing.T) {
	s := tempBrain(t)
	if n := s.CountKnowledge("coding"); n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
	u := sampleUnit("aaa-111", "coding")
	if _, err := s.WriteUnit(&u, "one.md"); err != nil {
		t.Fatal(err)
	}
	if n := s.CountKnowledge("coding"); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestPreviewTruncation(t *testing.T) {
	long := make([]byte, 150)
	for i := range long {
		long[i] = 'x'
	}
	got := Preview(string(long)+"\nsecond line", 100)
	if len([]rune(got)) != 100 {
		t.Errorf("len = %d, want 100", len([]rune(got)))
	}
	if got[len(got)-3:] != "..." {
		t.Errorf("preview = %q, want ellipsis suffix", got)
	}
}

func TestWriteFileLeavesNoTempFiles(t *testing.T) {
	s := tempBrain(t)
	if err := s.WriteFile("a/b.md", []byte("data")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(s.Root(), "a", ".muninn-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}
