package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/halvard/muninn/internal/inbox"
	"github.com/halvard/muninn/internal/models"
	"github.com/halvard/muninn/internal/testutil"
)

func TestCleanNotionTitle(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"My Page a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4", "My Page"},
		{"Simple Title", "Simple Title"},
		{"Doc aabbccdd112233445566778899001122", "Doc"},
		{"Doc aabb", "Doc aabb"},
	}
	for _, c := range cases {
		if got := CleanNotionTitle(c.in); got != c.want {
			t.Errorf("CleanNotionTitle(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSuggestDomainFromPath(t *testing.T) {
	root := filepath.FromSlash("/export")
	cases := []struct {
		path, want string
	}{
		{"/export/page.md", "imported"},
		{"/export/Work/page.md", "imported/work"},
		{"/export/Work/Engineering/page.md", "imported/work/engineering"},
		{"/export/Work aabbccdd112233445566778899001122/page.md", "imported/work"},
	}
	for _, c := range cases {
		if got := SuggestDomainFromPath(filepath.FromSlash(c.path), root); got != c.want {
			t.Errorf("SuggestDomainFromPath(%q) = %q, want %q", c.path, got, c.want)
		}
	}
}

func TestExtractTitle(t *testing.T) {
	cases := []struct {
		content, filename, want string
	}{
		{"# My Great Page\n\nSome content", "fallback", "My Great Page"},
		{"No heading here\nJust text", "My File a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4", "My File"},
		{"## Not an h1\nContent", "Default Title", "Default Title"},
		{"# \n\nContent", "Filename", "Filename"},
	}
	for _, c := range cases {
		if got := ExtractTitle(c.content, c.filename); got != c.want {
			t.Errorf("ExtractTitle(%q, %q) = %q, want %q", c.content, c.filename, got, c.want)
		}
	}
}

func TestImportNotion(t *testing.T) {
	s := testutil.TestBrain(t)
	in := inbox.New(s)

	export := filepath.Join(t.TempDir(), "notion-export")
	engDir := filepath.Join(export, "Work", "Engineering")
	if err := os.MkdirAll(engDir, 0o755); err != nil {
		t.Fatal(err)
	}

	write := func(path, content string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(filepath.Join(export, "Getting Started aabbccdd112233445566778899001122.md"),
		"# Getting Started\n\nThis is a guide to getting started with Notion.\n")
	write(filepath.Join(engDir, "Rust Notes.md"),
		"# Rust Notes\n\nOwnership, borrowing, and lifetimes are key concepts.\n")
	write(filepath.Join(export, "Work", "Quick Thoughts.md"),
		"Just some random thoughts about the project direction.\n")
	write(filepath.Join(export, "Empty.md"), "")

	summary, err := ImportNotion(in, export)
	if err != nil {
		t.Fatalf("ImportNotion: %v", err)
	}
	if summary.Imported != 3 || summary.Skipped != 1 {
		t.Errorf("summary = %+v, want 3 imported, 1 skipped", summary)
	}

	entries, err := in.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("len = %d", len(entries))
	}

	domains := make(map[string]bool)
	for _, e := range entries {
		domains[e.Item.SuggestedDomain] = true
		if e.Item.CaptureMethod != models.MethodImport {
			t.Errorf("method = %q", e.Item.CaptureMethod)
		}
		if !strings.HasPrefix(e.Item.Source, "notion:") {
			t.Errorf("source = %q", e.Item.Source)
		}
	}
	for _, want := range []string{"imported", "imported/work", "imported/work/engineering"} {
		if !domains[want] {
			t.Errorf("missing domain %q in %v", want, domains)
		}
	}
}
