// Package importer stages external exports into the inbox for review.
package importer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/halvard/muninn/internal/inbox"
	"github.com/halvard/muninn/internal/models"
)

// Notion appends a space and a 32-char hex ID to exported file and folder
// names.
var notionIDSuffix = regexp.MustCompile(`\s+[a-f0-9]{32}$`)

// Pages shorter than this after trimming are considered empty.
const minPageLength = 10

// Summary reports the outcome of an import run.
type Summary struct {
	Imported int
	Skipped  int
}

// CleanNotionTitle strips the export ID suffix from a file or folder name.
func CleanNotionTitle(name string) string {
	return notionIDSuffix.ReplaceAllString(name, "")
}

// SuggestDomainFromPath maps a page's folder position under the export root
// to an imported/... domain. Pages at the root land in "imported".
func SuggestDomainFromPath(path, root string) string {
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil || rel == "." {
		return "imported"
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(strings.ToLower(CleanNotionTitle(p)), " ", "-")
	}
	return "imported/" + strings.Join(parts, "/")
}

// ExtractTitle returns the first H1 heading in the content, falling back to
// the cleaned filename.
func ExtractTitle(content, filename string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if heading, ok := strings.CutPrefix(trimmed, "# "); ok {
			if title := strings.TrimSpace(heading); title != "" {
				return title
			}
		}
	}
	return CleanNotionTitle(filename)
}

// ImportNotion walks a Notion export directory and stages every non-empty
// markdown page as an import candidate. Unreadable and near-empty pages are
// skipped, not fatal.
func ImportNotion(in *inbox.Inbox, exportDir string) (Summary, error) {
	root, err := filepath.Abs(exportDir)
	if err != nil {
		return Summary{}, fmt.Errorf("resolve export directory %s: %w", exportDir, err)
	}

	var summary Summary
	walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".md" {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			slog.Warn("import: skipping unreadable page",
				slog.String("path", path), slog.String("error", readErr.Error()))
			summary.Skipped++
			return nil
		}
		content := string(data)
		if len(strings.TrimSpace(content)) < minPageLength {
			summary.Skipped++
			return nil
		}

		filename := strings.TrimSuffix(d.Name(), ".md")
		title := ExtractTitle(content, filename)
		domain := SuggestDomainFromPath(path, root)

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}

		item := models.NewInboxItem(models.TypeConcept, domain, models.MethodImport,
			fmt.Sprintf("# %s\n\n%s", title, content))
		item.Source = "notion:" + filepath.ToSlash(rel)

		if _, addErr := in.Add(&item); addErr != nil {
			return fmt.Errorf("staging %s: %w", path, addErr)
		}
		summary.Imported++
		return nil
	})
	if walkErr != nil {
		return Summary{}, walkErr
	}
	return summary, nil
}
