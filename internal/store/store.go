// Package store is the file-system adapter for a brain directory: domain
// folders of knowledge units, the inbox, and the brain.yaml marker.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/halvard/muninn/internal/apperr"
	"github.com/halvard/muninn/internal/frontmatter"
	"github.com/halvard/muninn/internal/models"
)

const (
	brainYAML = "brain.yaml"
	inboxDir  = "inbox"
	tmpPrefix = ".muninn-tmp-"
)

const brainYAMLTemplate = `# muninn brain configuration
#
# log:
#   level: info
# clipboard:
#   enabled: true
#   capture_urls: true
#   capture_text: false
#   poll_interval_ms: 500
#   ignore_domains:
#     - localhost
#     - mail.google.com
#     - accounts.google.com
`

// DomainMeta is the descriptive metadata record stored in domain.yaml.
type DomainMeta struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// KnowledgeSummary is a lightweight listing of a filed unit without its body.
type KnowledgeSummary struct {
	ID           string   `json:"id"`
	Kind         string   `json:"type"`
	Tags         []string `json:"tags"`
	Preview      string   `json:"preview"`
	RelativePath string   `json:"relative_path"`
}

// Store is a handle to a brain directory on disk.
type Store struct {
	root string // absolute path to the brain directory
}

// New creates a store rooted at the given directory. The directory does not
// need to exist yet; Init creates it.
func New(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("store: resolve root %s: %w", root, err)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute brain root path.
func (s *Store) Root() string { return s.root }

// InboxDir returns the absolute path of the inbox directory.
func (s *Store) InboxDir() string { return filepath.Join(s.root, inboxDir) }

// Init creates the brain directory structure. Idempotent: an existing
// brain.yaml is never overwritten.
func (s *Store) Init() error {
	for _, dir := range []string{s.root, s.InboxDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("store: create %s: %w", dir, err)
		}
	}
	marker := filepath.Join(s.root, brainYAML)
	if _, err := os.Stat(marker); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(marker, []byte(brainYAMLTemplate), 0o644); err != nil {
			return fmt.Errorf("store: write %s: %w", marker, err)
		}
	}
	return nil
}

// IsInitialized reports whether brain.yaml exists under the root.
func (s *Store) IsInitialized() bool {
	_, err := os.Stat(filepath.Join(s.root, brainYAML))
	return err == nil
}

// safePath resolves a relative path against the brain root and rejects any
// result that escapes it.
func (s *Store) safePath(rel string) (string, error) {
	if rel == "" {
		return s.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", &apperr.PathTraversalError{Path: rel}
	}
	joined := filepath.Join(s.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("store: resolve path %s: %w", rel, err)
	}
	if abs != s.root && !strings.HasPrefix(abs, s.root+string(os.PathSeparator)) {
		return "", &apperr.PathTraversalError{Path: rel}
	}
	return abs, nil
}

// WriteFile atomically writes data to a path relative to the root:
// temp file, fsync, rename. Parent directories are created as needed.
func (s *Store) WriteFile(rel string, data []byte) error {
	abs, err := s.safePath(rel)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, tmpPrefix+"*")
	if err != nil {
		return fmt.Errorf("store: create temp for %s: %w", rel, err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("store: write temp for %s: %w", rel, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("store: fsync %s: %w", rel, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close temp for %s: %w", rel, err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("store: rename into %s: %w", rel, err)
	}
	success = true
	return nil
}

// AddDomain creates a domain directory with its domain.yaml metadata file.
func (s *Store) AddDomain(name, description string) (string, error) {
	abs, err := s.safePath(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("store: create domain dir %s: %w", name, err)
	}
	meta := DomainMeta{Name: name, Description: description}
	data, err := yaml.Marshal(&meta)
	if err != nil {
		return "", fmt.Errorf("store: marshal domain meta: %w", err)
	}
	if err := s.WriteFile(filepath.Join(name, "domain.yaml"), data); err != nil {
		return "", err
	}
	return abs, nil
}

// ListDomains returns the slash-delimited paths of every directory under the
// root that carries a domain.yaml, sorted ascending.
func (s *Store) ListDomains() ([]string, error) {
	var domains []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			return nil
		}
		if p == s.InboxDir() {
			return filepath.SkipDir
		}
		if _, statErr := os.Stat(filepath.Join(p, "domain.yaml")); statErr == nil {
			rel, relErr := filepath.Rel(s.root, p)
			if relErr == nil && rel != "." {
				domains = append(domains, filepath.ToSlash(rel))
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: list domains: %w", err)
	}
	// WalkDir visits lexically, so the result is already sorted.
	return domains, nil
}

// ReadDomainMeta reads the domain.yaml metadata for a domain.
func (s *Store) ReadDomainMeta(domain string) (DomainMeta, error) {
	abs, err := s.safePath(filepath.Join(domain, "domain.yaml"))
	if err != nil {
		return DomainMeta{}, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return DomainMeta{}, fmt.Errorf("store: read domain.yaml for %s: %w", domain, err)
	}
	var meta DomainMeta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return DomainMeta{}, fmt.Errorf("store: parse domain.yaml for %s: %w", domain, err)
	}
	return meta, nil
}

// WriteUnit serializes a knowledge unit into its domain directory under the
// given filename and returns the written path.
func (s *Store) WriteUnit(unit *models.KnowledgeUnit, filename string) (string, error) {
	content, err := frontmatter.Serialize(unit, unit.Body)
	if err != nil {
		return "", fmt.Errorf("store: serialize unit %s: %w", unit.ID, err)
	}
	rel := filepath.Join(filepath.FromSlash(unit.Domain), filename)
	if err := s.WriteFile(rel, []byte(content)); err != nil {
		return "", err
	}
	return filepath.Join(s.root, rel), nil
}

// ReadUnit reads and decodes a filed knowledge unit by its path relative to
// the brain root. The path is traversal-guarded, including symlinks: the
// canonicalized target must still live under the canonicalized root.
func (s *Store) ReadUnit(rel string) (models.KnowledgeUnit, error) {
	abs, err := s.safePath(rel)
	if err != nil {
		return models.KnowledgeUnit{}, err
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return models.KnowledgeUnit{}, fmt.Errorf("store: resolve %s: %w", rel, err)
	}
	rootReal, err := filepath.EvalSymlinks(s.root)
	if err != nil {
		return models.KnowledgeUnit{}, fmt.Errorf("store: resolve root: %w", err)
	}
	if real != rootReal && !strings.HasPrefix(real, rootReal+string(os.PathSeparator)) {
		return models.KnowledgeUnit{}, &apperr.PathTraversalError{Path: rel}
	}
	return s.readUnitFile(real, rel)
}

func (s *Store) readUnitFile(abs, label string) (models.KnowledgeUnit, error) {
	data, err := os.ReadFile(abs)
	if err != nil {
		return models.KnowledgeUnit{}, fmt.Errorf("store: read %s: %w", label, err)
	}
	unit := models.KnowledgeUnit{Confidence: models.DefaultUnitConfidence}
	body, err := frontmatter.Parse(string(data), label, &unit)
	if err != nil {
		return models.KnowledgeUnit{}, err
	}
	unit.Body = body
	if err := unit.Validate(); err != nil {
		return models.KnowledgeUnit{}, &apperr.InvalidFrontmatterError{Label: label, Err: err}
	}
	return unit, nil
}

// ListKnowledge walks a domain directory and returns summaries of every
// decodable unit. Malformed files are skipped with a warning; one corrupt
// record must not hide the others.
func (s *Store) ListKnowledge(domain string) ([]KnowledgeSummary, error) {
	base, err := s.safePath(filepath.FromSlash(domain))
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(base); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	var summaries []KnowledgeSummary
	walkErr := filepath.WalkDir(base, func(p string, d fs.DirEntry, werr error) error {
		if werr != nil {
			return werr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		rel, relErr := filepath.Rel(s.root, p)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		unit, readErr := s.readUnitFile(p, rel)
		if readErr != nil {
			slog.Warn("store: skipping malformed knowledge file",
				slog.String("path", rel),
				slog.String("error", readErr.Error()))
			return nil
		}
		summaries = append(summaries, KnowledgeSummary{
			ID:           unit.ID,
			Kind:         string(unit.Kind),
			Tags:         unit.Tags,
			Preview:      Preview(unit.Body, 100),
			RelativePath: rel,
		})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("store: list knowledge in %s: %w", domain, walkErr)
	}
	return summaries, nil
}

// CountKnowledge counts the .md knowledge files under a domain directory.
func (s *Store) CountKnowledge(domain string) int {
	base, err := s.safePath(filepath.FromSlash(domain))
	if err != nil {
		return 0
	}
	count := 0
	_ = filepath.WalkDir(base, func(p string, d fs.DirEntry, werr error) error {
		if werr != nil {
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".md") {
			count++
		}
		return nil
	})
	return count
}

// Preview returns the first body line truncated to max characters, with an
// ellipsis when cut.
func Preview(body string, max int) string {
	line := body
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	runes := []rune(line)
	if len(runes) <= max {
		return line
	}
	return string(runes[:max-3]) + "..."
}
