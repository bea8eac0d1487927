// Package inbox manages the staging lifecycle of candidate knowledge units:
// pending files in the inbox directory that are either accepted into a
// domain or rejected and deleted.
package inbox

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/halvard/muninn/internal/apperr"
	"github.com/halvard/muninn/internal/frontmatter"
	"github.com/halvard/muninn/internal/models"
	"github.com/halvard/muninn/internal/store"
)

const (
	timestampLayout = "20060102-150405"
	slugMaxChars    = 60
)

// Entry is a pending item together with its file path on disk.
type Entry struct {
	Item models.InboxItem
	Path string
}

// Inbox stages candidates inside a brain store.
type Inbox struct {
	store *store.Store
}

// New creates an inbox over the given store.
func New(s *store.Store) *Inbox {
	return &Inbox{store: s}
}

// Add writes a new pending file and returns its path. The inbox directory is
// created if needed.
func (in *Inbox) Add(item *models.InboxItem) (string, error) {
	if err := os.MkdirAll(in.store.InboxDir(), 0o755); err != nil {
		return "", fmt.Errorf("inbox: create directory: %w", err)
	}

	content, err := frontmatter.Serialize(item, item.Body)
	if err != nil {
		return "", fmt.Errorf("inbox: serialize item %s: %w", item.ID, err)
	}

	rel := filepath.Join("inbox", pendingFilename(item))
	if err := in.store.WriteFile(rel, []byte(content)); err != nil {
		return "", err
	}
	return filepath.Join(in.store.Root(), rel), nil
}

// List reads every pending .md file, skipping malformed ones with a warning,
// and returns entries sorted ascending by captured_at. This order is the
// basis for all 1-based index addressing.
func (in *Inbox) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(in.store.InboxDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("inbox: read directory: %w", err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".md") {
			continue
		}
		path := filepath.Join(in.store.InboxDir(), de.Name())
		item, readErr := readPendingFile(path)
		if readErr != nil {
			slog.Warn("inbox: skipping malformed item",
				slog.String("path", path),
				slog.String("error", readErr.Error()))
			continue
		}
		entries = append(entries, Entry{Item: item, Path: path})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Item.CapturedAt.Before(entries[j].Item.CapturedAt)
	})
	return entries, nil
}

// Accept files a pending item into its suggested domain and deletes the
// pending file. The write happens before the delete; a crash in between
// leaves a duplicate, and a re-run re-derives the same slug and overwrites.
func (in *Inbox) Accept(entry *Entry) (string, error) {
	domain := entry.Item.SuggestedDomain
	unit := entry.Item.ToKnowledgeUnit(domain)

	dest, err := in.store.WriteUnit(&unit, SlugFromBody(entry.Item.Body)+".md")
	if err != nil {
		return "", err
	}
	if err := os.Remove(entry.Path); err != nil {
		return "", fmt.Errorf("inbox: remove pending file %s: %w", entry.Path, err)
	}
	return dest, nil
}

// Reject deletes the pending file. No other side effect.
func (in *Inbox) Reject(entry *Entry) error {
	if err := os.Remove(entry.Path); err != nil {
		return fmt.Errorf("inbox: remove rejected file %s: %w", entry.Path, err)
	}
	return nil
}

// AcceptByIndices accepts items by 1-based positions into a fresh List
// snapshot, in the order given. The whole batch is validated first: an
// out-of-range or duplicate index fails before anything is accepted.
func (in *Inbox) AcceptByIndices(indices []int) ([]string, error) {
	entries, err := in.List()
	if err != nil {
		return nil, err
	}
	seen := make(map[int]struct{}, len(indices))
	for _, idx := range indices {
		if idx < 1 || idx > len(entries) {
			return nil, &apperr.IndexOutOfRangeError{Index: idx, Count: len(entries)}
		}
		if _, dup := seen[idx]; dup {
			return nil, fmt.Errorf("inbox: duplicate index %d in accept batch", idx)
		}
		seen[idx] = struct{}{}
	}

	accepted := make([]string, 0, len(indices))
	for _, idx := range indices {
		dest, err := in.Accept(&entries[idx-1])
		if err != nil {
			return accepted, err
		}
		accepted = append(accepted, dest)
	}
	return accepted, nil
}

// RejectByIndices rejects items by 1-based positions into a fresh List
// snapshot. Indices are deduplicated and processed descending so deletions
// never shift the positions of entries still to be rejected.
func (in *Inbox) RejectByIndices(indices []int) error {
	entries, err := in.List()
	if err != nil {
		return err
	}

	sorted := append([]int(nil), indices...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	deduped := sorted[:0]
	prev := -1
	for _, idx := range sorted {
		if idx == prev {
			continue
		}
		deduped = append(deduped, idx)
		prev = idx
	}

	for _, idx := range deduped {
		if idx < 1 || idx > len(entries) {
			return &apperr.IndexOutOfRangeError{Index: idx, Count: len(entries)}
		}
	}
	for _, idx := range deduped {
		if err := in.Reject(&entries[idx-1]); err != nil {
			return err
		}
	}
	return nil
}

// SeenSince reports whether a pending item with the given source URL was
// captured at or after the cutoff. Implements the capture pipeline's dedup
// lookup.
func (in *Inbox) SeenSince(url string, cutoff time.Time) (bool, error) {
	entries, err := in.List()
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.Item.Source == url && !e.Item.CapturedAt.Before(cutoff) {
			return true, nil
		}
	}
	return false, nil
}

// pendingFilename names a pending file by timestamp plus an 8-character id
// prefix so directory listings sort chronologically.
func pendingFilename(item *models.InboxItem) string {
	shortID := item.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	return item.CapturedAt.Format(timestampLayout) + "-" + shortID + ".md"
}

func readPendingFile(path string) (models.InboxItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.InboxItem{}, fmt.Errorf("inbox: read %s: %w", path, err)
	}
	item := models.InboxItem{Confidence: models.DefaultItemConfidence}
	body, err := frontmatter.Parse(string(data), path, &item)
	if err != nil {
		return models.InboxItem{}, err
	}
	item.Body = body
	if err := item.Validate(); err != nil {
		return models.InboxItem{}, &apperr.InvalidFrontmatterError{Label: path, Err: err}
	}
	return item, nil
}

// SlugFromBody derives a filesystem slug from the first line of a body:
// at most 60 source characters, lowercased, non-alphanumeric runs collapsed
// to a single hyphen, trimmed. An empty result falls back to a
// timestamp-based name.
func SlugFromBody(body string) string {
	first := body
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	runes := []rune(first)
	if len(runes) > slugMaxChars {
		runes = runes[:slugMaxChars]
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(unicode.ToLower(r))
		} else {
			pendingHyphen = true
		}
	}

	slug := b.String()
	if slug == "" {
		return "item-" + time.Now().UTC().Format(timestampLayout)
	}
	return slug
}
