// Package capture decides whether ambient input is worth staging and turns
// accepted input into inbox candidates.
package capture

import (
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DedupWindow is how far back the dedup stage looks for an identical
// pending source URL.
const DedupWindow = 24 * time.Hour

const (
	minLength        = 20
	entropyThreshold = 4.5
	bracketThreshold = 0.1
)

var urlRe = regexp.MustCompile("https?://[^\\s<>\"{}|\\\\^`\\[\\]]+")

var codePrefixes = []string{
	"fn ", "def ", "class ", "import ", "const ", "let ", "var ", "function ",
}

// Config controls the capture pipeline and the clipboard monitor.
type Config struct {
	Enabled        bool     `yaml:"enabled"`
	CaptureURLs    bool     `yaml:"capture_urls"`
	CaptureText    bool     `yaml:"capture_text"`
	PollIntervalMS int      `yaml:"poll_interval_ms"`
	IgnoreDomains  []string `yaml:"ignore_domains"`
}

// DefaultConfig returns the capture defaults. Loading brain.yaml over this
// value means absent keys keep their defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		CaptureURLs:    true,
		CaptureText:    false,
		PollIntervalMS: 500,
		IgnoreDomains:  []string{"localhost", "mail.google.com", "accounts.google.com"},
	}
}

// Validate checks the capture configuration.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.PollIntervalMS, validation.Required, validation.Min(50)),
	)
}

// PollInterval returns the poll interval as a duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// DedupLookup answers whether a source URL is already pending at or after a
// cutoff time. The inbox implements it.
type DedupLookup interface {
	SeenSince(url string, cutoff time.Time) (bool, error)
}

// Evaluate runs the ordered filter chain over raw text. It returns the first
// extracted URL and true when every stage passes, or false as soon as one
// stage rejects. All stages re-run in full for each candidate.
func Evaluate(text string, cfg Config, dedup DedupLookup) (string, bool, error) {
	return evaluateAt(text, cfg, dedup, time.Now().UTC())
}

// evaluateAt is Evaluate with an injectable clock for the dedup window.
func evaluateAt(text string, cfg Config, dedup DedupLookup, now time.Time) (string, bool, error) {
	if !lengthCheck(text) {
		slog.Debug("capture: dropped by length check")
		return "", false, nil
	}
	if !entropyCheck(text) {
		slog.Debug("capture: dropped by entropy check")
		return "", false, nil
	}
	if !codeCheck(text) {
		slog.Debug("capture: dropped by code detection")
		return "", false, nil
	}

	url := ExtractURL(text)
	if url == "" {
		slog.Debug("capture: no url found")
		return "", false, nil
	}

	if !domainAllowed(url, cfg.IgnoreDomains) {
		slog.Debug("capture: dropped by domain filter", slog.String("url", url))
		return "", false, nil
	}

	seen, err := dedup.SeenSince(url, now.Add(-DedupWindow))
	if err != nil {
		return "", false, err
	}
	if seen {
		slog.Debug("capture: dropped as duplicate", slog.String("url", url))
		return "", false, nil
	}

	return url, true, nil
}

// TextWorthKeeping runs only the content stages (length, entropy, code
// detection), for callers staging plain text rather than URLs.
func TextWorthKeeping(text string) bool {
	return lengthCheck(text) && entropyCheck(text) && codeCheck(text)
}

// lengthCheck drops text shorter than 20 characters.
func lengthCheck(text string) bool {
	return utf8.RuneCountInString(text) >= minLength
}

// entropyCheck drops no-whitespace text with Shannon entropy above 4.5.
// Natural language nearly always has spaces; high-entropy no-space strings
// are characteristic of tokens and secrets.
func entropyCheck(text string) bool {
	if strings.ContainsFunc(text, unicode.IsSpace) {
		return true
	}
	return ShannonEntropy(text) <= entropyThreshold
}

// ShannonEntropy computes -sum(p*log2(p)) over character frequencies.
func ShannonEntropy(text string) float64 {
	total := utf8.RuneCountInString(text)
	if total == 0 {
		return 0.0
	}

	freq := make(map[rune]int)
	for _, r := range text {
		freq[r]++
	}

	entropy := 0.0
	for _, count := range freq {
		p := float64(count) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// codeCheck drops text that looks like source code: lines starting with
// common code introducers, or bracket density above 10%.
func codeCheck(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		for _, prefix := range codePrefixes {
			if strings.HasPrefix(trimmed, prefix) {
				return false
			}
		}
	}

	total := utf8.RuneCountInString(text)
	if total == 0 {
		return true
	}
	brackets := 0
	for _, r := range text {
		switch r {
		case '{', '}', '[', ']', '(', ')':
			brackets++
		}
	}
	return float64(brackets)/float64(total) <= bracketThreshold
}

// ExtractURL returns the first http(s) URL in the text, or "".
func ExtractURL(text string) string {
	return urlRe.FindString(text)
}

// domainAllowed reports whether the URL's host is neither equal to nor a
// dot-suffixed subdomain of any ignore-list entry.
func domainAllowed(url string, ignore []string) bool {
	host := hostOf(url)
	if host == "" {
		return true
	}
	for _, d := range ignore {
		if host == d || strings.HasSuffix(host, "."+d) {
			return false
		}
	}
	return true
}

// hostOf extracts the host between the scheme and the first `/` or `:`.
func hostOf(url string) string {
	rest, ok := strings.CutPrefix(url, "https://")
	if !ok {
		rest, ok = strings.CutPrefix(url, "http://")
		if !ok {
			return ""
		}
	}
	host, _, _ := strings.Cut(rest, "/")
	host, _, _ = strings.Cut(host, ":")
	return host
}
