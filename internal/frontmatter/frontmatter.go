// Package frontmatter converts between structured records and their
// markdown-with-YAML-header text form.
//
// The encoding is exact and round-trip preserving:
//
//	---
//	<YAML fields>
//	---
//
//	<body>
//
// Parsing scans for the closing fence line-by-line in the header region
// only, so a `---` horizontal rule inside the body is inert.
package frontmatter

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/halvard/muninn/internal/apperr"
)

// Parse splits input into a YAML header and a body, decodes the header into
// dst, and returns the body. label identifies the document in errors.
//
// dst may be pre-seeded with defaults; keys absent from the header leave the
// corresponding fields untouched. The codec itself applies no defaults.
func Parse(input, label string, dst any) (string, error) {
	yamlBlock, body, err := split(input, label)
	if err != nil {
		return "", err
	}
	if err := yaml.Unmarshal([]byte(yamlBlock), dst); err != nil {
		return "", &apperr.InvalidFrontmatterError{Label: label, Err: err}
	}
	return body, nil
}

// Serialize renders fields as a YAML header followed by body. The body is
// normalized to end with a newline; an empty body produces no body section.
func Serialize(fields any, body string) (string, error) {
	y, err := yaml.Marshal(fields)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(y)
	b.WriteString("---\n")

	if body != "" {
		b.WriteByte('\n')
		b.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

// split separates the YAML header from the body. The input must start with
// `---` (leading whitespace tolerated); the header ends at the first
// subsequent line that starts with `---` measured from the start of a line.
func split(input, label string) (yamlBlock, body string, err error) {
	trimmed := strings.TrimLeft(input, " \t\r\n")
	if !strings.HasPrefix(trimmed, "---") {
		return "", "", &apperr.MissingFrontmatterError{Label: label}
	}

	// Skip the rest of the opening fence line.
	rest := trimmed[3:]
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return "", "", &apperr.MissingFrontmatterError{Label: label}
	}
	afterOpening := rest[nl+1:]

	fence := closingFence(afterOpening)
	if fence < 0 {
		return "", "", &apperr.MissingFrontmatterError{Label: label}
	}

	yamlBlock = afterOpening[:fence]
	afterClosing := afterOpening[fence:]

	// Body starts after the closing fence line, minus any leading blank lines.
	if i := strings.IndexByte(afterClosing, '\n'); i >= 0 {
		body = strings.TrimLeft(afterClosing[i+1:], "\n")
	}
	return yamlBlock, body, nil
}

// closingFence returns the byte offset of the first line starting with `---`,
// or -1 if none exists. Offsets are measured from the start of content.
func closingFence(content string) int {
	offset := 0
	for offset <= len(content) {
		line := content[offset:]
		end := strings.IndexByte(line, '\n')
		if end >= 0 {
			line = line[:end]
		}
		if strings.HasPrefix(line, "---") {
			return offset
		}
		if end < 0 {
			return -1
		}
		offset += end + 1
	}
	return -1
}
