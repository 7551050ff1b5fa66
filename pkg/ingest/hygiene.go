// Package ingest turns raw resume bytes into a hygiene-normalized,
// content-hashed IngestedResume.
package ingest

import "strings"

// normalizeLineEndings maps CRLF and lone CR to LF.
func normalizeLineEndings(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		if text[i] == '\r' {
			b.WriteByte('\n')
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			continue
		}
		b.WriteByte(text[i])
	}
	return b.String()
}

// trimTrailingWhitespace strips trailing spaces/tabs from every line.
func trimTrailingWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

// collapseBlankLines allows at most 2 consecutive blank lines.
func collapseBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		if line == "" {
			blank++
			if blank <= 2 {
				out = append(out, line)
			}
			continue
		}
		blank = 0
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// normalizeHeadings sets the gap between an ATX heading's leading hashes
// and its text to exactly one space, without touching anything else.
func normalizeHeadings(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line == "" || line[0] != '#' {
			continue
		}
		hashEnd := 0
		for hashEnd < len(line) && line[hashEnd] == '#' {
			hashEnd++
		}
		if hashEnd == 0 || hashEnd >= len(line) {
			continue
		}
		rest := strings.TrimLeft(line[hashEnd:], " \t")
		if rest == "" {
			continue
		}
		lines[i] = line[:hashEnd] + " " + rest
	}
	return strings.Join(lines, "\n")
}

// ApplyHygiene runs the fixed normalization pipeline: line endings, then
// trailing-whitespace trim, then blank-line collapse, then heading spacing.
func ApplyHygiene(text string) string {
	text = normalizeLineEndings(text)
	text = trimTrailingWhitespace(text)
	text = collapseBlankLines(text)
	text = normalizeHeadings(text)
	return text
}
