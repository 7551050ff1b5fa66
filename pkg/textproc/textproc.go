// Package textproc implements the ASCII-only, locale-independent text
// primitives that are the determinism substrate for matching: tokenize,
// normalize_tags, trim, and to_lower. These are the only text-processing
// primitives the matching and validation engines are permitted to use —
// anything locale-aware would break the byte-reproducibility requirement
// of spec.md §8.
package textproc

import "sort"

// MinTokenLen is the default minimum token length used by Tokenize.
const MinTokenLen = 2

// ToLower lowercases a single ASCII byte. Non-ASCII bytes pass through
// unchanged.
func ToLower(ch byte) byte {
	if ch >= 'A' && ch <= 'Z' {
		return ch + 32
	}
	return ch
}

// Tokenize lowercases s, maps every non-alphanumeric ASCII byte to a space,
// splits on runs of spaces, and drops tokens shorter than minLen. Token
// order is preserved (first occurrence order), not sorted.
func Tokenize(s string, minLen int) []string {
	normalized := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		ch := ToLower(s[i])
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			normalized[i] = ch
		} else {
			normalized[i] = ' '
		}
	}

	tokens := make([]string, 0, 8)
	start := -1
	for i := 0; i <= len(normalized); i++ {
		if i < len(normalized) && normalized[i] != ' ' {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			tok := string(normalized[start:i])
			if len(tok) >= minLen {
				tokens = append(tokens, tok)
			}
			start = -1
		}
	}
	return tokens
}

// TokenizeDefault tokenizes with the default minimum token length (2).
func TokenizeDefault(s string) []string {
	return Tokenize(s, MinTokenLen)
}

// NormalizeTags flattens each tag through Tokenize, then sorts and
// deduplicates the result ascending.
func NormalizeTags(tags []string) []string {
	all := make([]string, 0, len(tags))
	for _, t := range tags {
		all = append(all, TokenizeDefault(t)...)
	}
	return sortUnique(all)
}

// Trim strips leading/trailing space, tab, CR, and LF bytes.
func Trim(s string) string {
	start := 0
	for start < len(s) && isSpace(s[start]) {
		start++
	}
	end := len(s)
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

// sortUnique sorts ss ascending and removes consecutive duplicates.
func sortUnique(ss []string) []string {
	if len(ss) == 0 {
		return ss
	}
	sorted := make([]string, len(ss))
	copy(sorted, ss)
	sort.Strings(sorted)
	out := sorted[:1]
	for _, s := range sorted[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}

// TokenSet builds a deduplicated, sorted token set out of one or more
// strings and tag lists tokenized together — an atom's lowercased token
// set (claim + title + tags) or similar union.
func TokenSet(texts []string, tagLists ...[]string) []string {
	all := make([]string, 0, 16)
	for _, t := range texts {
		all = append(all, TokenizeDefault(t)...)
	}
	for _, tags := range tagLists {
		all = append(all, NormalizeTags(tags)...)
	}
	return sortUnique(all)
}

// Intersect returns the sorted, deduplicated intersection of two already
// sorted-unique token sets.
func Intersect(a, b []string) []string {
	out := make([]string, 0)
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}

// Union returns the sorted, deduplicated union of two already
// sorted-unique token sets.
func Union(a, b []string) []string {
	return sortUnique(append(append([]string{}, a...), b...))
}
