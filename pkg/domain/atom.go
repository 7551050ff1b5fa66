package domain

import "github.com/atomledger/provenance-engine/pkg/textproc"

// ExperienceAtom is a verified, tagged claim about a person's experience.
// The core never mutates an atom in place; a change is a full replacement
// under the same AtomId via Repository.Upsert.
type ExperienceAtom struct {
	AtomId       AtomId   `json:"atom_id"`
	Domain       string   `json:"domain"`
	Title        string   `json:"title"`
	Claim        string   `json:"claim"`
	Tags         []string `json:"tags"`
	Verified     bool     `json:"verified"`
	EvidenceRefs []string `json:"evidence_refs"`
}

// Normalized returns a copy of the atom with Domain lowercased and Tags
// lowercased, deduplicated, and lexicographically sorted, per spec.md §3.
func (a ExperienceAtom) Normalized() ExperienceAtom {
	out := a
	out.Domain = string(lowerASCII(a.Domain))
	out.Tags = textproc.NormalizeTags(a.Tags)
	return out
}

// TokenSet returns the atom's lowercased, deduplicated token set built from
// claim, title, and tags — the set matched against requirement tokens.
func (a ExperienceAtom) TokenSet() []string {
	return textproc.TokenSet([]string{a.Claim, a.Title}, a.Tags)
}

// CanonicalText is the deterministic string used for hashing and embedding:
// title, claim, and tags joined by single spaces.
func (a ExperienceAtom) CanonicalText() string {
	text := a.Title + " " + a.Claim
	for _, tag := range a.Tags {
		text += " " + tag
	}
	return text
}

func lowerASCII(s string) string {
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch >= 'A' && ch <= 'Z' {
			ch += 32
		}
		b[i] = ch
	}
	return string(b)
}
