package rules

import (
	"fmt"
	"strings"

	"github.com/atomledger/provenance-engine/pkg/textproc"
	"github.com/atomledger/provenance-engine/pkg/validation"
)

// Tok001 is Block/TokenIR: the IR's declared source hash must match the
// canonical resume hash it claims to have been derived from.
func Tok001() validation.Rule {
	return validation.Rule{
		Id:          "TOK-001",
		Version:     "1.0",
		Description: "token IR source_hash must match the canonical resume hash",
		Evaluate: func(envelope validation.ArtifactEnvelope, ctx validation.Context) []validation.Finding {
			view := envelope.Artifact.TokenIR
			if view == nil || view.IR == nil {
				return nil
			}
			if view.IR.SourceHash != view.CanonicalResumeHash {
				return []validation.Finding{block("TOK-001", fmt.Sprintf("source_hash %q != canonical_resume_hash %q", view.IR.SourceHash, view.CanonicalResumeHash))}
			}
			return nil
		},
	}
}

func isValidTokenChar(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

// Tok002 is Fail/TokenIR: every token must be at least 2 chars and contain
// only [a-z0-9].
func Tok002() validation.Rule {
	return validation.Rule{
		Id:          "TOK-002",
		Version:     "1.0",
		Description: "tokens must be lowercase alphanumeric, length >= 2",
		Evaluate: func(envelope validation.ArtifactEnvelope, ctx validation.Context) []validation.Finding {
			view := envelope.Artifact.TokenIR
			if view == nil || view.IR == nil {
				return nil
			}
			var findings []validation.Finding
			for category, tokens := range view.IR.Tokens {
				for _, tok := range tokens {
					if len(tok) < textproc.MinTokenLen {
						findings = append(findings, fail("TOK-002", fmt.Sprintf("token %q in %q shorter than %d chars", tok, category, textproc.MinTokenLen)))
						continue
					}
					for i := 0; i < len(tok); i++ {
						if !isValidTokenChar(tok[i]) {
							findings = append(findings, fail("TOK-002", fmt.Sprintf("token %q in %q contains invalid char %q", tok, category, string(tok[i]))))
							break
						}
					}
				}
			}
			return findings
		},
	}
}

// Tok003 is Fail/TokenIR: every span must be a valid, ordered line range
// within the canonical text, when the text is available.
func Tok003() validation.Rule {
	return validation.Rule{
		Id:          "TOK-003",
		Version:     "1.0",
		Description: "spans must be valid line ranges",
		Evaluate: func(envelope validation.ArtifactEnvelope, ctx validation.Context) []validation.Finding {
			view := envelope.Artifact.TokenIR
			if view == nil || view.IR == nil {
				return nil
			}
			lineCount := -1
			if view.CanonicalResumeText != "" {
				lineCount = strings.Count(view.CanonicalResumeText, "\n") + 1
			}
			var findings []validation.Finding
			for _, span := range view.IR.Spans {
				switch {
				case span.StartLine < 1:
					findings = append(findings, fail("TOK-003", fmt.Sprintf("span start_line %d < 1", span.StartLine)))
				case span.EndLine < 1:
					findings = append(findings, fail("TOK-003", fmt.Sprintf("span end_line %d < 1", span.EndLine)))
				case span.StartLine > span.EndLine:
					findings = append(findings, fail("TOK-003", fmt.Sprintf("span start_line %d > end_line %d", span.StartLine, span.EndLine)))
				case lineCount >= 0 && span.EndLine > lineCount:
					findings = append(findings, fail("TOK-003", fmt.Sprintf("span end_line %d exceeds line_count %d", span.EndLine, lineCount)))
				}
			}
			return findings
		},
	}
}

// Tok004 is Fail/TokenIR: every token must be derivable from tokenizing the
// canonical text (a token the tokenizer could not have produced is a
// hallucination).
func Tok004() validation.Rule {
	return validation.Rule{
		Id:          "TOK-004",
		Version:     "1.0",
		Description: "tokens must be derivable from the canonical text",
		Evaluate: func(envelope validation.ArtifactEnvelope, ctx validation.Context) []validation.Finding {
			view := envelope.Artifact.TokenIR
			if view == nil || view.IR == nil || view.CanonicalResumeText == "" {
				return nil
			}
			derivable := make(map[string]bool)
			for _, tok := range textproc.TokenizeDefault(view.CanonicalResumeText) {
				derivable[tok] = true
			}
			var findings []validation.Finding
			for category, tokens := range view.IR.Tokens {
				for _, tok := range tokens {
					if !derivable[tok] {
						findings = append(findings, fail("TOK-004", fmt.Sprintf("token %q in %q not derivable from canonical text", tok, category)))
					}
				}
			}
			return findings
		},
	}
}

const (
	maxTokensPerCategory = 200
	maxTokensTotal        = 500
)

// Tok005 is Warn/TokenIR: flags categories over 200 tokens or a total over
// 500 tokens.
func Tok005() validation.Rule {
	return validation.Rule{
		Id:          "TOK-005",
		Version:     "1.0",
		Description: "token volume within expected bounds",
		Evaluate: func(envelope validation.ArtifactEnvelope, ctx validation.Context) []validation.Finding {
			view := envelope.Artifact.TokenIR
			if view == nil || view.IR == nil {
				return nil
			}
			var findings []validation.Finding
			total := 0
			for category, tokens := range view.IR.Tokens {
				total += len(tokens)
				if len(tokens) > maxTokensPerCategory {
					findings = append(findings, warn("TOK-005", fmt.Sprintf("category %q has %d tokens, exceeds %d", category, len(tokens), maxTokensPerCategory)))
				}
			}
			if total > maxTokensTotal {
				findings = append(findings, warn("TOK-005", fmt.Sprintf("total token count %d exceeds %d", total, maxTokensTotal)))
			}
			return findings
		},
	}
}
