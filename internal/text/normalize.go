// Package text prepares article bodies for speech synthesis: normalization
// of typographic noise and sentence-aware chunking to the TTS size ceiling.
package text

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Typographic characters normalized before synthesis. TTS engines handle
// plain ASCII punctuation more reliably than their typographic variants.
const (
	emDash       = "—"
	enDash       = "–"
	figureDash   = "‒"
	ellipsis     = "..."
	ellipsisChar = "…"
)

const whitespacePattern = `\s+`

// Normalizer cleans up article text before it is chunked. The cleanup is
// deliberately light: whitespace collapse, typographic punctuation, and a
// guaranteed sentence-ending terminator.
type Normalizer struct {
	whitespace  *regexp.Regexp
	punctuation *strings.Replacer
}

// NewNormalizer creates a normalizer with its patterns precompiled.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		whitespace: regexp.MustCompile(whitespacePattern),
		punctuation: strings.NewReplacer(
			emDash, "-",
			enDash, "-",
			figureDash, "-",
			ellipsisChar, ellipsis,
			"“", `"`, "”", `"`,
			"‘", "'", "’", "'",
		),
	}
}

// Normalize collapses runs of whitespace into single spaces, replaces smart
// quotes, dashes, and ellipses with their ASCII forms, and ensures the text
// ends with sentence-ending punctuation so the final sentence is not read
// with a hanging intonation.
func (n *Normalizer) Normalize(text string) string {
	if text == "" {
		return text
	}

	cleaned := n.whitespace.ReplaceAllString(text, " ")
	cleaned = n.punctuation.Replace(cleaned)

	return ensureSentenceEnding(strings.TrimSpace(cleaned))
}

func ensureSentenceEnding(text string) string {
	if text == "" {
		return ""
	}

	lastRune, _ := utf8.DecodeLastRuneInString(text)

	switch lastRune {
	case '.', '!', '?':
		return text
	default:
		return text + "."
	}
}
