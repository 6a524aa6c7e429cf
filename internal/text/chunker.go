package text

import (
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/sentences"

	"github.com/Jukowsky/newsTTS/internal/core"
)

// DefaultCeiling is the chunk size limit used when no override is configured.
// It matches the character limit of a single TTS API call.
const DefaultCeiling = 4096

// Split divides body into chunks of at most ceiling characters (runes),
// breaking only at UAX #29 sentence boundaries: sentences accumulate until
// the next one would exceed the ceiling, then a chunk is emitted. A single
// sentence longer than the ceiling is hard-split at the ceiling.
//
// Split is a pure function of its inputs. Sentence segments keep their
// trailing whitespace, so concatenating the returned chunks reconstructs
// body exactly.
func Split(body string, ceiling int) []string {
	if body == "" || ceiling < 1 {
		return nil
	}

	var (
		chunks  []string
		current string
		count   int
	)

	flush := func() {
		if current != "" {
			chunks = append(chunks, current)
			current = ""
			count = 0
		}
	}

	segments := sentences.FromString(body)
	for segments.Next() {
		sentence := segments.Value()

		length := utf8.RuneCountInString(sentence)
		if length > ceiling {
			flush()

			chunks = append(chunks, hardSplit(sentence, ceiling)...)

			continue
		}

		if count+length > ceiling {
			flush()
		}

		current += sentence
		count += length
	}

	flush()

	return chunks
}

// Chunks runs Split and wraps the result in ordered core.AudioChunk values
// with 1-based indexes.
func Chunks(articleTitle, body string, ceiling int) []core.AudioChunk {
	parts := Split(body, ceiling)

	chunks := make([]core.AudioChunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, core.AudioChunk{
			ArticleTitle: articleTitle,
			Index:        i + 1,
			Text:         part,
		})
	}

	return chunks
}

// hardSplit cuts an oversized sentence into ceiling-sized pieces at rune
// boundaries. Only reached when a single sentence exceeds the ceiling, which
// real prose rarely does.
func hardSplit(sentence string, ceiling int) []string {
	var pieces []string

	runes := []rune(sentence)
	for start := 0; start < len(runes); start += ceiling {
		end := start + ceiling
		if end > len(runes) {
			end = len(runes)
		}

		pieces = append(pieces, string(runes[start:end]))
	}

	return pieces
}
