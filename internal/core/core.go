// Package core defines the domain types, error taxonomy, and capability
// interfaces shared by the news-to-speech pipeline components.
package core

import (
	"context"
	"time"
)

// Headline is one entry on the news listing page: a title and the absolute
// URL of the article behind it.
type Headline struct {
	Title string
	URL   string
}

// Article is the extracted content of one news column. It is produced by the
// extractor, immutable once built, and discarded after persistence. URL is the
// unique key.
type Article struct {
	Title       string
	Author      string
	URL         string
	Body        string
	PublishedAt time.Time
}

// AudioChunk is a bounded-length slice of an article body sized to fit a
// single TTS API call. Index is 1-based and drives output file ordering.
type AudioChunk struct {
	ArticleTitle string
	Index        int
	Text         string
}

// AudioArtifact describes one audio file written by the persister.
// Duration is unknown at creation time; the persister probes it after the
// file is on disk and leaves it zero when the probe is not possible.
type AudioArtifact struct {
	Path      string
	SourceURL string
	Date      string
	Size      int64
	Duration  time.Duration
}

// MetadataRecord is one append-only entry in the per-run JSON sidecar,
// mapping an article to one produced audio file.
type MetadataRecord struct {
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	AudioFile       string  `json:"audio_file"`
	SourceURL       string  `json:"original_url"`
	Date            string  `json:"date"`
	RunID           string  `json:"run_id"`
	ChunkIndex      int     `json:"chunk_index"`
	FileSizeBytes   int64   `json:"file_size"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
}

// ListingFetcher retrieves the ordered, deduplicated set of headlines from
// the configured listing page.
type ListingFetcher interface {
	FetchListing(ctx context.Context) ([]Headline, error)
}

// ArticleExtractor turns one headline into a full Article by fetching and
// parsing the article page.
type ArticleExtractor interface {
	ExtractArticle(ctx context.Context, headline Headline) (Article, error)
}

// SpeechSynthesizer converts one text chunk into binary audio. One
// implementing variant exists per TTS provider, selected at configuration
// time.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)

	// FileExtension reports the extension of the audio container the
	// provider returns, without the leading dot (e.g. "mp3").
	FileExtension() string
}

// ArtifactStore persists audio binaries and their metadata records.
type ArtifactStore interface {
	SaveAudio(name string, data []byte) (AudioArtifact, error)
	AppendRecord(date string, record MetadataRecord) error

	// WritePlaylist writes the M3U playlist for a run date. The names are
	// audio file names relative to the output directory, in playback order.
	WritePlaylist(date string, names []string) error
}
