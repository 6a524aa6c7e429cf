// Package pipeline wires the scrape, chunk, synthesize, and persist stages
// into one linear run, and schedules recurring runs in daemon mode.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/logger"
	"github.com/google/uuid"

	"github.com/Jukowsky/newsTTS/internal/core"
	"github.com/Jukowsky/newsTTS/internal/store"
	"github.com/Jukowsky/newsTTS/internal/text"
)

// Date layouts used in filenames and metadata records.
const (
	fileDateLayout   = "20060102"
	recordDateLayout = "2006-01-02"
)

// Summary reports what one run accomplished. Per-item failures are counted
// here rather than aborting the run.
type Summary struct {
	RunID          string
	Articles       int
	ArticlesFailed int
	Chunks         int
	Synthesized    int
	Persisted      int
	Failures       int
}

// Pipeline sequences one full run: fetch listing, then per article extract,
// normalize, chunk, and per chunk synthesize and persist. It holds no state
// between runs.
type Pipeline struct {
	fetcher      core.ListingFetcher
	extractor    core.ArticleExtractor
	synthesizer  core.SpeechSynthesizer
	artifacts    core.ArtifactStore
	normalizer   *text.Normalizer
	chunkCeiling int
	articleDelay time.Duration
	log          *logger.Logger
	now          func() time.Time
}

// New creates a pipeline over the given stage implementations.
func New(
	fetcher core.ListingFetcher,
	extractor core.ArticleExtractor,
	synthesizer core.SpeechSynthesizer,
	artifacts core.ArtifactStore,
	chunkCeiling int,
	articleDelay time.Duration,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		fetcher:      fetcher,
		extractor:    extractor,
		synthesizer:  synthesizer,
		artifacts:    artifacts,
		normalizer:   text.NewNormalizer(),
		chunkCeiling: chunkCeiling,
		articleDelay: articleDelay,
		log:          log,
		now:          time.Now,
	}
}

// Run executes one full pipeline pass. Listing-level failures, credential
// rejections, and metadata-write failures are fatal and returned; per-article
// and per-chunk failures are logged with enough context to diagnose, counted
// in the summary, and skipped.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	summary := Summary{
		RunID:          uuid.NewString(),
		Articles:       0,
		ArticlesFailed: 0,
		Chunks:         0,
		Synthesized:    0,
		Persisted:      0,
		Failures:       0,
	}

	p.log.Info("Run %s starting", summary.RunID)

	headlines, err := p.fetcher.FetchListing(ctx)
	if err != nil {
		return summary, fmt.Errorf("listing fetch failed: %w", err)
	}

	p.log.Info("Found %d headlines", len(headlines))

	var playlist []string

	for ordinal, headline := range headlines {
		if ordinal > 0 {
			waitErr := p.waitBetweenArticles(ctx)
			if waitErr != nil {
				return summary, waitErr
			}
		}

		articleErr := p.processArticle(ctx, ordinal+1, headline, &summary, &playlist)
		if articleErr != nil {
			return summary, articleErr
		}
	}

	p.writePlaylist(playlist, &summary)

	p.log.System(
		"Run %s done: %d articles (%d failed), %d chunks, %d synthesized, %d persisted, %d failures",
		summary.RunID, summary.Articles, summary.ArticlesFailed,
		summary.Chunks, summary.Synthesized, summary.Persisted, summary.Failures,
	)

	return summary, nil
}

// processArticle handles one headline end to end. A non-nil return is fatal
// for the whole run; per-article failures are recorded and swallowed.
func (p *Pipeline) processArticle(
	ctx context.Context,
	ordinal int,
	headline core.Headline,
	summary *Summary,
	playlist *[]string,
) error {
	article, err := p.extractor.ExtractArticle(ctx, headline)
	if err != nil {
		p.log.Error("Skipping article %s: %v", headline.URL, err)

		summary.ArticlesFailed++
		summary.Failures++

		return nil
	}

	summary.Articles++

	body := p.normalizer.Normalize(article.Body)
	chunks := text.Chunks(article.Title, body, p.chunkCeiling)
	summary.Chunks += len(chunks)

	p.log.Info("Article %d %q: %d chunks", ordinal, article.Title, len(chunks))

	for _, chunk := range chunks {
		err = p.processChunk(ctx, ordinal, article, chunk, summary, playlist)
		if err != nil {
			return err
		}
	}

	return nil
}

// processChunk synthesizes and persists one chunk. Credential rejections and
// metadata-write failures are fatal; everything else is recorded and skipped.
func (p *Pipeline) processChunk(
	ctx context.Context,
	ordinal int,
	article core.Article,
	chunk core.AudioChunk,
	summary *Summary,
	playlist *[]string,
) error {
	audio, err := p.synthesizer.Synthesize(ctx, chunk.Text)
	if err != nil {
		if errors.Is(err, core.ErrConfig) {
			return fmt.Errorf("aborting run: %w", err)
		}

		p.log.Error("Skipping chunk %d of %q: %v", chunk.Index, article.Title, err)

		summary.Failures++

		return nil
	}

	summary.Synthesized++

	runDate := p.now().Format(fileDateLayout)
	name := store.AudioFileName(runDate, ordinal, chunk.Index, article.Title, p.synthesizer.FileExtension())

	artifact, err := p.artifacts.SaveAudio(name, audio)
	if err != nil {
		p.log.Error("Failed to persist chunk %d of %q: %v", chunk.Index, article.Title, err)

		summary.Failures++

		return nil
	}

	record := core.MetadataRecord{
		Title:           article.Title,
		Author:          article.Author,
		AudioFile:       artifact.Path,
		SourceURL:       article.URL,
		Date:            article.PublishedAt.Format(recordDateLayout),
		RunID:           summary.RunID,
		ChunkIndex:      chunk.Index,
		FileSizeBytes:   artifact.Size,
		DurationSeconds: artifact.Duration.Seconds(),
	}

	err = p.artifacts.AppendRecord(runDate, record)
	if err != nil {
		// Metadata integrity takes priority over finishing the run.
		return fmt.Errorf("aborting run: %w", err)
	}

	summary.Persisted++
	*playlist = append(*playlist, name)

	return nil
}

// writePlaylist records the run's audio files in playback order: article
// ordinal first, then chunk index. A playlist failure does not undo a
// completed run; it is counted and logged.
func (p *Pipeline) writePlaylist(names []string, summary *Summary) {
	if len(names) == 0 {
		return
	}

	err := p.artifacts.WritePlaylist(p.now().Format(fileDateLayout), names)
	if err != nil {
		p.log.Error("Failed to write playlist: %v", err)

		summary.Failures++
	}
}

// waitBetweenArticles honors the configured politeness delay between article
// fetches, returning early when the run is cancelled.
func (p *Pipeline) waitBetweenArticles(ctx context.Context) error {
	if p.articleDelay <= 0 {
		return nil
	}

	timer := time.NewTimer(p.articleDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("run cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
