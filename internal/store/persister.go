// Package store persists audio artifacts and their metadata sidecar under
// the configured output directory.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/book-expert/logger"
	"github.com/tcolgate/mp3"

	"github.com/Jukowsky/newsTTS/internal/core"
)

// File and directory permissions.
const (
	filePermissions = 0o600
	dirPermissions  = 0o750
)

// Filename layout: <run-date>_<article-ordinal>_<chunk-index>_<slug>.<ext>.
const (
	audioFileNameFormat  = "%s_%d_%02d_%s.%s"
	metadataFileFormat   = "metadata_%s.json"
	playlistFileFormat   = "playlist_%s.m3u"
	playlistHeader       = "#EXTM3U"
	slugMaxRunes         = 30
	slugFallback         = "untitled"
	slugSpaceReplacement = '_'
)

// ErrArtifactExists is returned when an audio file with the generated name
// is already on disk. Filenames are unique within a run, so this indicates
// a naming collision across runs on the same day.
var ErrArtifactExists = errors.New("audio artifact already exists")

// Persister writes audio binaries create-only and appends metadata records
// to the per-run JSON sidecar.
type Persister struct {
	outputDir string
	log       *logger.Logger
}

// NewPersister creates a persister rooted at outputDir, creating the
// directory if needed.
func NewPersister(outputDir string, log *logger.Logger) (*Persister, error) {
	err := os.MkdirAll(outputDir, dirPermissions)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create output directory %s: %v", core.ErrStorage, outputDir, err)
	}

	return &Persister{
		outputDir: outputDir,
		log:       log,
	}, nil
}

// SaveAudio writes the audio bytes to name inside the output directory,
// create-only, and returns the artifact with its path, size, and (for MP3)
// probed duration filled in. The caller supplies source URL and date.
func (p *Persister) SaveAudio(name string, data []byte) (core.AudioArtifact, error) {
	path := filepath.Join(p.outputDir, name)

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePermissions)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return core.AudioArtifact{}, fmt.Errorf("%w: %s: %w", core.ErrStorage, path, ErrArtifactExists)
		}

		return core.AudioArtifact{}, fmt.Errorf("%w: failed to create %s: %v", core.ErrStorage, path, err)
	}

	_, writeErr := file.Write(data)
	closeErr := file.Close()

	if writeErr != nil {
		return core.AudioArtifact{}, fmt.Errorf("%w: failed to write %s: %v", core.ErrStorage, path, writeErr)
	}

	if closeErr != nil {
		return core.AudioArtifact{}, fmt.Errorf("%w: failed to close %s: %v", core.ErrStorage, path, closeErr)
	}

	artifact := core.AudioArtifact{
		Path:      path,
		SourceURL: "",
		Date:      "",
		Size:      int64(len(data)),
		Duration:  0,
	}

	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		artifact.Duration = probeMP3Duration(data)
	}

	p.log.Info("Saved audio: %s (%d bytes)", path, len(data))

	return artifact, nil
}

// AppendRecord appends one record to the metadata sidecar for the given run
// date, rewriting the whole JSON array. The volume is a handful of records
// per day, so read-modify-write is acceptable. Any failure here is a storage
// error the orchestrator treats as fatal: metadata integrity takes priority
// over finishing the run.
func (p *Persister) AppendRecord(date string, record core.MetadataRecord) error {
	path := p.MetadataPath(date)

	records, err := readRecords(path)
	if err != nil {
		return err
	}

	records = append(records, record)

	encoded, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to marshal metadata: %v", core.ErrStorage, err)
	}

	err = os.WriteFile(path, encoded, filePermissions)
	if err != nil {
		return fmt.Errorf("%w: failed to write metadata file %s: %v", core.ErrStorage, path, err)
	}

	return nil
}

// MetadataPath returns the sidecar path for a run date (yyyymmdd).
func (p *Persister) MetadataPath(date string) string {
	return filepath.Join(p.outputDir, fmt.Sprintf(metadataFileFormat, date))
}

// WritePlaylist writes the M3U playlist for a run date. Entries reference the
// audio files by name, so the playlist plays from inside the output directory.
// An empty run leaves no playlist behind.
func (p *Persister) WritePlaylist(date string, names []string) error {
	if len(names) == 0 {
		return nil
	}

	var builder strings.Builder

	builder.WriteString(playlistHeader + "\n")

	for _, name := range names {
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		builder.WriteString(fmt.Sprintf("#EXTINF:-1,%s\n%s\n", stem, name))
	}

	path := p.PlaylistPath(date)

	err := os.WriteFile(path, []byte(builder.String()), filePermissions)
	if err != nil {
		return fmt.Errorf("%w: failed to write playlist %s: %v", core.ErrStorage, path, err)
	}

	p.log.Info("Wrote playlist: %s (%d entries)", path, len(names))

	return nil
}

// PlaylistPath returns the playlist path for a run date (yyyymmdd).
func (p *Persister) PlaylistPath(date string) string {
	return filepath.Join(p.outputDir, fmt.Sprintf(playlistFileFormat, date))
}

func readRecords(path string) ([]core.MetadataRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: failed to read metadata file %s: %v", core.ErrStorage, path, err)
	}

	var records []core.MetadataRecord

	err = json.Unmarshal(raw, &records)
	if err != nil {
		return nil, fmt.Errorf("%w: metadata file %s is corrupt: %v", core.ErrStorage, path, err)
	}

	return records, nil
}

// AudioFileName builds the deterministic artifact name for one chunk:
// run date, 1-based article ordinal, 1-based chunk index, sanitized title.
func AudioFileName(runDate string, articleOrdinal, chunkIndex int, title, ext string) string {
	return fmt.Sprintf(audioFileNameFormat, runDate, articleOrdinal, chunkIndex, Slug(title), ext)
}

// Slug sanitizes a title for use in a filename: keep letters, digits,
// spaces, dashes, and underscores, turn spaces into underscores, and cap the
// length. Everything else is dropped.
func Slug(title string) string {
	var builder strings.Builder

	for _, r := range title {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			builder.WriteRune(r)
		case r == ' ':
			builder.WriteRune(slugSpaceReplacement)
		}
	}

	slug := builder.String()

	runes := []rune(slug)
	if len(runes) > slugMaxRunes {
		slug = string(runes[:slugMaxRunes])
	}

	slug = strings.Trim(slug, "_")
	if slug == "" {
		return slugFallback
	}

	return slug
}

// probeMP3Duration walks the MPEG frames and sums their durations. A probe
// failure is not an error; the duration is simply left at zero.
func probeMP3Duration(data []byte) time.Duration {
	decoder := mp3.NewDecoder(bytes.NewReader(data))

	var (
		frame   mp3.Frame
		skipped int
		total   time.Duration
	)

	for {
		err := decoder.Decode(&frame, &skipped)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return total
			}

			return 0
		}

		total += frame.Duration()
	}
}
