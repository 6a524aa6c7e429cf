// Package store_test tests audio persistence and the metadata sidecar.
package store_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jukowsky/newsTTS/internal/core"
	"github.com/Jukowsky/newsTTS/internal/store"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	return log
}

func TestSaveAudioWritesCreateOnly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	persister, err := store.NewPersister(dir, newTestLogger(t))
	require.NoError(t, err)

	artifact, err := persister.SaveAudio("20260824_1_01_hello.mp3", []byte("audio-bytes"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "20260824_1_01_hello.mp3"), artifact.Path)
	assert.Equal(t, int64(len("audio-bytes")), artifact.Size)

	written, err := os.ReadFile(artifact.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("audio-bytes"), written)

	// A second write to the same name must not clobber the first.
	_, err = persister.SaveAudio("20260824_1_01_hello.mp3", []byte("other"))
	require.ErrorIs(t, err, core.ErrStorage)
	require.ErrorIs(t, err, store.ErrArtifactExists)
}

func TestSaveAudioUnprobeableDataHasZeroDuration(t *testing.T) {
	t.Parallel()

	persister, err := store.NewPersister(t.TempDir(), newTestLogger(t))
	require.NoError(t, err)

	// Not a valid MPEG stream; the duration probe must fail quietly.
	artifact, err := persister.SaveAudio("20260824_1_01_noise.mp3", []byte("not-mpeg"))
	require.NoError(t, err)

	assert.Zero(t, artifact.Duration)
}

func TestAppendRecordGrowsTheSidecar(t *testing.T) {
	t.Parallel()

	persister, err := store.NewPersister(t.TempDir(), newTestLogger(t))
	require.NoError(t, err)

	first := core.MetadataRecord{
		Title:           "First Column",
		Author:          "Jane Writer",
		AudioFile:       "audio_files/20260824_1_01_First_Column.mp3",
		SourceURL:       "https://example.com/columns/first",
		Date:            "2026-08-24",
		RunID:           "run-1",
		ChunkIndex:      1,
		FileSizeBytes:   42,
		DurationSeconds: 0,
	}

	second := first
	second.Title = "Second Column"
	second.SourceURL = "https://example.com/columns/second"

	require.NoError(t, persister.AppendRecord("20260824", first))
	require.NoError(t, persister.AppendRecord("20260824", second))

	raw, err := os.ReadFile(persister.MetadataPath("20260824"))
	require.NoError(t, err)

	var records []core.MetadataRecord

	require.NoError(t, json.Unmarshal(raw, &records))
	require.Len(t, records, 2)
	assert.Equal(t, "First Column", records[0].Title)
	assert.Equal(t, "Second Column", records[1].Title)
}

func TestAppendRecordRejectsCorruptSidecar(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	persister, err := store.NewPersister(dir, newTestLogger(t))
	require.NoError(t, err)

	path := persister.MetadataPath("20260824")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	err = persister.AppendRecord("20260824", core.MetadataRecord{})
	require.ErrorIs(t, err, core.ErrStorage)
}

func TestWritePlaylistListsEntriesInOrder(t *testing.T) {
	t.Parallel()

	persister, err := store.NewPersister(t.TempDir(), newTestLogger(t))
	require.NoError(t, err)

	names := []string{
		"20260824_1_01_First_Column.mp3",
		"20260824_1_02_First_Column.mp3",
		"20260824_2_01_Second_Column.mp3",
	}

	require.NoError(t, persister.WritePlaylist("20260824", names))

	raw, err := os.ReadFile(persister.PlaylistPath("20260824"))
	require.NoError(t, err)

	want := "#EXTM3U\n" +
		"#EXTINF:-1,20260824_1_01_First_Column\n20260824_1_01_First_Column.mp3\n" +
		"#EXTINF:-1,20260824_1_02_First_Column\n20260824_1_02_First_Column.mp3\n" +
		"#EXTINF:-1,20260824_2_01_Second_Column\n20260824_2_01_Second_Column.mp3\n"
	assert.Equal(t, want, string(raw))
}

func TestWritePlaylistSkipsEmptyRun(t *testing.T) {
	t.Parallel()

	persister, err := store.NewPersister(t.TempDir(), newTestLogger(t))
	require.NoError(t, err)

	require.NoError(t, persister.WritePlaylist("20260824", nil))

	_, err = os.Stat(persister.PlaylistPath("20260824"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSlug(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		title string
		want  string
	}{
		{name: "spaces become underscores", title: "Turkey and the world", want: "Turkey_and_the_world"},
		{name: "punctuation dropped", title: "What's next? (Part 2)", want: "Whats_next_Part_2"},
		{name: "length capped", title: "A title that keeps going on and on and on forever", want: "A_title_that_keeps_going_on_an"},
		{name: "unusable title falls back", title: "???!!!", want: "untitled"},
		{name: "unicode letters kept", title: "Türkiye günlüğü", want: "Türkiye_günlüğü"},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.want, store.Slug(testCase.title))
		})
	}
}

func TestAudioFileName(t *testing.T) {
	t.Parallel()

	name := store.AudioFileName("20260824", 2, 3, "Some Column Title", "mp3")
	assert.Equal(t, "20260824_2_03_Some_Column_Title.mp3", name)
}
