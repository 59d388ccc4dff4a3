package mp3file

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"

	"trackid/internal/artwork"
)

// createMP3 writes a tagless file with a dummy MPEG frame payload, enough
// for ID3v2 tag operations.
func createMP3(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	data := append([]byte{0xFF, 0xFB, 0x90, 0x00}, make([]byte, 416)...)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

// setTextFrames writes the given text frames directly, bypassing UpdateTags.
func setTextFrames(t *testing.T, path string, frames map[string]string) {
	t.Helper()
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("failed to open tag: %v", err)
	}
	defer tag.Close()
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	for id, value := range frames {
		tag.AddTextFrame(id, id3v2.EncodingUTF8, value)
	}
	if err := tag.Save(); err != nil {
		t.Fatalf("failed to save tag: %v", err)
	}
}

type fakeFetcher struct {
	data  []byte
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, bool) {
	f.calls++
	if f.data == nil {
		return nil, false
	}
	return f.data, true
}

func (f *fakeFetcher) MIMEType(url string, data []byte) string {
	return artwork.MIMEType(url, data)
}

var jpegData = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46, 0x00, 0x01}

func TestOpen_NotFound(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.mp3"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOpen_InvalidFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "song.flac")
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestOpen_UppercaseExtension(t *testing.T) {
	dir := t.TempDir()
	path := createMP3(t, dir, "song.mp3")
	upper := filepath.Join(dir, "SONG.MP3")
	if err := os.Rename(path, upper); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(upper); err != nil {
		t.Errorf("expected uppercase extension to be accepted, got %v", err)
	}
}

func TestTags_NoTagBlock(t *testing.T) {
	f, err := Open(createMP3(t, t.TempDir(), "bare.mp3"))
	if err != nil {
		t.Fatal(err)
	}
	tags := f.Tags()
	if len(tags) != 0 {
		t.Errorf("expected empty tag set, got %v", tags)
	}
	if f.TagWarning() != nil {
		t.Errorf("expected no warning for missing tag block, got %v", f.TagWarning())
	}
}

func TestTags_ReadsFrames(t *testing.T) {
	path := createMP3(t, t.TempDir(), "tagged.mp3")
	setTextFrames(t, path, map[string]string{
		FieldTitle:  "Test Track",
		FieldArtist: "Test Artist",
	})

	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	tags := f.Tags()
	if tags[FieldTitle] != "Test Track" {
		t.Errorf("TIT2 = %q, want %q", tags[FieldTitle], "Test Track")
	}
	if tags[FieldArtist] != "Test Artist" {
		t.Errorf("TPE1 = %q, want %q", tags[FieldArtist], "Test Artist")
	}
}

func TestTags_MalformedBlockWarns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corrupt.mp3")
	// ID3 magic with an invalid (non-synchsafe) size field.
	data := append([]byte("ID3\x04\x00\x00\xFF\xFF\xFF\xFF"), make([]byte, 64)...)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	tags := f.Tags()
	if len(tags) != 0 {
		t.Errorf("expected empty tag set for malformed block, got %v", tags)
	}
	if f.TagWarning() == nil {
		t.Error("expected a tag warning for malformed block")
	}
}

func TestParseArtistTitle(t *testing.T) {
	tests := []struct {
		path   string
		artist string
		title  string
	}{
		{"Test Artist - Test Track.mp3", "Test Artist", "Test Track"},
		{"Artist-Title.mp3", "Artist", "Title"},
		{"Artist : Title.mp3", "Artist", "Title"},
		{"Artist:Title.mp3", "Artist", "Title"},
		{"[live] Artist - Title.mp3", "Artist", "Title"},
		{"Artist - Title [remaster].mp3", "Artist", "Title"},
		{"NoSeparatorHere.mp3", "", ""},
		{"/music/Artist - Title.mp3", "Artist", "Title"},
	}
	for _, tt := range tests {
		artist, title := ParseArtistTitle(tt.path)
		if artist != tt.artist || title != tt.title {
			t.Errorf("ParseArtistTitle(%q) = (%q, %q), want (%q, %q)",
				tt.path, artist, title, tt.artist, tt.title)
		}
	}
}

func TestParseArtistTitle_HyphenBeforeColon(t *testing.T) {
	artist, title := ParseArtistTitle("AC - DC: Thunderstruck.mp3")
	if artist != "AC" || title != "DC: Thunderstruck" {
		t.Errorf("hyphen split should win: got (%q, %q)", artist, title)
	}
}

func TestArtistTitle_TagsWinOverFilename(t *testing.T) {
	path := createMP3(t, t.TempDir(), "Wrong Artist - Wrong Title.mp3")
	setTextFrames(t, path, map[string]string{
		FieldTitle:  "Real Title",
		FieldArtist: "Real Artist",
	})

	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	artist, title := f.ArtistTitle()
	if artist != "Real Artist" || title != "Real Title" {
		t.Errorf("ArtistTitle() = (%q, %q), want tag values", artist, title)
	}
}

func TestUpdateTags_NeverOverwrites(t *testing.T) {
	path := createMP3(t, t.TempDir(), "song.mp3")
	setTextFrames(t, path, map[string]string{
		FieldTitle:  "Original Title",
		FieldArtist: "Original Artist",
	})

	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	added, err := f.UpdateTags(context.Background(), Metadata{Fields: TagSet{
		FieldTitle:  "Replacement Title",
		FieldArtist: "Replacement Artist",
		FieldAlbum:  "New Album",
	}}, nil)
	if err != nil {
		t.Fatalf("UpdateTags failed: %v", err)
	}

	if len(added) != 1 || added[FieldAlbum] != "New Album" {
		t.Errorf("added = %v, want only TALB", added)
	}

	tags := f.Tags()
	if tags[FieldTitle] != "Original Title" {
		t.Errorf("TIT2 = %q, existing value was overwritten", tags[FieldTitle])
	}
	if tags[FieldArtist] != "Original Artist" {
		t.Errorf("TPE1 = %q, existing value was overwritten", tags[FieldArtist])
	}
	if tags[FieldAlbum] != "New Album" {
		t.Errorf("TALB = %q, want %q", tags[FieldAlbum], "New Album")
	}
}

func TestUpdateTags_GenreFrame(t *testing.T) {
	path := createMP3(t, t.TempDir(), "song.mp3")
	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	added, err := f.UpdateTags(context.Background(), Metadata{Fields: TagSet{
		FieldGenre: "rock, alternative",
	}}, nil)
	if err != nil {
		t.Fatalf("UpdateTags failed: %v", err)
	}
	if added[FieldGenre] != "rock, alternative" {
		t.Errorf("added = %v, want TXXX:GENRE entry", added)
	}

	tags := f.Tags()
	if tags[FieldGenre] != "rock, alternative" {
		t.Errorf("TXXX:GENRE = %q, want %q", tags[FieldGenre], "rock, alternative")
	}
}

func TestUpdateTags_EmptyValuesIgnored(t *testing.T) {
	path := createMP3(t, t.TempDir(), "song.mp3")
	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	added, err := f.UpdateTags(context.Background(), Metadata{Fields: TagSet{
		FieldTitle: "",
		FieldAlbum: "Album",
	}}, nil)
	if err != nil {
		t.Fatalf("UpdateTags failed: %v", err)
	}
	if _, ok := added[FieldTitle]; ok {
		t.Error("empty candidate value must not be written")
	}
	if added[FieldAlbum] != "Album" {
		t.Errorf("added = %v, want TALB", added)
	}
}

func TestUpdateTags_AddsArtwork(t *testing.T) {
	path := createMP3(t, t.TempDir(), "song.mp3")
	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	fetcher := &fakeFetcher{data: jpegData}
	added, err := f.UpdateTags(context.Background(), Metadata{
		Fields:     TagSet{FieldAlbum: "Test Album"},
		ArtworkURL: "https://f4.bcbits.com/img/a1234567890_16.jpg",
	}, fetcher)
	if err != nil {
		t.Fatalf("UpdateTags failed: %v", err)
	}

	if added["artwork"] != "Added album artwork (image/jpeg)" {
		t.Errorf("artwork note = %q", added["artwork"])
	}
	if fetcher.calls != 1 {
		t.Errorf("fetcher called %d times, want 1", fetcher.calls)
	}

	tags := f.Tags()
	if tags[FieldArtwork] != "Artwork (image/jpeg)" {
		t.Errorf("APIC = %q, want embedded jpeg marker", tags[FieldArtwork])
	}
}

func TestUpdateTags_SkipsExistingArtwork(t *testing.T) {
	path := createMP3(t, t.TempDir(), "song.mp3")
	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	first := &fakeFetcher{data: jpegData}
	if _, err := f.UpdateTags(context.Background(), Metadata{ArtworkURL: "http://x/a.jpg"}, first); err != nil {
		t.Fatal(err)
	}

	second := &fakeFetcher{data: jpegData}
	added, err := f.UpdateTags(context.Background(), Metadata{ArtworkURL: "http://x/b.jpg"}, second)
	if err != nil {
		t.Fatal(err)
	}

	if added["artwork"] != "Artwork already exists, skipped" {
		t.Errorf("artwork note = %q", added["artwork"])
	}
	// The fetch is skipped entirely to avoid wasted network I/O.
	if second.calls != 0 {
		t.Errorf("fetcher called %d times for existing artwork, want 0", second.calls)
	}
}

func TestUpdateTags_FetchFailureOmitsArtwork(t *testing.T) {
	path := createMP3(t, t.TempDir(), "song.mp3")
	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	added, err := f.UpdateTags(context.Background(), Metadata{
		Fields:     TagSet{FieldAlbum: "Album"},
		ArtworkURL: "http://x/broken.jpg",
	}, &fakeFetcher{})
	if err != nil {
		t.Fatalf("fetch failure must not fail the update: %v", err)
	}
	if _, ok := added["artwork"]; ok {
		t.Errorf("added = %v, artwork should be silently omitted", added)
	}
	if added[FieldAlbum] != "Album" {
		t.Errorf("added = %v, text fields should still be written", added)
	}
}

func TestUpdateTags_InvalidatesCache(t *testing.T) {
	path := createMP3(t, t.TempDir(), "song.mp3")
	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	if len(f.Tags()) != 0 {
		t.Fatal("expected empty tags before update")
	}
	if _, err := f.UpdateTags(context.Background(), Metadata{Fields: TagSet{FieldTitle: "T"}}, nil); err != nil {
		t.Fatal(err)
	}
	if f.Tags()[FieldTitle] != "T" {
		t.Error("tag cache not invalidated after write")
	}
}

// createRealMP3 generates a playable MP3 using ffmpeg. Skips the test if
// ffmpeg is not available.
func createRealMP3(t *testing.T, dir string) string {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available, skipping technical info test")
	}

	path := filepath.Join(dir, "real.mp3")
	cmd := exec.Command("ffmpeg", "-f", "lavfi", "-i", "anullsrc=r=44100:cl=mono", "-t", "0.5", "-q:a", "9", path)
	if err := cmd.Run(); err != nil {
		t.Fatalf("failed to create test audio file: %v", err)
	}
	return path
}

func TestTechnicalInfo(t *testing.T) {
	path := createRealMP3(t, t.TempDir())
	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	info, err := f.TechnicalInfo()
	if err != nil {
		t.Fatalf("TechnicalInfo failed: %v", err)
	}
	if info.FileSize <= 0 {
		t.Errorf("FileSize = %d, want > 0", info.FileSize)
	}
	if info.DurationSeconds <= 0 {
		t.Errorf("DurationSeconds = %f, want > 0", info.DurationSeconds)
	}
	if info.SampleRate == nil || *info.SampleRate != 44100 {
		t.Errorf("SampleRate = %v, want 44100", info.SampleRate)
	}
	if info.Bitrate == nil || *info.Bitrate <= 0 {
		t.Errorf("Bitrate = %v, want > 0", info.Bitrate)
	}
}
