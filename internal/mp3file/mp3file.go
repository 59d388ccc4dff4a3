// Package mp3file owns reading, mutating and saving a single MP3 file's
// ID3v2 tag block and technical stream info. Writes are additive-only:
// fields that already hold a value are never overwritten.
package mp3file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bogem/id3v2/v2"
	"go.senan.xyz/taglib"
)

var (
	// ErrNotFound is returned when the file path does not exist.
	ErrNotFound = errors.New("file does not exist")
	// ErrInvalidFormat is returned when the file is not an MP3 file.
	ErrInvalidFormat = errors.New("not an MP3 file")
)

// TechnicalInfo describes the audio stream of a file. Bitrate and SampleRate
// are nil when the stream header does not carry them; zero is never used as
// an unknown marker.
type TechnicalInfo struct {
	FilePath        string
	FileSize        int64
	DurationSeconds float64
	Bitrate         *int // bits per second
	SampleRate      *int // Hz
}

// File represents one on-disk MP3 file. Tags and technical info are read
// lazily on first access and cached; any write invalidates the tag cache.
type File struct {
	path string

	info       *TechnicalInfo
	tags       TagSet
	tagWarning error
}

// Open validates the path and returns a File. The file is not parsed yet;
// parsing happens on first access to Tags or TechnicalInfo.
func Open(path string) (*File, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%q: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("stat %q: %w", path, err)
	}
	if !strings.EqualFold(filepath.Ext(path), ".mp3") {
		return nil, fmt.Errorf("%q: %w", path, ErrInvalidFormat)
	}
	return &File{path: path}, nil
}

// Path returns the file path.
func (f *File) Path() string { return f.path }

// TechnicalInfo returns file size, duration, bitrate and sample rate,
// decoding just enough of the container to read the stream header.
func (f *File) TechnicalInfo() (TechnicalInfo, error) {
	if f.info != nil {
		return *f.info, nil
	}

	st, err := os.Stat(f.path)
	if err != nil {
		return TechnicalInfo{}, fmt.Errorf("stat %q: %w", f.path, err)
	}

	props, err := taglib.ReadProperties(f.path)
	if err != nil {
		return TechnicalInfo{}, fmt.Errorf("reading audio properties of %q: %w", f.path, err)
	}

	info := TechnicalInfo{
		FilePath:        f.path,
		FileSize:        st.Size(),
		DurationSeconds: props.Length.Seconds(),
	}
	if props.Bitrate > 0 {
		bps := int(props.Bitrate) * 1000
		info.Bitrate = &bps
	}
	if props.SampleRate > 0 {
		hz := int(props.SampleRate)
		info.SampleRate = &hz
	}

	f.info = &info
	return info, nil
}

// Tags returns the file's current tag set. A file without a tag block yields
// an empty set; a malformed tag block also yields an empty set but records a
// warning retrievable via TagWarning.
func (f *File) Tags() TagSet {
	if f.tags != nil {
		return f.tags
	}

	f.tags = TagSet{}
	f.tagWarning = nil

	// A file without a tag block parses to an empty frame map, which is a
	// valid empty state. A malformed block errors out; that is recorded as
	// a warning, never surfaced as a failure.
	tag, err := id3v2.Open(f.path, id3v2.Options{Parse: true})
	if err != nil {
		f.tagWarning = fmt.Errorf("parsing tag block of %q: %w", f.path, err)
		return f.tags
	}
	defer tag.Close()

	for id, frames := range tag.AllFrames() {
		for _, frame := range frames {
			switch fr := frame.(type) {
			case id3v2.TextFrame:
				if fr.Text != "" {
					f.tags[id] = fr.Text
				}
			case id3v2.UserDefinedTextFrame:
				if fr.Value != "" {
					f.tags[id+":"+fr.Description] = fr.Value
				}
			case id3v2.PictureFrame:
				mime := fr.MimeType
				if mime == "" {
					mime = "unknown"
				}
				f.tags[FieldArtwork] = fmt.Sprintf("Artwork (%s)", mime)
			}
		}
	}

	return f.tags
}

// TagWarning reports a malformed-tag-block condition noticed by the last
// Tags read, or nil.
func (f *File) TagWarning() error { return f.tagWarning }

// ArtistTitle returns the artist and title for this file: existing tag
// values first, the filename as a fallback. Either value may be empty.
func (f *File) ArtistTitle() (artist, title string) {
	tags := f.Tags()
	artist = tags[FieldArtist]
	title = tags[FieldTitle]
	if artist == "" || title == "" {
		if a, t := ParseArtistTitle(f.path); a != "" && t != "" {
			artist, title = a, t
		}
	}
	return artist, title
}

var (
	bracketPattern = regexp.MustCompile(`\[.*?\]`)
	// Tried in order: "artist - title" first, then "artist : title".
	separatorPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(.+?)\s*-\s*(.+)$`),
		regexp.MustCompile(`^(.+?)\s*:\s*(.+)$`),
	}
)

// ParseArtistTitle derives an artist/title pair from the base filename.
// Bracketed annotations are stripped before splitting. Returns empty strings
// when no separator pattern matches.
func ParseArtistTitle(path string) (artist, title string) {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.TrimSpace(bracketPattern.ReplaceAllString(name, ""))

	for _, pattern := range separatorPatterns {
		if m := pattern.FindStringSubmatch(name); m != nil {
			artist = strings.TrimSpace(m[1])
			title = strings.TrimSpace(m[2])
			if artist != "" && title != "" {
				return artist, title
			}
		}
	}
	return "", ""
}

// UpdateTags merges candidate metadata into the file. Only fields with no
// existing value are written; artwork is fetched and embedded only when no
// picture frame exists yet. All selected fields are applied in a single
// save. The returned map records what was actually written.
func (f *File) UpdateTags(ctx context.Context, meta Metadata, fetcher ArtworkFetcher) (map[string]string, error) {
	added := make(map[string]string)

	tag, err := id3v2.Open(f.path, id3v2.Options{Parse: true})
	if err != nil {
		// A malformed tag block is replaced rather than repaired.
		tag, err = id3v2.Open(f.path, id3v2.Options{Parse: false})
		if err != nil {
			return nil, fmt.Errorf("opening tag block of %q: %w", f.path, err)
		}
	}
	defer tag.Close()

	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	existing := f.Tags()
	for _, field := range fieldOrder {
		value := meta.Fields[field]
		if value == "" || existing[field] != "" {
			continue
		}
		if desc, ok := strings.CutPrefix(field, "TXXX:"); ok {
			tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
				Encoding:    id3v2.EncodingUTF8,
				Description: desc,
				Value:       value,
			})
		} else {
			tag.AddTextFrame(field, id3v2.EncodingUTF8, value)
		}
		added[field] = value
	}

	if meta.ArtworkURL != "" && fetcher != nil {
		if len(tag.GetFrames(tag.CommonID("Attached picture"))) > 0 {
			added["artwork"] = "Artwork already exists, skipped"
		} else if data, ok := fetcher.Fetch(ctx, meta.ArtworkURL); ok {
			mime := fetcher.MIMEType(meta.ArtworkURL, data)
			tag.AddAttachedPicture(id3v2.PictureFrame{
				Encoding:    id3v2.EncodingUTF8,
				MimeType:    mime,
				PictureType: id3v2.PTFrontCover,
				Description: "Cover (front)",
				Picture:     data,
			})
			added["artwork"] = fmt.Sprintf("Added album artwork (%s)", mime)
		}
		// A failed fetch drops artwork from the result; it is never fatal.
	}

	if err := tag.Save(); err != nil {
		return nil, fmt.Errorf("saving tags to %q: %w", f.path, err)
	}

	// Force a re-read on next access so callers see the just-written state.
	f.tags = nil
	return added, nil
}
