package mp3file

import "context"

// ID3v2 frame IDs making up the tag vocabulary shared by all data sources.
// User-defined frames are keyed as "TXXX:<description>".
const (
	FieldTitle    = "TIT2"
	FieldArtist   = "TPE1"
	FieldAlbum    = "TALB"
	FieldYear     = "TDRC"
	FieldComposer = "TCOM"
	FieldGenre    = "TXXX:GENRE"
	FieldArtwork  = "APIC"
)

// fieldOrder is the canonical write order for text frames, so repeated
// enrichments produce identical frame layouts.
var fieldOrder = []string{
	FieldTitle,
	FieldArtist,
	FieldAlbum,
	FieldYear,
	FieldComposer,
	FieldGenre,
}

// FieldNames maps frame IDs to human-readable names for display.
var FieldNames = map[string]string{
	FieldTitle:    "Title",
	FieldArtist:   "Artist",
	FieldAlbum:    "Album",
	FieldYear:     "Year",
	FieldComposer: "Composer",
	FieldGenre:    "Genre",
	FieldArtwork:  "Artwork",
	"TPE2":        "Album Artist",
	"TRCK":        "Track Number",
	"TPOS":        "Disc Number",
	"TCON":        "Content Type",
	"TPUB":        "Publisher",
	"artwork":     "Artwork",
}

// TagSet is the mapping of frame IDs to values read from a file. A key is
// either absent or holds a non-empty value; empty strings are never stored.
type TagSet map[string]string

// Clone returns a copy of the tag set.
func (t TagSet) Clone() TagSet {
	c := make(TagSet, len(t))
	for k, v := range t {
		c[k] = v
	}
	return c
}

// Metadata is the tag-shaped output of extracting one search candidate,
// plus an optional artwork URL not yet resolved to image bytes.
type Metadata struct {
	Fields     TagSet
	ArtworkURL string
}

// ArtworkFetcher resolves an artwork URL to image bytes and classifies the
// image format. Implemented by the artwork package; a nil fetcher disables
// artwork embedding.
type ArtworkFetcher interface {
	// Fetch returns the image data and true, or nil and false on any failure.
	Fetch(ctx context.Context, url string) ([]byte, bool)
	// MIMEType classifies image data, preferring a URL extension hint.
	MIMEType(url string, data []byte) string
}
