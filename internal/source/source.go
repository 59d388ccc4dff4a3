// Package source defines the contract external music catalogs implement and
// the shared enrichment algorithm layered over it. Candidates and raw search
// results keep their source-native shapes; each source knows how to read its
// own. The Registry drives a set of sources in registration order.
package source

import (
	"context"
	"strings"

	"trackid/internal/mp3file"
)

// Results is a source-native search response.
type Results = any

// Candidate is a single source-native track record.
type Candidate = any

// Source is one external catalog integration.
type Source interface {
	Name() string
	// BuildQuery constructs the source-specific query string for a seed.
	BuildQuery(artist, title string) string
	// Search issues the query and returns the raw, source-native results.
	Search(ctx context.Context, query string) (Results, error)
	// FindMatchingTrack scans results in source order and returns the first
	// candidate whose artist and title both loosely match the seed.
	FindMatchingTrack(results Results, artist, title string) (Candidate, bool)
	// ExtractMetadata maps a candidate into the shared tag vocabulary,
	// emitting only fields the candidate actually carries.
	ExtractMetadata(c Candidate) mp3file.Metadata
}

// Detailer is implemented by sources that need a second round-trip to turn a
// search candidate into a fully detailed one before extraction.
type Detailer interface {
	LookupDetails(ctx context.Context, c Candidate) (Candidate, error)
}

// LooseMatch reports whether a and b overlap by case-insensitive symmetric
// containment. Catalogs return noisy, variably formatted text; exact matching
// would miss most real tracks.
func LooseMatch(a, b string) bool {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// Result is the audit trail of one successful enrichment.
type Result struct {
	FilePath     string
	Source       string
	Artist       string
	Title        string
	SearchQuery  string
	Candidate    Candidate
	ExistingTags mp3file.TagSet
	Extracted    mp3file.Metadata
	Added        map[string]string
}

// Enrich runs the full read-search-match-write cycle for one file against one
// source: derive the artist/title seed, search, pick a matching candidate,
// optionally fetch details, extract metadata and merge it into the file.
func Enrich(ctx context.Context, src Source, path string, fetcher mp3file.ArtworkFetcher) (*Result, error) {
	file, err := mp3file.Open(path)
	if err != nil {
		return nil, err
	}

	existing := file.Tags().Clone()
	artist, title := file.ArtistTitle()
	if artist == "" || title == "" {
		return nil, &MissingSeedError{Path: path}
	}

	query := src.BuildQuery(artist, title)
	results, err := src.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	candidate, ok := src.FindMatchingTrack(results, artist, title)
	if !ok {
		return nil, &NoMatchError{Source: src.Name(), Artist: artist, Title: title}
	}

	if detailer, ok := src.(Detailer); ok {
		candidate, err = detailer.LookupDetails(ctx, candidate)
		if err != nil {
			return nil, err
		}
	}

	extracted := src.ExtractMetadata(candidate)
	added, err := file.UpdateTags(ctx, extracted, fetcher)
	if err != nil {
		return nil, err
	}

	return &Result{
		FilePath:     path,
		Source:       src.Name(),
		Artist:       artist,
		Title:        title,
		SearchQuery:  query,
		Candidate:    candidate,
		ExistingTags: existing,
		Extracted:    extracted,
		Added:        added,
	}, nil
}
