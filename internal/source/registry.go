package source

import (
	"context"

	"trackid/internal/mp3file"
)

// Registry holds the active sources in registration order. It is populated
// once at startup and read-only afterwards.
type Registry struct {
	sources []Source
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a source. Duplicate names are permitted; lookup by name
// returns the first.
func (r *Registry) Register(s Source) {
	r.sources = append(r.sources, s)
}

// Sources returns the registered sources in registration order.
func (r *Registry) Sources() []Source {
	return r.sources
}

// ByName returns the first registered source with the given name.
func (r *Registry) ByName(name string) (Source, bool) {
	for _, s := range r.sources {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// SearchOutcome is one source's search result or failure.
type SearchOutcome struct {
	Source  string
	Results Results
	Err     error
}

// SearchAll queries every source independently; a failure in one never
// aborts the others. Outcomes are returned in registration order.
func (r *Registry) SearchAll(ctx context.Context, query string) []SearchOutcome {
	outcomes := make([]SearchOutcome, 0, len(r.sources))
	for _, s := range r.sources {
		results, err := s.Search(ctx, query)
		outcomes = append(outcomes, SearchOutcome{Source: s.Name(), Results: results, Err: err})
	}
	return outcomes
}

// EnrichOutcome is one source's enrichment result or failure.
type EnrichOutcome struct {
	Source string
	Result *Result
	Err    error
}

// Report describes a registry-wide enrichment of one file. Primary is the
// first source that succeeded in registration order.
type Report struct {
	FilePath    string
	SearchQuery string
	Primary     *Result
	Outcomes    []EnrichOutcome
}

// EnrichAll runs every source's full enrichment cycle against the same file.
// Each source performs its own read-search-match-write pass; the additive-only
// write contract means fields filled by an earlier source survive later ones.
// Fails with MissingSeedError before contacting any source when no seed can
// be derived, and with AllSourcesFailedError when every source fails.
func (r *Registry) EnrichAll(ctx context.Context, path string, fetcher mp3file.ArtworkFetcher) (*Report, error) {
	file, err := mp3file.Open(path)
	if err != nil {
		return nil, err
	}

	artist, title := file.ArtistTitle()
	if artist == "" || title == "" {
		return nil, &MissingSeedError{Path: path}
	}

	report := &Report{
		FilePath:    path,
		SearchQuery: artist + " - " + title,
	}

	for _, s := range r.sources {
		result, err := Enrich(ctx, s, path, fetcher)
		report.Outcomes = append(report.Outcomes, EnrichOutcome{Source: s.Name(), Result: result, Err: err})
		if err == nil && report.Primary == nil {
			report.Primary = result
		}
	}

	if report.Primary == nil {
		return nil, &AllSourcesFailedError{Path: path}
	}
	return report, nil
}
