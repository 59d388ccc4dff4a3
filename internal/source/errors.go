package source

import "fmt"

// SourceError is a non-success response from a catalog endpoint. It is fatal
// to that source's attempt but never to a registry-wide operation.
type SourceError struct {
	Source     string
	StatusCode int
	Body       string
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s API error: %d - %s", e.Source, e.StatusCode, e.Body)
}

// MissingSeedError means neither existing tags nor the filename produced a
// usable artist/title pair.
type MissingSeedError struct {
	Path string
}

func (e *MissingSeedError) Error() string {
	return fmt.Sprintf("cannot enrich %q: missing artist and title metadata in both tags and filename", e.Path)
}

// NoMatchError means the search succeeded but no candidate satisfied the
// matching predicate.
type NoMatchError struct {
	Source string
	Artist string
	Title  string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no matching track found on %s for '%s - %s'", e.Source, e.Artist, e.Title)
}

// AllSourcesFailedError means every registered source failed to enrich a file.
type AllSourcesFailedError struct {
	Path string
}

func (e *AllSourcesFailedError) Error() string {
	return fmt.Sprintf("no data source could enrich the file %q", e.Path)
}
