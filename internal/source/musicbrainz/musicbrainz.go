// Package musicbrainz implements the MusicBrainz Web API as a data source.
// Search candidates are thin; a mandatory per-recording lookup fetches the
// releases and tags needed for extraction. Every outbound call is gated by a
// one-request-per-second limiter per the MusicBrainz fair-use policy.
package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"trackid/internal/mp3file"
	"trackid/internal/source"
)

const defaultUserAgent = "trackid/1.0.0 (https://github.com/trackid/trackid)"

// Client is a MusicBrainz Web API client implementing source.Source.
type Client struct {
	httpClient *http.Client
	apiURL     string
	userAgent  string
	limiter    *rate.Limiter
}

// New creates a new MusicBrainz client. An empty userAgent falls back to the
// default client identifier.
func New(userAgent string) *Client {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiURL:     "https://musicbrainz.org/ws/2",
		userAgent:  userAgent,
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

func (c *Client) Name() string { return "musicbrainz" }

// BuildQuery builds a fielded Lucene query for a seed.
func (c *Client) BuildQuery(artist, title string) string {
	return fmt.Sprintf("artist:%q AND recording:%q", artist, title)
}

// SearchResponse is the raw recording search response.
type SearchResponse struct {
	Recordings []Recording `json:"recordings"`
}

// Recording is a MusicBrainz recording, from either search or lookup. Search
// results carry only credits; releases and tags appear after lookup.
type Recording struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	ArtistCredit []ArtistCredit `json:"artist-credit"`
	Releases     []Release      `json:"releases"`
	Tags         []Tag          `json:"tags"`
}

// ArtistCredit is one artist-credit entry. Name is the credited name; the
// nested Artist carries the canonical one.
type ArtistCredit struct {
	Name   string `json:"name"`
	Artist struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"artist"`
}

// Release is a release a recording appears on.
type Release struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Date  string `json:"date"`
}

// Tag is a folksonomy tag with its popularity count.
type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Search queries the recording search endpoint, capped at 25 results.
func (c *Client) Search(ctx context.Context, query string) (source.Results, error) {
	reqURL := fmt.Sprintf("%s/recording?query=%s&fmt=json&limit=25", c.apiURL, url.QueryEscape(query))

	var searchResp SearchResponse
	if err := c.get(ctx, reqURL, &searchResp); err != nil {
		return nil, err
	}
	return &searchResp, nil
}

// LookupDetails fetches the full recording for a search candidate, including
// artists, releases and tags. Implements source.Detailer.
func (c *Client) LookupDetails(ctx context.Context, candidate source.Candidate) (source.Candidate, error) {
	rec, ok := candidate.(Recording)
	if !ok {
		return nil, fmt.Errorf("unexpected musicbrainz candidate type %T", candidate)
	}

	reqURL := fmt.Sprintf("%s/recording/%s?fmt=json&inc=%s",
		c.apiURL, rec.ID, url.QueryEscape("artists+releases+tags"))

	var detailed Recording
	if err := c.get(ctx, reqURL, &detailed); err != nil {
		return nil, err
	}
	return detailed, nil
}

// get performs a rate-limited JSON GET against the API.
func (c *Client) get(ctx context.Context, reqURL string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create musicbrainz request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("musicbrainz request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(resp.Body)
		return &source.SourceError{Source: c.Name(), StatusCode: resp.StatusCode, Body: string(text)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode musicbrainz response: %w", err)
	}
	return nil
}

// FindMatchingTrack returns the first recording whose joined artist credits
// and title both loosely match the seed, in result order.
func (c *Client) FindMatchingTrack(results source.Results, artist, title string) (source.Candidate, bool) {
	resp, ok := results.(*SearchResponse)
	if !ok {
		return nil, false
	}
	for _, rec := range resp.Recordings {
		if source.LooseMatch(artist, joinCredits(rec.ArtistCredit)) && source.LooseMatch(title, rec.Title) {
			return rec, true
		}
	}
	return nil, false
}

// ExtractMetadata maps a detailed recording into the shared tag vocabulary.
func (c *Client) ExtractMetadata(candidate source.Candidate) mp3file.Metadata {
	meta := mp3file.Metadata{Fields: mp3file.TagSet{}}

	rec, ok := candidate.(Recording)
	if !ok {
		return meta
	}

	if rec.Title != "" {
		meta.Fields[mp3file.FieldTitle] = rec.Title
	}
	if credits := joinCredits(rec.ArtistCredit); credits != "" {
		meta.Fields[mp3file.FieldArtist] = credits
		meta.Fields[mp3file.FieldComposer] = creditName(rec.ArtistCredit[0])
	}

	if len(rec.Releases) > 0 {
		release := rec.Releases[0]
		if release.Title != "" {
			meta.Fields[mp3file.FieldAlbum] = release.Title
		}
		if year := releaseYear(release.Date); year != "" {
			meta.Fields[mp3file.FieldYear] = year
		}
	}

	if genre := topGenres(rec.Tags); genre != "" {
		meta.Fields[mp3file.FieldGenre] = genre
	}

	return meta
}

func creditName(ac ArtistCredit) string {
	if ac.Name != "" {
		return ac.Name
	}
	return ac.Artist.Name
}

// joinCredits joins all credited artist names with spaces, matching how
// collaborations are credited in the search index.
func joinCredits(credits []ArtistCredit) string {
	var names []string
	for _, ac := range credits {
		if name := creditName(ac); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, " ")
}

// releaseYear extracts a four-digit year from a YYYY-MM-DD or YYYY date.
func releaseYear(date string) string {
	if date == "" {
		return ""
	}
	year, _, _ := strings.Cut(date, "-")
	for _, r := range year {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return year
}

// topGenres builds a genre string from up to the three most popular tags,
// sorted by descending count with source order as tie-break.
func topGenres(tags []Tag) string {
	if len(tags) == 0 {
		return ""
	}
	sorted := make([]Tag, len(tags))
	copy(sorted, tags)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})
	if len(sorted) > 3 {
		sorted = sorted[:3]
	}
	names := make([]string, 0, len(sorted))
	for _, t := range sorted {
		names = append(names, t.Name)
	}
	return strings.Join(names, ", ")
}
