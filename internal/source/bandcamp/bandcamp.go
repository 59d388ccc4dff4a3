// Package bandcamp implements the Bandcamp storefront search as a data
// source. Search results already carry everything needed, so there is no
// detail-lookup round-trip; artwork URLs are synthesized from the numeric
// art_id against the Bandcamp image CDN.
package bandcamp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"trackid/internal/mp3file"
	"trackid/internal/source"
)

const (
	searchURL  = "https://bandcamp.com/api/bcsearch_public_api/1/autocomplete_elastic"
	artworkURL = "https://f4.bcbits.com/img/a%s_16.jpg"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.6312.86 Safari/537.36"
)

// Client is a Bandcamp search client implementing source.Source.
type Client struct {
	httpClient *http.Client
	apiURL     string
}

// New creates a new Bandcamp client.
func New() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiURL:     searchURL,
	}
}

func (c *Client) Name() string { return "bandcamp" }

// BuildQuery builds the free-text search string for a seed.
func (c *Client) BuildQuery(artist, title string) string {
	return artist + " - " + title
}

type searchRequest struct {
	FanID        *int   `json:"fan_id"`
	FullPage     bool   `json:"full_page"`
	SearchFilter string `json:"search_filter"`
	SearchText   string `json:"search_text"`
}

// SearchResponse is the raw Bandcamp autocomplete response.
type SearchResponse struct {
	Auto struct {
		Results []TrackResult `json:"results"`
	} `json:"auto"`
}

// TrackResult is one entry from the autocomplete results. Only entries with
// Type "t" are tracks; other entity kinds (bands, albums) share the shape.
type TrackResult struct {
	Type        string      `json:"type"`
	Name        string      `json:"name"`
	BandName    string      `json:"band_name"`
	AlbumName   string      `json:"album_name"`
	ArtID       json.Number `json:"art_id"`
	ItemURLPath string      `json:"item_url_path"`
}

// Search posts the query to the autocomplete endpoint with a browser-like
// header set and returns the raw response.
func (c *Client) Search(ctx context.Context, query string) (source.Results, error) {
	body, err := json.Marshal(searchRequest{SearchText: query})
	if err != nil {
		return nil, fmt.Errorf("encoding bandcamp search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create bandcamp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;"+
		"q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bandcamp search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(resp.Body)
		return nil, &source.SourceError{Source: c.Name(), StatusCode: resp.StatusCode, Body: string(text)}
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode bandcamp response: %w", err)
	}
	return &searchResp, nil
}

// FindMatchingTrack returns the first track-typed result whose band name and
// track name both loosely match the seed, in result order.
func (c *Client) FindMatchingTrack(results source.Results, artist, title string) (source.Candidate, bool) {
	resp, ok := results.(*SearchResponse)
	if !ok {
		return nil, false
	}
	for _, result := range resp.Auto.Results {
		if result.Type != "t" {
			continue
		}
		if source.LooseMatch(artist, result.BandName) && source.LooseMatch(title, result.Name) {
			return result, true
		}
	}
	return nil, false
}

// ExtractMetadata maps a track result into the shared tag vocabulary. Only
// fields the result carries are emitted.
func (c *Client) ExtractMetadata(candidate source.Candidate) mp3file.Metadata {
	meta := mp3file.Metadata{Fields: mp3file.TagSet{}}

	track, ok := candidate.(TrackResult)
	if !ok {
		return meta
	}

	if track.Name != "" {
		meta.Fields[mp3file.FieldTitle] = track.Name
	}
	if track.BandName != "" {
		meta.Fields[mp3file.FieldArtist] = track.BandName
	}
	if track.AlbumName != "" {
		meta.Fields[mp3file.FieldAlbum] = track.AlbumName
	}
	if track.ArtID != "" {
		meta.ArtworkURL = fmt.Sprintf(artworkURL, track.ArtID.String())
	}

	return meta
}
