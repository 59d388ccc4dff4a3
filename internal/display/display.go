// Package display renders search results, file info and enrichment audit
// trails to the console. It consumes only the public result types of the
// core packages.
package display

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"trackid/internal/mp3file"
	"trackid/internal/source"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warning = color.New(color.FgYellow)
	errLine = color.New(color.FgRed, color.Bold)
	label   = color.New(color.FgCyan)
	dim     = color.New(color.Faint)
)

// Init disables colors when stdout is not a terminal.
func Init() {
	color.NoColor = color.NoColor || !isatty.IsTerminal(os.Stdout.Fd())
}

// Error prints an error line to stderr.
func Error(err error) {
	errLine.Fprintf(os.Stderr, "Error: %v\n", err)
}

// Warn prints a warning line.
func Warn(format string, args ...interface{}) {
	warning.Printf("Warning: "+format+"\n", args...)
}

// SearchResults renders the per-source outcomes of a registry-wide search.
// Raw results keep their source-native shape and are shown as indented JSON.
func SearchResults(outcomes []source.SearchOutcome) {
	for _, outcome := range outcomes {
		heading.Printf("=== %s ===\n", outcome.Source)
		if outcome.Err != nil {
			errLine.Printf("Error: %v\n", outcome.Err)
			continue
		}
		data, err := json.MarshalIndent(outcome.Results, "", "  ")
		if err != nil {
			errLine.Printf("Error: %v\n", err)
			continue
		}
		fmt.Println(string(data))
	}
}

// FileInfo renders the technical info table and the current tag table.
func FileInfo(info mp3file.TechnicalInfo, tags mp3file.TagSet) {
	heading.Println("MP3 File Information")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	row(w, "File", info.FilePath)
	row(w, "Size", fmt.Sprintf("%d bytes (%.2f MB)", info.FileSize, float64(info.FileSize)/1024/1024))
	row(w, "Duration", formatDuration(info.DurationSeconds))
	if info.Bitrate != nil {
		row(w, "Bitrate", fmt.Sprintf("%d kbps", *info.Bitrate/1000))
	} else {
		row(w, "Bitrate", "Unknown")
	}
	if info.SampleRate != nil {
		row(w, "Sample Rate", fmt.Sprintf("%d Hz", *info.SampleRate))
	} else {
		row(w, "Sample Rate", "Unknown")
	}
	w.Flush()
	fmt.Println()

	TagTable("Metadata Tags", tags)
}

// TagTable renders a tag set with human-readable names, sorted by frame ID.
func TagTable(title string, tags mp3file.TagSet) {
	heading.Println(title)
	if len(tags) == 0 {
		warning.Println("No metadata tags found")
		return
	}

	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, k := range keys {
		name := mp3file.FieldNames[k]
		if name == "" {
			name = k
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", label.Sprint(name), dim.Sprint(k), tags[k])
	}
	w.Flush()
}

// Enrichment renders the audit trail of one source's successful enrichment.
func Enrichment(result *source.Result) {
	success.Printf("Successfully enriched: %s\n", result.FilePath)

	fmt.Printf("%s %s\n", label.Sprint("Source:"), result.Source)
	fmt.Printf("%s %s\n", label.Sprint("Search Query:"), result.SearchQuery)
	fmt.Printf("%s %s - %s\n", label.Sprint("Matched Track:"),
		result.Extracted.Fields[mp3file.FieldArtist], result.Extracted.Fields[mp3file.FieldTitle])
	fmt.Println()

	added := actualAdded(result.Added)
	if len(added) > 0 {
		TagTable("New Metadata Added", added)
	} else {
		warning.Println("No new metadata was added - all fields already had values")
	}

	if len(result.ExistingTags) > 0 {
		fmt.Println()
		TagTable("Existing Metadata", result.ExistingTags)
	}
}

// EnrichReport renders a registry-wide enrichment: the primary result in
// full, plus a per-source success/failure summary.
func EnrichReport(report *source.Report) {
	Enrichment(report.Primary)
	fmt.Println()

	heading.Println("Per-Source Results")
	for _, outcome := range report.Outcomes {
		if outcome.Err != nil {
			fmt.Printf("  %s %s: %v\n", errLine.Sprint("✗"), outcome.Source, outcome.Err)
		} else {
			fmt.Printf("  %s %s: %d field(s) added\n", success.Sprint("✓"), outcome.Source, len(actualAdded(outcome.Result.Added)))
		}
	}
}

// actualAdded filters out skipped-artwork notes so only real additions show
// in the added table.
func actualAdded(added map[string]string) mp3file.TagSet {
	out := mp3file.TagSet{}
	for k, v := range added {
		if strings.HasPrefix(v, "Artwork already exists") {
			continue
		}
		out[k] = v
	}
	return out
}

func formatDuration(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func row(w *tabwriter.Writer, name, value string) {
	fmt.Fprintf(w, "%s\t%s\n", label.Sprint(name), value)
}
