package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trackid/internal/config"
	"trackid/internal/display"
	"trackid/internal/mp3file"
	"trackid/internal/source"
)

func newRootCommand(a *app) *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	root := &cobra.Command{
		Use:   "trackid",
		Short: "Identify and enrich MP3 files with metadata from music catalogs",
		Long: "trackid enriches MP3 files with metadata (title, artist, album, year,\n" +
			"genre, cover art) from Bandcamp and MusicBrainz. Existing tag values are\n" +
			"never overwritten; only missing fields are filled in.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "init-config" {
				return nil
			}
			return a.setup(configPath, verbose)
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	root.AddCommand(newSearchCommand(a))
	root.AddCommand(newInfoCommand(a))
	root.AddCommand(newEnrichCommand(a))
	root.AddCommand(newInitConfigCommand())

	return root
}

func newSearchCommand(a *app) *cobra.Command {
	var sourceName string

	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Search all configured data sources for a track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := args[0]

			if sourceName != "" {
				src, err := a.sourceByName(sourceName)
				if err != nil {
					return err
				}
				results, err := src.Search(a.ctx, query)
				if err != nil {
					return err
				}
				display.SearchResults([]source.SearchOutcome{
					{Source: src.Name(), Results: results},
				})
				return nil
			}

			outcomes := a.registry.SearchAll(a.ctx, query)
			display.SearchResults(outcomes)
			return nil
		},
	}

	cmd.Flags().StringVarP(&sourceName, "source", "s", "", "Query a single data source by name")
	return cmd
}

func newInfoCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info [file]",
		Short: "Display technical info and tags for an MP3 file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := mp3file.Open(args[0])
			if err != nil {
				return err
			}

			info, err := file.TechnicalInfo()
			if err != nil {
				return fmt.Errorf("error reading MP3 file: %w", err)
			}

			tags := file.Tags()
			if warn := file.TagWarning(); warn != nil {
				display.Warn("%v", warn)
			}

			display.FileInfo(info, tags)
			return nil
		},
	}
}

func newEnrichCommand(a *app) *cobra.Command {
	var sourceName string

	cmd := &cobra.Command{
		Use:   "enrich [file]",
		Short: "Enrich an MP3 file with metadata from the configured sources",
		Long: "Runs every configured data source against the file in order. Each source\n" +
			"fills only fields that are still empty; the first source to succeed is\n" +
			"reported as the primary result.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			if sourceName != "" {
				src, err := a.sourceByName(sourceName)
				if err != nil {
					return err
				}
				result, err := source.Enrich(a.ctx, src, path, a.fetcher)
				if err != nil {
					return fmt.Errorf("error enriching MP3 file with %s: %w", src.Name(), err)
				}
				display.Enrichment(result)
				return nil
			}

			report, err := a.registry.EnrichAll(a.ctx, path, a.fetcher)
			if err != nil {
				return fmt.Errorf("error enriching MP3 file: %w", err)
			}
			display.EnrichReport(report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&sourceName, "source", "s", "", "Enrich using a single data source by name")
	return cmd
}

func newInitConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.GetDefaultConfigPath()
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config file already exists at %s", path)
			}
			if err := config.SaveConfigFile(config.DefaultConfig(), path); err != nil {
				return err
			}
			fmt.Printf("Wrote default config to %s\n", path)
			return nil
		},
	}
}
