package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"liarchive/pkg/archive"
	"liarchive/pkg/export"
	"liarchive/pkg/logger"
	"liarchive/pkg/media"
)

var (
	// Import command flags
	importOutput    string
	importSkipMedia bool
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <export-path>",
	Short: "Archive posts from a LinkedIn data export",
	Long: `Archive posts from a LinkedIn data export without touching the API.

The export path may be the downloaded ZIP file or a directory it was
extracted to. Request a data export at linkedin.com under
Settings > Data privacy > Get a copy of your data.

Export records carry less detail than the API: posts without IDs get stable
synthesized ones, and unparseable dates fall back to the import time.`,
	Example: `  # Import straight from the downloaded ZIP
  liarchive import ~/Downloads/LinkedInDataExport.zip

  # Import an extracted export into a custom archive directory
  liarchive import ./export-dir --output ~/linkedin-archive`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&importOutput, "output", "o", "", "archive directory (default ./archive)")
	importCmd.Flags().BoolVar(&importSkipMedia, "skip-media", false, "archive text only, skip media downloads")
}

func runImport(cmd *cobra.Command, args []string) error {
	flags := make(map[string]interface{})
	if importOutput != "" {
		flags["base-dir"] = importOutput
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if importSkipMedia {
		cfg.Media.DownloadImages = false
		cfg.Media.DownloadVideos = false
		cfg.Media.DownloadDocuments = false
	}

	log := logger.GetLogger()

	parser := export.NewParser(log)
	posts, err := parser.Parse(args[0])
	if err != nil {
		return fmt.Errorf("failed to parse export: %w", err)
	}
	if len(posts) == 0 {
		fmt.Println("Export contained no posts.")
		return nil
	}

	downloader := media.NewDownloader(cfg, log)
	archiver := archive.New(cfg, downloader, log)
	stats := archiver.Archive(posts)

	printRunSummary(stats, cfg.Output.BaseDir)
	return nil
}
