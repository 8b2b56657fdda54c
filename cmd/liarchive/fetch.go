package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"liarchive/pkg/archive"
	"liarchive/pkg/auth"
	"liarchive/pkg/errors"
	"liarchive/pkg/fetcher"
	"liarchive/pkg/linkedin"
	"liarchive/pkg/logger"
	"liarchive/pkg/media"
)

// quotaWarnThreshold is the request count past which a run prints a warning
// about the API's daily quota.
const quotaWarnThreshold = 400

var (
	// Fetch command flags
	fetchLimit     int
	fetchOutput    string
	fetchPageSize  int
	fetchDelay     float64
	fetchRetries   int
	fetchSkipMedia bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch your posts from the LinkedIn API and archive them",
	Long: `Fetch your posts through the LinkedIn API and write them into the archive.

Requires a stored access token (run 'liarchive auth login' first) or the
LIARCHIVE_ACCESS_TOKEN environment variable. Requests are spaced out and
retried automatically; posts already present in the archive are skipped.`,
	Example: `  # Archive all posts with default settings
  liarchive fetch

  # Archive the 50 most recent posts to a custom directory
  liarchive fetch --limit 50 --output ~/linkedin-archive

  # Slow the client down for a large backlog
  liarchive fetch --rate-limit-delay 3.0`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().IntVarP(&fetchLimit, "limit", "n", 0, "maximum number of posts to fetch (0 = all)")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "archive directory (default ./archive)")
	fetchCmd.Flags().IntVar(&fetchPageSize, "page-size", 0, "posts per API page, max 50")
	fetchCmd.Flags().Float64Var(&fetchDelay, "rate-limit-delay", 0, "minimum seconds between API calls")
	fetchCmd.Flags().IntVar(&fetchRetries, "max-retries", 0, "maximum retry attempts per request")
	fetchCmd.Flags().BoolVar(&fetchSkipMedia, "skip-media", false, "archive text only, skip media downloads")
}

func runFetch(cmd *cobra.Command, args []string) error {
	flags := make(map[string]interface{})
	if fetchOutput != "" {
		flags["base-dir"] = fetchOutput
	}
	if fetchPageSize > 0 {
		flags["page-size"] = fetchPageSize
	}
	if fetchDelay > 0 {
		flags["rate-limit-delay"] = fetchDelay
	}
	if fetchRetries > 0 {
		flags["max-retries"] = fetchRetries
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if fetchSkipMedia {
		cfg.Media.DownloadImages = false
		cfg.Media.DownloadVideos = false
		cfg.Media.DownloadDocuments = false
	}

	log := logger.GetLogger()

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	token, err := manager.Retrieve()
	if err != nil {
		return fmt.Errorf("no access token found; run 'liarchive auth login' first")
	}
	if token.IsExpired() {
		return fmt.Errorf("stored access token has expired; run 'liarchive auth login' again")
	}

	client := linkedin.NewClient(token.AccessToken, cfg, log)

	profile, err := client.UserProfile()
	if err != nil {
		return fmt.Errorf("failed to fetch profile: %w", err)
	}
	fmt.Printf("Archiving posts for %s\n", profile.Name)

	f := fetcher.New(client, cfg.LinkedIn.PageSize, log)
	posts, fetchErr := f.FetchAll(linkedin.PersonURN(profile.Sub), fetchLimit)
	if fetchErr != nil {
		// Whatever was fetched before the failure still gets archived.
		log.WithError(fetchErr).Warn("fetch ended early, archiving partial results")
	}

	downloader := media.NewDownloader(cfg, log)
	archiver := archive.New(cfg, downloader, log)
	stats := archiver.Archive(posts)
	stats.APIRequests = client.RequestCount()

	printRunSummary(stats, cfg.Output.BaseDir)

	if fetchErr != nil {
		fmt.Fprintln(os.Stderr, fetchWarning(fetchErr))
	}
	return nil
}

// fetchWarning phrases the end-of-run warning for an interrupted fetch.
func fetchWarning(err error) string {
	switch {
	case errors.IsThrottled(err):
		return "Warning: LinkedIn throttled the run; wait a while before re-running."
	case errors.IsExhausted(err) || errors.IsRetryable(errors.TypeOf(err)):
		return "Warning: not all posts could be fetched; re-run to pick up the rest."
	default:
		return "Warning: fetch stopped early; check the log before re-running."
	}
}

func printRunSummary(stats *archive.Stats, baseDir string) {
	fmt.Printf("\nArchive run complete:\n")
	fmt.Printf("  Posts processed:  %d\n", stats.TotalPosts)
	fmt.Printf("  Archived:         %d\n", stats.Succeeded)
	fmt.Printf("  Failed:           %d\n", stats.Failed)
	fmt.Printf("  Media downloaded: %d\n", stats.MediaDownloaded)
	if stats.APIRequests > 0 {
		fmt.Printf("  API requests:     %d\n", stats.APIRequests)
	}
	fmt.Printf("  Archive:          %s\n", baseDir)

	if stats.APIRequests > quotaWarnThreshold {
		fmt.Fprintf(os.Stderr, "\nWarning: %d API requests this run; LinkedIn's daily quota may throttle further calls.\n",
			stats.APIRequests)
	}
}
