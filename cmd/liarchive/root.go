package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"liarchive/pkg/config"
	"liarchive/pkg/logger"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "liarchive",
	Short: "Archive your LinkedIn posts as local markdown",
	Long: `liarchive preserves your LinkedIn posts as a browsable local archive.

Each post becomes a dated markdown file with its media downloaded alongside,
and an index groups the whole archive by year. Posts can come from the
LinkedIn API (liarchive fetch) or from a LinkedIn data export ZIP
(liarchive import). Re-running either command skips posts that are already
archived, so the archive can be kept current incrementally.

Access tokens are stored in the system keychain when available, falling back
to an encrypted file.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .liarchive.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`liarchive {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads configuration with the command's flag overrides and
// initializes logging from the result.
func loadConfig(flags map[string]interface{}) (*config.Config, error) {
	if quiet {
		logLevel = "error"
	}
	if logLevel != "" {
		if flags == nil {
			flags = make(map[string]interface{})
		}
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Initialize(&cfg.Logging)
	return cfg, nil
}
