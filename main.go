// Package main provides the entry point for VMSG Viewer, a local browser for
// contacts and messages exported from feature phones.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/felo/vmsg-viewer/internal/config"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vmsg-viewer",
	Short: "Browse .vcf contacts and .vmg messages exported from a phone",
	Long: `vmsg-viewer indexes a folder of .vcf and .vmg files into SQLite and serves
a local web UI to browse conversations, contacts and full-text search.
Run without a subcommand to start the server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var (
	archivePath string
	charsetName string
	noBrowser   bool
	debug       bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&archivePath, "archive", "a", "", "override archive folder (archive.path)")
	rootCmd.PersistentFlags().StringVar(&charsetName, "charset", "", "override file encoding (archive.charset)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")

	rootCmd.Flags().BoolVar(&noBrowser, "no-browser", false, "do not open a browser on start")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads the layered configuration, applies command-line
// overrides and installs the default logger
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if archivePath != "" {
		cfg.ArchivePath = archivePath
	}
	if charsetName != "" {
		cfg.Charset = charsetName
	}
	if noBrowser {
		cfg.OpenBrowser = false
	}
	if debug {
		cfg.LogLevel = slog.LevelDebug
	}

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      cfg.LogLevel,
		TimeFormat: time.Kitchen,
	})))

	return cfg, nil
}
