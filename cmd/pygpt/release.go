package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gutosantos82/py-gpt/internal/config"
	"github.com/gutosantos82/py-gpt/internal/logger"
	"github.com/gutosantos82/py-gpt/internal/release"
)

var (
	releaseConfigPath string
	releaseManifest   string
	releaseDryRun     bool
	releaseSkipUpload bool
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Run the release packaging pipeline",
	Long: `Run the release packaging pipeline described by the release manifest.
Steps execute strictly in manifest order; the first failure aborts the run.
Upload steps only execute when uploading is enabled in the configuration
and --skip-upload is not given.`,
	Run: runRelease,
}

func runRelease(cmd *cobra.Command, args []string) {
	configPath := releaseConfigPath
	if configPath == "" {
		configPath = "./config.toml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	manifestPath := releaseManifest
	if manifestPath == "" {
		manifestPath = cfg.Release.ManifestPath
	}
	if manifestPath == "" {
		fmt.Fprintln(os.Stderr, "No release manifest configured; set release.manifest_path or pass --manifest")
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	manifest, err := release.LoadManifest(manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load manifest: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipeline := release.NewPipeline(manifest, cfg.Release, log)
	if err := pipeline.Run(ctx, release.Options{
		DryRun:     releaseDryRun,
		SkipUpload: releaseSkipUpload,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Release failed: %v\n", err)
		os.Exit(1)
	}

	if releaseDryRun {
		fmt.Println("Dry run complete, nothing executed.")
		return
	}
	fmt.Printf("✅ Release %s %s complete\n", manifest.Name, manifest.Version)
}

func init() {
	releaseCmd.Flags().StringVarP(&releaseConfigPath, "config", "c", "", "Path to configuration file (default: ./config.toml)")
	releaseCmd.Flags().StringVarP(&releaseManifest, "manifest", "m", "", "Path to release manifest (overrides config)")
	releaseCmd.Flags().BoolVar(&releaseDryRun, "dry-run", false, "Print the plan without executing steps")
	releaseCmd.Flags().BoolVar(&releaseSkipUpload, "skip-upload", false, "Skip upload steps")
}
