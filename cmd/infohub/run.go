package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	_ "gocloud.dev/blob/fileblob" // file:// bucket support

	"infohub/internal/fetcher"
	"infohub/internal/pipeline"
	"infohub/pkg/config"
	"infohub/pkg/events"
	"infohub/pkg/fingerprint"
	"infohub/pkg/hasher"
	"infohub/pkg/logger"
	"infohub/pkg/ratelimit"
	"infohub/pkg/retry"
	"infohub/pkg/source"
	"infohub/pkg/storage"
)

var (
	linksFile   string
	outputDir   string
	hashDir     string
	bucketURL   string
	concurrency int
	maxAttempts int
	minYear     int
)

var runCmd = &cobra.Command{
	Use:   "run [urls...]",
	Short: "Download changed files from a links file or explicit URLs",
	Long: `Run the download pipeline over a set of candidate URLs.

Candidates come from a links file (one URL per line, as produced by the
page-discovery crawler) or from URLs passed as arguments. Files are stored
under <output>/<category>/<filename>; the category is derived from filename
keywords.`,
	Example: `  infohub run --links-file data/last_checked_urls.txt
  infohub run https://example.org/files/graduation-results-2024.xlsx`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().StringVarP(&linksFile, "links-file", "f", "", "file of candidate URLs, one per line")
	runCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for downloaded files")
	runCmd.Flags().StringVar(&hashDir, "hash-dir", "", "directory for the fingerprint index")
	runCmd.Flags().StringVar(&bucketURL, "bucket-url", "", "write files to a blob bucket (file://, ...) instead of the local store")
	runCmd.Flags().IntVarP(&concurrency, "concurrency", "n", 0, "maximum simultaneous downloads")
	runCmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "attempts per file before giving up")
	runCmd.Flags().IntVar(&minYear, "min-year", 0, "admit only URLs naming this year or later")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, map[string]interface{}{
		"links-file":   linksFile,
		"output":       outputDir,
		"hash-dir":     hashDir,
		"bucket-url":   bucketURL,
		"concurrency":  concurrency,
		"max-attempts": maxAttempts,
		"min-year":     minYear,
		"log-level":    logLevel,
	})
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := buildSource(cfg, log, args)
	if err != nil {
		return err
	}

	store, err := fingerprint.NewStore(cfg.Storage.HashDir, log)
	if err != nil {
		return err
	}

	writer, cleanup, err := buildWriter(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	hashPool := hasher.NewPool(cfg.Download.HashWorkers)
	defer hashPool.Close()

	sinks := events.MultiSink{events.NewLogSink(log)}
	if console := events.NewConsoleSink(); console != nil {
		sinks = append(sinks, console)
	}

	p := pipeline.New(pipeline.Params{
		Fetcher:     fetcher.New(cfg.Download.AttemptTimeout, cfg.Download.UserAgent, log),
		Hasher:      hashPool,
		Store:       store,
		Writer:      writer,
		Policy:      retry.NewPolicy(&cfg.Retry),
		Limiter:     ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute),
		Sink:        sinks,
		Logger:      log,
		Concurrency: cfg.Download.Concurrency,
	})

	outcomes, runErr := p.Run(ctx, src)

	failed := 0
	for _, out := range outcomes {
		if out.Status == pipeline.StatusFailed {
			failed++
		}
	}

	if runErr != nil {
		return fmt.Errorf("run interrupted after %d outcomes: %w", len(outcomes), runErr)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", failed, len(outcomes))
	}
	return nil
}

// buildSource selects between explicit URL arguments and the configured
// links file.
func buildSource(cfg *config.Config, log logger.Logger, args []string) (source.CandidateSource, error) {
	if len(args) > 0 {
		descriptors := make([]source.Descriptor, 0, len(args))
		for _, raw := range args {
			d, err := source.Describe(raw)
			if err != nil {
				return nil, err
			}
			descriptors = append(descriptors, d)
		}
		return source.NewSliceSource(descriptors), nil
	}

	if cfg.Source.LinksFile == "" {
		return nil, fmt.Errorf("no candidates: pass URLs or set --links-file")
	}
	return source.NewLinksFileSource(cfg.Source.LinksFile, cfg.Source.MinYear, log)
}

// buildWriter selects the storage backend.
func buildWriter(ctx context.Context, cfg *config.Config) (storage.Writer, func(), error) {
	if cfg.Storage.Backend == "bucket" {
		w, err := storage.OpenBucketWriter(ctx, cfg.Storage.BucketURL)
		if err != nil {
			return nil, nil, err
		}
		return w, func() { w.Close() }, nil
	}

	w, err := storage.NewLocalWriter(cfg.Storage.DataDir)
	if err != nil {
		return nil, nil, err
	}
	return w, func() {}, nil
}
