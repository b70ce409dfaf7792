package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"purchase-drivers/internal/analyzer"
	"purchase-drivers/internal/config"
	"purchase-drivers/internal/crawler"
	"purchase-drivers/internal/pipeline"
	"purchase-drivers/internal/store"
	"purchase-drivers/internal/taxonomy"
	"purchase-drivers/pkg/logger"
)

var (
	taxonomyPath string
	dbPath       string
	logLevel     string
	noColor      bool
)

var rootCmd = &cobra.Command{
	Use:   "purchase-drivers",
	Short: "Estimate why people buy a product from its page text",
	Long: `purchase-drivers fetches a product page, extracts its title, description,
price and reviews, and scores them against a taxonomy of purchase drivers
(price, quality, shipping, brand trust, ...).

Run without a subcommand for an interactive prompt.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
	RunE: runInteractive,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&taxonomyPath, "taxonomy", "", "taxonomy YAML file (default: embedded Spanish taxonomy)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "sqlite file to keep report history in")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// app is everything a command needs, built from config plus flags.
type app struct {
	cfg      config.Config
	log      *logger.Logger
	tax      *taxonomy.Taxonomy
	pipeline *pipeline.Pipeline
	store    *store.Store
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if taxonomyPath != "" {
		cfg.TaxonomyPath = taxonomyPath
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	a := &app{cfg: cfg, log: cfg.Logger()}
	a.tax, err = cfg.Taxonomy()
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{pipeline.WithTimeout(cfg.FetchTimeout * 2)}
	if cfg.DBPath != "" {
		a.store, err = store.Open(ctx, cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open history %s: %w", cfg.DBPath, err)
		}
		opts = append(opts, pipeline.WithRecorder(a.store))
	}

	client := crawler.NewHTTPClient(cfg.CrawlerOptions())
	a.pipeline = pipeline.New(client, analyzer.New(a.tax, analyzer.DefaultOptions()), a.log, opts...)
	return a, nil
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Errorf("close history: %v", err)
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
