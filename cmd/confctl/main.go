// Package main is the entry point for confctl, the operator CLI for the
// conference catalog lookups and enrichment pipeline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/helixir/conference-catalog-service/internal/classifier"
	"github.com/helixir/conference-catalog-service/internal/config"
	"github.com/helixir/conference-catalog-service/internal/observability"
	"github.com/helixir/conference-catalog-service/internal/papersources"
	"github.com/helixir/conference-catalog-service/internal/papersources/core"
	"github.com/helixir/conference-catalog-service/internal/papersources/semanticscholar"
	"github.com/helixir/conference-catalog-service/internal/ranking"
)

// version is set at build time via ldflags.
var version = "dev"

var v = viper.New()

var rootCmd = &cobra.Command{
	Use:     "confctl",
	Short:   "Query the conference catalog lookups and enrichment pipeline",
	Version: version,
	Long: `confctl runs the conference catalog lookups from the command line: author
resolution, venue paper search, field classification, ranking and offline
enrichment of a submission file. It reads the same configuration file and
CONFCATALOG_* environment variables as the server.`,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ./config.yaml or /etc/conference-catalog-service/config.yaml)")
	flags.String("log-level", "warn", "log level (trace, debug, info, warn, error)")
	flags.String("semantic-scholar-url", "", "override the Semantic Scholar API base URL")
	flags.Bool("core", false, "enable CORE ranking lookups")

	_ = v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("semantic_scholar.base_url", flags.Lookup("semantic-scholar-url"))
	_ = v.BindPFlag("core.enabled", flags.Lookup("core"))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// toolkit holds the collaborators the subcommands share.
type toolkit struct {
	cfg        *config.Config
	logger     zerolog.Logger
	scholar    *semanticscholar.Client
	classifier *classifier.Classifier
	ranker     *ranking.Aggregator
}

func newToolkit(cmd *cobra.Command) (*toolkit, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
	}

	cfg, err := config.LoadWith(v)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := "warn"
	if cmd.Flags().Changed("log-level") {
		level = cfg.Logging.Level
	}
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      level,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: time.RFC3339,
	})
	logger = logger.With().Str("component", "confctl").Logger()

	scholar := semanticscholar.NewClient(semanticscholar.Config{
		BaseURL:        cfg.SemanticScholar.BaseURL,
		APIKey:         cfg.SemanticScholar.APIKey,
		Timeout:        cfg.SemanticScholar.Timeout,
		RateLimit:      cfg.SemanticScholar.RateLimit,
		CandidateLimit: cfg.SemanticScholar.CandidateLimit,
		MaxAttempts:    cfg.SemanticScholar.MaxAttempts,
		BackoffBase:    cfg.SemanticScholar.BackoffBase,
		BackoffMax:     cfg.SemanticScholar.BackoffMax,
	}, nil, logger, nil)

	var source papersources.RankingSource
	if cfg.Core.Enabled {
		source = core.NewClient(core.Config{
			BaseURL:         cfg.Core.BaseURL,
			APIKey:          cfg.Core.APIKey,
			Timeout:         cfg.Core.Timeout,
			MinInterval:     cfg.Core.MinInterval,
			CacheTTL:        cfg.Core.CacheTTL,
			BreakerFailures: cfg.Core.BreakerFailures,
			BreakerCooldown: cfg.Core.BreakerCooldown,
		}, nil, logger, nil)
	}

	return &toolkit{
		cfg:        cfg,
		logger:     logger,
		scholar:    scholar,
		classifier: classifier.New(nil, logger, nil),
		ranker:     ranking.New(source, logger, nil),
	}, nil
}

// printJSON writes value to the command's output as indented JSON.
func printJSON(cmd *cobra.Command, value interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
