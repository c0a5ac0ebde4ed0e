// File: cmd/analyze.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/riskledger/api/schemas"
	"github.com/xkilldash9x/riskledger/internal/config"
	"github.com/xkilldash9x/riskledger/internal/financial"
	"github.com/xkilldash9x/riskledger/internal/llmclient"
	"github.com/xkilldash9x/riskledger/internal/mapping"
	"github.com/xkilldash9x/riskledger/internal/observability"
	"github.com/xkilldash9x/riskledger/internal/reporting"
	"github.com/xkilldash9x/riskledger/internal/results"
	"github.com/xkilldash9x/riskledger/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// dataStore is the database side of an analysis: the asset inventory and the
// analysis archive.
type dataStore interface {
	schemas.AssetStore
	schemas.AnalysisStore
}

var (
	_ dataStore          = (*store.Store)(nil)
	_ schemas.AssetStore = (*store.FileAssetStore)(nil)
)

// storeProvider creates the database-backed store. It exists so tests can
// inject a mock instead of a live PostgreSQL connection.
type storeProvider interface {
	// Create returns the store and a cleanup function releasing its resources.
	Create(ctx context.Context, cfg config.Interface) (dataStore, func(), error)
}

type defaultStoreProvider struct{}

// NewStoreProvider returns the PostgreSQL-backed provider.
func NewStoreProvider() storeProvider {
	return &defaultStoreProvider{}
}

// Create connects to the configured database and makes sure the schema exists.
func (p *defaultStoreProvider) Create(ctx context.Context, cfg config.Interface) (dataStore, func(), error) {
	logger := observability.GetLogger()
	s, pool, err := store.Open(ctx, cfg.Database().URL, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	cleanup := func() {
		pool.Close()
		logger.Debug("Database connection pool closed.")
	}
	return s, cleanup, nil
}

// analyzeOptions carries the analyze command's flags.
type analyzeOptions struct {
	resultsPath string
	assetsPath  string
	ownerID     string
	rulesPath   string
	format      string
	outputPath  string
	persist     bool
	metricsFile string
	concurrency int
}

func newAnalyzeCmd(provider storeProvider) *cobra.Command {
	opts := analyzeOptions{}

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Map findings to assets and price their financial impact",
		Long: `Reads a tool results JSON file (tool name -> {"essential": [...], "error": ...}),
maps every finding to a business asset, estimates its financial exposure and
writes one risk ticket per finding.

The asset inventory comes from --assets, or from the configured database when
the flag is omitted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			return runAnalyze(cmd.Context(), cfg, opts, provider, observability.GetLogger())
		},
	}

	analyzeCmd.Flags().StringVarP(&opts.resultsPath, "results", "r", "", "Path to the tool results JSON file (required)")
	analyzeCmd.Flags().StringVarP(&opts.assetsPath, "assets", "a", "", "Path to an asset inventory JSON file (default: read from the database)")
	analyzeCmd.Flags().StringVar(&opts.ownerID, "owner", "", "Owner whose asset inventory is used")
	analyzeCmd.Flags().StringVar(&opts.rulesPath, "rules", "", "Asset mapping rules file (overrides mapping.rules_path)")
	analyzeCmd.Flags().StringVarP(&opts.format, "format", "f", reporting.FormatMarkdown, "Output format (json, markdown, sarif)")
	analyzeCmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().BoolVar(&opts.persist, "persist", false, "Store the analysis in the database")
	analyzeCmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write prometheus metrics to this textfile (overrides metrics.textfile)")
	analyzeCmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "Findings matched in parallel (overrides pipeline.concurrency)")
	_ = analyzeCmd.MarkFlagRequired("results")

	return analyzeCmd
}

// runAnalyze wires the pipeline from configuration and runs it once.
func runAnalyze(ctx context.Context, cfg config.Interface, opts analyzeOptions, provider storeProvider, logger *zap.Logger) error {
	start := time.Now()
	if opts.rulesPath != "" {
		cfg.SetRulesPath(opts.rulesPath)
	}
	if opts.concurrency > 0 {
		cfg.SetPipelineConcurrency(opts.concurrency)
	}

	toolResults, err := loadToolResults(opts.resultsPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	metrics := observability.NewMetrics(cfg.Metrics().Namespace)
	rules, stopWatch := newRuleStore(ctx, cfg.Mapping(), metrics, logger)
	defer stopWatch()

	ai, closeAI, err := newAIMatcher(ctx, cfg, metrics, logger)
	if err != nil {
		return err
	}
	defer closeAI()

	assets, archive, cleanup, err := openStores(ctx, cfg, opts, provider, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	pipeline := results.NewPipeline(assets, rules, ai, results.Options{
		Concurrency: cfg.Pipeline().Concurrency,
		Params:      financial.ParamsFromConfig(cfg.Financial()),
		Metrics:     metrics,
	}, logger)

	result, err := pipeline.ProcessResults(ctx, toolResults, opts.ownerID)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if err := writeReport(result, opts.format, opts.outputPath); err != nil {
		return err
	}

	if archive != nil {
		if err := archive.PersistAnalysis(ctx, result); err != nil {
			return fmt.Errorf("failed to persist analysis: %w", err)
		}
		logger.Info("Analysis persisted.", zap.String("analysis_id", result.AnalysisID))
	}

	if path := firstNonEmpty(opts.metricsFile, cfg.Metrics().Textfile); path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			return err
		}
	}

	logger.Info("Analysis complete.",
		zap.String("analysis_id", result.AnalysisID),
		zap.Int("tickets", len(result.RiskTickets)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// loadToolResults decodes the tool results file.
func loadToolResults(path string) (schemas.ToolResults, error) {
	if path == "" {
		return nil, errors.New("a results file is required (--results)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results file %s: %w", path, err)
	}
	var tr schemas.ToolResults
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, fmt.Errorf("failed to parse results file %s: %w", path, err)
	}
	return tr, nil
}

// newRuleStore loads the mapping rules and, when configured, keeps them in
// sync with the file. Each run matches against one snapshot, so a reload only
// affects runs that start after it. The returned stop function cancels the
// watcher and waits for it to exit.
func newRuleStore(ctx context.Context, cfg config.MappingConfig, metrics *observability.Metrics, logger *zap.Logger) (*mapping.RuleStore, func()) {
	rules := mapping.NewRuleStore(cfg.RulesPath, logger, func(_ *mapping.RuleSet, err error) {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		metrics.RuleReloads.WithLabelValues(outcome).Inc()
	})

	if !cfg.WatchRules {
		return rules, func() {}
	}

	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := rules.Watch(watchCtx); err != nil {
			logger.Warn("Rules watcher stopped.", zap.Error(err))
		}
	}()
	return rules, func() {
		cancel()
		<-done
	}
}

// newAIMatcher builds the AI tier. A missing provider or API key disables the
// tier instead of failing the run.
func newAIMatcher(ctx context.Context, cfg config.Interface, metrics *observability.Metrics, logger *zap.Logger) (*mapping.AIMatcher, func(), error) {
	noop := func() {}
	llmCfg := cfg.LLM()

	client, err := llmclient.NewClient(ctx, llmCfg, logger)
	switch {
	case errors.Is(err, llmclient.ErrProviderDisabled):
		logger.Debug("No LLM provider configured; AI asset matching disabled.")
		return nil, noop, nil
	case errors.Is(err, llmclient.ErrMissingAPIKey):
		logger.Warn("LLM provider configured without an API key; AI asset matching disabled.",
			zap.String("provider", string(llmCfg.Provider)))
		return nil, noop, nil
	case err != nil:
		return nil, noop, fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	pcfg := cfg.Pipeline()
	matcher := mapping.NewAIMatcher(client, mapping.AIOptions{
		Timeout:      pcfg.AITimeout,
		PreviewChars: pcfg.AIPreviewChars,
		Temperature:  float64(llmCfg.Temperature),
		MaxTokens:    llmCfg.MaxTokens,
		OnOutcome: func(o mapping.AIOutcome) {
			metrics.AIRequests.WithLabelValues(string(o)).Inc()
		},
	}, logger)

	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Debug("Failed to close LLM client.", zap.Error(err))
		}
	}
	return matcher, closeFn, nil
}

// openStores picks the asset source and, with --persist, the analysis
// archive. The database is opened only when one of them needs it.
func openStores(ctx context.Context, cfg config.Interface, opts analyzeOptions, provider storeProvider, logger *zap.Logger) (schemas.AssetStore, schemas.AnalysisStore, func(), error) {
	noop := func() {}
	needDB := opts.persist || opts.assetsPath == ""

	var db dataStore
	cleanup := noop
	if needDB {
		if cfg.Database().URL == "" {
			if opts.persist {
				return nil, nil, noop, fmt.Errorf("--persist requires a database (RISKLEDGER_DATABASE_URL): %w", store.ErrNoDatabase)
			}
			logger.Warn("No asset file and no database configured; every finding will be unmapped.")
		} else {
			s, c, err := provider.Create(ctx, cfg)
			if err != nil {
				return nil, nil, noop, fmt.Errorf("failed to open database: %w", err)
			}
			db, cleanup = s, c
		}
	}

	var assets schemas.AssetStore
	switch {
	case opts.assetsPath != "":
		assets = store.NewFileAssetStore(opts.assetsPath, logger)
	case db != nil:
		assets = db
	}

	var archive schemas.AnalysisStore
	if opts.persist {
		archive = db
	}
	return assets, archive, cleanup, nil
}

// writeReport renders result in format to outputPath ("" for stdout).
func writeReport(result *schemas.AnalysisResult, format, outputPath string) error {
	reporter, err := reporting.New(format, outputPath, Version)
	if err != nil {
		return err
	}
	if err := reporter.Write(result); err != nil {
		_ = reporter.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := reporter.Close(); err != nil {
		return fmt.Errorf("failed to finalize report: %w", err)
	}
	if outputPath != "" && outputPath != "stdout" {
		observability.GetLogger().Info("Report written.", zap.String("path", outputPath), zap.String("format", format))
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
