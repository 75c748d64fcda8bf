package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hrygo/mindtree/cache"
	"github.com/hrygo/mindtree/configloader"
	"github.com/hrygo/mindtree/internal/profile"
	"github.com/hrygo/mindtree/internal/version"
	"github.com/hrygo/mindtree/llm"
	"github.com/hrygo/mindtree/metrics"
	"github.com/hrygo/mindtree/search"
	"github.com/hrygo/mindtree/search/engine"
	"github.com/hrygo/mindtree/search/evaluator"
	"github.com/hrygo/mindtree/search/selector"
	"github.com/hrygo/mindtree/store"
)

var rootCmd = &cobra.Command{
	Use:   "mindtree",
	Short: "A tree-search decision engine: explore, score, and select candidate reasoning steps for a problem.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Load .env from the working directory when present.
		_ = godotenv.Load()
		setupLogging(viper.GetString("mode"))
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one search over the given problem",
	RunE:  runSearch,
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List archived runs",
	RunE:  listRuns,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("mindtree %s (commit %s, built %s)\n",
			version.GetCurrentVersion(viper.GetString("mode")), version.GitCommit, version.BuildTime)
	},
}

// setupLogging installs the process-wide slog handler: JSON in prod,
// human-readable text otherwise.
func setupLogging(mode string) {
	var handler slog.Handler
	if mode == "prod" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(handler))
}

func buildProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:        viper.GetString("mode"),
		Backend:     viper.GetString("backend"),
		Data:        viper.GetString("data"),
		DSN:         viper.GetString("dsn"),
		MetricsAddr: viper.GetString("metrics-addr"),
	}
	p.FromEnv()
	p.Version = version.GetCurrentVersion(p.Mode)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func buildConfig(flags *pflag.FlagSet) (search.SearchConfig, error) {
	cfg := search.DefaultSearchConfig()
	if preset := viper.GetString("preset"); preset != "" {
		loader := configloader.NewLoader(viper.GetString("presets-dir"))
		var err error
		cfg, err = loader.LoadPreset(preset)
		if err != nil {
			return cfg, err
		}
	}

	// Only flags the user actually set override preset values.
	if flags.Changed("algorithm") {
		cfg.Algorithm = search.Algorithm(viper.GetString("algorithm"))
	}
	if flags.Changed("evaluation") {
		cfg.EvaluationMethod = search.EvaluationMethod(viper.GetString("evaluation"))
	}
	if flags.Changed("selection") {
		cfg.SelectionMethod = search.SelectionMethod(viper.GetString("selection"))
	}
	if flags.Changed("n-generate") {
		cfg.NGenerate = viper.GetInt("n-generate")
	}
	if flags.Changed("n-evaluate") {
		cfg.NEvaluate = viper.GetInt("n-evaluate")
	}
	if flags.Changed("n-select") {
		cfg.NSelect = viper.GetInt("n-select")
	}
	if flags.Changed("steps") {
		cfg.Steps = viper.GetInt("steps")
	}
	if flags.Changed("max-depth") {
		cfg.MaxDepth = viper.GetInt("max-depth")
	}
	if flags.Changed("threshold") {
		cfg.ConfidenceThreshold = viper.GetFloat64("threshold")
	}
	if flags.Changed("ratio") {
		cfg.CategoryRatio = viper.GetString("ratio")
	}
	if flags.Changed("cross") {
		cfg.CrossEvaluation = viper.GetBool("cross")
	}
	return cfg, cfg.Validate()
}

func runSearch(cmd *cobra.Command, _ []string) error {
	p, err := buildProfile()
	if err != nil {
		return err
	}
	cfg, err := buildConfig(cmd.Flags())
	if err != nil {
		return err
	}
	problem := viper.GetString("problem")
	if problem == "" {
		return fmt.Errorf("--problem is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), terminationSignals...)
	defer cancel()

	var generator search.Generator
	var scorers map[search.Origin]search.Scorer
	var rankers map[search.Origin]search.Ranker
	switch p.Backend {
	case "llm":
		client, err := llm.NewClient(llm.Config{
			Provider:          p.LLMProvider,
			Model:             p.LLMModel,
			APIKey:            p.LLMAPIKey,
			BaseURL:           p.LLMBaseURL,
			RequestsPerSecond: p.LLMRPS,
		})
		if err != nil {
			return err
		}
		backend := llm.NewBackend(client)
		generator = backend
		scorers = map[search.Origin]search.Scorer{}
		rankers = map[search.Origin]search.Ranker{}
		for _, o := range search.GenerationOrigins() {
			scorers[o] = backend.Scorer(o)
			rankers[o] = backend.Ranker(o)
		}
	default:
		backend := llm.NewDemoBackend()
		generator = backend
		scorers = map[search.Origin]search.Scorer{}
		rankers = map[search.Origin]search.Ranker{}
		for _, o := range search.GenerationOrigins() {
			scorers[o] = backend.Scorer(o)
			rankers[o] = backend.Ranker(o)
		}
	}

	scores := cache.NewScoreCache(4096, cfg.CacheTTL)
	evalOpts := []evaluator.Option{evaluator.WithScoreCache(scores)}
	for o, s := range scorers {
		evalOpts = append(evalOpts, evaluator.WithScorer(o, s))
	}
	for o, r := range rankers {
		evalOpts = append(evalOpts, evaluator.WithRanker(o, r))
	}
	eval := evaluator.New(cfg, evalOpts...)

	seed := viper.GetInt64("seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	strat, err := selector.New(cfg, rand.New(rand.NewSource(seed)))
	if err != nil {
		return err
	}

	exporter := metrics.New(metrics.DefaultConfig())
	if p.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", exporter.Handler())
			if err := http.ListenAndServe(p.MetricsAddr, mux); err != nil {
				slog.Error("metrics server failed", "addr", p.MetricsAddr, "error", err)
			}
		}()
	}

	eng, err := engine.New(cfg, generator, eval, strat,
		engine.WithMetrics(exporter), engine.WithScoreCache(scores))
	if err != nil {
		return err
	}

	result, err := eng.Run(ctx, problem)
	if err != nil {
		return err
	}
	printResult(result)

	if p.DSN != "" {
		archive, err := store.Open(ctx, p.DSN)
		if err != nil {
			return err
		}
		defer archive.Close()
		if err := archive.SaveResult(ctx, result); err != nil {
			return err
		}
		slog.Info("run archived", "run_id", result.RunID, "dsn", p.DSN)
	}
	return nil
}

func printResult(result *search.SearchResult) {
	fmt.Printf("run %s: best score %.2f (%s, depth %d, early_stop=%v, %s)\n",
		result.RunID, *result.BestThought.Score, result.Metadata.Algorithm,
		result.Metadata.DepthReached, result.Metadata.EarlyStopped, result.Metadata.Duration.Round(time.Millisecond))
	fmt.Println("path:")
	for i, t := range result.Path {
		score := "unscored"
		if t.Score != nil {
			score = fmt.Sprintf("%.2f", *t.Score)
		}
		fmt.Printf("  %d. [%s %s] %s\n", i+1, t.Origin, score, t.Text)
	}
}

func listRuns(_ *cobra.Command, _ []string) error {
	p, err := buildProfile()
	if err != nil {
		return err
	}
	if p.DSN == "" {
		return fmt.Errorf("run archive requires --data or --dsn")
	}

	ctx := context.Background()
	archive, err := store.Open(ctx, p.DSN)
	if err != nil {
		return err
	}
	defer archive.Close()

	runs, err := archive.ListRuns(ctx, viper.GetInt("limit"))
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Printf("%s  %-5s score=%.2f depth=%d thoughts=%d early_stop=%v  %s  %s\n",
			r.CreatedAt.Format(time.RFC3339), r.Algorithm, r.BestScore,
			r.DepthReached, r.Generated, r.EarlyStopped, r.RunID, r.Problem)
	}
	return nil
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("mode", "demo", `run mode, can be "prod", "dev" or "demo"`)
	pf.String("backend", "", `generation backend, "llm" or "demo" (default inferred from mode)`)
	pf.String("data", "", "data directory for the run archive")
	pf.String("dsn", "", "run archive DSN (sqlite file path)")
	pf.String("metrics-addr", "", "address to serve /metrics on, e.g. :9090")

	rf := runCmd.Flags()
	rf.String("problem", "", "problem statement to search over")
	rf.String("preset", "", "search config preset name")
	rf.String("presets-dir", "presets", "directory holding preset YAML files")
	rf.String("algorithm", "bfs", `traversal algorithm, "bfs" or "dfs"`)
	rf.String("evaluation", "value", `evaluation method, "value" or "vote"`)
	rf.String("selection", "greedy", "selection strategy: greedy, sample, hybrid, threshold, ensemble, category")
	rf.Int("n-generate", 5, "max thoughts generated per expansion")
	rf.Int("n-evaluate", 3, "scoring samples (or rankings) per batch")
	rf.Int("n-select", 3, "frontier size kept after selection")
	rf.Int("steps", 3, "max BFS levels")
	rf.Int("max-depth", 3, "max tree depth")
	rf.Float64("threshold", 0, "early-stop score threshold (0 disables)")
	rf.String("ratio", "5:5", "creative:practical generation ratio")
	rf.Bool("cross", false, "enable cross-category evaluation")
	rf.Int64("seed", 0, "random seed for probabilistic selection (0 = time-based)")

	runsCmd.Flags().Int("limit", 20, "max runs to list")

	cobra.CheckErr(viper.BindPFlags(pf))
	cobra.CheckErr(viper.BindPFlags(rf))
	cobra.CheckErr(viper.BindPFlags(runsCmd.Flags()))

	rootCmd.AddCommand(runCmd, runsCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
