// Package main provides the entry point for the walk-forward backtesting CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/alpha-lab/internal/backtest"
	"github.com/yourusername/alpha-lab/internal/config"
	"github.com/yourusername/alpha-lab/internal/database"
	"github.com/yourusername/alpha-lab/internal/datasource"
	"github.com/yourusername/alpha-lab/internal/health"
	applogger "github.com/yourusername/alpha-lab/internal/logger"
	"github.com/yourusername/alpha-lab/internal/metrics"
	"github.com/yourusername/alpha-lab/internal/models"
	"github.com/yourusername/alpha-lab/internal/repository"
	"github.com/yourusername/alpha-lab/internal/scheduler"
	"github.com/yourusername/alpha-lab/internal/timeseries"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	factorName string
	startStr   string
	endStr     string
	outputPath string
	htmlPath   string
	csvPath    string
	listLimit  int

	logger      *logrus.Logger
	cfg         *config.Config
	costs       *config.CostsConfig
	constraints *config.ConstraintsConfig
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")

	runCmd.Flags().StringVar(&factorName, "factor", "momentum", "Factor name under test")
	runCmd.Flags().StringVar(&startStr, "start-date", "", "Override start date (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&endStr, "end-date", "", "Override end date (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&outputPath, "output", "", "Output path for JSON results")
	runCmd.Flags().StringVar(&htmlPath, "html", "", "Output path for HTML report")
	runCmd.Flags().StringVar(&csvPath, "csv", "", "Output path for per-split CSV export")

	listCmd.Flags().IntVar(&listLimit, "limit", 10, "Maximum number of runs to list")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Walk-forward factor backtesting and validation",
	Long:  `Runs purged walk-forward backtests over signal and price panels, validates the results, and tracks signal decay.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		return setup()
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a walk-forward backtest for a single factor",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return runBacktest(ctx)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduled refresh loop with a metrics endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent persisted backtest runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listRuns(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("backtest %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func setup() error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger = applogger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)

	costs, err = config.LoadCosts(cfg.Backtest.CostsPath)
	if err != nil {
		return fmt.Errorf("failed to load cost model: %w", err)
	}
	constraints, err = config.LoadConstraints(cfg.Backtest.ConstraintsPath)
	if err != nil {
		return fmt.Errorf("failed to load validation constraints: %w", err)
	}

	cv := config.NewValidator()
	if err := cv.ValidateCosts(costs); err != nil {
		return fmt.Errorf("invalid cost model: %w", err)
	}
	if err := cv.ValidateConstraints(constraints); err != nil {
		return fmt.Errorf("invalid validation constraints: %w", err)
	}

	return nil
}

func runBacktest(ctx context.Context) error {
	started := time.Now()

	source, err := datasource.NewFromConfig(cfg.Data, logger)
	if err != nil {
		return fmt.Errorf("failed to build data source: %w", err)
	}

	start, end, err := parseDateRange(startStr, endStr)
	if err != nil {
		return err
	}

	prices, err := source.FetchPrices(ctx, start, end)
	if err != nil {
		return fmt.Errorf("failed to fetch prices: %w", err)
	}
	signals, err := source.FetchSignals(ctx, start, end)
	if err != nil {
		return fmt.Errorf("failed to fetch signals: %w", err)
	}
	metrics.UpdatePanelShape(prices.Len(), prices.NumTickers())

	returns := timeseries.Returns(prices)
	if returns.Len() == 0 {
		return fmt.Errorf("no price history in the requested date range")
	}
	spec := models.DefaultFactorSpec(factorName)

	runLog := applogger.NewRunLogger(logger)
	runLog.LogRunStart(spec.Name, returns.Dates[0], returns.Dates[len(returns.Dates)-1],
		returns.NumTickers(), constraints.WalkForward.NSplits)

	engine := backtest.NewEngine(costs, constraints, backtest.EngineConfig{
		MaxLeverage:       cfg.Backtest.MaxLeverage,
		MaxSinglePosition: cfg.Backtest.MaxSinglePosition,
		RiskFreeRate:      cfg.Backtest.RiskFreeRate,
		Workers:           cfg.Backtest.Workers,
	}, logger)

	result, err := engine.WalkForward(ctx, signals, returns, spec)
	if err != nil {
		metrics.RecordBacktestRun(spec.Name, "false", time.Since(started).Seconds())
		return fmt.Errorf("walk-forward backtest failed: %w", err)
	}

	scores := signals.CrossSectionMean()
	fwd := returns.CrossSectionMean().Shift(-1)
	rollingIC := backtest.RollingIC(scores, fwd, 21)

	validator := backtest.NewValidator(constraints, logger)
	isValid, issues := validator.ValidateRun(backtest.ValidationInput{
		Signals:          signals,
		Returns:          returns,
		Prices:           prices,
		Positions:        result.Positions,
		PortfolioReturns: result.Returns,
		RollingIC:        rollingIC,
		Metrics:          result.Overall.MetricsRecord,
	})

	fatal := 0
	for _, issue := range issues {
		metrics.RecordValidationIssue(issue.Type, string(issue.Severity))
		runLog.LogValidationIssue(spec.Name, issue.Type, string(issue.Severity), issue.Detail)
		if issue.IsFatal() {
			fatal++
		}
	}
	runLog.LogValidationResult(spec.Name, isValid, len(issues), fatal)

	decay := backtest.TrackICDecay(scores, fwd, 63, 10)
	runLog.LogDecayReport(spec.Name, decay.DecayRate, decay.InitialIC, decay.FinalIC, decay.DecayDetected)

	duration := time.Since(started)
	metrics.RecordBacktestRun(spec.Name, fmt.Sprintf("%t", isValid), duration.Seconds())
	metrics.UpdateFactorScores(spec.Name, result.Overall.Sharpe, result.Overall.SplitICMean)
	runLog.LogRunComplete(spec.Name, result.Overall.Sharpe, result.Overall.MaxDD,
		result.Overall.SplitICMean, result.Overall.TurnoverMonthly, float64(duration.Milliseconds()))

	fmt.Println(backtest.GenerateConsoleReport(result, isValid, issues))

	if err := writeArtifacts(result, isValid, issues); err != nil {
		return err
	}

	if cfg.Database.Enabled() {
		if err := persistRun(ctx, result, spec, isValid, issues); err != nil {
			return fmt.Errorf("failed to persist run: %w", err)
		}
	}

	return nil
}

func parseDateRange(startOverride, endOverride string) (time.Time, time.Time, error) {
	// A zero start with a far-future end loads the full panel.
	start := time.Time{}
	end := time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)

	if startOverride != "" {
		parsed, err := time.Parse("2006-01-02", startOverride)
		if err != nil {
			return start, end, fmt.Errorf("invalid start date: %w", err)
		}
		start = parsed
	}
	if endOverride != "" {
		parsed, err := time.Parse("2006-01-02", endOverride)
		if err != nil {
			return start, end, fmt.Errorf("invalid end date: %w", err)
		}
		end = parsed
	}
	return start, end, nil
}

func writeArtifacts(result *backtest.Result, isValid bool, issues []models.Issue) error {
	jsonPath := outputPath
	if jsonPath == "" {
		jsonPath = cfg.Backtest.OutputPath
	}
	if jsonPath != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
		logger.WithField("path", jsonPath).Info("Results written")
	}

	if htmlPath != "" {
		if err := backtest.GenerateHTMLReport(result, isValid, issues, htmlPath); err != nil {
			return fmt.Errorf("failed to write HTML report: %w", err)
		}
	}
	if csvPath != "" {
		if err := backtest.GenerateCSVExport(result, csvPath); err != nil {
			return fmt.Errorf("failed to write CSV export: %w", err)
		}
	}
	return nil
}

func persistRun(ctx context.Context, result *backtest.Result, spec models.FactorSpec, isValid bool, issues []models.Issue) error {
	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return err
	}

	if _, err := repos.Factor.GetByName(ctx, spec.Name); err == models.ErrNotFound {
		if err := repos.Factor.Create(ctx, &spec); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	full, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal full results: %w", err)
	}

	run := &models.BacktestRun{
		ID:          uuid.New(),
		FactorID:    spec.ID,
		FactorName:  spec.Name,
		RunDate:     time.Now().UTC(),
		StartDate:   result.StartDate,
		EndDate:     result.EndDate,
		NumSplits:   len(result.Splits),
		NumTickers:  result.NumTickers,
		Sharpe:      result.Overall.Sharpe,
		MaxDrawdown: result.Overall.MaxDD,
		AvgIC:       result.Overall.SplitICMean,
		Turnover:    result.Overall.TurnoverMonthly,
		IsValid:     isValid,
		Issues:      issues,
		FullResults: full,
	}

	if err := repos.Run.Save(ctx, run); err != nil {
		return err
	}
	logger.WithField("run_id", run.ID).Info("Run persisted")
	return nil
}

func serve(ctx context.Context) error {
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
		server := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: mux,
		}
		go func() {
			logger.WithField("addr", server.Addr).Info("Metrics server listening")
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Error("Metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	if !cfg.Scheduler.Enabled {
		return fmt.Errorf("scheduler is disabled in configuration")
	}

	var pinger health.DatabasePinger
	if cfg.Database.Enabled() {
		db, err := database.Initialize(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		pinger = db
	}

	healthSrv := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Logger:      logger,
		DB:          pinger,
	})
	if err := healthSrv.Start(ctx); err != nil {
		return err
	}

	sched := scheduler.NewScheduler(logger, cfg.Scheduler.TimeoutMinutes)
	if err := sched.ScheduleRefresh(cfg.Scheduler.RefreshCron, func(jobCtx context.Context) error {
		return runBacktest(jobCtx)
	}); err != nil {
		return err
	}
	if err := sched.Start(); err != nil {
		return err
	}
	defer func() {
		if err := sched.Stop(); err != nil {
			logger.WithError(err).Error("Failed to stop scheduler")
		}
	}()
	healthSrv.SetReady(true)

	<-ctx.Done()
	logger.Info("Shutting down")
	return nil
}

func listRuns(ctx context.Context) error {
	if !cfg.Database.Enabled() {
		return fmt.Errorf("database is not configured")
	}

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return err
	}

	runs, err := repos.Run.GetLatest(ctx, listLimit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No runs found")
		return nil
	}

	fmt.Printf("%-20s %-12s %8s %8s %8s %8s %6s\n",
		"FACTOR", "RUN DATE", "SHARPE", "MAXDD", "AVG IC", "TURN/M", "VALID")
	for _, run := range runs {
		fmt.Printf("%-20s %-12s %8.2f %7.1f%% %8.4f %7.1f%% %6t\n",
			run.FactorName,
			run.RunDate.Format("2006-01-02"),
			run.Sharpe,
			run.MaxDrawdown*100,
			run.AvgIC,
			run.Turnover,
			run.IsValid)
	}
	return nil
}
