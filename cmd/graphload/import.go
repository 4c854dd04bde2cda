package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vanshika/graphload/internal/config"
	"github.com/vanshika/graphload/internal/domain"
	"github.com/vanshika/graphload/internal/logging"
	"github.com/vanshika/graphload/internal/repository"
	"github.com/vanshika/graphload/internal/service"
	"github.com/vanshika/graphload/internal/tabular"
)

type importFlags struct {
	headers       string
	workers       int
	maxAttempts   int
	timeout       time.Duration
	failFastRate  float64
	ratePerSecond float64
	matchProperty string
	matchLabel    string
	idFunction    string
	database      string
	reportOut     string
	rerun         string
}

func (a *app) importCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import vertices or edges from a CSV file",
	}
	cmd.AddCommand(a.importKindCommand(service.KindVertices, "Create one vertex per CSV row (label column plus properties)"))
	cmd.AddCommand(a.importKindCommand(service.KindEdges, "Create one edge per CSV row (from, to, relationship columns)"))
	return cmd
}

func (a *app) importKindCommand(kind service.RecordKind, short string) *cobra.Command {
	var flags importFlags
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s CONFIG CSV", kind),
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runImport(cmd, kind, args[0], args[1], flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.headers, "headers", "", "comma separated column names; the CSV then has no header row")
	f.IntVar(&flags.workers, "workers", 0, "concurrent workers (env IMPORT_WORKERS)")
	f.IntVar(&flags.maxAttempts, "max-attempts", 0, "attempts per remote operation on connection errors (env IMPORT_MAX_ATTEMPTS)")
	f.DurationVar(&flags.timeout, "timeout", 0, "timeout per remote attempt (env IMPORT_OPERATION_TIMEOUT)")
	f.Float64Var(&flags.failFastRate, "fail-fast-rate", 0, "abort once this share of records has failed; 0 attempts everything")
	f.Float64Var(&flags.ratePerSecond, "rate", 0, "maximum records dispatched per second; 0 is unlimited")
	f.StringVar(&flags.idFunction, "id-function", "", "identity function: elementId or id (env GRAPH_ID_FUNCTION)")
	f.StringVar(&flags.database, "database", "", "database name (env GRAPH_DATABASE)")
	f.StringVar(&flags.reportOut, "report-out", "", "write the JSON report to this file")
	f.StringVar(&flags.rerun, "rerun", "", "import only the failed records listed in this JSON report")
	if kind == service.KindEdges {
		f.StringVar(&flags.matchProperty, "match-property", "", "resolve endpoints by this vertex property instead of by id")
		f.StringVar(&flags.matchLabel, "match-label", "", "restrict property resolution to vertices with this label")
	}
	return cmd
}

func (a *app) runImport(cmd *cobra.Command, kind service.RecordKind, descriptorPath, csvPath string, flags importFlags) error {
	ctx := cmd.Context()

	if err := config.LoadDotEnv(a.envFiles...); err != nil {
		return withExitCode(ExitError, err)
	}
	cfg, err := config.Load()
	if err != nil {
		return withExitCode(ExitError, fmt.Errorf("load config: %w", err))
	}
	applyFlags(cmd, &cfg, flags)
	if err := cfg.Validate(); err != nil {
		return withExitCode(ExitError, err)
	}

	logger := logging.NewWithWriter(cfg.Logging, a.stderr).With("component", "import")

	descriptor, err := config.LoadDescriptor(descriptorPath)
	if err != nil {
		return withExitCode(ExitError, err)
	}
	if descriptor.Serializer != nil {
		logger.Info("serializer settings ignored by bolt transport",
			"class", descriptor.Serializer.ClassName,
			"serialize_result_to_string", descriptor.Serializer.Config.SerializeResultToString)
	}
	graphOpts, err := descriptor.GraphOptions(cfg.Graph)
	if err != nil {
		return withExitCode(ExitError, err)
	}
	graphOpts.ConnectTimeout = cfg.Import.OperationTimeout

	repoOpts := repository.Options{IDFunction: cfg.Graph.IDFunction}
	if flags.matchProperty != "" {
		repoOpts.Resolution = repository.Resolution{
			Strategy: repository.StrategyProperty,
			Property: flags.matchProperty,
			Label:    flags.matchLabel,
		}
	}

	var runOpts service.RunOptions
	if flags.rerun != "" {
		indices, err := readRerun(flags.rerun, kind)
		if err != nil {
			return withExitCode(ExitError, err)
		}
		runOpts.Indices = indices
		logger.Info("re-running failed records", "report", flags.rerun, "records", len(indices))
	}

	opener := func(ctx context.Context) (service.GraphSession, error) {
		client, err := a.openClient(ctx, graphOpts)
		if err != nil {
			return nil, err
		}
		session, err := repository.New(client, repoOpts)
		if err != nil {
			_ = client.Close(ctx)
			return nil, err
		}
		logger.Info("connected to graph", "client", fmt.Sprint(client), "database", cfg.Graph.Database)
		return session, nil
	}
	orch := service.NewOrchestrator(opener, policyFrom(cfg.Import), logger)

	report, runErr := importFile(ctx, orch, kind, csvPath, tabular.ParseHeaders(flags.headers), runOpts)
	if report == nil {
		return withExitCode(ExitError, runErr)
	}

	if err := report.Render(a.stdout); err != nil {
		logger.Warn("rendering report failed", "error", err)
	}
	if flags.reportOut != "" {
		if err := writeReport(flags.reportOut, *report); err != nil {
			logger.Error("writing report failed", "path", flags.reportOut, "error", err)
			if runErr == nil {
				runErr = err
			}
		}
	}

	switch {
	case runErr != nil:
		return withExitCode(ExitError, runErr)
	case !report.OK():
		return withExitCode(ExitRecordFailures, fmt.Errorf("%d of %d records failed", report.Failed, report.Attempted))
	default:
		return nil
	}
}

// importFile reads csvPath and runs it. A nil report means nothing was
// attempted because the input could not be read.
func importFile(ctx context.Context, orch *service.Orchestrator, kind service.RecordKind, csvPath string, headers []string, opts service.RunOptions) (*service.ImportReport, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", csvPath, err)
	}
	defer file.Close()

	var report service.ImportReport
	switch kind {
	case service.KindVertices:
		var records []domain.VertexRecord
		if records, err = tabular.ReadVertices(file, headers); err != nil {
			return nil, fmt.Errorf("read %s: %w", csvPath, err)
		}
		report, err = orch.ImportVertices(ctx, records, opts)
	case service.KindEdges:
		var records []domain.EdgeRecord
		if records, err = tabular.ReadEdges(file, headers); err != nil {
			return nil, fmt.Errorf("read %s: %w", csvPath, err)
		}
		report, err = orch.ImportEdges(ctx, records, opts)
	default:
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
	return &report, err
}

func applyFlags(cmd *cobra.Command, cfg *config.Config, flags importFlags) {
	changed := cmd.Flags().Changed
	if changed("workers") {
		cfg.Import.Workers = flags.workers
	}
	if changed("max-attempts") {
		cfg.Import.MaxAttempts = flags.maxAttempts
	}
	if changed("timeout") {
		cfg.Import.OperationTimeout = flags.timeout
	}
	if changed("fail-fast-rate") {
		cfg.Import.FailFastRate = flags.failFastRate
	}
	if changed("rate") {
		cfg.Import.RatePerSecond = flags.ratePerSecond
	}
	if changed("id-function") {
		cfg.Graph.IDFunction = flags.idFunction
	}
	if changed("database") {
		cfg.Graph.Database = flags.database
	}
}

func policyFrom(cfg config.ImportConfig) service.Policy {
	policy := service.DefaultPolicy()
	policy.Workers = cfg.Workers
	policy.RatePerSecond = cfg.RatePerSecond
	policy.OperationTimeout = cfg.OperationTimeout
	policy.Retry.MaxAttempts = cfg.MaxAttempts
	policy.Retry.InitialBackoff = cfg.InitialBackoff
	policy.Retry.MaxBackoff = cfg.MaxBackoff
	policy.FailFast = service.FailFastPolicy{
		MaxFailureRate: cfg.FailFastRate,
		MinAttempts:    cfg.FailFastMinimum,
	}
	return policy
}

func readRerun(path string, kind service.RecordKind) ([]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rerun report: %w", err)
	}
	defer file.Close()
	return service.ReadFailedIndices(file, kind)
}

func writeReport(path string, report service.ImportReport) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := report.WriteJSON(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
