package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"tsflow/internal/analysis"
	"tsflow/internal/config"
	"tsflow/internal/dataprocessing"
	"tsflow/internal/exporter"
	"tsflow/internal/filtering"
	"tsflow/internal/infrastructure"
	"tsflow/internal/validation"
	"tsflow/pkg/contracts"
	"tsflow/pkg/contracts/domain"
)

// headerAliases maps common input headers onto the standard field names.
var headerAliases = map[string]string{
	"date":      domain.FieldDatetime,
	"time":      domain.FieldDatetime,
	"timestamp": domain.FieldDatetime,
	"vol":       domain.FieldVolume,
}

type options struct {
	configPath  string
	input       string
	sheet       string
	compare     string
	analyses    string
	out         string
	format      string
	metricsAddr string
	version     bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("tsflow", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.StringVar(&o.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&o.input, "input", "", "primary CSV or XLSX file (required)")
	fs.StringVar(&o.sheet, "sheet", "", "XLSX sheet to read (defaults to the first sheet)")
	fs.StringVar(&o.compare, "compare", "", "second source for the discrepancy and neighbor analyses")
	fs.StringVar(&o.analyses, "analyses", "", "comma separated analysis ids (defaults to every runnable analysis)")
	fs.StringVar(&o.out, "out", "", "output directory (overrides export.dir)")
	fs.StringVar(&o.format, "format", "", "export format: csv, xlsx or mebo (overrides export.format)")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	fs.BoolVar(&o.version, "version", false, "print version information and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.input == "" && !o.version {
		return nil, errors.New("-input is required")
	}
	return o, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "tsflow: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return nil
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.out != "" {
		cfg.Export.Dir = opts.out
	}
	if opts.format != "" {
		cfg.Export.Format = opts.format
	}
	if opts.metricsAddr != "" {
		cfg.Telemetry.MetricsAddr = opts.metricsAddr
		cfg.Telemetry.Metrics = true
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("otel_shutdown_failed", slog.String("error", err.Error()))
		}
	}()

	if cfg.Telemetry.MetricsAddr != "" && providers.PrometheusHTTP != nil {
		srv := serveMetrics(cfg.Telemetry.MetricsAddr, providers.PrometheusHTTP, logger)
		defer srv.Shutdown(context.Background())
	}

	runner, err := newRunner(cfg, providers, logger)
	if err != nil {
		return err
	}

	sources, err := loadSources(opts, logger)
	if err != nil {
		return err
	}

	ids := splitList(opts.analyses)
	if len(ids) == 0 {
		ids = runnable(runner.Registry(), sources)
	}

	exp, err := exporter.New(cfg.Export.Dir, cfg.Export.Format, logger)
	if err != nil {
		return err
	}
	if err := dataprocessing.NewFileChecker(logger).CheckOutputDir(cfg.Export.Dir); err != nil {
		return err
	}

	results, err := runner.Run(ctx, sources, ids...)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ANALYSIS\tFLAGGED\tTOTAL\tFILE")
	for _, res := range results {
		path, err := exp.Export(res.AnalysisID, res.Output)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", res.AnalysisID, res.Flagged, res.Total, path)
	}
	return tw.Flush()
}

func newRunner(cfg *config.Config, providers *infrastructure.OTelProviders, logger *slog.Logger) (*analysis.Runner, error) {
	registry, err := analysis.NewDefaultRegistry(cfg.Validation)
	if err != nil {
		return nil, err
	}

	defects, err := validation.NewDefectMetrics(providers.Meter)
	if err != nil {
		return nil, err
	}
	validation.UseMetrics(defects)

	tracer, err := filtering.NewNetTracer(providers.TracerProvider, providers.Meter)
	if err != nil {
		return nil, err
	}
	metrics, err := infrastructure.CreateAnalysisMetrics(providers.Meter)
	if err != nil {
		return nil, err
	}
	if err := infrastructure.RegisterRuntimeMetrics(providers.Meter); err != nil {
		return nil, err
	}

	return analysis.NewRunner(registry,
		analysis.WithLogger(logger),
		analysis.WithMetrics(metrics),
		analysis.WithNetOptions(filtering.WithTracer(tracer), filtering.WithMaxTicks(cfg.Engine.MaxTicks)),
	), nil
}

func loadSources(opts *options, logger *slog.Logger) (map[string][]*domain.Atom, error) {
	checker := dataprocessing.NewFileChecker(logger)
	files := map[string]string{analysis.SourcePrimary: opts.input}
	if opts.compare != "" {
		files[analysis.SourceCompare] = opts.compare
	}

	sources := make(map[string][]*domain.Atom, len(files))
	for name, path := range files {
		if err := checker.CheckInputFile(path); err != nil {
			return nil, err
		}
		atoms, err := dataprocessing.LoadFile(path, dataprocessing.LoadOptions{
			Sheet:   opts.sheet,
			Aliases: headerAliases,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		sources[name] = atoms
	}
	return sources, nil
}

// runnable lists the registered analyses whose inputs are all loaded.
func runnable(registry *analysis.Registry, sources map[string][]*domain.Atom) []string {
	var ids []string
	for _, a := range registry.List() {
		ok := true
		for _, in := range a.Inputs() {
			if _, loaded := sources[in]; !loaded {
				ok = false
				break
			}
		}
		if ok {
			ids = append(ids, a.ID())
		}
	}
	return ids
}

func serveMetrics(addr string, handler http.Handler, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("metrics_server_start", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics_server_failed", slog.String("error", err.Error()))
		}
	}()
	return srv
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
