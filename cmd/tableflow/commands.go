package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/tableflow/tableflow/internal/model"
	"github.com/tableflow/tableflow/pkg/analyze"
	"github.com/tableflow/tableflow/pkg/config"
	"github.com/tableflow/tableflow/pkg/pipeline"
	"github.com/tableflow/tableflow/pkg/reader"
	"github.com/tableflow/tableflow/pkg/schema"
	"github.com/tableflow/tableflow/pkg/sink"
	"github.com/tableflow/tableflow/pkg/telemetry"
	"github.com/tableflow/tableflow/pkg/tui"
	"github.com/tableflow/tableflow/pkg/watch"
)

func runAnalyze(cmd *cobra.Command, args []string) error {
	table, err := reader.ReadFile(inputFile)
	if err != nil {
		return err
	}

	report := analyze.New(effectiveSampleSize()).Analyze(table)
	tui.NewRenderer(os.Stdout).Analysis(report.Profiles, report.Recommendations)
	return nil
}

func runSchema(cmd *cobra.Command, args []string) error {
	table, err := reader.ReadFile(inputFile)
	if err != nil {
		return err
	}

	report := analyze.New(effectiveSampleSize()).Analyze(table)
	inferred := schema.Infer(report.Profiles)

	if mergeFile != "" {
		user, err := schema.Load(mergeFile)
		if err != nil {
			return err
		}
		inferred = schema.Merge(inferred, user)
	}

	if outputFile != "" {
		return schema.Save(inferred, outputFile)
	}

	data, err := yaml.Marshal(inferred)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx, shutdown, err := setupContext()
	if err != nil {
		return err
	}
	defer shutdown()

	result, err := executePipeline(ctx, inputFile)
	if err != nil {
		return err
	}

	renderer := tui.NewRenderer(os.Stdout)
	renderer.Verbose = verbose
	renderer.Result(result)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, shutdown, err := setupContext()
	if err != nil {
		return err
	}
	defer shutdown()

	result, err := executePipeline(ctx, inputFile)
	if err != nil {
		return err
	}

	renderer := tui.NewRenderer(os.Stdout)
	renderer.Verbose = verbose
	renderer.Result(result)

	return importRecords(ctx, result.CleanedData)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := config.Global().Get()

	dir := cfg.Watch.Dir
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		return fmt.Errorf("no watch directory given (argument or watch.dir in config)")
	}

	ctx, shutdown, err := setupContext()
	if err != nil {
		return err
	}
	defer shutdown()

	w := watch.New(dir, cfg.Watch.Debounce, cfg.Watch.Workers,
		func(ctx context.Context, path string) error {
			fmt.Printf("processing %s\n", path)
			result, err := executePipeline(ctx, path)
			if err != nil {
				return err
			}
			return importRecords(ctx, result.CleanedData)
		})
	w.OnError = func(path string, err error) {
		fmt.Fprintf(os.Stderr, "failed to process %s: %v\n", path, err)
	}

	fmt.Printf("watching %s\n", dir)
	err = w.Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}

// executePipeline reads one file and runs all stages over it.
func executePipeline(ctx context.Context, path string) (*model.PipelineResult, error) {
	table, err := reader.ReadFile(path)
	if err != nil {
		return nil, err
	}

	orch := pipeline.New().WithSampleSize(effectiveSampleSize())

	if s, err := loadSchema(); err != nil {
		return nil, err
	} else if s != nil {
		orch.WithSchema(s)
	}

	if runTracer != nil {
		orch.WithTracer(runTracer)
	}

	cfg := config.Global().Get()
	result, err := orch.Run(ctx, table)
	if err != nil {
		return nil, err
	}

	if dedupe || cfg.Pipeline.Deduplicate {
		pipeline.Deduplicate(result)
	}
	return result, nil
}

// importRecords delivers records to the configured sink, showing progress.
func importRecords(ctx context.Context, records []model.Record) error {
	cfg := sinkConfig()

	snk, err := sink.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer snk.Close()

	if err := snk.TestConnection(ctx); err != nil {
		return fmt.Errorf("sink %s unavailable: %w", snk.Name(), err)
	}

	bar := tui.ImportProgress(len(records), fmt.Sprintf("importing to %s", snk.Name()))
	result, err := snk.Import(ctx, records, func(done, total int) {
		bar.Set(done)
	})
	bar.Finish()
	if err != nil {
		return err
	}

	fmt.Printf("imported %d records", result.Success)
	if result.Failure > 0 {
		fmt.Printf(", %d failed\n", result.Failure)
		for _, be := range result.Errors {
			fmt.Fprintf(os.Stderr, "  %v\n", be)
		}
		return fmt.Errorf("%d records failed to import", result.Failure)
	}
	fmt.Println()
	return nil
}

// sinkConfig starts from the loaded configuration and applies flag overrides.
func sinkConfig() sink.Config {
	cfg := config.Global().Get().Sink
	if sinkProvider != "" {
		cfg.Provider = sinkProvider
	}
	if sinkPath != "" {
		cfg.Path = sinkPath
	}
	if sinkTable != "" {
		cfg.Table = sinkTable
	}
	if batchSize > 0 {
		cfg.BatchSize = batchSize
	}
	return cfg
}

// loadSchema resolves the schema from the flag or configuration, nil when
// neither names one.
func loadSchema() (*model.Schema, error) {
	path := schemaFile
	if path == "" {
		path = config.Global().Get().Pipeline.SchemaPath
	}
	if path == "" {
		return nil, nil
	}
	return schema.Load(path)
}

func effectiveSampleSize() int {
	if sampleSize > 0 {
		return sampleSize
	}
	return config.Global().Get().Pipeline.SampleSize
}

// runTracer is the process-wide tracer, set once by setupContext when
// telemetry is enabled. Nil means untraced runs.
var runTracer trace.Tracer

// setupContext returns a context cancelled on SIGINT/SIGTERM and, when
// telemetry is enabled, initializes the one exporter shared by every pipeline
// run in the process. The returned cleanup flushes pending spans.
func setupContext() (context.Context, func(), error) {
	ctx, cancel := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	var shutdownTracing func(context.Context) error
	cfg := config.Global().Get()
	if cfg.Telemetry.Enabled {
		tcfg := telemetry.DefaultConfig("tableflow")
		tcfg.ServiceVersion = version
		tcfg.Endpoint = cfg.Telemetry.Endpoint
		tcfg.SamplingRatio = cfg.Telemetry.SamplingRatio
		exporter := telemetry.NewExporter(tcfg)
		shutdown, err := exporter.Init(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: telemetry disabled: %v\n", err)
		} else {
			runTracer = exporter.Tracer()
			shutdownTracing = shutdown
		}
	}

	return ctx, func() {
		signal.Stop(sig)
		cancel()
		if shutdownTracing != nil {
			flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer flushCancel()
			if err := shutdownTracing(flushCtx); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to flush traces: %v\n", err)
			}
		}
	}, nil
}
