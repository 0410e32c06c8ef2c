package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"modelcompare/internal/api"
	"modelcompare/internal/config"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "Path to the YAML run configuration")
	concurrency := pflag.IntP("concurrency", "n", 0, "Override the configured concurrency limit")
	maxTokens := pflag.IntP("max-tokens", "t", 0, "Override the configured max_tokens")
	timeoutSeconds := pflag.Float64("timeout", 0, "Override the per-call timeout in seconds")
	format := pflag.StringP("format", "f", "", "Print results as json or yaml instead of the table")
	csvPath := pflag.String("csv", "", "Override the CSV export path")
	htmlPath := pflag.String("html", "", "Override the HTML report path")
	chunkSize := pflag.Int("chunk-size", -1, "Override the batch chunk size (0 disables chunking)")
	chunkPause := pflag.Float64("chunk-pause", -1, "Override the pause between batch chunks in seconds")
	listModels := pflag.BoolP("list-models", "l", false, "List models served by each configured endpoint and exit")
	verbose := pflag.BoolP("verbose", "v", false, "Enable debug logging")
	help := pflag.BoolP("help", "h", false, "Show this help message")
	pflag.Parse()

	if *help {
		fmt.Printf("Usage of %s:\n", os.Args[0])
		pflag.PrintDefaults()
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// CLI overrides beat the file; the merged config is fixed for the run.
	if *concurrency > 0 {
		cfg.Concurrency = *concurrency
	}
	if *maxTokens > 0 {
		cfg.Params.MaxTokens = *maxTokens
	}
	if *timeoutSeconds > 0 {
		cfg.Params.TimeoutSeconds = *timeoutSeconds
	}
	if *csvPath != "" {
		cfg.Export.CSVPath = *csvPath
	}
	if *htmlPath != "" {
		cfg.Export.HTMLPath = *htmlPath
	}
	if *chunkSize >= 0 {
		cfg.ChunkSize = *chunkSize
	}
	if *chunkPause >= 0 {
		cfg.ChunkPauseSeconds = *chunkPause
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := newLogger(*verbose)
	defer logger.Sync()

	client := api.NewClient(logger.Sugar())

	if *listModels {
		if err := printAvailableModels(context.Background(), client, cfg); err != nil {
			log.Fatalf("Error listing models: %v", err)
		}
		return
	}

	run := &Run{Config: cfg, Client: client, Log: logger.Sugar()}

	if *format == "" {
		if err := run.runCli(); err != nil {
			log.Fatalf("Error running comparison: %v", err)
		}
		return
	}

	result, err := run.run(context.Background(), nil)
	if err != nil {
		log.Fatalf("Error running comparison: %v", err)
	}

	var output string
	switch *format {
	case "json":
		output, err = result.Json()
	case "yaml":
		output, err = result.Yaml()
	default:
		log.Fatalf("Invalid format %q (want json or yaml)", *format)
	}
	if err != nil {
		log.Fatalf("Error formatting results: %v", err)
	}
	fmt.Println(output)
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	return logger
}

func printAvailableModels(ctx context.Context, client *api.Client, cfg *config.Config) error {
	seen := make(map[string]bool)
	for _, m := range cfg.Models {
		if seen[m.BaseURL] {
			continue
		}
		seen[m.BaseURL] = true
		ids, err := client.ListModels(ctx, m)
		if err != nil {
			return err
		}
		fmt.Printf("%s:\n", m.BaseURL)
		for _, id := range ids {
			fmt.Printf("  %s\n", id)
		}
	}
	return nil
}
