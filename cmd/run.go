package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"modelcompare/internal/bench"
	"modelcompare/internal/report"
)

// runCli executes the comparison batch with a progress bar and prints the
// per-model summary table, then writes the CSV and HTML exports.
func (run *Run) runCli() error {
	ctx := context.Background()

	items := bench.ExpandWorkItems(run.Config.Models, run.Config.Prompts)

	bar := progressbar.NewOptions(len(items),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(fmt.Sprintf("Comparing %d models", len(run.Config.Models))),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("calls"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)

	result, err := run.run(ctx, bar)
	bar.Finish()
	bar.Close()
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	// Print summary table
	fmt.Println("| Model                | Requests | Success | Failure | Mean Latency (ms) | Tokens In | Tokens Out | Cost (USD) |")
	fmt.Println("|----------------------|----------|---------|---------|-------------------|-----------|------------|------------|")
	for _, s := range result.Summaries {
		fmt.Printf("| %-20s | %8d | %7d | %7d | %17.1f | %9d | %10d | %10.4f |\n",
			s.Model.Name, s.Requests, s.Successes, s.Failures,
			s.MeanLatencyMS, s.InputTokens, s.OutputTokens, s.TotalCost)
	}

	if failures := countFailures(result.Results); failures > 0 {
		fmt.Printf("\n%d of %d calls failed; see the error_detail column in the export.\n", failures, len(result.Results))
	}

	if path := run.Config.Export.CSVPath; path != "" {
		if err := report.WriteCSVFile(path, result.Results); err != nil {
			return err
		}
		fmt.Printf("CSV export written to %s\n", path)
	}
	if path := run.Config.Export.HTMLPath; path != "" {
		data := report.NewReportData(run.Config.Models, run.Config.Scenarios, result.Results)
		if err := report.RenderHTMLFile(path, data); err != nil {
			return err
		}
		fmt.Printf("HTML report written to %s\n", path)
	}

	return nil
}

// run expands the work items and dispatches them, slicing into chunks with a
// pause between slices when chunking is configured. Pacing lives here in the
// caller, not inside the dispatcher.
func (run *Run) run(ctx context.Context, bar *progressbar.ProgressBar) (RunResult, error) {
	params := run.Config.Params.ToInferenceParams()

	result := RunResult{
		GeneratedAt: time.Now(),
		Params:      params,
		Concurrency: run.Config.Concurrency,
	}

	dispatcher := bench.NewDispatcher(run.Client, params)
	if bar != nil {
		dispatcher.OnResult = func(bench.InferenceResult) { bar.Add(1) }
	}

	items := bench.ExpandWorkItems(run.Config.Models, run.Config.Prompts)
	for i, chunk := range chunkItems(items, run.Config.ChunkSize) {
		if i > 0 && run.Config.ChunkPause() > 0 {
			run.Log.Infow("pausing between batch slices", "pause", run.Config.ChunkPause())
			time.Sleep(run.Config.ChunkPause())
		}
		store, err := dispatcher.Run(ctx, chunk, run.Config.Concurrency)
		if err != nil {
			return result, fmt.Errorf("batch slice %d: %w", i+1, err)
		}
		result.Results = append(result.Results, store.SortedByKey()...)
	}

	result.Summaries = report.Summarize(run.Config.Models, result.Results)
	return result, nil
}

// chunkItems slices items into runs of at most size. Size zero or negative
// means a single slice.
func chunkItems(items []bench.WorkItem, size int) [][]bench.WorkItem {
	if size <= 0 || size >= len(items) {
		return [][]bench.WorkItem{items}
	}
	var chunks [][]bench.WorkItem
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

func countFailures(results []bench.InferenceResult) int {
	n := 0
	for _, r := range results {
		if r.Failed() {
			n++
		}
	}
	return n
}
