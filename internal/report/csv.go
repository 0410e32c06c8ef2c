package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"modelcompare/internal/bench"
)

var csvHeader = []string{
	"work_item", "model", "model_id", "prompt_id", "category", "status",
	"failure_kind", "latency_ms", "input_tokens", "output_tokens", "cost_usd",
	"timestamp", "response", "error_detail",
}

// WriteCSV writes one row per result. Rows are pure projections of the
// result records; no aggregation happens here.
func WriteCSV(w io.Writer, results []bench.InferenceResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range results {
		record := []string{
			r.Item.Key(),
			r.Item.Model.Name,
			r.Item.Model.ID,
			r.Item.Prompt.ID,
			r.Item.Prompt.Category,
			string(r.Status),
			string(r.FailureKind),
			fmt.Sprintf("%.3f", r.LatencyMS),
			fmt.Sprintf("%d", r.InputTokens),
			fmt.Sprintf("%d", r.OutputTokens),
			fmt.Sprintf("%.6f", r.Cost),
			r.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			r.Response,
			r.ErrorDetail,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the results to path, overwriting any previous export.
func WriteCSVFile(path string, results []bench.InferenceResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV export %s: %w", path, err)
	}
	defer f.Close()
	if err := WriteCSV(f, results); err != nil {
		return fmt.Errorf("failed to write CSV export %s: %w", path, err)
	}
	return nil
}
