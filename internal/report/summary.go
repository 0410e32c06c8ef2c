package report

import (
	"modelcompare/internal/bench"
	"modelcompare/internal/config"
)

// ModelSummary aggregates the results of one model across a batch.
type ModelSummary struct {
	Model         bench.ModelSpec           `json:"model" yaml:"model"`
	Requests      int                       `json:"requests" yaml:"requests"`
	Successes     int                       `json:"successes" yaml:"successes"`
	Failures      int                       `json:"failures" yaml:"failures"`
	MeanLatencyMS float64                   `json:"meanLatencyMs" yaml:"mean-latency-ms"`
	InputTokens   int                       `json:"inputTokens" yaml:"input-tokens"`
	OutputTokens  int                       `json:"outputTokens" yaml:"output-tokens"`
	TotalCost     float64                   `json:"totalCostUsd" yaml:"total-cost-usd"`
	FailureKinds  map[bench.FailureKind]int `json:"failureKinds,omitempty" yaml:"failure-kinds,omitempty"`
}

// Summarize folds result records into per-model aggregates, in the order the
// models were configured. Mean latency covers success records only.
func Summarize(models []bench.ModelSpec, results []bench.InferenceResult) []ModelSummary {
	byName := make(map[string]*ModelSummary, len(models))
	summaries := make([]ModelSummary, len(models))
	for i, m := range models {
		summaries[i] = ModelSummary{Model: m, FailureKinds: make(map[bench.FailureKind]int)}
		byName[m.Name] = &summaries[i]
	}

	for _, r := range results {
		s, ok := byName[r.Item.Model.Name]
		if !ok {
			continue
		}
		s.Requests++
		if r.Failed() {
			s.Failures++
			s.FailureKinds[r.FailureKind]++
			continue
		}
		s.Successes++
		s.MeanLatencyMS += r.LatencyMS
		s.InputTokens += r.InputTokens
		s.OutputTokens += r.OutputTokens
		s.TotalCost += r.Cost
	}

	for i := range summaries {
		if summaries[i].Successes > 0 {
			summaries[i].MeanLatencyMS /= float64(summaries[i].Successes)
		}
	}
	return summaries
}

// MonthlyCost projects a monthly bill from a daily usage profile and the
// model's per-1K-token rates, assuming a 30-day month.
func MonthlyCost(requestsPerDay, avgInputTokens, avgOutputTokens int, m bench.ModelSpec) float64 {
	monthlyRequests := float64(requestsPerDay) * 30
	monthlyInput := monthlyRequests * float64(avgInputTokens) / 1000
	monthlyOutput := monthlyRequests * float64(avgOutputTokens) / 1000
	return monthlyInput*m.InputRate + monthlyOutput*m.OutputRate
}

// ScenarioCost is the projected monthly cost of one model under one scenario.
type ScenarioCost struct {
	Scenario config.Scenario `json:"scenario" yaml:"scenario"`
	Costs    []float64       `json:"costs" yaml:"costs"` // aligned with the models slice
}

// ScenarioCosts builds the cost-scenario table joined against the model
// rate table. Row order follows the configured scenarios, column order the
// configured models.
func ScenarioCosts(models []bench.ModelSpec, scenarios []config.Scenario) []ScenarioCost {
	rows := make([]ScenarioCost, 0, len(scenarios))
	for _, sc := range scenarios {
		row := ScenarioCost{Scenario: sc, Costs: make([]float64, len(models))}
		for i, m := range models {
			row.Costs[i] = MonthlyCost(sc.RequestsPerDay, sc.AvgInputTokens, sc.AvgOutputTokens, m)
		}
		rows = append(rows, row)
	}
	return rows
}
