package main

import (
	"time"

	"go.uber.org/zap"

	"modelcompare/internal/api"
	"modelcompare/internal/bench"
	"modelcompare/internal/config"
	"modelcompare/internal/report"
)

// Run bundles everything one comparison run needs.
type Run struct {
	Config *config.Config
	Client *api.Client
	Log    *zap.SugaredLogger
}

// RunResult is the serializable outcome of a comparison run.
type RunResult struct {
	GeneratedAt time.Time               `json:"generated_at" yaml:"generated-at"`
	Params      bench.InferenceParams   `json:"params" yaml:"params"`
	Concurrency int                     `json:"concurrency" yaml:"concurrency"`
	Summaries   []report.ModelSummary   `json:"summaries" yaml:"summaries"`
	Results     []bench.InferenceResult `json:"results" yaml:"results"`
}
