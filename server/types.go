package server

import (
	"modelcompare/internal/bench"
	"modelcompare/internal/report"
)

// RunRequest starts a comparison batch. Model names and prompt ids select
// subsets of the configured tables; empty selections mean everything.
// Concurrency and max tokens fall back to the configured defaults.
type RunRequest struct {
	ModelNames  []string `json:"modelNames"`
	PromptIDs   []string `json:"promptIds"`
	Concurrency int      `json:"concurrency"`
	MaxTokens   int      `json:"maxTokens"`
}

// RunOutcome is the payload attached to a completed job.
type RunOutcome struct {
	Summaries []report.ModelSummary   `json:"summaries"`
	Results   []bench.InferenceResult `json:"results"`
}

// ModelInfo is a configured model without its credentials.
type ModelInfo struct {
	Name       string  `json:"name"`
	ID         string  `json:"id"`
	BaseURL    string  `json:"baseUrl,omitempty"`
	InputRate  float64 `json:"inputRate"`
	OutputRate float64 `json:"outputRate"`
}

// ModelsResponse is the response for model listing.
type ModelsResponse struct {
	Models []ModelInfo `json:"models"`
	Count  int         `json:"count"`
}

// ErrorResponse represents a standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
