package bench

import (
	"fmt"
	"time"
)

// Status marks whether a work item produced a usable response.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// FailureKind classifies why an inference attempt failed.
type FailureKind string

const (
	FailureAccessDenied      FailureKind = "AccessDenied"
	FailureThrottled         FailureKind = "Throttled"
	FailureTimeout           FailureKind = "Timeout"
	FailureMalformedResponse FailureKind = "MalformedResponse"
	FailureUnknown           FailureKind = "Unknown"
)

// ModelSpec describes one hosted model under comparison. Rates are USD per
// 1K tokens and feed the per-call cost estimate.
type ModelSpec struct {
	Name       string  `json:"name" yaml:"name"`
	ID         string  `json:"id" yaml:"id"`
	BaseURL    string  `json:"baseUrl,omitempty" yaml:"base_url,omitempty"`
	APIKey     string  `json:"-" yaml:"api_key,omitempty"` // Omit from JSON for security
	InputRate  float64 `json:"inputRate" yaml:"input_rate"`
	OutputRate float64 `json:"outputRate" yaml:"output_rate"`
}

// Validate rejects incomplete model specs before a run starts.
func (m ModelSpec) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("model name is required")
	}
	if m.ID == "" {
		return fmt.Errorf("model %q: identifier is required", m.Name)
	}
	if m.InputRate < 0 || m.OutputRate < 0 {
		return fmt.Errorf("model %q: rates must be non-negative", m.Name)
	}
	return nil
}

// PromptCase is one unit of test input.
type PromptCase struct {
	ID       string `json:"id" yaml:"id"`
	Category string `json:"category" yaml:"category"`
	Text     string `json:"text" yaml:"text"`
}

// Validate rejects incomplete prompt cases before a run starts.
func (p PromptCase) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("prompt id is required")
	}
	if p.Text == "" {
		return fmt.Errorf("prompt %q: text is required", p.ID)
	}
	return nil
}

// InferenceParams holds the generation parameters applied to every call in a
// batch. ReasoningEffort is only forwarded to models that understand it.
type InferenceParams struct {
	MaxTokens       int           `json:"maxTokens" yaml:"max-tokens"`
	Temperature     float32       `json:"temperature" yaml:"temperature"`
	TopP            float32       `json:"topP" yaml:"top-p"`
	SystemPrompt    string        `json:"systemPrompt,omitempty" yaml:"system-prompt,omitempty"`
	ReasoningEffort string        `json:"reasoningEffort,omitempty" yaml:"reasoning-effort,omitempty"`
	Timeout         time.Duration `json:"timeout" yaml:"timeout"`
}

// DefaultParams returns the parameter set used when the caller supplies none.
func DefaultParams() InferenceParams {
	return InferenceParams{
		MaxTokens:    512,
		Temperature:  0.0,
		TopP:         1.0,
		SystemPrompt: "You are a helpful assistant.",
		Timeout:      120 * time.Second,
	}
}

// Validate rejects out-of-range generation parameters.
func (p InferenceParams) Validate() error {
	if p.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be positive, got %d", p.MaxTokens)
	}
	if p.Temperature < 0 || p.Temperature > 1 {
		return fmt.Errorf("temperature must be in [0,1], got %v", p.Temperature)
	}
	if p.TopP < 0 || p.TopP > 1 {
		return fmt.Errorf("top_p must be in [0,1], got %v", p.TopP)
	}
	return nil
}

// WorkItem is one scheduled (model, prompt) inference attempt.
type WorkItem struct {
	Model  ModelSpec  `json:"model" yaml:"model"`
	Prompt PromptCase `json:"prompt" yaml:"prompt"`
}

// Key returns a stable identifier for sorting results after collection.
// Completion order is nondeterministic under concurrency.
func (w WorkItem) Key() string {
	return w.Model.Name + "/" + w.Prompt.ID
}

// ExpandWorkItems builds the model x prompt cross product in input order.
func ExpandWorkItems(models []ModelSpec, prompts []PromptCase) []WorkItem {
	items := make([]WorkItem, 0, len(models)*len(prompts))
	for _, m := range models {
		for _, p := range prompts {
			items = append(items, WorkItem{Model: m, Prompt: p})
		}
	}
	return items
}

// InferenceResult is the immutable record produced for every work item,
// success or failure. Exactly one result exists per submitted item.
type InferenceResult struct {
	Item         WorkItem    `json:"item" yaml:"item"`
	Response     string      `json:"response,omitempty" yaml:"response,omitempty"`
	LatencyMS    float64     `json:"latencyMs" yaml:"latency-ms"`
	InputTokens  int         `json:"inputTokens" yaml:"input-tokens"`
	OutputTokens int         `json:"outputTokens" yaml:"output-tokens"`
	Cost         float64     `json:"costUsd" yaml:"cost-usd"`
	Status       Status      `json:"status" yaml:"status"`
	FailureKind  FailureKind `json:"failureKind,omitempty" yaml:"failure-kind,omitempty"`
	ErrorDetail  string      `json:"errorDetail,omitempty" yaml:"error-detail,omitempty"`
	Timestamp    time.Time   `json:"timestamp" yaml:"timestamp"`
}

// Failed reports whether the item ended in a failure record.
func (r InferenceResult) Failed() bool {
	return r.Status == StatusFailure
}

// Failure builds a failure record for an item. The kind is embedded in the
// detail string so exports carry the category without a separate column.
func Failure(item WorkItem, kind FailureKind, detail string) InferenceResult {
	return InferenceResult{
		Item:        item,
		Status:      StatusFailure,
		FailureKind: kind,
		ErrorDetail: fmt.Sprintf("%s: %s", kind, detail),
		Timestamp:   time.Now(),
	}
}

// EstimateCost computes the cost of one call from the model's rate table.
func EstimateCost(m ModelSpec, inputTokens, outputTokens int) float64 {
	return (float64(inputTokens)*m.InputRate + float64(outputTokens)*m.OutputRate) / 1000
}
