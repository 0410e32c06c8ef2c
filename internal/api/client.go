package api

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"modelcompare/internal/bench"
)

// Client issues single inference calls against OpenAI-compatible backends.
// Each configured model may point at its own base URL and API key, so the
// underlying SDK clients are built lazily per model and reused.
type Client struct {
	log *zap.SugaredLogger

	mu      sync.Mutex
	clients map[string]*openai.Client
}

// NewClient creates an inference client. The logger may be nil.
func NewClient(log *zap.SugaredLogger) *Client {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Client{
		log:     log,
		clients: make(map[string]*openai.Client),
	}
}

func (c *Client) clientFor(m bench.ModelSpec) *openai.Client {
	key := m.BaseURL + "|" + m.APIKey
	c.mu.Lock()
	defer c.mu.Unlock()
	if cl, ok := c.clients[key]; ok {
		return cl
	}
	config := openai.DefaultConfig(m.APIKey)
	if m.BaseURL != "" {
		config.BaseURL = m.BaseURL
	}
	cl := openai.NewClientWithConfig(config)
	c.clients[key] = cl
	return cl
}

// Invoke performs one chat completion call and returns a result record. It
// never returns an error: authentication faults, throttling, timeouts and
// malformed responses all become failure records so the dispatcher always
// receives exactly one result per item.
func (c *Client) Invoke(ctx context.Context, item bench.WorkItem, params bench.InferenceParams) bench.InferenceResult {
	callCtx := ctx
	if params.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, params.Timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model: item.Model.ID,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: item.Prompt.Text},
		},
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
		TopP:        params.TopP,
	}
	if params.SystemPrompt != "" {
		req.Messages = append([]openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: params.SystemPrompt},
		}, req.Messages...)
	}
	if params.ReasoningEffort != "" && supportsReasoningEffort(item.Model.ID) {
		req.ReasoningEffort = params.ReasoningEffort
	}

	start := time.Now()
	resp, err := c.clientFor(item.Model).CreateChatCompletion(callCtx, req)
	latency := time.Since(start)

	if err != nil {
		kind, detail := classifyError(err)
		c.log.Warnw("inference call failed",
			"model", item.Model.Name, "prompt", item.Prompt.ID,
			"kind", kind, "error", err)
		res := bench.Failure(item, kind, detail)
		res.LatencyMS = float64(latency.Microseconds()) / 1000
		return res
	}

	if len(resp.Choices) == 0 {
		// Latency, token and cost fields stay zero rather than crashing the batch.
		return bench.Failure(item, bench.FailureMalformedResponse, "response contained no choices")
	}

	text := resp.Choices[0].Message.Content
	inputTokens := resp.Usage.PromptTokens
	outputTokens := resp.Usage.CompletionTokens
	if inputTokens == 0 && outputTokens == 0 {
		// Some backends omit usage metadata; fall back to local counting.
		inputTokens = CountTokens(item.Model.ID, params.SystemPrompt+item.Prompt.Text)
		outputTokens = CountTokens(item.Model.ID, text)
		c.log.Debugw("usage missing from response, estimated tokens locally",
			"model", item.Model.Name, "prompt", item.Prompt.ID,
			"input_tokens", inputTokens, "output_tokens", outputTokens)
	}

	return bench.InferenceResult{
		Item:         item,
		Response:     text,
		LatencyMS:    float64(latency.Microseconds()) / 1000,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Cost:         bench.EstimateCost(item.Model, inputTokens, outputTokens),
		Status:       bench.StatusSuccess,
		Timestamp:    time.Now(),
	}
}

// supportsReasoningEffort gates the reasoning_effort field to model families
// known to accept it; other backends reject unknown request fields.
func supportsReasoningEffort(modelID string) bool {
	id := strings.ToLower(modelID)
	return strings.Contains(id, "gpt") || strings.Contains(id, "openai") || strings.HasPrefix(id, "o1") || strings.HasPrefix(id, "o3")
}
