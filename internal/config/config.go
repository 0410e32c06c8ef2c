package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.yaml.in/yaml/v4"

	"modelcompare/internal/bench"
)

// Params is the YAML shape of the default inference parameters.
type Params struct {
	MaxTokens       int     `yaml:"max_tokens"`
	Temperature     float32 `yaml:"temperature"`
	TopP            float32 `yaml:"top_p"`
	SystemPrompt    string  `yaml:"system_prompt"`
	ReasoningEffort string  `yaml:"reasoning_effort"`
	TimeoutSeconds  float64 `yaml:"timeout_seconds"`
}

// ToInferenceParams converts the YAML shape into runtime parameters.
func (p Params) ToInferenceParams() bench.InferenceParams {
	return bench.InferenceParams{
		MaxTokens:       p.MaxTokens,
		Temperature:     p.Temperature,
		TopP:            p.TopP,
		SystemPrompt:    p.SystemPrompt,
		ReasoningEffort: p.ReasoningEffort,
		Timeout:         time.Duration(p.TimeoutSeconds * float64(time.Second)),
	}
}

// Export holds output paths for the flat-file report targets.
type Export struct {
	CSVPath  string `yaml:"csv_path"`
	HTMLPath string `yaml:"html_path"`
}

// Scenario is one usage profile for the monthly cost projection.
type Scenario struct {
	Name            string `yaml:"name"`
	RequestsPerDay  int    `yaml:"requests_per_day"`
	AvgInputTokens  int    `yaml:"avg_input_tokens"`
	AvgOutputTokens int    `yaml:"avg_output_tokens"`
}

// Config is the full run configuration, constructed once per run before a
// batch starts. There is no hot reload and no process-wide mutable state.
type Config struct {
	Models  []bench.ModelSpec  `yaml:"models"`
	Prompts []bench.PromptCase `yaml:"prompts"`
	Params  Params             `yaml:"params"`

	Concurrency int `yaml:"concurrency"`

	// ChunkSize splits oversized test sets into successive slices with
	// ChunkPauseSeconds between them. Quota-friendly pacing, applied by the
	// caller loop rather than inside the dispatcher.
	ChunkSize         int     `yaml:"chunk_size"`
	ChunkPauseSeconds float64 `yaml:"chunk_pause_seconds"`

	Export    Export     `yaml:"export"`
	Scenarios []Scenario `yaml:"scenarios"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Prompts: []bench.PromptCase{
			{ID: "summarize-report", Category: "summarization", Text: "Summarize the key findings of a quarterly sales report in three bullet points: revenue grew 12% quarter over quarter, churn increased from 2.1% to 3.4%, and the enterprise segment outpaced self-serve for the first time."},
			{ID: "explain-concept", Category: "explanation", Text: "Explain the difference between optimistic and pessimistic locking to a junior engineer, with one example of when each is appropriate."},
			{ID: "draft-email", Category: "generation", Text: "Draft a short, professional email informing customers of a planned maintenance window this Saturday from 02:00 to 04:00 UTC."},
			{ID: "classify-ticket", Category: "classification", Text: "Classify this support ticket as billing, technical, or account: 'I was charged twice this month and the invoice PDF will not download.'"},
			{ID: "extract-fields", Category: "extraction", Text: "Extract the company name, contract value, and renewal date from: 'Acme Corp signed a $48,000 annual agreement renewing on 2026-03-01.'"},
		},
		Params: Params{
			MaxTokens:      512,
			Temperature:    0.0,
			TopP:           1.0,
			SystemPrompt:   "You are a helpful assistant.",
			TimeoutSeconds: 120,
		},
		Concurrency: 4,
		Export: Export{
			CSVPath:  "results.csv",
			HTMLPath: "report.html",
		},
		Scenarios: []Scenario{
			{Name: "light", RequestsPerDay: 1000, AvgInputTokens: 500, AvgOutputTokens: 250},
			{Name: "moderate", RequestsPerDay: 10000, AvgInputTokens: 1000, AvgOutputTokens: 500},
			{Name: "heavy", RequestsPerDay: 100000, AvgInputTokens: 2000, AvgOutputTokens: 1000},
		},
	}
}

// Load reads a YAML configuration file, applies environment overrides and
// validates the result. An empty path loads defaults plus MODELn_* overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	expandAPIKeys(cfg)
	applyEnvModels(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandAPIKeys resolves ${VAR} references so keys stay out of config files.
func expandAPIKeys(cfg *Config) {
	for i := range cfg.Models {
		cfg.Models[i].APIKey = os.ExpandEnv(cfg.Models[i].APIKey)
	}
}

// applyEnvModels appends models declared via MODELn_* environment variables
// (MODEL1_NAME, MODEL1_ID, MODEL1_BASE_URL, MODEL1_API_KEY,
// MODEL1_INPUT_RATE, MODEL1_OUTPUT_RATE). A model whose name is already
// configured is overridden instead of duplicated.
func applyEnvModels(cfg *Config) {
	for n := 1; ; n++ {
		prefix := fmt.Sprintf("MODEL%d_", n)
		name := os.Getenv(prefix + "NAME")
		if name == "" {
			return
		}

		spec := bench.ModelSpec{
			Name:       name,
			ID:         os.Getenv(prefix + "ID"),
			BaseURL:    os.Getenv(prefix + "BASE_URL"),
			APIKey:     os.Getenv(prefix + "API_KEY"),
			InputRate:  envFloat(prefix + "INPUT_RATE"),
			OutputRate: envFloat(prefix + "OUTPUT_RATE"),
		}
		if spec.ID == "" {
			spec.ID = name
		}

		replaced := false
		for i := range cfg.Models {
			if cfg.Models[i].Name == name {
				cfg.Models[i] = spec
				replaced = true
				break
			}
		}
		if !replaced {
			cfg.Models = append(cfg.Models, spec)
		}
	}
}

func envFloat(key string) float64 {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

// Validate checks that the configuration describes a runnable batch.
func (c *Config) Validate() error {
	if len(c.Models) == 0 {
		return fmt.Errorf("at least one model is required")
	}
	if len(c.Prompts) == 0 {
		return fmt.Errorf("at least one prompt is required")
	}
	for _, m := range c.Models {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	seen := make(map[string]bool, len(c.Prompts))
	for _, p := range c.Prompts {
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate prompt id %q", p.ID)
		}
		seen[p.ID] = true
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.ChunkSize < 0 {
		return fmt.Errorf("chunk_size must not be negative, got %d", c.ChunkSize)
	}
	if err := c.Params.ToInferenceParams().Validate(); err != nil {
		return err
	}
	return nil
}

// ChunkPause returns the pause between chunked batch slices.
func (c *Config) ChunkPause() time.Duration {
	return time.Duration(c.ChunkPauseSeconds * float64(time.Second))
}
