package main

import (
	"encoding/json"
	"fmt"

	"go.yaml.in/yaml/v4"

	"modelcompare/internal/bench"
	"modelcompare/internal/report"
)

func (r *RunResult) Json() (string, error) {
	prettyJSON, err := json.MarshalIndent(r.redacted(), "", "    ")
	if err != nil {
		return "", fmt.Errorf("error marshalling JSON: %w", err)
	}

	return string(prettyJSON), nil
}

func (r *RunResult) Yaml() (string, error) {
	yamlData, err := yaml.Marshal(r.redacted())
	if err != nil {
		return "", fmt.Errorf("error marshalling yaml: %w", err)
	}

	return string(yamlData), nil
}

// redacted returns a copy with model credentials blanked. The api_key yaml
// tag exists for config-file parsing and must never reach serialized output.
func (r *RunResult) redacted() RunResult {
	out := *r
	out.Results = make([]bench.InferenceResult, len(r.Results))
	copy(out.Results, r.Results)
	for i := range out.Results {
		out.Results[i].Item.Model.APIKey = ""
	}
	out.Summaries = make([]report.ModelSummary, len(r.Summaries))
	copy(out.Summaries, r.Summaries)
	for i := range out.Summaries {
		out.Summaries[i].Model.APIKey = ""
	}
	return out
}
