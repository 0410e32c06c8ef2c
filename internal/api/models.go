package api

import (
	"context"
	"fmt"

	"modelcompare/internal/bench"
)

// ListModels queries a backend for the model identifiers it serves. Used by
// the CLI and server to sanity-check a configured endpoint.
func (c *Client) ListModels(ctx context.Context, spec bench.ModelSpec) ([]string, error) {
	list, err := c.clientFor(spec).ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models at %s: %w", spec.BaseURL, err)
	}
	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}
