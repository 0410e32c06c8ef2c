package bench

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultFor(model, prompt string, status Status, cost float64) InferenceResult {
	return InferenceResult{
		Item: WorkItem{
			Model:  ModelSpec{Name: model, ID: model},
			Prompt: PromptCase{ID: prompt, Text: "x"},
		},
		Status:    status,
		Cost:      cost,
		Timestamp: time.Now(),
	}
}

func TestStoreAppendIsConcurrencySafe(t *testing.T) {
	store := NewResultStore(100)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.Append(resultFor("m", fmt.Sprintf("p%d", i), StatusSuccess, 0.01))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 100, store.Len())
	assert.InDelta(t, 1.0, store.TotalCost(), 1e-9)
}

func TestStoreResultsReturnsCopy(t *testing.T) {
	store := NewResultStore(2)
	store.Append(resultFor("m", "a", StatusSuccess, 0))

	results := store.Results()
	results[0].Item.Prompt.ID = "mutated"

	assert.Equal(t, "a", store.Results()[0].Item.Prompt.ID)
}

func TestStoreSortedByKey(t *testing.T) {
	store := NewResultStore(3)
	store.Append(resultFor("beta", "p2", StatusSuccess, 0))
	store.Append(resultFor("alpha", "p9", StatusFailure, 0))
	store.Append(resultFor("alpha", "p1", StatusSuccess, 0))

	sorted := store.SortedByKey()
	require.Len(t, sorted, 3)
	assert.Equal(t, "alpha/p1", sorted[0].Item.Key())
	assert.Equal(t, "alpha/p9", sorted[1].Item.Key())
	assert.Equal(t, "beta/p2", sorted[2].Item.Key())

	// Insertion order untouched.
	assert.Equal(t, "beta/p2", store.Results()[0].Item.Key())
}

func TestStoreCounts(t *testing.T) {
	store := NewResultStore(4)
	store.Append(resultFor("m", "a", StatusSuccess, 0.5))
	store.Append(resultFor("m", "b", StatusFailure, 0))
	store.Append(resultFor("m", "c", StatusSuccess, 0.25))

	assert.Equal(t, 2, store.SuccessCount())
	assert.Equal(t, 1, store.FailureCount())
	assert.InDelta(t, 0.75, store.TotalCost(), 1e-9)
}
