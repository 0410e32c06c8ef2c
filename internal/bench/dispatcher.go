package bench

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Invoker issues a single inference call. Implementations must not return an
// error; every outcome, including transport faults, becomes a result record.
type Invoker interface {
	Invoke(ctx context.Context, item WorkItem, params InferenceParams) InferenceResult
}

// Dispatcher runs a batch of work items through an Invoker under a bounded
// worker pool. One item's failure never aborts or blocks its siblings; the
// returned store always holds exactly one result per submitted item.
type Dispatcher struct {
	client Invoker
	params InferenceParams

	// OnResult, when set, is called once per completed item after the result
	// is appended. Used for progress bars and job status updates.
	OnResult func(InferenceResult)
}

// NewDispatcher creates a dispatcher using the given client and parameters.
func NewDispatcher(client Invoker, params InferenceParams) *Dispatcher {
	return &Dispatcher{client: client, params: params}
}

// Run executes all items with at most concurrency calls in flight. There is
// no cancellation primitive: once submitted the batch runs to completion.
// Callers pacing oversized test sets slice items and call Run per slice.
func (d *Dispatcher) Run(ctx context.Context, items []WorkItem, concurrency int) (*ResultStore, error) {
	if concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be positive, got %d", concurrency)
	}

	store := NewResultStore(len(items))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for _, item := range items {
		item := item
		g.Go(func() error {
			res := d.invoke(ctx, item)
			store.Append(res)
			if d.OnResult != nil {
				d.OnResult(res)
			}
			return nil
		})
	}
	// Workers never return errors, Wait only blocks until all items finish.
	_ = g.Wait()

	return store, nil
}

// invoke shields the batch from a misbehaving client: a panic inside Invoke
// still yields a failure record, so no item is silently dropped.
func (d *Dispatcher) invoke(ctx context.Context, item WorkItem) (res InferenceResult) {
	defer func() {
		if r := recover(); r != nil {
			res = Failure(item, FailureUnknown, fmt.Sprintf("panic during invocation: %v", r))
		}
	}()
	return d.client.Invoke(ctx, item, d.params)
}
