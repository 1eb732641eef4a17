package main

import (
	"context"
	"strings"

	"reelsmith/internal/api"
	"reelsmith/internal/ipc"
	"reelsmith/internal/queue"
)

// queueAPI unifies queue operations across the IPC and direct-store paths so
// command handlers do not care whether the daemon is running.
type queueAPI interface {
	api.QueueActionService

	Stats(ctx context.Context) (map[string]int, error)
	List(ctx context.Context, statuses []string) ([]api.QueueItem, error)
	ClearAll(ctx context.Context) (int64, error)
	ClearCompleted(ctx context.Context) (int64, error)
	ClearFailed(ctx context.Context) (int64, error)
	ResetStuck(ctx context.Context) (int64, error)
	RetryAll(ctx context.Context) (int64, error)
	Health(ctx context.Context) (queue.HealthSummary, error)
}

// newQueueAPI wraps whichever of client/store is non-nil.
func newQueueAPI(client *ipc.Client, store *queue.Store) queueAPI {
	if client != nil {
		return &queueIPCAdapter{client: client}
	}
	return &queueStoreAdapter{store: store, service: api.NewQueueService(store)}
}

// --- IPC adapter ---

type queueIPCAdapter struct {
	client *ipc.Client
}

// rpcCount unwraps the single count carried by most queue RPC responses.
func rpcCount[T any](resp *T, err error, pick func(*T) int64) (int64, error) {
	if err != nil {
		return 0, err
	}
	return pick(resp), nil
}

func (a *queueIPCAdapter) Stats(_ context.Context) (map[string]int, error) {
	resp, err := a.client.Status()
	if err != nil {
		return nil, err
	}
	return resp.QueueStats, nil
}

func (a *queueIPCAdapter) List(_ context.Context, statuses []string) ([]api.QueueItem, error) {
	resp, err := a.client.QueueList(statuses)
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (a *queueIPCAdapter) Describe(_ context.Context, id int64) (*api.QueueItem, error) {
	resp, err := a.client.QueueDescribe(id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return nil, nil
		}
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	return &resp.Item, nil
}

func (a *queueIPCAdapter) ClearAll(_ context.Context) (int64, error) {
	resp, err := a.client.QueueClear()
	return rpcCount(resp, err, func(r *ipc.QueueClearResponse) int64 { return r.Removed })
}

func (a *queueIPCAdapter) ClearCompleted(_ context.Context) (int64, error) {
	resp, err := a.client.QueueClearCompleted()
	return rpcCount(resp, err, func(r *ipc.QueueClearCompletedResponse) int64 { return r.Removed })
}

func (a *queueIPCAdapter) ClearFailed(_ context.Context) (int64, error) {
	resp, err := a.client.QueueClearFailed()
	return rpcCount(resp, err, func(r *ipc.QueueClearFailedResponse) int64 { return r.Removed })
}

func (a *queueIPCAdapter) Remove(_ context.Context, id int64) (bool, error) {
	resp, err := a.client.QueueRemove([]int64{id})
	if err != nil {
		return false, err
	}
	return resp.Removed > 0, nil
}

func (a *queueIPCAdapter) ResetStuck(_ context.Context) (int64, error) {
	resp, err := a.client.QueueReset()
	return rpcCount(resp, err, func(r *ipc.QueueResetResponse) int64 { return r.Updated })
}

func (a *queueIPCAdapter) RetryAll(_ context.Context) (int64, error) {
	return a.Retry(context.Background(), nil)
}

func (a *queueIPCAdapter) Retry(_ context.Context, ids []int64) (int64, error) {
	resp, err := a.client.QueueRetry(ids)
	return rpcCount(resp, err, func(r *ipc.QueueRetryResponse) int64 { return r.Updated })
}

func (a *queueIPCAdapter) Health(_ context.Context) (queue.HealthSummary, error) {
	resp, err := a.client.QueueHealth()
	if err != nil {
		return queue.HealthSummary{}, err
	}
	return queue.HealthSummary(*resp), nil
}

// --- Store adapter ---

type queueStoreAdapter struct {
	store   *queue.Store
	service *api.QueueService
}

func (a *queueStoreAdapter) Stats(ctx context.Context) (map[string]int, error) {
	return a.service.Stats(ctx)
}

func (a *queueStoreAdapter) List(ctx context.Context, statuses []string) ([]api.QueueItem, error) {
	var filters []queue.Status
	for _, s := range statuses {
		if parsed, ok := queue.ParseStatus(s); ok {
			filters = append(filters, parsed)
		}
	}
	return a.service.List(ctx, filters...)
}

func (a *queueStoreAdapter) Describe(ctx context.Context, id int64) (*api.QueueItem, error) {
	return a.service.Describe(ctx, id)
}

func (a *queueStoreAdapter) ClearAll(ctx context.Context) (int64, error) {
	return a.store.Clear(ctx)
}

func (a *queueStoreAdapter) ClearCompleted(ctx context.Context) (int64, error) {
	return a.store.ClearCompleted(ctx)
}

func (a *queueStoreAdapter) ClearFailed(ctx context.Context) (int64, error) {
	return a.store.ClearFailed(ctx)
}

func (a *queueStoreAdapter) Remove(ctx context.Context, id int64) (bool, error) {
	return a.store.Remove(ctx, id)
}

func (a *queueStoreAdapter) ResetStuck(ctx context.Context) (int64, error) {
	return a.store.ResetStuckProcessing(ctx)
}

func (a *queueStoreAdapter) RetryAll(ctx context.Context) (int64, error) {
	return a.store.RetryFailed(ctx)
}

func (a *queueStoreAdapter) Retry(ctx context.Context, ids []int64) (int64, error) {
	return a.store.RetryFailed(ctx, ids...)
}

func (a *queueStoreAdapter) Health(ctx context.Context) (queue.HealthSummary, error) {
	return a.store.Health(ctx)
}
