package storage

import (
	"context"
	"sync"
)

// MemoryCache tracks request claims in process.
type MemoryCache struct {
	mu       sync.Mutex
	requests map[string]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{requests: make(map[string]string)}
}

func (c *MemoryCache) ClaimRequest(ctx context.Context, requestID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.requests[requestID]; ok {
		return false, nil
	}
	c.requests[requestID] = pendingMarker
	return true, nil
}

func (c *MemoryCache) CompleteRequest(ctx context.Context, requestID, orderID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests[requestID] = orderID
	return nil
}

func (c *MemoryCache) ReleaseRequest(ctx context.Context, requestID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.requests[requestID] == pendingMarker {
		delete(c.requests, requestID)
	}
	return nil
}

func (c *MemoryCache) LookupRequest(ctx context.Context, requestID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	orderID := c.requests[requestID]
	if orderID == pendingMarker {
		return "", nil
	}
	return orderID, nil
}
