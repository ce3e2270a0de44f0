package port

import "context"

type CacheRepository interface {
	// ClaimRequest marks a request as in flight, returns false if it was already claimed
	ClaimRequest(ctx context.Context, requestID string) (bool, error)

	// CompleteRequest records the order created for a claimed request
	CompleteRequest(ctx context.Context, requestID, orderID string) error

	// ReleaseRequest drops an in-flight claim so the request can be retried
	ReleaseRequest(ctx context.Context, requestID string) error

	// LookupRequest returns the order recorded for a request, empty while in flight
	LookupRequest(ctx context.Context, requestID string) (string, error)
}
