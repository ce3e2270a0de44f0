package port

import "context"

// TransactionScope runs business logic inside one unit of work.
// The unit commits if fn returns nil and rolls back otherwise. The ctx passed
// to fn carries the unit for repositories to join.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
}

// ExecuteWithResult runs fn within scope and returns its result.
func ExecuteWithResult[T any](ctx context.Context, scope TransactionScope, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := scope.Execute(ctx, func(ctx context.Context) error {
		var fnErr error
		result, fnErr = fn(ctx)
		return fnErr
	})
	return result, err
}
