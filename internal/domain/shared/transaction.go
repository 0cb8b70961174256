package shared

import "context"

// TransactionManager runs a function inside a single storage transaction.
// Repository calls made with the context passed to fn join that transaction;
// any error from fn rolls the whole transaction back.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
