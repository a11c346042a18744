package comment

import "context"

// Repository is the durable-store contract the queue worker applies events
// against. Implementations live in the infrastructure layer.
type Repository interface {
	// Apply persists one lifecycle event. It must be idempotent per EventID:
	// the queue delivers at-least-once, so the same event may arrive twice.
	Apply(ctx context.Context, event Event) error
}
