package adapter

import "context"

// Notifier delivers best-effort operational alerts. It is always invoked
// after commit, never inside a transaction, so a slow or down channel cannot
// stall a ledger mutation.
type Notifier interface {
	NotifyStateChange(ctx context.Context, userID, fromState, toState, event string) error
}
