package rewards

import "context"

// Store keeps reward requests
type Store interface {
	Insert(ctx context.Context, r *Reward) error
	// ListByUser returns the user's rewards newest first
	ListByUser(ctx context.Context, userID string) ([]Reward, error)
	// SumRedeemed adds up the points of every reward the user has requested
	SumRedeemed(ctx context.Context, userID string) (int, error)
	// CompleteIfPending moves pending -> completed and returns the updated reward
	CompleteIfPending(ctx context.Context, id string) (*Reward, error)
}
