package rewards

import (
	"fmt"
	"time"

	pkgerrors "github.com/xyz-asif/roadwatch/pkg/errors"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Reward is a UPI payout request against a user's points
type Reward struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	PointsRedeemed int        `json:"pointsRedeemed"`
	UPIID          string     `json:"upiId"`
	Status         Status     `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// Balance is derived, the profile points are never mutated by a redemption
type Balance struct {
	Points    int `json:"points"`
	Redeemed  int `json:"redeemed"`
	Available int `json:"available"`
}

type RedeemRequest struct {
	Points int    `json:"points" binding:"required,min=1" example:"150"`
	UPIID  string `json:"upiId" binding:"required" example:"reporter@okbank"`
}

var (
	ErrRewardNotFound     = fmt.Errorf("%w: reward not found", pkgerrors.ErrNotFound)
	ErrNotPending         = fmt.Errorf("%w: reward is not pending", pkgerrors.ErrConflict)
	ErrBelowMinimum       = fmt.Errorf("%w: below the minimum redeemable points", pkgerrors.ErrValidation)
	ErrInsufficientPoints = fmt.Errorf("%w: not enough points available", pkgerrors.ErrValidation)
	ErrInvalidUPIID       = fmt.Errorf("%w: invalid UPI ID", pkgerrors.ErrValidation)
)
