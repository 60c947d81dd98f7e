package rewards

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/xyz-asif/roadwatch/internal/features/auth"
	"github.com/xyz-asif/roadwatch/internal/pkg/logger"
	"github.com/xyz-asif/roadwatch/internal/pkg/validator"
)

// DefaultMinRedeemPoints is the smallest payout a user may request
const DefaultMinRedeemPoints = 100

type Service struct {
	store     Store
	profiles  auth.ProfileStore
	minRedeem int
	log       *logger.Logger

	// serialises balance check and insert per user
	locks sync.Map
}

func NewService(store Store, profiles auth.ProfileStore, minRedeem int) *Service {
	if minRedeem <= 0 {
		minRedeem = DefaultMinRedeemPoints
	}
	return &Service{
		store:     store,
		profiles:  profiles,
		minRedeem: minRedeem,
		log:       logger.Default().Named("rewards"),
	}
}

func (s *Service) userLock(userID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Balance derives available points from the profile and the requested rewards
func (s *Service) Balance(ctx context.Context, user auth.CurrentUser) (Balance, error) {
	profile, err := s.profiles.GetByID(ctx, user.ID)
	if err != nil {
		return Balance{}, err
	}
	redeemed, err := s.store.SumRedeemed(ctx, user.ID)
	if err != nil {
		return Balance{}, err
	}

	available := profile.Points - redeemed
	if available < 0 {
		available = 0
	}
	return Balance{Points: profile.Points, Redeemed: redeemed, Available: available}, nil
}

// Redeem records a pending payout. The profile points are left alone.
func (s *Service) Redeem(ctx context.Context, user auth.CurrentUser, req RedeemRequest) (*Reward, error) {
	upiID := strings.TrimSpace(req.UPIID)
	if !validator.IsValidUPIID(upiID) {
		return nil, ErrInvalidUPIID
	}
	if req.Points < s.minRedeem {
		return nil, fmt.Errorf("%w: minimum is %d", ErrBelowMinimum, s.minRedeem)
	}

	mu := s.userLock(user.ID)
	mu.Lock()
	defer mu.Unlock()

	balance, err := s.Balance(ctx, user)
	if err != nil {
		return nil, err
	}
	if req.Points > balance.Available {
		return nil, fmt.Errorf("%w: %d requested, %d available", ErrInsufficientPoints, req.Points, balance.Available)
	}

	reward := &Reward{
		UserID:         user.ID,
		PointsRedeemed: req.Points,
		UPIID:          upiID,
		Status:         StatusPending,
	}
	if err := s.store.Insert(ctx, reward); err != nil {
		return nil, err
	}

	s.log.Info("user %s requested %d points to %s", user.ID, req.Points, upiID)
	return reward, nil
}

func (s *Service) List(ctx context.Context, user auth.CurrentUser) ([]Reward, error) {
	return s.store.ListByUser(ctx, user.ID)
}

// Complete marks a pending payout as paid
func (s *Service) Complete(ctx context.Context, id string) (*Reward, error) {
	return s.store.CompleteIfPending(ctx, id)
}
