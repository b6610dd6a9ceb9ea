package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/logger"
	"github.com/fjod/go_storefront/internal/repository"
	"github.com/shopspring/decimal"
)

const maxTierAttempts = 5

type LoyaltyService struct {
	repo repository.LoyaltyRepository
	log  *logger.Logger
}

func NewLoyaltyService(repo repository.LoyaltyRepository, log *logger.Logger) *LoyaltyService {
	return &LoyaltyService{repo: repo, log: log}
}

// Accrual is the outcome of crediting one purchase.
type Accrual struct {
	PointsEarned int
	Previous     *domain.LoyaltyProfile
	Updated      *domain.LoyaltyProfile
}

// DiscountQuote is the discount the user would get on the next checkout.
type DiscountQuote struct {
	Eligible    bool        `json:"eligible"`
	Percent     int         `json:"percent"`
	Tier        domain.Tier `json:"tier"`
	TotalPoints int         `json:"totalPoints"`
}

// Get returns the profile or repository.ErrLoyaltyNotFound. A stored tier
// outside the known ladder is replaced by the tier of the balance.
func (s *LoyaltyService) Get(ctx context.Context, userID string) (*domain.LoyaltyProfile, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !profile.Tier.Valid() {
		s.log.WithContext(ctx).Warn("unknown loyalty tier stored", "user_id", userID, "tier", string(profile.Tier))
		profile.Tier = domain.TierFor(profile.TotalPoints)
	}
	return profile, nil
}

// Accrue credits the points earned by amount and moves the profile to the
// tier of its new balance. The profile is created on first accrual.
func (s *LoyaltyService) Accrue(ctx context.Context, userID string, amount decimal.Decimal) (*Accrual, error) {
	earned := domain.PointsEarned(amount)

	before, err := s.repo.AddPoints(ctx, userID, earned)
	if err != nil {
		return nil, fmt.Errorf("add points: %w", err)
	}

	now := time.Now()
	updated := &domain.LoyaltyProfile{
		UserID:      userID,
		TotalPoints: earned,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if before != nil {
		updated.ID = before.ID
		updated.TotalPoints = before.TotalPoints + earned
		updated.CreatedAt = before.CreatedAt
	}

	for attempt := 1; ; attempt++ {
		updated.Tier = domain.TierFor(updated.TotalPoints)
		matched, err := s.repo.SetTier(ctx, userID, updated.TotalPoints, updated.Tier)
		if err != nil {
			return nil, fmt.Errorf("set tier: %w", err)
		}
		if matched {
			break
		}
		if attempt == maxTierAttempts {
			return nil, fmt.Errorf("set tier: balance of %s kept changing", userID)
		}

		// A concurrent accrual moved the balance; take the tier from the latest one.
		latest, err := s.repo.GetProfile(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("reload profile: %w", err)
		}
		s.log.WithContext(ctx).Debug("loyalty balance moved during accrual",
			"user_id", userID, "expected", updated.TotalPoints, "actual", latest.TotalPoints)
		updated.TotalPoints = latest.TotalPoints
	}

	return &Accrual{PointsEarned: earned, Previous: before, Updated: updated}, nil
}

// Discount quotes the discount for the current balance. Users without a
// profile are quoted zero.
func (s *LoyaltyService) Discount(ctx context.Context, userID string) (*DiscountQuote, error) {
	profile, err := s.Get(ctx, userID)
	if errors.Is(err, repository.ErrLoyaltyNotFound) {
		return &DiscountQuote{Tier: domain.TierStandard}, nil
	}
	if err != nil {
		return nil, err
	}

	percent := domain.DiscountPercentFor(profile.Tier, profile.TotalPoints)
	return &DiscountQuote{
		Eligible:    percent > 0,
		Percent:     percent,
		Tier:        profile.Tier,
		TotalPoints: profile.TotalPoints,
	}, nil
}
