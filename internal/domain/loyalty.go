package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Tier string

const (
	TierStandard Tier = "Standard"
	TierSilver   Tier = "Silver"
	TierGold     Tier = "Gold"
	TierPlatinum Tier = "Platinum"
)

const (
	// PointsDivisor is the purchase amount that earns one point.
	PointsDivisor = 50
	// MinDiscountPoints is the balance below which no discount applies.
	MinDiscountPoints = 100
)

// tierThresholds is ordered from the highest tier down.
var tierThresholds = []struct {
	tier   Tier
	points int
}{
	{TierPlatinum, 1000},
	{TierGold, 500},
	{TierSilver, 250},
	{TierStandard, 0},
}

var tierDiscounts = map[Tier]int{
	TierStandard: 2,
	TierSilver:   4,
	TierGold:     6,
	TierPlatinum: 10,
}

type LoyaltyProfile struct {
	ID          string    `bson:"_id,omitempty" json:"-"`
	UserID      string    `bson:"user_id" json:"userId"`
	TotalPoints int       `bson:"total_points" json:"totalPoints"`
	Tier        Tier      `bson:"tier" json:"tier"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updatedAt"`
}

// TierFor returns the highest tier whose threshold is at most points.
func TierFor(points int) Tier {
	for _, t := range tierThresholds {
		if points >= t.points {
			return t.tier
		}
	}
	return TierStandard
}

func (t Tier) Valid() bool {
	_, ok := tierDiscounts[t]
	return ok
}

// DiscountPercentFor applies the minimum balance rule before the tier table.
func DiscountPercentFor(tier Tier, totalPoints int) int {
	if totalPoints < MinDiscountPoints {
		return 0
	}
	return tierDiscounts[tier]
}

// PointsEarned is round(amount / 50), halves rounded away from zero.
func PointsEarned(amount decimal.Decimal) int {
	return int(amount.Div(decimal.NewFromInt(PointsDivisor)).Round(0).IntPart())
}

// ApplyDiscount returns amount reduced by percent.
func ApplyDiscount(amount decimal.Decimal, percent int) decimal.Decimal {
	if percent <= 0 {
		return amount
	}
	cut := amount.Mul(decimal.NewFromInt(int64(percent))).Div(decimal.NewFromInt(100))
	return amount.Sub(cut)
}
