package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Timeframe string

const (
	TimeframeDay   Timeframe = "day"
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
	TimeframeYear  Timeframe = "year"
	TimeframeAll   Timeframe = "all"
)

func ParseTimeframe(s string) (Timeframe, error) {
	switch tf := Timeframe(s); tf {
	case "":
		return TimeframeMonth, nil
	case TimeframeDay, TimeframeWeek, TimeframeMonth, TimeframeYear, TimeframeAll:
		return tf, nil
	default:
		return "", fmt.Errorf("unknown timeframe %q", s)
	}
}

// Since returns the start of the window containing now, or the zero time for
// TimeframeAll. Weeks start on Sunday.
func (tf Timeframe) Since(now time.Time) time.Time {
	y, m, d := now.Date()
	loc := now.Location()
	switch tf {
	case TimeframeDay:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	case TimeframeWeek:
		return time.Date(y, m, d-int(now.Weekday()), 0, 0, 0, 0, loc)
	case TimeframeMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case TimeframeYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Time{}
	}
}

type AnalyticsQuery struct {
	UserID    string
	Timeframe Timeframe
	ProductID string
	Limit     int
	Now       time.Time
}

type ProductStat struct {
	ProductID     string          `bson:"_id" json:"productId"`
	ProductName   string          `bson:"product_name" json:"productName"`
	TotalQuantity int             `bson:"total_quantity" json:"totalQuantity"`
	TotalRevenue  decimal.Decimal `bson:"total_revenue" json:"totalRevenue"`
	PurchaseCount int             `bson:"purchase_count" json:"purchaseCount"`
}

type SegmentStat struct {
	Segment string          `bson:"_id" json:"segment"`
	Count   int             `bson:"count" json:"count"`
	Revenue decimal.Decimal `bson:"revenue" json:"revenue"`
}

type AnalyticsReport struct {
	Timeframe                   Timeframe       `json:"timeframe"`
	TotalPurchases              int64           `json:"totalPurchases"`
	TotalRevenue                decimal.Decimal `json:"totalRevenue"`
	FrequentlyPurchasedProducts []ProductStat   `json:"frequentlyPurchasedProducts"`
	CustomerSegmentBreakdown    []SegmentStat   `json:"customerSegmentBreakdown"`
}
