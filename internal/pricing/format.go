package pricing

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidAmount is returned when a boundary conversion receives a
// non-finite number.
var ErrInvalidAmount = errors.New("pricing: invalid amount")

// Formatter renders minor-unit amounts as display currency strings. Stateless
// and safe for concurrent use.
type Formatter struct {
	Symbol string
}

// NewFormatter constructs a Formatter, defaulting to "$".
func NewFormatter(symbol string) Formatter {
	if symbol == "" {
		symbol = "$"
	}
	return Formatter{Symbol: symbol}
}

// Format renders cents as a currency string, e.g. 46605 -> "$466.05".
func (f Formatter) Format(amount Money) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%s%d.%02d", sign, f.symbol(), amount/100, amount%100)
}

func (f Formatter) symbol() string {
	if f.Symbol == "" {
		return "$"
	}
	return f.Symbol
}

// FormattedBreakdown mirrors Breakdown with display-ready currency strings.
type FormattedBreakdown struct {
	BaseTotal                  string `json:"baseTotal"`
	TierDiscountApplied        string `json:"tierDiscountApplied"`
	TierDiscountAmount         string `json:"tierDiscountAmount"`
	SubscriptionDiscountAmount string `json:"subscriptionDiscountAmount"`
	SubtotalAfterDiscounts     string `json:"subtotalAfterDiscounts"`
	ShippingCost               string `json:"shippingCost"`
	GrandTotal                 string `json:"grandTotal"`
}

// FormatBreakdown renders every monetary field of a breakdown.
func (f Formatter) FormatBreakdown(b Breakdown) FormattedBreakdown {
	return FormattedBreakdown{
		BaseTotal:                  f.Format(b.BaseTotal),
		TierDiscountApplied:        b.TierDiscountApplied,
		TierDiscountAmount:         f.Format(b.TierDiscountAmount),
		SubscriptionDiscountAmount: f.Format(b.SubscriptionDiscountAmount),
		SubtotalAfterDiscounts:     f.Format(b.SubtotalAfterDiscounts),
		ShippingCost:               f.Format(b.ShippingCost),
		GrandTotal:                 f.Format(b.GrandTotal),
	}
}

// DollarsToCents converts a floating dollar amount to minor units at the API
// or CSV boundary. All internal math stays in integer cents.
func DollarsToCents(amount float64) (Money, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	return Money(math.Round(amount * 100)), nil
}
