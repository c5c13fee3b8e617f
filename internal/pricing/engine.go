package pricing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidCartItem indicates a malformed line item. The calculator rejects
// the whole cart rather than silently repairing financial input.
var ErrInvalidCartItem = errors.New("pricing: invalid cart item")

// ItemError names the offending line item and field.
type ItemError struct {
	Index int
	Field string
	Value int64
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("pricing: invalid cart item %d: %s=%d", e.Index, e.Field, e.Value)
}

func (e *ItemError) Unwrap() error { return ErrInvalidCartItem }

// LineItem is one configurable cart entry. ProductID and ProductType are
// passed through for traceability; pricing math uses only UnitPrice and
// Quantity.
type LineItem struct {
	ProductID   string `json:"productId"`
	ProductType string `json:"productType,omitempty"`
	UnitPrice   Money  `json:"unitPrice"`
	Quantity    int    `json:"quantity"`
}

// Breakdown is the fully itemized result of one calculation. Orders persist
// it verbatim; historical prices are never recomputed from current rules.
type Breakdown struct {
	BaseTotal                  Money  `json:"baseTotal"`
	TotalQuantity              int    `json:"totalQuantity"`
	TierDiscountApplied        string `json:"tierDiscountApplied"`
	TierDiscountBps            int32  `json:"tierDiscountBps"`
	TierDiscountAmount         Money  `json:"tierDiscountAmount"`
	SubscriptionApplied        bool   `json:"subscriptionDiscountApplied"`
	SubscriptionDiscountAmount Money  `json:"subscriptionDiscountAmount"`
	SubtotalAfterDiscounts     Money  `json:"subtotalAfterDiscounts"`
	ShippingCost               Money  `json:"shippingCost"`
	GrandTotal                 Money  `json:"grandTotal"`

	clamped bool
}

// Clamped reports whether the post-discount subtotal had to be clamped to
// zero. Rules validation makes this unreachable; callers log it when set.
func (b Breakdown) Clamped() bool { return b.clamped }

// Calculate produces a deterministic price breakdown for the cart. The stages
// run in fixed order: base total, quantity-tier discount, subscription
// discount on the remainder, shipping lookup against the discounted subtotal,
// grand total. Each discount rounds half-up to the minor unit at its own
// stage, so the itemized amounts always sum exactly to the base total.
//
// Pure and safe for concurrent use; identical inputs yield identical output.
func Calculate(cart []LineItem, rules Rules, set TierSet, subscriber bool) (Breakdown, error) {
	if err := rules.Validate(); err != nil {
		return Breakdown{}, err
	}
	for i, item := range cart {
		if item.UnitPrice < 0 {
			return Breakdown{}, &ItemError{Index: i, Field: "unitPrice", Value: item.UnitPrice}
		}
		if item.Quantity < 1 {
			return Breakdown{}, &ItemError{Index: i, Field: "quantity", Value: int64(item.Quantity)}
		}
	}

	var (
		totalQty  int
		baseTotal Money
	)
	for _, item := range cart {
		totalQty += item.Quantity
		baseTotal += Money(item.Quantity) * item.UnitPrice
	}

	tier, matched := matchTier(rules.Tiers(set), totalQty)
	tierAmount := roundBps(baseTotal, tier.DiscountBps)

	var subAmount Money
	if subscriber {
		subAmount = roundBps(baseTotal-tierAmount, rules.SubscriptionBps)
	}

	subtotal := baseTotal - tierAmount - subAmount
	clamped := false
	if subtotal < 0 {
		subtotal = 0
		clamped = true
	}

	b := Breakdown{
		BaseTotal:                  baseTotal,
		TotalQuantity:              totalQty,
		TierDiscountApplied:        "none",
		TierDiscountAmount:         tierAmount,
		SubscriptionApplied:        subscriber,
		SubscriptionDiscountAmount: subAmount,
		SubtotalAfterDiscounts:     subtotal,
		ShippingCost:               shippingCost(rules.ShippingTiers, subtotal),
		clamped:                    clamped,
	}
	if matched {
		b.TierDiscountBps = tier.DiscountBps
		b.TierDiscountApplied = bpsLabel(tier.DiscountBps)
	}
	b.GrandTotal = b.SubtotalAfterDiscounts + b.ShippingCost
	return b, nil
}

// matchTier picks the single tier with the largest threshold not exceeding
// the total quantity. Tiers never stack; only the best match applies.
func matchTier(tiers []TierDiscount, totalQty int) (TierDiscount, bool) {
	for i := len(tiers) - 1; i >= 0; i-- {
		if tiers[i].Threshold <= totalQty {
			return tiers[i], true
		}
	}
	return TierDiscount{}, false
}

// shippingCost selects the cost of the highest threshold the subtotal meets.
// Below every threshold the lowest tier's cost is the defined base rate, which
// also covers the empty cart.
func shippingCost(tiers []ShippingTier, subtotal Money) Money {
	for i := len(tiers) - 1; i >= 0; i-- {
		if tiers[i].Threshold <= subtotal {
			return tiers[i].Cost
		}
	}
	return tiers[0].Cost
}

// roundBps applies a basis-point percentage with round-half-up to the minor
// unit. Operands are non-negative, so integer division floors.
func roundBps(amount Money, bps int32) Money {
	if amount <= 0 || bps <= 0 {
		return 0
	}
	return (amount*Money(bps) + 5000) / 10000
}

// bpsLabel renders basis points as a human percentage ("5%", "12.5%").
func bpsLabel(bps int32) string {
	whole := bps / 100
	frac := bps % 100
	if frac == 0 {
		return strconv.Itoa(int(whole)) + "%"
	}
	s := fmt.Sprintf("%d.%02d", whole, frac)
	s = strings.TrimRight(s, "0")
	return s + "%"
}
