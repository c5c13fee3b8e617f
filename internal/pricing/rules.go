package pricing

import (
	"errors"
	"fmt"
)

// Money is a monetary value in minor currency units (cents).
type Money = int64

// ErrInvalidRules indicates a malformed rules table. It is fatal at load time;
// a service must not start with rules that fail validation.
var ErrInvalidRules = errors.New("pricing: invalid rules")

// TierDiscount grants a percentage discount once the cart's total quantity
// meets the threshold. Percentages are basis points (500 = 5%).
type TierDiscount struct {
	Threshold   int   `json:"threshold"`
	DiscountBps int32 `json:"discountBps"`
}

// ShippingTier maps a post-discount subtotal threshold to a shipping cost.
// The highest tier's cost is conventionally zero ("free shipping over X").
type ShippingTier struct {
	Threshold Money `json:"threshold"`
	Cost      Money `json:"cost"`
}

// TierSet names one of the quantity-discount tables.
type TierSet string

const (
	// TierSetStandard is the generic cart pricing path (5/10/15%).
	TierSetStandard TierSet = "standard"
	// TierSetKit is the SKU/kit-config pricing path (10/15/25%).
	TierSetKit TierSet = "kit"
)

// Rules is the immutable pricing configuration. Both tier tables observed in
// the storefront are kept as named sets; which one applies is chosen by the
// entry point, never merged.
type Rules struct {
	StandardTiers   []TierDiscount `json:"standardTiers"`
	KitTiers        []TierDiscount `json:"kitConfigTiers"`
	SubscriptionBps int32          `json:"subscriptionBps"`
	ShippingTiers   []ShippingTier `json:"shippingTiers"`
}

// Tiers returns the discount table for the named set.
func (r Rules) Tiers(set TierSet) []TierDiscount {
	if set == TierSetKit {
		return r.KitTiers
	}
	return r.StandardTiers
}

// Validate checks the invariants the calculator relies on: strictly ascending
// non-negative thresholds, basis points within [0, 10000], at least one
// shipping tier, and non-negative shipping costs.
func (r Rules) Validate() error {
	if err := validateTiers("standardTiers", r.StandardTiers); err != nil {
		return err
	}
	if err := validateTiers("kitConfigTiers", r.KitTiers); err != nil {
		return err
	}
	if r.SubscriptionBps < 0 || r.SubscriptionBps > 10000 {
		return fmt.Errorf("%w: subscriptionBps %d out of range [0, 10000]", ErrInvalidRules, r.SubscriptionBps)
	}
	if len(r.ShippingTiers) == 0 {
		return fmt.Errorf("%w: shippingTiers must not be empty", ErrInvalidRules)
	}
	prev := Money(-1)
	for i, tier := range r.ShippingTiers {
		if tier.Threshold < 0 {
			return fmt.Errorf("%w: shippingTiers[%d] threshold %d is negative", ErrInvalidRules, i, tier.Threshold)
		}
		if tier.Threshold <= prev {
			return fmt.Errorf("%w: shippingTiers thresholds must be strictly ascending (index %d)", ErrInvalidRules, i)
		}
		if tier.Cost < 0 {
			return fmt.Errorf("%w: shippingTiers[%d] cost %d is negative", ErrInvalidRules, i, tier.Cost)
		}
		prev = tier.Threshold
	}
	return nil
}

func validateTiers(name string, tiers []TierDiscount) error {
	prev := -1
	for i, tier := range tiers {
		if tier.Threshold < 1 {
			return fmt.Errorf("%w: %s[%d] threshold %d must be at least 1", ErrInvalidRules, name, i, tier.Threshold)
		}
		if tier.Threshold <= prev {
			return fmt.Errorf("%w: %s thresholds must be strictly ascending (index %d)", ErrInvalidRules, name, i)
		}
		if tier.DiscountBps < 0 || tier.DiscountBps > 10000 {
			return fmt.Errorf("%w: %s[%d] discountBps %d out of range [0, 10000]", ErrInvalidRules, name, i, tier.DiscountBps)
		}
		prev = tier.Threshold
	}
	return nil
}

// DefaultRules returns the storefront's built-in rule tables. The subscription
// rate is a named parameter because product copy disagrees on 10% vs 15%; the
// default stays 1500 bps until resolved.
func DefaultRules(subscriptionBps int32) Rules {
	if subscriptionBps < 0 {
		subscriptionBps = 1500
	}
	return Rules{
		StandardTiers: []TierDiscount{
			{Threshold: 10, DiscountBps: 500},
			{Threshold: 20, DiscountBps: 1000},
			{Threshold: 50, DiscountBps: 1500},
		},
		KitTiers: []TierDiscount{
			{Threshold: 10, DiscountBps: 1000},
			{Threshold: 20, DiscountBps: 1500},
			{Threshold: 50, DiscountBps: 2500},
		},
		SubscriptionBps: subscriptionBps,
		ShippingTiers: []ShippingTier{
			{Threshold: 0, Cost: 3000},
			{Threshold: 20000, Cost: 2000},
			{Threshold: 50000, Cost: 0},
		},
	}
}
