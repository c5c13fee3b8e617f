package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	f := NewFormatter("")
	require.Equal(t, "$466.05", f.Format(46605))
	require.Equal(t, "$0.00", f.Format(0))
	require.Equal(t, "$0.07", f.Format(7))
	require.Equal(t, "-$4.05", f.Format(-405))
	require.Equal(t, "$120.00", f.Format(12000))
}

func TestFormatBreakdown(t *testing.T) {
	b, err := Calculate([]LineItem{{UnitPrice: 4500, Quantity: 12}}, Rules{
		StandardTiers:   []TierDiscount{{Threshold: 10, DiscountBps: 500}},
		SubscriptionBps: 1500,
		ShippingTiers:   []ShippingTier{{Threshold: 0, Cost: 3000}},
	}, TierSetStandard, true)
	require.NoError(t, err)

	got := NewFormatter("$").FormatBreakdown(b)
	require.Equal(t, "$540.00", got.BaseTotal)
	require.Equal(t, "5%", got.TierDiscountApplied)
	require.Equal(t, "$27.00", got.TierDiscountAmount)
	require.Equal(t, "$76.95", got.SubscriptionDiscountAmount)
	require.Equal(t, "$436.05", got.SubtotalAfterDiscounts)
	require.Equal(t, "$30.00", got.ShippingCost)
	require.Equal(t, "$466.05", got.GrandTotal)
}

func TestDollarsToCents(t *testing.T) {
	cents, err := DollarsToCents(45.0)
	require.NoError(t, err)
	require.Equal(t, Money(4500), cents)

	cents, err = DollarsToCents(19.995)
	require.NoError(t, err)
	require.Equal(t, Money(2000), cents)

	_, err = DollarsToCents(math.NaN())
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = DollarsToCents(math.Inf(1))
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = DollarsToCents(math.Inf(-1))
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestBpsLabel(t *testing.T) {
	require.Equal(t, "5%", bpsLabel(500))
	require.Equal(t, "15%", bpsLabel(1500))
	require.Equal(t, "12.5%", bpsLabel(1250))
	require.Equal(t, "0.25%", bpsLabel(25))
}
