package pricing

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreRejectsInvalidRules(t *testing.T) {
	_, err := NewStore(Rules{})
	require.ErrorIs(t, err, ErrInvalidRules)
}

func TestStoreSwap(t *testing.T) {
	store, err := NewStore(DefaultRules(1500))
	require.NoError(t, err)
	require.Equal(t, int32(1500), store.Snapshot().SubscriptionBps)

	next := DefaultRules(1000)
	require.NoError(t, store.Swap(next))
	require.Equal(t, int32(1000), store.Snapshot().SubscriptionBps)

	// A failed swap must leave the published snapshot untouched.
	bad := DefaultRules(1000)
	bad.ShippingTiers = nil
	require.ErrorIs(t, store.Swap(bad), ErrInvalidRules)
	require.Equal(t, int32(1000), store.Snapshot().SubscriptionBps)
}

func TestStoreConcurrentReadsDuringSwap(t *testing.T) {
	store, err := NewStore(DefaultRules(1500))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				snap := store.Snapshot()
				// Every observed snapshot must be internally consistent.
				if err := snap.Validate(); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	for j := 0; j < 200; j++ {
		bps := int32(1000)
		if j%2 == 0 {
			bps = 1500
		}
		require.NoError(t, store.Swap(DefaultRules(bps)))
	}
	wg.Wait()
}

func TestLoadRulesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.json")
	payload := `{
		"standardTiers": [{"threshold": 10, "discountBps": 500}],
		"kitConfigTiers": [{"threshold": 10, "discountBps": 1000}],
		"subscriptionBps": 1500,
		"shippingTiers": [{"threshold": 0, "cost": 3000}, {"threshold": 50000, "cost": 0}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	rules, err := LoadRulesFile(path)
	require.NoError(t, err)
	require.Len(t, rules.StandardTiers, 1)
	require.Equal(t, Money(3000), rules.ShippingTiers[0].Cost)

	_, err = LoadRulesFile(filepath.Join(dir, "missing.json"))
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"shippingTiers": []}`), 0o600))
	_, err = LoadRulesFile(path)
	require.ErrorIs(t, err, ErrInvalidRules)
}
