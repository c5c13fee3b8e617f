package kitconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, sportsCSV, skusCSV string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sports.csv"), []byte(sportsCSV), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skus.csv"), []byte(skusCSV), 0o600))
	return dir
}

const validSports = `id,name,kit_types
soccer,Soccer,jersey|jersey_shorts|kit
basketball,Basketball,jersey|kit
`

const validSKUs = `sku,sport_id,kit_type,name,price_dollars,active
SOC-JER-01,soccer,jersey,Soccer Jersey,45.00,true
SOC-KIT-01,soccer,kit,Soccer Full Kit,79.99,true
BBL-JER-01,basketball,jersey,Basketball Jersey,49.50,false
`

func TestLoadCatalogDir(t *testing.T) {
	dir := writeCatalog(t, validSports, validSKUs)
	catalog, err := LoadCatalogDir(dir)
	require.NoError(t, err)
	require.Len(t, catalog.Sports, 2)
	require.Equal(t, []string{"jersey", "jersey_shorts", "kit"}, catalog.Sports[0].KitTypes)
	require.Equal(t, 3, catalog.Len())

	sku, ok := catalog.SKU("soc-jer-01")
	require.True(t, ok, "lookup is case-insensitive")
	require.Equal(t, int64(4500), sku.UnitPrice)
	require.True(t, sku.Active)

	kit, ok := catalog.SKU("SOC-KIT-01")
	require.True(t, ok)
	require.Equal(t, int64(7999), kit.UnitPrice)

	_, ok = catalog.SKU("NOPE")
	require.False(t, ok)
}

func TestLoadCatalogRejectsBadRows(t *testing.T) {
	cases := map[string]struct {
		sports string
		skus   string
	}{
		"unknown sport": {
			sports: validSports,
			skus:   "sku,sport_id,kit_type,name,price_dollars,active\nX-1,cricket,jersey,X,10.00,true\n",
		},
		"duplicate sku": {
			sports: validSports,
			skus:   "sku,sport_id,kit_type,name,price_dollars,active\nA-1,soccer,jersey,A,10.00,true\nA-1,soccer,kit,B,20.00,true\n",
		},
		"negative price": {
			sports: validSports,
			skus:   "sku,sport_id,kit_type,name,price_dollars,active\nA-1,soccer,jersey,A,-1.00,true\n",
		},
		"unparsable price": {
			sports: validSports,
			skus:   "sku,sport_id,kit_type,name,price_dollars,active\nA-1,soccer,jersey,A,ten,true\n",
		},
		"bad active flag": {
			sports: validSports,
			skus:   "sku,sport_id,kit_type,name,price_dollars,active\nA-1,soccer,jersey,A,10.00,maybe\n",
		},
		"empty sport id": {
			sports: "id,name,kit_types\n,Soccer,jersey\n",
			skus:   validSKUs,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			dir := writeCatalog(t, tc.sports, tc.skus)
			_, err := LoadCatalogDir(dir)
			require.Error(t, err)
		})
	}
}

func TestLoadCatalogMissingFiles(t *testing.T) {
	_, err := LoadCatalogDir(t.TempDir())
	require.Error(t, err)
}
