package kitconfig

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hsd87/JerseyAI-sub001/internal/pricing"
)

// Sport describes one configurable sport and the kit types it offers.
type Sport struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	KitTypes []string `json:"kitTypes"`
}

// SKU is a priced, orderable kit component.
type SKU struct {
	Code      string        `json:"sku"`
	SportID   string        `json:"sportId"`
	KitType   string        `json:"kitType"`
	Name      string        `json:"name"`
	UnitPrice pricing.Money `json:"unitPrice"`
	Active    bool          `json:"active"`
}

// Catalog is the immutable sports/kit/SKU lookup table, loaded once at
// startup from CSV configuration.
type Catalog struct {
	Sports []Sport
	skus   map[string]SKU
}

// SKU looks up a SKU by code.
func (c *Catalog) SKU(code string) (SKU, bool) {
	sku, ok := c.skus[strings.ToUpper(strings.TrimSpace(code))]
	return sku, ok
}

// Len reports the number of loaded SKUs.
func (c *Catalog) Len() int { return len(c.skus) }

// LoadCatalogDir reads sports.csv and skus.csv from dir.
//
// sports.csv: id,name,kit_types (kit_types separated by "|")
// skus.csv:   sku,sport_id,kit_type,name,price_dollars,active
//
// Prices are dollars in the CSVs and converted to integer cents here, at the
// boundary; everything downstream is minor units.
func LoadCatalogDir(dir string) (*Catalog, error) {
	sports, err := loadSports(filepath.Join(dir, "sports.csv"))
	if err != nil {
		return nil, err
	}
	sportIDs := make(map[string]struct{}, len(sports))
	for _, s := range sports {
		sportIDs[s.ID] = struct{}{}
	}
	skus, err := loadSKUs(filepath.Join(dir, "skus.csv"), sportIDs)
	if err != nil {
		return nil, err
	}
	return &Catalog{Sports: sports, skus: skus}, nil
}

func loadSports(path string) ([]Sport, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	sports := make([]Sport, 0, len(rows))
	for i, row := range rows {
		if len(row) < 3 {
			return nil, fmt.Errorf("%s row %d: expected 3 columns, got %d", path, i+2, len(row))
		}
		id := strings.TrimSpace(row[0])
		if id == "" {
			return nil, fmt.Errorf("%s row %d: empty sport id", path, i+2)
		}
		kitTypes := []string{}
		for _, kt := range strings.Split(row[2], "|") {
			if trimmed := strings.TrimSpace(kt); trimmed != "" {
				kitTypes = append(kitTypes, trimmed)
			}
		}
		sports = append(sports, Sport{ID: id, Name: strings.TrimSpace(row[1]), KitTypes: kitTypes})
	}
	return sports, nil
}

func loadSKUs(path string, sportIDs map[string]struct{}) (map[string]SKU, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	skus := make(map[string]SKU, len(rows))
	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("%s row %d: expected 6 columns, got %d", path, i+2, len(row))
		}
		code := strings.ToUpper(strings.TrimSpace(row[0]))
		if code == "" {
			return nil, fmt.Errorf("%s row %d: empty sku", path, i+2)
		}
		if _, dup := skus[code]; dup {
			return nil, fmt.Errorf("%s row %d: duplicate sku %s", path, i+2, code)
		}
		sportID := strings.TrimSpace(row[1])
		if _, ok := sportIDs[sportID]; !ok {
			return nil, fmt.Errorf("%s row %d: unknown sport %q for sku %s", path, i+2, sportID, code)
		}
		dollars, err := strconv.ParseFloat(strings.TrimSpace(row[4]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: price: %w", path, i+2, err)
		}
		cents, err := pricing.DollarsToCents(dollars)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		if cents < 0 {
			return nil, fmt.Errorf("%s row %d: negative price for sku %s", path, i+2, code)
		}
		active, err := strconv.ParseBool(strings.TrimSpace(row[5]))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: active: %w", path, i+2, err)
		}
		skus[code] = SKU{
			Code:      code,
			SportID:   sportID,
			KitType:   strings.TrimSpace(row[2]),
			Name:      strings.TrimSpace(row[3]),
			UnitPrice: cents,
			Active:    active,
		}
	}
	return skus, nil
}

// readCSV returns all data rows, skipping the header.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s header: %w", path, err)
	}
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}
