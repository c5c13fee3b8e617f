package kitconfig

import (
	"context"
	"errors"
	"fmt"

	"github.com/hsd87/JerseyAI-sub001/internal/pricing"
)

// ErrUnknownSKU indicates a selection referenced a SKU not in the catalog.
var ErrUnknownSKU = errors.New("kitconfig: unknown sku")

// ErrInactiveSKU indicates a selection referenced a SKU that is not orderable.
var ErrInactiveSKU = errors.New("kitconfig: sku not active")

// Selection is one SKU-quantity pair from the kit configurator.
type Selection struct {
	SKU      string `json:"sku" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=1"`
}

// ConfiguredLine echoes a matched SKU with its resolved price.
type ConfiguredLine struct {
	SKU       string        `json:"sku"`
	Name      string        `json:"name"`
	SportID   string        `json:"sportId"`
	KitType   string        `json:"kitType"`
	UnitPrice pricing.Money `json:"unitPrice"`
	Quantity  int           `json:"quantity"`
	LineTotal pricing.Money `json:"lineTotal"`
}

// Result is the outcome of configuring a kit: the matched lines plus the
// breakdown computed with the kit tier set.
type Result struct {
	Lines     []ConfiguredLine  `json:"lines"`
	Breakdown pricing.Breakdown `json:"breakdown"`
}

// Service resolves SKU selections against the catalog and prices them through
// the shared engine using the kit tier table.
type Service struct {
	Catalog *Catalog
	Rules   *pricing.Store
	Cache   *Cache
}

// Configure matches the selections to catalog SKUs and produces a priced kit
// configuration. The same quantity-tier algorithm as the cart path applies,
// just with the kit tier values.
func (s *Service) Configure(ctx context.Context, selections []Selection, subscriber bool) (Result, error) {
	if s == nil || s.Catalog == nil || s.Rules == nil {
		return Result{}, errors.New("kitconfig service not configured")
	}
	lines := make([]ConfiguredLine, 0, len(selections))
	cart := make([]pricing.LineItem, 0, len(selections))
	for _, sel := range selections {
		sku, ok := s.Catalog.SKU(sel.SKU)
		if !ok {
			return Result{}, fmt.Errorf("%w: %s", ErrUnknownSKU, sel.SKU)
		}
		if !sku.Active {
			return Result{}, fmt.Errorf("%w: %s", ErrInactiveSKU, sku.Code)
		}
		lines = append(lines, ConfiguredLine{
			SKU:       sku.Code,
			Name:      sku.Name,
			SportID:   sku.SportID,
			KitType:   sku.KitType,
			UnitPrice: sku.UnitPrice,
			Quantity:  sel.Quantity,
			LineTotal: pricing.Money(sel.Quantity) * sku.UnitPrice,
		})
		cart = append(cart, pricing.LineItem{
			ProductID:   sku.Code,
			ProductType: sku.KitType,
			UnitPrice:   sku.UnitPrice,
			Quantity:    sel.Quantity,
		})
	}
	breakdown, err := pricing.Calculate(cart, s.Rules.Snapshot(), pricing.TierSetKit, subscriber)
	if err != nil {
		return Result{}, err
	}
	return Result{Lines: lines, Breakdown: breakdown}, nil
}

const sportsCacheKey = "kitconfig:sports"

// SportsResponse is the cached catalog listing served to the configurator UI.
type SportsResponse struct {
	Sports []Sport `json:"sports"`
}

// ListSports returns the sports catalog, served from Redis when cached.
func (s *Service) ListSports(ctx context.Context) (SportsResponse, error) {
	if s == nil || s.Catalog == nil {
		return SportsResponse{}, errors.New("kitconfig service not configured")
	}
	var cached SportsResponse
	if ok, err := s.Cache.GetJSON(ctx, sportsCacheKey, &cached); err == nil && ok {
		return cached, nil
	}
	resp := SportsResponse{Sports: s.Catalog.Sports}
	_ = s.Cache.SetJSON(ctx, sportsCacheKey, resp)
	return resp, nil
}
