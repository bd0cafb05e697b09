package woosync

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/woosync/internal/domain/woosync"
)

// Remote settings read once per run
const (
	settingCurrency         = "settings/general/woocommerce_currency"
	settingWeightUnit       = "settings/products/woocommerce_weight_unit"
	settingDimensionUnit    = "settings/products/woocommerce_dimension_unit"
	settingPricesIncludeTax = "settings/tax/woocommerce_prices_include_tax"
	endpointTaxes           = "taxes"

	// StandardTaxClass is the remote tax class used for empty and unknown classes
	StandardTaxClass = "standard"
)

// SyncContext is the shared state fetched at the start of a run.
// It is read-only once the entity steps start.
type SyncContext struct {
	CurrencyCode      string
	CurrencyID        *uuid.UUID
	WeightUnitName    string
	WeightUnitID      *uuid.UUID
	DimensionUnitName string
	DimensionUnitID   *uuid.UUID
	PricesIncludeTax  bool
	// ModifiedAfter is the incremental cutoff, empty for a full import
	ModifiedAfter string

	taxRates   map[string]decimal.Decimal
	taxClasses []string
}

// NewSyncContext creates an empty context
func NewSyncContext() *SyncContext {
	return &SyncContext{taxRates: make(map[string]decimal.Decimal)}
}

// SetTaxRate records the rate of a tax class; a later row for the same class wins
func (sc *SyncContext) SetTaxRate(class string, rate decimal.Decimal) {
	class = strings.TrimSpace(class)
	if class == "" {
		class = StandardTaxClass
	}
	if _, ok := sc.taxRates[class]; !ok {
		sc.taxClasses = append(sc.taxClasses, class)
	}
	sc.taxRates[class] = rate
}

// TaxRate returns the rate of a tax class. Empty and unknown classes use the
// standard class; without a standard row the rate is zero.
func (sc *SyncContext) TaxRate(class string) decimal.Decimal {
	if rate, ok := sc.taxRates[strings.TrimSpace(class)]; ok {
		return rate
	}
	return sc.taxRates[StandardTaxClass]
}

// TaxClassFor returns the first class whose rate equals rate, or the standard class
func (sc *SyncContext) TaxClassFor(rate decimal.Decimal) string {
	for _, class := range sc.taxClasses {
		if sc.taxRates[class].Equal(rate) {
			return class
		}
	}
	return StandardTaxClass
}

// Params returns the listing filters shared by every import listing
func (sc *SyncContext) Params(lang string, extra map[string]string) map[string]string {
	params := make(map[string]string, len(extra)+2)
	for k, v := range extra {
		params[k] = v
	}
	if sc.ModifiedAfter != "" {
		params["modified_after"] = sc.ModifiedAfter
	}
	if lang != "" {
		params["lang"] = lang
	}
	return params
}

// fetchContext reads the store settings and the tax table. Every error is fatal for the run.
func (r *run) fetchContext(ctx context.Context) error {
	sc := NewSyncContext()

	currency, err := r.setting(ctx, settingCurrency)
	if err != nil {
		return err
	}
	sc.CurrencyCode = currency
	if sc.CurrencyID, err = r.refs.Currency(ctx, r.deps.Store, currency); err != nil {
		return err
	}
	if sc.CurrencyID == nil {
		r.log.Warn("Store currency not found locally")
	}

	if sc.WeightUnitName, err = r.setting(ctx, settingWeightUnit); err != nil {
		return err
	}
	if sc.DimensionUnitName, err = r.setting(ctx, settingDimensionUnit); err != nil {
		return err
	}

	include, err := r.setting(ctx, settingPricesIncludeTax)
	if err != nil {
		return err
	}
	sc.PricesIncludeTax = strings.ToLower(include) == "yes"

	rates, err := woosync.ListAllAs[woosync.RemoteTaxRate](ctx, r.client, endpointTaxes, nil, woosync.ListOptions{})
	if err != nil {
		return fmt.Errorf("%w: list taxes: %w", woosync.ErrConnectionFailed, err)
	}
	for _, rate := range rates {
		sc.SetTaxRate(rate.Class, woosync.ParseDecimal(rate.Rate))
	}

	// Units are shared by every step; resolving them here surfaces a missing
	// dimension unit before any record is written.
	if r.cfg.ImportProducts || r.cfg.ImportOrders {
		err := r.deps.Store.Transaction(ctx, func(tx woosync.Store) error {
			var err error
			if sc.WeightUnitID, err = r.refs.WeightUnit(ctx, tx, sc.WeightUnitName); err != nil {
				return err
			}
			if r.cfg.ImportProducts {
				if sc.DimensionUnitID, err = r.refs.DimensionUnit(ctx, tx, sc.DimensionUnitName); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			r.refs.Rollback()
			return err
		}
		r.refs.Commit()
	}

	sc.ModifiedAfter = r.modifiedAfter
	r.sc = sc
	return nil
}

func (r *run) setting(ctx context.Context, endpoint string) (string, error) {
	s, err := woosync.GetAs[woosync.RemoteSetting](ctx, r.client, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", woosync.ErrConnectionFailed, endpoint, err)
	}
	return strings.TrimSpace(s.Value), nil
}
