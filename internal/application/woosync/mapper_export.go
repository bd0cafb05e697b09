package woosync

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/erp/woosync/internal/domain/woosync"
)

// ExportRefs holds the remote identities of a local product's references,
// resolved by the reverse sync step before mapping
type ExportRefs struct {
	BrandID     int64
	CategoryIDs []int64
	TagIDs      []int64
	Attributes  []woosync.RemoteAttribute
}

// MapExportProduct builds the create or update payload of a local product
func MapExportProduct(p *woosync.Product, refs *ExportRefs, sc *SyncContext) *woosync.RemoteProductPayload {
	payload := &woosync.RemoteProductPayload{
		Name:         p.Name,
		SKU:          p.SKU,
		Description:  p.SaleDescription,
		Status:       woosync.RemoteStatusDraft,
		Purchasable:  p.SaleOK,
		TaxClass:     StandardTaxClass,
		RegularPrice: p.ListPrice.StringFixed(2),
		ManageStock:  p.Kind == woosync.ProductKindStocked,
		Type:         woosync.RemoteTypeSimple,
		Weight:       dimension(p.Weight),
		Dimensions: woosync.RemoteDimensions{
			Length: dimension(p.Length),
			Width:  dimension(p.Width),
			Height: dimension(p.Height),
		},
		Lang: p.Lang,
	}
	if !p.CreatedAt.IsZero() {
		payload.DateCreatedGMT = woosync.FormatRemoteDate(p.CreatedAt)
	}
	if p.Active {
		payload.Status = woosync.RemoteStatusPublish
	}
	if len(p.TaxIDs) > 0 {
		payload.TaxClass = sc.TaxClassFor(p.TaxRate)
	}
	if len(p.Variants) > 1 {
		payload.Type = woosync.RemoteTypeVariable
		payload.Attributes = refs.Attributes
	}
	if refs.BrandID != 0 {
		payload.Brands = []woosync.RemoteTaxonomyRef{{ID: refs.BrandID}}
	}
	for _, id := range uniqueSorted(refs.CategoryIDs) {
		payload.Categories = append(payload.Categories, woosync.RemoteTaxonomyRef{ID: id})
	}
	for _, id := range refs.TagIDs {
		payload.Tags = append(payload.Tags, woosync.RemoteTaxonomyRef{ID: id})
	}
	return payload
}

// MapExportVariation builds the create or update payload of a variant.
// attrs holds one {name, option} pair per attribute value of the variant.
func MapExportVariation(v *woosync.ProductVariant, manageStock bool, attrs []woosync.RemoteAttribute) *woosync.RemoteVariationPayload {
	return &woosync.RemoteVariationPayload{
		SKU:          v.SKU,
		RegularPrice: v.ListPrice.StringFixed(2),
		ManageStock:  manageStock,
		Attributes:   attrs,
	}
}

// dimension formats a measurement, leaving zero values empty so the remote clears them
func dimension(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func uniqueSorted(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id != 0 && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
