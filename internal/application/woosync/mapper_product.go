package woosync

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erp/woosync/internal/domain/woosync"
)

const (
	// ImportedDescription is the internal description of imported products
	ImportedDescription = "Imported via ERP-WooCommerce Sync"
	// SourceWooCommerce marks records created by an import
	SourceWooCommerce = "WooCommerce"
)

// ProductFields is the local shape of a remote product before reference resolution.
// Taxonomy names and image URLs are resolved by the product step.
type ProductFields struct {
	Name            string
	SKU             string
	RemoteType      string
	RemoteStatus    string
	Kind            woosync.ProductKind
	ManageStock     bool
	Description     string
	SaleDescription string
	Active          bool
	SaleOK          bool
	ListPrice       decimal.Decimal
	TaxRate         decimal.Decimal
	SalePrice       decimal.NullDecimal
	SaleFrom        *time.Time
	SaleTo          *time.Time

	Weight decimal.Decimal
	Length decimal.Decimal
	Width  decimal.Decimal
	Height decimal.Decimal
	Volume decimal.NullDecimal

	BrandName     string
	CategoryNames []string
	TagNames      []string
	// FeaturedImage is the source URL of the first image
	FeaturedImage string
	// Gallery holds the remaining images
	Gallery []woosync.RemoteImage

	RemoteRelatedIDs []int64
	Lang             string
	RemoteCreatedAt  *time.Time
	RemoteModifiedAt *time.Time
}

// MapProduct maps a remote product onto local product fields.
// Remote products never carry the service flag, so kind follows manage_stock.
func MapProduct(rp *woosync.RemoteProduct, sc *SyncContext) (*ProductFields, error) {
	created, err := woosync.ParseRemoteDate(rp.DateCreatedGMT)
	if err != nil {
		return nil, fmt.Errorf("product %d date_created_gmt: %w", rp.ID, err)
	}
	modified, err := woosync.ParseRemoteDate(rp.DateModifiedGMT)
	if err != nil {
		return nil, fmt.Errorf("product %d date_modified_gmt: %w", rp.ID, err)
	}
	saleFrom, err := woosync.ParseRemoteDate(rp.DateOnSaleFrom)
	if err != nil {
		return nil, fmt.Errorf("product %d date_on_sale_from_gmt: %w", rp.ID, err)
	}
	saleTo, err := woosync.ParseRemoteDate(rp.DateOnSaleTo)
	if err != nil {
		return nil, fmt.Errorf("product %d date_on_sale_to_gmt: %w", rp.ID, err)
	}

	manageStock := bool(rp.ManageStock)
	f := &ProductFields{
		Name:             rp.Name,
		SKU:              rp.SKU,
		RemoteType:       rp.Type,
		RemoteStatus:     rp.Status,
		Kind:             woosync.DeriveProductKind(false, manageStock),
		ManageStock:      manageStock,
		Description:      ImportedDescription,
		SaleDescription:  rp.Description,
		Active:           rp.Status == woosync.RemoteStatusPublish,
		SaleOK:           rp.Purchasable,
		ListPrice:        woosync.ParseDecimal(rp.Price),
		TaxRate:          sc.TaxRate(rp.TaxClass),
		SaleFrom:         saleFrom,
		SaleTo:           saleTo,
		Weight:           woosync.ParseDecimal(rp.Weight),
		Length:           woosync.ParseDecimal(rp.Dimensions.Length),
		Width:            woosync.ParseDecimal(rp.Dimensions.Width),
		Height:           woosync.ParseDecimal(rp.Dimensions.Height),
		Volume:           woosync.Volume(rp.Dimensions.Length, rp.Dimensions.Width, rp.Dimensions.Height),
		RemoteRelatedIDs: rp.RelatedIDs,
		Lang:             rp.Lang,
		RemoteCreatedAt:  created,
		RemoteModifiedAt: modified,
	}
	if rp.SalePrice != "" {
		f.SalePrice = decimal.NewNullDecimal(woosync.ParseDecimal(rp.SalePrice))
	}
	if len(rp.Brands) > 0 {
		f.BrandName = rp.Brands[0].Name
	}
	for _, c := range rp.Categories {
		f.CategoryNames = append(f.CategoryNames, c.Name)
	}
	for _, t := range rp.Tags {
		f.TagNames = append(f.TagNames, t.Name)
	}
	if len(rp.Images) > 0 {
		f.FeaturedImage = rp.Images[0].Src
		f.Gallery = rp.Images[1:]
	}
	return f, nil
}

// Apply copies the mapped fields onto p
func (f *ProductFields) Apply(p *woosync.Product) {
	p.Name = f.Name
	p.SKU = f.SKU
	p.RemoteType = f.RemoteType
	p.RemoteStatus = f.RemoteStatus
	p.Kind = f.Kind
	p.ManageStock = f.ManageStock
	p.Description = f.Description
	p.SaleDescription = f.SaleDescription
	p.Active = f.Active
	p.SaleOK = f.SaleOK
	p.ListPrice = f.ListPrice
	p.TaxRate = f.TaxRate
	p.SalePrice = f.SalePrice
	p.SaleFrom = f.SaleFrom
	p.SaleTo = f.SaleTo
	p.Weight = f.Weight
	p.Length = f.Length
	p.Width = f.Width
	p.Height = f.Height
	p.Volume = f.Volume
	p.RemoteRelatedIDs = f.RemoteRelatedIDs
	p.Lang = f.Lang
	p.RemoteCreatedAt = f.RemoteCreatedAt
	p.RemoteModifiedAt = f.RemoteModifiedAt
	p.SyncToRemote = true
	p.Source = SourceWooCommerce
}

// VariationFields is the local shape of a remote variation before reference resolution
type VariationFields struct {
	SKU              string
	Kind             woosync.ProductKind
	ManageStock      bool
	Description      string
	Active           bool
	SaleOK           bool
	ListPrice        decimal.Decimal
	TaxRate          decimal.Decimal
	Weight           decimal.Decimal
	Volume           decimal.NullDecimal
	Image            string
	Attributes       []woosync.RemoteAttribute
	RemoteCreatedAt  *time.Time
	RemoteModifiedAt *time.Time
}

// MapVariation maps a remote variation onto local variant fields.
// Attributes without a name or option are dropped.
func MapVariation(rv *woosync.RemoteVariation, sc *SyncContext) (*VariationFields, error) {
	created, err := woosync.ParseRemoteDate(rv.DateCreatedGMT)
	if err != nil {
		return nil, fmt.Errorf("variation %d date_created_gmt: %w", rv.ID, err)
	}
	modified, err := woosync.ParseRemoteDate(rv.DateModifiedGMT)
	if err != nil {
		return nil, fmt.Errorf("variation %d date_modified_gmt: %w", rv.ID, err)
	}

	manageStock := bool(rv.ManageStock)
	f := &VariationFields{
		SKU:              rv.SKU,
		Kind:             woosync.DeriveProductKind(false, manageStock),
		ManageStock:      manageStock,
		Description:      rv.Description,
		Active:           rv.Status == woosync.RemoteStatusPublish,
		SaleOK:           rv.Purchasable,
		ListPrice:        woosync.ParseDecimal(rv.Price),
		TaxRate:          sc.TaxRate(rv.TaxClass),
		Weight:           woosync.ParseDecimal(rv.Weight),
		Volume:           woosync.Volume(rv.Dimensions.Length, rv.Dimensions.Width, rv.Dimensions.Height),
		RemoteCreatedAt:  created,
		RemoteModifiedAt: modified,
	}
	if rv.Image != nil {
		f.Image = rv.Image.Src
	}
	for _, a := range rv.Attributes {
		if strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.Option) == "" {
			continue
		}
		f.Attributes = append(f.Attributes, a)
	}
	return f, nil
}

// Apply copies the mapped fields onto v
func (f *VariationFields) Apply(v *woosync.ProductVariant) {
	v.SKU = f.SKU
	v.Kind = f.Kind
	v.ManageStock = f.ManageStock
	v.Description = f.Description
	v.Active = f.Active
	v.SaleOK = f.SaleOK
	v.ListPrice = f.ListPrice
	v.TaxRate = f.TaxRate
	v.Weight = f.Weight
	v.Volume = f.Volume
	v.RemoteCreatedAt = f.RemoteCreatedAt
	v.RemoteModifiedAt = f.RemoteModifiedAt
}
