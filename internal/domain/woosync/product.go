package woosync

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductKind is the inventory behaviour of a local product
type ProductKind string

const (
	// ProductKindService is a non-physical product
	ProductKindService ProductKind = "SERVICE"
	// ProductKindStocked is a physical product with tracked inventory
	ProductKindStocked ProductKind = "STOCKED"
	// ProductKindConsumable is a physical product without tracked inventory
	ProductKindConsumable ProductKind = "CONSUMABLE"
)

// IsValid returns true if the kind is known
func (k ProductKind) IsValid() bool {
	switch k {
	case ProductKindService, ProductKindStocked, ProductKindConsumable:
		return true
	default:
		return false
	}
}

// String returns the string representation of ProductKind
func (k ProductKind) String() string {
	return string(k)
}

// DeriveProductKind applies service, then manage-stock precedence
func DeriveProductKind(service, manageStock bool) ProductKind {
	switch {
	case service:
		return ProductKindService
	case manageStock:
		return ProductKindStocked
	default:
		return ProductKindConsumable
	}
}

const (
	// PlaceholderProductCode is the fixed code of the unavailable-product sentinel
	PlaceholderProductCode = "WooCommerce_Product_Placeholder"
	// PlaceholderProductName is the display name of the unavailable-product sentinel
	PlaceholderProductName = "WooCommerce Product Placeholder"

	// RemoteTypeVariable marks a remote product with variations
	RemoteTypeVariable = "variable"
	// RemoteTypeSimple marks a remote product without variations
	RemoteTypeSimple = "simple"
	// RemoteStatusPublish is the published remote status
	RemoteStatusPublish = "publish"
	// RemoteStatusDraft is the draft remote status
	RemoteStatusDraft = "draft"
)

// ProductImage is a gallery image attached to a product
type ProductImage struct {
	Name       string `json:"name"`
	StorageKey string `json:"storage_key"`
}

// AttributeLine lists the values of one attribute offered by a variable product
type AttributeLine struct {
	AttributeID uuid.UUID   `json:"attribute_id"`
	ValueIDs    []uuid.UUID `json:"value_ids"`
}

// Product is a local product template linked to a remote product
type Product struct {
	// ID is the local identity
	ID uuid.UUID
	// SiteURL and RemoteID form the natural key
	SiteURL  string
	RemoteID int64
	// RemoteType is simple, variable, grouped or external
	RemoteType string
	// RemoteStatus is the remote publication status
	RemoteStatus string

	Name            string
	SKU             string
	Kind            ProductKind
	ManageStock     bool
	Description     string
	SaleDescription string
	Active          bool
	SaleOK          bool
	ListPrice       decimal.Decimal
	CurrencyID      *uuid.UUID
	TaxIDs          []uuid.UUID
	// TaxRate is the remote tax rate of the product's tax class
	TaxRate decimal.Decimal
	// SalePrice applies between SaleFrom and SaleTo when set
	SalePrice decimal.NullDecimal
	SaleFrom  *time.Time
	SaleTo    *time.Time

	BrandID     *uuid.UUID
	CategoryID  *uuid.UUID
	CategoryIDs []uuid.UUID
	TagIDs      []uuid.UUID

	Weight          decimal.Decimal
	WeightUnitID    *uuid.UUID
	Length          decimal.Decimal
	Width           decimal.Decimal
	Height          decimal.Decimal
	DimensionUnitID *uuid.UUID
	Volume          decimal.NullDecimal
	ImageKey        string
	Images          []ProductImage
	AttributeLines  []AttributeLine

	// RemoteRelatedIDs are remote product IDs of related products
	RemoteRelatedIDs []int64
	// RelatedProductIDs are the resolved local related products
	RelatedProductIDs []uuid.UUID

	ResponsibleUser string
	Lang            string
	// SyncToRemote marks products exported to the store
	SyncToRemote bool
	// Source records where the product was created (WooCommerce or ERP)
	Source string

	RemoteCreatedAt  *time.Time
	RemoteModifiedAt *time.Time
	// SyncedAt is the last write made by the sync engine
	SyncedAt *time.Time
	// CreatedAt is when the local record was created
	CreatedAt time.Time
	// UpdatedAt is the local write date
	UpdatedAt time.Time

	// Variants are loaded on demand by the repository
	Variants []ProductVariant
}

// NewProduct creates a product linked to a remote record
func NewProduct(siteURL string, remoteID int64) *Product {
	return &Product{
		ID:       uuid.New(),
		SiteURL:  siteURL,
		RemoteID: remoteID,
		Active:   true,
		Kind:     ProductKindConsumable,
	}
}

// NewPlaceholderProduct creates the archived unavailable-product sentinel
func NewPlaceholderProduct() *Product {
	return &Product{
		ID:           uuid.New(),
		Name:         PlaceholderProductName,
		SKU:          PlaceholderProductCode,
		Kind:         ProductKindService,
		ListPrice:    decimal.Zero,
		Active:       false,
		SyncToRemote: false,
		Source:       "ERP",
	}
}

// IsVariable reports whether the product has remote variations
func (p *Product) IsVariable() bool {
	return p.RemoteType == RemoteTypeVariable
}

// StockConflict reports whether the remote manage-stock flag differs from the local one.
// The kind cannot change in place, so a conflict forces delete and recreate.
func (p *Product) StockConflict(remoteManageStock bool) bool {
	return p.ManageStock != remoteManageStock
}

// MarkSynced stamps the local write and sync times
func (p *Product) MarkSynced(now time.Time) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	synced := now
	p.SyncedAt = &synced
}

// DirtySinceSync reports whether the product was edited after the last sync write
func (p *Product) DirtySinceSync() bool {
	return p.SyncedAt == nil || p.UpdatedAt.After(*p.SyncedAt)
}

// NeedsExport reports whether the local product should be pushed to a remote
// record last modified at remoteModified
func (p *Product) NeedsExport(remoteModified *time.Time) bool {
	if remoteModified == nil {
		return true
	}
	return p.UpdatedAt.After(*remoteModified) && p.DirtySinceSync()
}

// AddAttributeValue adds a value to the attribute line of attributeID, creating the line if needed.
// It returns true when the lines changed.
func (p *Product) AddAttributeValue(attributeID, valueID uuid.UUID) bool {
	for i := range p.AttributeLines {
		line := &p.AttributeLines[i]
		if line.AttributeID != attributeID {
			continue
		}
		for _, v := range line.ValueIDs {
			if v == valueID {
				return false
			}
		}
		line.ValueIDs = append(line.ValueIDs, valueID)
		return true
	}
	p.AttributeLines = append(p.AttributeLines, AttributeLine{
		AttributeID: attributeID,
		ValueIDs:    []uuid.UUID{valueID},
	})
	return true
}

// CreateVariants re-derives the variant set from the attribute lines.
// Every combination of one value per line gets a variant; existing variants are
// kept and only missing combinations are created. The returned slice holds the
// newly created variants.
func (p *Product) CreateVariants() []ProductVariant {
	combos := [][]uuid.UUID{{}}
	for _, line := range p.AttributeLines {
		if len(line.ValueIDs) == 0 {
			continue
		}
		next := make([][]uuid.UUID, 0, len(combos)*len(line.ValueIDs))
		for _, combo := range combos {
			for _, v := range line.ValueIDs {
				c := make([]uuid.UUID, len(combo), len(combo)+1)
				copy(c, combo)
				next = append(next, append(c, v))
			}
		}
		combos = next
	}

	existing := make(map[string]bool, len(p.Variants))
	for _, v := range p.Variants {
		existing[AttributeSetKey(v.AttributeValueIDs)] = true
	}

	var created []ProductVariant
	for _, combo := range combos {
		if len(combo) == 0 {
			continue
		}
		key := AttributeSetKey(combo)
		if existing[key] {
			continue
		}
		existing[key] = true
		v := ProductVariant{
			ID:                uuid.New(),
			TemplateID:        p.ID,
			SiteURL:           p.SiteURL,
			RemoteParentID:    p.RemoteID,
			SKU:               p.SKU,
			Kind:              p.Kind,
			Active:            true,
			AttributeValueIDs: combo,
		}
		p.Variants = append(p.Variants, v)
		created = append(created, v)
	}
	return created
}

// FindVariantByAttributes returns the variant whose attribute values equal ids as a set
func (p *Product) FindVariantByAttributes(ids []uuid.UUID) *ProductVariant {
	key := AttributeSetKey(ids)
	for i := range p.Variants {
		if AttributeSetKey(p.Variants[i].AttributeValueIDs) == key {
			return &p.Variants[i]
		}
	}
	return nil
}

// AggregateVariantTaxes returns the distinct tax IDs used by the variants
func (p *Product) AggregateVariantTaxes() []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, v := range p.Variants {
		for _, id := range v.TaxIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// AttributeSetKey returns an order-independent key for a set of attribute value IDs
func AttributeSetKey(ids []uuid.UUID) string {
	uniq := make(map[string]bool, len(ids))
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		s := id.String()
		if !uniq[s] {
			uniq[s] = true
			parts = append(parts, s)
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

// ProductVariant is a concrete variant of a product template
type ProductVariant struct {
	// ID is the local identity
	ID uuid.UUID
	// TemplateID is the owning product template
	TemplateID uuid.UUID
	// SiteURL and RemoteID (variation ID) form the natural key
	SiteURL  string
	RemoteID int64
	// RemoteParentID is the remote product ID of the template
	RemoteParentID int64

	SKU               string
	Kind              ProductKind
	ManageStock       bool
	Description       string
	Active            bool
	SaleOK            bool
	ListPrice         decimal.Decimal
	CurrencyID        *uuid.UUID
	TaxIDs            []uuid.UUID
	TaxRate           decimal.Decimal
	Weight            decimal.Decimal
	WeightUnitID      *uuid.UUID
	Volume            decimal.NullDecimal
	ImageKey          string
	AttributeValueIDs []uuid.UUID

	RemoteCreatedAt  *time.Time
	RemoteModifiedAt *time.Time
	SyncedAt         *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// MarkSynced stamps the local write and sync times
func (v *ProductVariant) MarkSynced(now time.Time) {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now
	synced := now
	v.SyncedAt = &synced
}

// NeedsExport reports whether the variant should be pushed to a remote
// variation last modified at remoteModified
func (v *ProductVariant) NeedsExport(remoteModified *time.Time) bool {
	if remoteModified == nil {
		return true
	}
	dirty := v.SyncedAt == nil || v.UpdatedAt.After(*v.SyncedAt)
	return v.UpdatedAt.After(*remoteModified) && dirty
}

// StockItem is a stock-tracked local product as seen by stock reconciliation:
// a simple product template or a variant
type StockItem struct {
	// ProductID is the template or variant identity stock records are keyed by
	ProductID uuid.UUID
	// RemoteID is the remote product ID (simple) or variation ID (variant)
	RemoteID int64
	// RemoteParentID is set for variants
	RemoteParentID int64
	// Name is used in logs
	Name string
}

// IsVariant reports whether the item is a product variation
func (s StockItem) IsVariant() bool {
	return s.RemoteParentID != 0
}
