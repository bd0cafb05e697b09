package woosync

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// ReferenceKind identifies the kind of a shared reference entity
type ReferenceKind string

const (
	ReferenceKindTax            ReferenceKind = "TAX"
	ReferenceKindCurrency       ReferenceKind = "CURRENCY"
	ReferenceKindCategory       ReferenceKind = "CATEGORY"
	ReferenceKindTag            ReferenceKind = "TAG"
	ReferenceKindBrand          ReferenceKind = "BRAND"
	ReferenceKindUnit           ReferenceKind = "UOM"
	ReferenceKindAttribute      ReferenceKind = "ATTRIBUTE"
	ReferenceKindAttributeValue ReferenceKind = "ATTRIBUTE_VALUE"
)

// IsValid returns true if the kind is known
func (k ReferenceKind) IsValid() bool {
	switch k {
	case ReferenceKindTax, ReferenceKindCurrency, ReferenceKindCategory, ReferenceKindTag,
		ReferenceKindBrand, ReferenceKindUnit, ReferenceKindAttribute, ReferenceKindAttributeValue:
		return true
	default:
		return false
	}
}

// String returns the string representation of ReferenceKind
func (k ReferenceKind) String() string {
	return string(k)
}

// Unit of measure defaults for units created on first sighting
const (
	UnitCategoryDefault = "Unit"
	UnitTypeReference   = "reference"
	// AttributeCreateVariantAlways creates variants for every attribute value combination
	AttributeCreateVariantAlways = "always"
	// TaxScopeSale marks taxes applied on sales
	TaxScopeSale = "sale"
)

// Reference is a shared, name-keyed taxonomy entity reused across products and orders.
// Names are unique per kind after case folding, scoped by ScopeID for attribute values
// and by rate and price-include flag for taxes.
type Reference struct {
	// ID is the unique identifier of the reference
	ID uuid.UUID
	// Kind is the kind of reference
	Kind ReferenceKind
	// Name is the display name
	Name string
	// NameKey is the case-folded name used for lookups
	NameKey string
	// ScopeID is the owning attribute of an attribute value
	ScopeID *uuid.UUID
	// Rate is the tax percentage
	Rate decimal.Decimal
	// PriceInclude marks taxes included in the price
	PriceInclude bool
	// TaxScope is the tax usage (sale)
	TaxScope string
	// UnitCategory is the category of a unit of measure
	UnitCategory string
	// UnitFactor is the ratio of a unit of measure to its category reference
	UnitFactor decimal.Decimal
	// UnitType is reference, bigger or smaller
	UnitType string
	// CreateVariant controls variant creation for attributes
	CreateVariant string
	// Active is false for archived references
	Active bool
	// CreatedAt is when the reference was created
	CreatedAt time.Time
}

// FoldName normalizes a reference name for case-insensitive matching.
// A Caser is stateful, so one is created per call.
func FoldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// NewReference creates an active reference of the given kind
func NewReference(kind ReferenceKind, name string) *Reference {
	name = strings.TrimSpace(name)
	return &Reference{
		ID:        uuid.New(),
		Kind:      kind,
		Name:      name,
		NameKey:   FoldName(name),
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
}

// NewTaxReference creates a sales tax named "<rate>%"
func NewTaxReference(rate decimal.Decimal, priceInclude bool) *Reference {
	ref := NewReference(ReferenceKindTax, TaxName(rate))
	ref.Rate = rate
	ref.PriceInclude = priceInclude
	ref.TaxScope = TaxScopeSale
	return ref
}

// NewUnitReference creates a unit of measure with the default category and factor
func NewUnitReference(name string) *Reference {
	ref := NewReference(ReferenceKindUnit, name)
	ref.UnitCategory = UnitCategoryDefault
	ref.UnitFactor = decimal.NewFromInt(1)
	ref.UnitType = UnitTypeReference
	return ref
}

// NewAttributeReference creates a variant-generating attribute
func NewAttributeReference(name string) *Reference {
	ref := NewReference(ReferenceKindAttribute, name)
	ref.CreateVariant = AttributeCreateVariantAlways
	return ref
}

// NewAttributeValueReference creates a value scoped to an attribute
func NewAttributeValueReference(attributeID uuid.UUID, name string) *Reference {
	ref := NewReference(ReferenceKindAttributeValue, name)
	scope := attributeID
	ref.ScopeID = &scope
	return ref
}

// TaxName returns the display name of a tax rate, e.g. "21%"
func TaxName(rate decimal.Decimal) string {
	return rate.String() + "%"
}

// ReferenceQuery selects a reference by its natural key
type ReferenceQuery struct {
	Kind    ReferenceKind
	NameKey string
	ScopeID *uuid.UUID
	// Rate and PriceInclude are compared for taxes only
	Rate         decimal.Decimal
	PriceInclude bool
	// ActiveOnly excludes archived references
	ActiveOnly bool
}
