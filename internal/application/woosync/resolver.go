package woosync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/woosync/internal/domain/woosync"
)

// LookupFunc finds the value of key, returning woosync.ErrRecordNotFound when absent
type LookupFunc[K comparable, V any] func(ctx context.Context, store woosync.Store, key K) (V, error)

// CreateFunc creates the value of key
type CreateFunc[K comparable, V any] func(ctx context.Context, store woosync.Store, key K) (V, error)

// Resolver is a keyed create-or-retrieve cache in front of the store.
// Values found in the store are cached at once. Values created during a unit of work
// are staged and only become visible to later units after Commit; Rollback drops them,
// so a rolled back record never leaves a dangling cached identity behind.
type Resolver[K comparable, V any] struct {
	committed map[K]V
	staged    map[K]V
	lookup    LookupFunc[K, V]
	create    CreateFunc[K, V]
}

// NewResolver creates a resolver. A nil create makes it lookup-only.
func NewResolver[K comparable, V any](lookup LookupFunc[K, V], create CreateFunc[K, V]) *Resolver[K, V] {
	return &Resolver[K, V]{
		committed: make(map[K]V),
		staged:    make(map[K]V),
		lookup:    lookup,
		create:    create,
	}
}

// Resolve returns the cached value of key, or looks it up and creates it on a miss
func (r *Resolver[K, V]) Resolve(ctx context.Context, store woosync.Store, key K) (V, error) {
	return r.ResolveWith(ctx, store, key, r.create)
}

// ResolveWith is Resolve with a create function overriding the resolver's own
func (r *Resolver[K, V]) ResolveWith(ctx context.Context, store woosync.Store, key K, create CreateFunc[K, V]) (V, error) {
	if v, ok := r.staged[key]; ok {
		return v, nil
	}
	if v, ok := r.committed[key]; ok {
		return v, nil
	}

	v, err := r.lookup(ctx, store, key)
	if err == nil {
		r.committed[key] = v
		return v, nil
	}
	if !errors.Is(err, woosync.ErrRecordNotFound) || create == nil {
		return v, err
	}

	v, err = create(ctx, store, key)
	if err != nil {
		return v, err
	}
	r.staged[key] = v
	return v, nil
}

// Commit promotes staged values
func (r *Resolver[K, V]) Commit() {
	for k, v := range r.staged {
		r.committed[k] = v
	}
	clear(r.staged)
}

// Rollback drops staged values
func (r *Resolver[K, V]) Rollback() {
	clear(r.staged)
}

// Len returns the number of cached values
func (r *Resolver[K, V]) Len() int {
	return len(r.committed) + len(r.staged)
}

// ---------------------------------------------------------------------------
// Reference kinds
// ---------------------------------------------------------------------------

type taxKey struct {
	rate    string
	include bool
}

type attributeValueKey struct {
	attributeID uuid.UUID
	name        string
}

type stager interface {
	Commit()
	Rollback()
}

// References resolves every shared reference kind for one run.
// Name-keyed kinds are keyed by the case-folded name.
type References struct {
	taxes           *Resolver[taxKey, uuid.UUID]
	currencies      *Resolver[string, uuid.UUID]
	categories      *Resolver[string, uuid.UUID]
	tags            *Resolver[string, uuid.UUID]
	brands          *Resolver[string, uuid.UUID]
	weightUnits     *Resolver[string, uuid.UUID]
	dimensionUnits  *Resolver[string, uuid.UUID]
	attributes      *Resolver[string, uuid.UUID]
	attributeValues *Resolver[attributeValueKey, uuid.UUID]
}

// NewReferences creates empty resolvers for every reference kind
func NewReferences() *References {
	return &References{
		taxes:           NewResolver(lookupTax, createTax),
		currencies:      NewResolver(lookupNamed(woosync.ReferenceKindCurrency, true), nil),
		categories:      NewResolver(lookupNamed(woosync.ReferenceKindCategory, false), nil),
		tags:            NewResolver(lookupNamed(woosync.ReferenceKindTag, false), nil),
		brands:          NewResolver(lookupNamed(woosync.ReferenceKindBrand, false), nil),
		weightUnits:     NewResolver(lookupNamed(woosync.ReferenceKindUnit, false), nil),
		dimensionUnits:  NewResolver(lookupNamed(woosync.ReferenceKindUnit, false), nil),
		attributes:      NewResolver(lookupNamed(woosync.ReferenceKindAttribute, false), nil),
		attributeValues: NewResolver(lookupAttributeValue, createAttributeValue),
	}
}

func lookupNamed(kind woosync.ReferenceKind, activeOnly bool) LookupFunc[string, uuid.UUID] {
	return func(ctx context.Context, store woosync.Store, key string) (uuid.UUID, error) {
		ref, err := store.References().Find(ctx, woosync.ReferenceQuery{Kind: kind, NameKey: key, ActiveOnly: activeOnly})
		if err != nil {
			return uuid.Nil, err
		}
		return ref.ID, nil
	}
}

// createNamed keeps the original spelling of name; the resolver key only carries the folded one
func createNamed(name string, build func(string) *woosync.Reference) CreateFunc[string, uuid.UUID] {
	return func(ctx context.Context, store woosync.Store, _ string) (uuid.UUID, error) {
		ref := build(name)
		if err := store.References().Create(ctx, ref); err != nil {
			return uuid.Nil, err
		}
		return ref.ID, nil
	}
}

func lookupTax(ctx context.Context, store woosync.Store, key taxKey) (uuid.UUID, error) {
	ref, err := store.References().Find(ctx, woosync.ReferenceQuery{
		Kind:         woosync.ReferenceKindTax,
		Rate:         decimal.RequireFromString(key.rate),
		PriceInclude: key.include,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return ref.ID, nil
}

func createTax(ctx context.Context, store woosync.Store, key taxKey) (uuid.UUID, error) {
	ref := woosync.NewTaxReference(decimal.RequireFromString(key.rate), key.include)
	if err := store.References().Create(ctx, ref); err != nil {
		return uuid.Nil, err
	}
	return ref.ID, nil
}

func lookupAttributeValue(ctx context.Context, store woosync.Store, key attributeValueKey) (uuid.UUID, error) {
	scope := key.attributeID
	ref, err := store.References().Find(ctx, woosync.ReferenceQuery{
		Kind:    woosync.ReferenceKindAttributeValue,
		NameKey: woosync.FoldName(key.name),
		ScopeID: &scope,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return ref.ID, nil
}

func createAttributeValue(ctx context.Context, store woosync.Store, key attributeValueKey) (uuid.UUID, error) {
	ref := woosync.NewAttributeValueReference(key.attributeID, key.name)
	if err := store.References().Create(ctx, ref); err != nil {
		return uuid.Nil, err
	}
	return ref.ID, nil
}

func (r *References) stagers() []stager {
	return []stager{
		r.taxes, r.currencies, r.categories, r.tags, r.brands,
		r.weightUnits, r.dimensionUnits, r.attributes, r.attributeValues,
	}
}

// Commit promotes the values staged by the unit of work that just committed
func (r *References) Commit() {
	for _, s := range r.stagers() {
		s.Commit()
	}
}

// Rollback drops the values staged by the unit of work that just rolled back
func (r *References) Rollback() {
	for _, s := range r.stagers() {
		s.Rollback()
	}
}

// Tax resolves the sales tax for (rate, include). A zero rate means no tax.
func (r *References) Tax(ctx context.Context, store woosync.Store, rate decimal.Decimal, include bool) (*uuid.UUID, error) {
	if rate.IsZero() {
		return nil, nil
	}
	id, err := r.taxes.Resolve(ctx, store, taxKey{rate: rate.String(), include: include})
	if err != nil {
		return nil, fmt.Errorf("resolve tax %s: %w", woosync.TaxName(rate), err)
	}
	return &id, nil
}

// Currency looks an active currency up by code. A missing currency resolves to nil.
func (r *References) Currency(ctx context.Context, store woosync.Store, code string) (*uuid.UUID, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	id, err := r.currencies.Resolve(ctx, store, woosync.FoldName(code))
	if errors.Is(err, woosync.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve currency %q: %w", code, err)
	}
	return &id, nil
}

// Category resolves or creates a product category
func (r *References) Category(ctx context.Context, store woosync.Store, name string) (*uuid.UUID, error) {
	return resolveNamed(ctx, store, r.categories, name, func(n string) *woosync.Reference {
		return woosync.NewReference(woosync.ReferenceKindCategory, n)
	})
}

// Tag resolves or creates a product tag
func (r *References) Tag(ctx context.Context, store woosync.Store, name string) (*uuid.UUID, error) {
	return resolveNamed(ctx, store, r.tags, name, func(n string) *woosync.Reference {
		return woosync.NewReference(woosync.ReferenceKindTag, n)
	})
}

// Brand resolves or creates a product brand
func (r *References) Brand(ctx context.Context, store woosync.Store, name string) (*uuid.UUID, error) {
	return resolveNamed(ctx, store, r.brands, name, func(n string) *woosync.Reference {
		return woosync.NewReference(woosync.ReferenceKindBrand, n)
	})
}

// WeightUnit resolves or creates a unit of measure
func (r *References) WeightUnit(ctx context.Context, store woosync.Store, name string) (*uuid.UUID, error) {
	return resolveNamed(ctx, store, r.weightUnits, name, woosync.NewUnitReference)
}

// Attribute resolves or creates a product attribute, case-insensitively
func (r *References) Attribute(ctx context.Context, store woosync.Store, name string) (*uuid.UUID, error) {
	return resolveNamed(ctx, store, r.attributes, name, woosync.NewAttributeReference)
}

// DimensionUnit looks a seeded unit of measure up. A miss is fatal for the run.
func (r *References) DimensionUnit(ctx context.Context, store woosync.Store, name string) (*uuid.UUID, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: empty unit name", woosync.ErrDimensionUnitMissing)
	}
	id, err := r.dimensionUnits.Resolve(ctx, store, woosync.FoldName(name))
	if errors.Is(err, woosync.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %q", woosync.ErrDimensionUnitMissing, name)
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// AttributeValue resolves or creates a value scoped to attributeID
func (r *References) AttributeValue(ctx context.Context, store woosync.Store, attributeID uuid.UUID, name string) (*uuid.UUID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	id, err := r.attributeValues.ResolveWith(ctx, store,
		attributeValueKey{attributeID: attributeID, name: woosync.FoldName(name)},
		func(ctx context.Context, store woosync.Store, key attributeValueKey) (uuid.UUID, error) {
			return createAttributeValue(ctx, store, attributeValueKey{attributeID: key.attributeID, name: name})
		})
	if err != nil {
		return nil, fmt.Errorf("resolve attribute value %q: %w", name, err)
	}
	return &id, nil
}

func resolveNamed(ctx context.Context, store woosync.Store, res *Resolver[string, uuid.UUID], name string, build func(string) *woosync.Reference) (*uuid.UUID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	id, err := res.ResolveWith(ctx, store, woosync.FoldName(name), createNamed(name, build))
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", name, err)
	}
	return &id, nil
}

// ---------------------------------------------------------------------------
// Placeholders
// ---------------------------------------------------------------------------

// PlaceholderProduct returns the unavailable-product sentinel, creating it once and
// archiving it on every retrieval
func PlaceholderProduct(ctx context.Context, store woosync.Store) (*woosync.Product, error) {
	p, err := store.Products().FindPlaceholder(ctx)
	if errors.Is(err, woosync.ErrRecordNotFound) {
		p = woosync.NewPlaceholderProduct()
		if err := store.Products().Save(ctx, p); err != nil {
			return nil, fmt.Errorf("create placeholder product: %w", err)
		}
		return p, nil
	}
	if err != nil {
		return nil, err
	}
	if p.Active || p.SyncToRemote {
		p.Active = false
		p.SyncToRemote = false
		if err := store.Products().Save(ctx, p); err != nil {
			return nil, fmt.Errorf("archive placeholder product: %w", err)
		}
	}
	return p, nil
}

// PlaceholderCustomer returns the anonymous-customer sentinel, creating it once and
// archiving it on every retrieval
func PlaceholderCustomer(ctx context.Context, store woosync.Store) (*woosync.Customer, error) {
	c, err := store.Customers().FindPlaceholder(ctx)
	if errors.Is(err, woosync.ErrRecordNotFound) {
		c = woosync.NewPlaceholderCustomer()
		if err := store.Customers().Save(ctx, c); err != nil {
			return nil, fmt.Errorf("create placeholder customer: %w", err)
		}
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	if c.Active {
		c.Active = false
		if err := store.Customers().Save(ctx, c); err != nil {
			return nil, fmt.Errorf("archive placeholder customer: %w", err)
		}
	}
	return c, nil
}
