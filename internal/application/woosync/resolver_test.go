package woosync

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/erp/woosync/internal/domain/woosync"
	"github.com/erp/woosync/internal/infrastructure/persistence"
)

// newTestStore opens an in-memory sqlite store with the sync tables and the seeded units
func newTestStore(t *testing.T) *persistence.GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, persistence.AutoMigrate(db))

	store := persistence.NewGormStore(db)
	ctx := context.Background()
	for _, name := range []string{"cm", "m", "in"} {
		require.NoError(t, store.References().Create(ctx, woosync.NewUnitReference(name)))
	}
	require.NoError(t, store.References().Create(ctx, woosync.NewReference(woosync.ReferenceKindCurrency, "EUR")))
	return store
}

func TestResolver_StagedValues(t *testing.T) {
	ctx := context.Background()
	calls := 0
	lookup := func(context.Context, woosync.Store, string) (int, error) {
		return 0, woosync.ErrRecordNotFound
	}
	create := func(context.Context, woosync.Store, string) (int, error) {
		calls++
		return calls, nil
	}
	r := NewResolver(lookup, create)

	v, err := r.Resolve(ctx, nil, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = r.Resolve(ctx, nil, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, v, "staged values are reused inside the unit of work")

	r.Rollback()
	assert.Zero(t, r.Len())

	v, err = r.Resolve(ctx, nil, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, v, "a rolled back value is created again")

	r.Commit()
	r.Rollback()
	assert.Equal(t, 1, r.Len(), "committed values survive later rollbacks")
}

func TestResolver_LookupOnly(t *testing.T) {
	boom := errors.New("boom")
	r := NewResolver(func(context.Context, woosync.Store, string) (int, error) {
		return 0, boom
	}, nil)

	_, err := r.Resolve(context.Background(), nil, "a")
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, r.Len())
}

func TestReferences(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("one tax per rate and inclusion", func(t *testing.T) {
		refs := NewReferences()
		rate := decimal.RequireFromString("21")

		var first *uuid.UUID
		for i := 0; i < 5; i++ {
			id, err := refs.Tax(ctx, store, rate, true)
			require.NoError(t, err)
			refs.Commit()
			if first == nil {
				first = id
			}
			assert.Equal(t, *first, *id)
		}

		// a fresh run finds the stored tax instead of creating another
		id, err := NewReferences().Tax(ctx, store, decimal.RequireFromString("21.0"), true)
		require.NoError(t, err)
		assert.Equal(t, *first, *id)

		excl, err := refs.Tax(ctx, store, rate, false)
		require.NoError(t, err)
		assert.NotEqual(t, *first, *excl)
	})

	t.Run("zero rate means no tax", func(t *testing.T) {
		id, err := NewReferences().Tax(ctx, store, decimal.Zero, false)
		require.NoError(t, err)
		assert.Nil(t, id)
	})

	t.Run("names are matched case-insensitively", func(t *testing.T) {
		refs := NewReferences()
		a, err := refs.Category(ctx, store, "Shirts")
		require.NoError(t, err)
		refs.Commit()

		b, err := NewReferences().Category(ctx, store, "  SHIRTS ")
		require.NoError(t, err)
		assert.Equal(t, *a, *b)

		ref, err := store.References().Find(ctx, woosync.ReferenceQuery{Kind: woosync.ReferenceKindCategory, NameKey: "shirts"})
		require.NoError(t, err)
		assert.Equal(t, "Shirts", ref.Name, "the first spelling is kept")
	})

	t.Run("attribute values are scoped to their attribute", func(t *testing.T) {
		refs := NewReferences()
		color, err := refs.Attribute(ctx, store, "Color")
		require.NoError(t, err)
		finish, err := refs.Attribute(ctx, store, "Finish")
		require.NoError(t, err)

		red1, err := refs.AttributeValue(ctx, store, *color, "Red")
		require.NoError(t, err)
		red2, err := refs.AttributeValue(ctx, store, *finish, "red")
		require.NoError(t, err)
		assert.NotEqual(t, *red1, *red2)

		again, err := refs.AttributeValue(ctx, store, *color, "RED")
		require.NoError(t, err)
		assert.Equal(t, *red1, *again)
	})

	t.Run("dimension units are lookup only", func(t *testing.T) {
		refs := NewReferences()
		id, err := refs.DimensionUnit(ctx, store, "CM")
		require.NoError(t, err)
		assert.NotNil(t, id)

		_, err = refs.DimensionUnit(ctx, store, "furlong")
		assert.ErrorIs(t, err, woosync.ErrDimensionUnitMissing)
		assert.True(t, woosync.IsFatal(err))
	})

	t.Run("weight units are created on first sighting", func(t *testing.T) {
		refs := NewReferences()
		id, err := refs.WeightUnit(ctx, store, "stone")
		require.NoError(t, err)
		refs.Commit()

		ref, err := store.References().Find(ctx, woosync.ReferenceQuery{Kind: woosync.ReferenceKindUnit, NameKey: "stone"})
		require.NoError(t, err)
		assert.Equal(t, *id, ref.ID)
		assert.Equal(t, woosync.UnitCategoryDefault, ref.UnitCategory)
		assert.True(t, ref.UnitFactor.Equal(decimal.NewFromInt(1)))
	})

	t.Run("unknown currency resolves to nil", func(t *testing.T) {
		refs := NewReferences()
		id, err := refs.Currency(ctx, store, "eur")
		require.NoError(t, err)
		assert.NotNil(t, id)

		id, err = refs.Currency(ctx, store, "XYZ")
		require.NoError(t, err)
		assert.Nil(t, id)
	})

	t.Run("rolled back creations leave no cached identity", func(t *testing.T) {
		refs := NewReferences()
		err := store.Transaction(ctx, func(tx woosync.Store) error {
			_, err := refs.Tag(ctx, tx, "ephemeral")
			require.NoError(t, err)
			return errors.New("record failed")
		})
		require.Error(t, err)
		refs.Rollback()

		_, err = store.References().Find(ctx, woosync.ReferenceQuery{Kind: woosync.ReferenceKindTag, NameKey: "ephemeral"})
		assert.ErrorIs(t, err, woosync.ErrRecordNotFound)

		id, err := refs.Tag(ctx, store, "ephemeral")
		require.NoError(t, err)
		ref, err := store.References().Find(ctx, woosync.ReferenceQuery{Kind: woosync.ReferenceKindTag, NameKey: "ephemeral"})
		require.NoError(t, err)
		assert.Equal(t, *id, ref.ID)
	})
}

func TestPlaceholders(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p1, err := PlaceholderProduct(ctx, store)
	require.NoError(t, err)
	assert.False(t, p1.Active)

	p1.Active = true
	require.NoError(t, store.Products().Save(ctx, p1))

	p2, err := PlaceholderProduct(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, p2.ID)
	assert.False(t, p2.Active, "the placeholder is archived again on retrieval")

	c1, err := PlaceholderCustomer(ctx, store)
	require.NoError(t, err)
	c2, err := PlaceholderCustomer(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, c1.ID, c2.ID)
	assert.Equal(t, woosync.PlaceholderCustomerRef, c2.Ref)
}
