package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/erp/woosync/internal/domain/woosync"
)

const testSite = "https://shop.test"

func setupWooSyncTestDB(t *testing.T) *GormStore {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return NewGormStore(db)
}

func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return NewGormStore(gormDB), mock, mockDB
}

func TestGormSyncLogRepository_FindByConfiguration_SQL(t *testing.T) {
	t.Run("maps missing rows to ErrRecordNotFound", func(t *testing.T) {
		store, mock, mockDB := newMockStore(t)
		defer mockDB.Close()

		configID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "woo_sync_logs" WHERE configuration_id = \$1`).
			WithArgs(configID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		log, err := store.SyncLogs().FindByConfiguration(context.Background(), configID)

		assert.Nil(t, log)
		assert.ErrorIs(t, err, woosync.ErrRecordNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reads the last sync time", func(t *testing.T) {
		store, mock, mockDB := newMockStore(t)
		defer mockDB.Close()

		configID, logID := uuid.New(), uuid.New()
		last := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows([]string{"id", "configuration_id", "last_synced_at", "updated_at"}).
			AddRow(logID, configID, last, last)
		mock.ExpectQuery(`SELECT \* FROM "woo_sync_logs" WHERE configuration_id = \$1`).
			WithArgs(configID, 1).
			WillReturnRows(rows)

		log, err := store.SyncLogs().FindByConfiguration(context.Background(), configID)

		require.NoError(t, err)
		assert.Equal(t, "2024-02-01T08:00:00", log.ModifiedAfter())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormReferenceRepository_Find_SQL(t *testing.T) {
	t.Run("taxes match on rate and price include", func(t *testing.T) {
		store, mock, mockDB := newMockStore(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "woo_references" WHERE kind = \$1 AND \(rate = \$2 AND price_include = \$3\)`).
			WillReturnError(errors.New("connection reset"))

		_, err := store.References().Find(context.Background(), woosync.ReferenceQuery{
			Kind:         woosync.ReferenceKindTax,
			Rate:         decimal.NewFromInt(21),
			PriceInclude: true,
		})

		assert.EqualError(t, err, "connection reset")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormReferenceRepository(t *testing.T) {
	store := setupWooSyncTestDB(t)
	ctx := context.Background()
	refs := store.References()

	color := woosync.NewAttributeReference("Color")
	require.NoError(t, refs.Create(ctx, color))
	red := woosync.NewAttributeValueReference(color.ID, "Red")
	require.NoError(t, refs.Create(ctx, red))
	tax := woosync.NewTaxReference(decimal.RequireFromString("21"), false)
	require.NoError(t, refs.Create(ctx, tax))

	t.Run("name lookup is case-insensitive", func(t *testing.T) {
		got, err := refs.Find(ctx, woosync.ReferenceQuery{Kind: woosync.ReferenceKindAttribute, NameKey: woosync.FoldName("COLOR")})
		require.NoError(t, err)
		assert.Equal(t, color.ID, got.ID)
		assert.Equal(t, "Color", got.Name)
	})

	t.Run("values are scoped to their attribute", func(t *testing.T) {
		scope := color.ID
		got, err := refs.Find(ctx, woosync.ReferenceQuery{Kind: woosync.ReferenceKindAttributeValue, NameKey: "red", ScopeID: &scope})
		require.NoError(t, err)
		assert.Equal(t, red.ID, got.ID)

		other := uuid.New()
		_, err = refs.Find(ctx, woosync.ReferenceQuery{Kind: woosync.ReferenceKindAttributeValue, NameKey: "red", ScopeID: &other})
		assert.ErrorIs(t, err, woosync.ErrRecordNotFound)
	})

	t.Run("taxes are keyed by rate and inclusion", func(t *testing.T) {
		got, err := refs.Find(ctx, woosync.ReferenceQuery{Kind: woosync.ReferenceKindTax, Rate: decimal.RequireFromString("21")})
		require.NoError(t, err)
		assert.Equal(t, tax.ID, got.ID)

		_, err = refs.Find(ctx, woosync.ReferenceQuery{Kind: woosync.ReferenceKindTax, Rate: decimal.RequireFromString("21"), PriceInclude: true})
		assert.ErrorIs(t, err, woosync.ErrRecordNotFound)
	})

	t.Run("find by ids", func(t *testing.T) {
		got, err := refs.FindByIDs(ctx, []uuid.UUID{color.ID, red.ID, uuid.New()})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}

func TestGormProductRepository(t *testing.T) {
	store := setupWooSyncTestDB(t)
	ctx := context.Background()
	repo := store.Products()
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	p := woosync.NewProduct(testSite, 42)
	p.Name = "Shirt"
	p.SKU = "X1"
	p.RemoteType = woosync.RemoteTypeVariable
	p.ListPrice = decimal.RequireFromString("19.99")
	p.RemoteRelatedIDs = []int64{43}
	attr, val := uuid.New(), uuid.New()
	p.AddAttributeValue(attr, val)
	p.CreateVariants()
	p.Variants[0].RemoteID = 420
	p.Variants[0].ManageStock = true
	p.MarkSynced(now)
	require.NoError(t, repo.Save(ctx, p))

	t.Run("round trip with variants", func(t *testing.T) {
		got, err := repo.FindByRemoteID(ctx, testSite, 42)
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
		assert.Equal(t, "X1", got.SKU)
		assert.True(t, got.ListPrice.Equal(p.ListPrice))
		assert.Equal(t, []int64{43}, got.RemoteRelatedIDs)
		require.Len(t, got.Variants, 1)
		assert.Equal(t, []uuid.UUID{val}, got.Variants[0].AttributeValueIDs)
		assert.Len(t, got.AttributeLines, 1)
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := repo.FindByRemoteID(ctx, testSite, 999)
		assert.ErrorIs(t, err, woosync.ErrRecordNotFound)
	})

	t.Run("related and stock queries", func(t *testing.T) {
		related, err := repo.FindWithRelated(ctx, testSite)
		require.NoError(t, err)
		assert.Len(t, related, 1)

		items, err := repo.FindStockItems(ctx, testSite)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.True(t, items[0].IsVariant())
		assert.Equal(t, int64(42), items[0].RemoteParentID)
	})

	t.Run("delete removes variants and their stock", func(t *testing.T) {
		variantID := p.Variants[0].ID
		for _, id := range []uuid.UUID{p.ID, variantID} {
			rec := woosync.NewStockRecord(testSite, id, "WH/Stock")
			rec.Quantity = decimal.NewFromInt(5)
			rec.Stamp(now, now)
			require.NoError(t, store.Stock().Save(ctx, rec))
		}

		require.NoError(t, repo.Delete(ctx, p.ID))
		_, err := repo.FindVariantByRemoteID(ctx, testSite, 420)
		assert.ErrorIs(t, err, woosync.ErrRecordNotFound)
		for _, id := range []uuid.UUID{p.ID, variantID} {
			_, err := store.Stock().Find(ctx, testSite, id, "WH/Stock")
			assert.ErrorIs(t, err, woosync.ErrRecordNotFound)
		}
	})
}

func TestGormProductRepository_KeepsDomainTimestamps(t *testing.T) {
	store := setupWooSyncTestDB(t)
	ctx := context.Background()
	repo := store.Products()
	synced := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	p := woosync.NewProduct(testSite, 42)
	p.Name = "Shirt"
	p.SKU = "X1"
	p.MarkSynced(synced)
	require.NoError(t, repo.Save(ctx, p))

	got, err := repo.FindByRemoteID(ctx, testSite, 42)
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.Equal(synced), "created_at %s", got.CreatedAt)
	assert.True(t, got.UpdatedAt.Equal(synced), "updated_at %s", got.UpdatedAt)
	assert.False(t, got.DirtySinceSync())

	got.Name = "Shirt v2"
	require.NoError(t, repo.Save(ctx, got))
	again, err := repo.FindByRemoteID(ctx, testSite, 42)
	require.NoError(t, err)
	assert.True(t, again.UpdatedAt.Equal(synced), "a save must not restamp updated_at")
	assert.False(t, again.DirtySinceSync())
}

func TestGormStore_Transaction(t *testing.T) {
	store := setupWooSyncTestDB(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.Transaction(ctx, func(tx woosync.Store) error {
		require.NoError(t, tx.Customers().Save(ctx, woosync.NewCustomer(testSite, 7)))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Customers().FindByRemoteID(ctx, testSite, 7)
	assert.ErrorIs(t, err, woosync.ErrRecordNotFound, "rolled back writes are not visible")

	t.Run("nested failure keeps the outer write", func(t *testing.T) {
		err := store.Transaction(ctx, func(tx woosync.Store) error {
			require.NoError(t, tx.Customers().Save(ctx, woosync.NewCustomer(testSite, 8)))
			inner := tx.Transaction(ctx, func(inner woosync.Store) error {
				require.NoError(t, inner.Customers().Save(ctx, woosync.NewCustomer(testSite, 9)))
				return boom
			})
			assert.ErrorIs(t, inner, boom)
			return nil
		})
		require.NoError(t, err)

		_, err = store.Customers().FindByRemoteID(ctx, testSite, 8)
		assert.NoError(t, err)
		_, err = store.Customers().FindByRemoteID(ctx, testSite, 9)
		assert.ErrorIs(t, err, woosync.ErrRecordNotFound)
	})
}

func TestGormCustomerRepository_FindByEmail(t *testing.T) {
	store := setupWooSyncTestDB(t)
	ctx := context.Background()

	c := woosync.NewCustomer(testSite, 0)
	c.Email = "guest@example.com"
	require.NoError(t, store.Customers().Save(ctx, c))

	got, err := store.Customers().FindByEmail(ctx, testSite, " Guest@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = store.Customers().FindByEmail(ctx, "https://other.test", "guest@example.com")
	assert.ErrorIs(t, err, woosync.ErrRecordNotFound)
}
