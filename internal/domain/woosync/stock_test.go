package woosync

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockRecord_Compare(t *testing.T) {
	stamp := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		stamped   bool
		localQty  int64
		remoteQty int64
		remoteAt  time.Time
		want      StockDirection
	}{
		{name: "never stamped", localQty: 5, remoteQty: 5, remoteAt: stamp, want: StockPull},
		{name: "remote newer and different", stamped: true, localQty: 5, remoteQty: 8, remoteAt: stamp.Add(time.Minute), want: StockPull},
		{name: "same time and different", stamped: true, localQty: 5, remoteQty: 8, remoteAt: stamp, want: StockPull},
		{name: "local newer and different", stamped: true, localQty: 5, remoteQty: 8, remoteAt: stamp.Add(-time.Minute), want: StockPush},
		{name: "quantities match", stamped: true, localQty: 5, remoteQty: 5, remoteAt: stamp.Add(time.Hour), want: StockNoop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewStockRecord("https://shop.test", uuid.New(), "WH/Stock")
			rec.Quantity = decimal.NewFromInt(tt.localQty)
			if tt.stamped {
				rec.Stamp(stamp, stamp)
			}
			assert.Equal(t, tt.want, rec.Compare(decimal.NewFromInt(tt.remoteQty), tt.remoteAt))
		})
	}
}

func TestStockRecord_Adjust(t *testing.T) {
	remoteAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	editedAt := remoteAt.Add(time.Hour)

	t.Run("local edit wins over an older remote", func(t *testing.T) {
		rec := NewStockRecord("https://shop.test", uuid.New(), "WH/Stock")
		rec.Quantity = decimal.NewFromInt(5)
		rec.Stamp(remoteAt, remoteAt)

		require.NoError(t, rec.Adjust(decimal.NewFromInt(3), editedAt))
		assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(3)))
		require.NotNil(t, rec.StockUpdatedAt)
		assert.Equal(t, editedAt, *rec.StockUpdatedAt)
		assert.Equal(t, StockPush, rec.Compare(decimal.NewFromInt(5), remoteAt))
		assert.Equal(t, StockPull, rec.Compare(decimal.NewFromInt(7), editedAt.Add(time.Minute)))
	})

	t.Run("invalid quantities are rejected", func(t *testing.T) {
		for _, qty := range []string{"-1", "2.5"} {
			rec := NewStockRecord("https://shop.test", uuid.New(), "WH/Stock")
			err := rec.Adjust(decimal.RequireFromString(qty), editedAt)
			assert.ErrorIs(t, err, ErrInvalidQuantity, qty)
			assert.Nil(t, rec.StockUpdatedAt)
		}
	})
}

func TestOrderStateFromRemote(t *testing.T) {
	tests := map[string]OrderState{
		"pending":    OrderStateDraft,
		"processing": OrderStateSale,
		"on-hold":    OrderStateSale,
		"completed":  OrderStateDone,
		"cancelled":  OrderStateCancel,
		"refunded":   OrderStateCancel,
		"failed":     OrderStateCancel,
		"trash":      OrderStateCancel,
		"checkout":   OrderStateDraft,
	}
	for status, want := range tests {
		assert.Equal(t, want, OrderStateFromRemote(status), status)
	}
}

func TestRunReport(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		r := NewRunReport(uuid.New(), start)
		step := r.Enter(StepProductSync)
		step.Succeed()
		step.Skip()
		r.Complete(start.Add(time.Minute))

		assert.Equal(t, SyncStatusSuccess, r.Status)
		assert.Equal(t, StepIdle, r.State)
		require.NotNil(t, r.Result(StepProductSync))
		assert.Equal(t, 2, r.Result(StepProductSync).Total)
		assert.Nil(t, r.Result(StepOrderSync))
	})

	t.Run("partial", func(t *testing.T) {
		r := NewRunReport(uuid.New(), start)
		r.Enter(StepOrderSync).Fail(9, errors.New("boom"))
		r.Complete(start)

		assert.Equal(t, SyncStatusPartial, r.Status)
		assert.Equal(t, int64(9), r.Steps[0].Failures[0].RemoteID)
	})

	t.Run("aborted keeps failing state", func(t *testing.T) {
		r := NewRunReport(uuid.New(), start)
		r.Enter(StepContextFetch)
		r.Abort(start, ErrConnectionFailed)

		assert.Equal(t, SyncStatusFailed, r.Status)
		assert.Equal(t, StepContextFetch, r.State)
		assert.NotEmpty(t, r.Error)
	})
}

func TestSyncConfiguration_Validate(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := NewSyncConfiguration("https://shop.test/", "ck", "cs")
		cfg.TimeoutSeconds = 0
		cfg.ScheduleIntervalMinutes = 0
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "https://shop.test", cfg.SiteURL)
		assert.Equal(t, DefaultTimeoutSeconds, cfg.TimeoutSeconds)
		assert.Equal(t, 5*time.Minute, cfg.ScheduleInterval())
		assert.Equal(t, "WooCommerce Auto-Sync - https://shop.test", cfg.CronName())
	})

	t.Run("stock location required with stock management", func(t *testing.T) {
		cfg := NewSyncConfiguration("https://shop.test", "ck", "cs")
		cfg.StockManagement = true
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfiguration)
		cfg.StockLocation = "WH/Stock"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing credentials", func(t *testing.T) {
		cfg := NewSyncConfiguration("https://shop.test", "", "")
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfiguration)
	})

	t.Run("variations depend on products", func(t *testing.T) {
		cfg := NewSyncConfiguration("https://shop.test", "ck", "cs")
		cfg.ImportProducts = false
		assert.False(t, cfg.SyncVariations())
	})
}

func TestFoldName(t *testing.T) {
	assert.Equal(t, FoldName("Color"), FoldName(" COLOR "))
	ref := NewTaxReference(decimal.RequireFromString("21"), true)
	assert.Equal(t, "21%", ref.Name)
	assert.Equal(t, TaxScopeSale, ref.TaxScope)
}
