package woosync

import "errors"

var (
	// Connection and transport errors
	ErrConnectionFailed    = errors.New("woosync: connection probe failed")
	ErrRemoteUnavailable   = errors.New("woosync: remote store temporarily unavailable")
	ErrRemoteRequestFailed = errors.New("woosync: remote request failed")
	ErrRemoteInvalidBody   = errors.New("woosync: invalid remote response")

	// Reference errors
	ErrDimensionUnitMissing = errors.New("woosync: dimension unit of measure not found")

	// Mapping errors
	ErrInvalidRemoteDate     = errors.New("woosync: invalid remote date")
	ErrParentProductNotFound = errors.New("woosync: parent product not found")

	// Persistence errors
	ErrRecordNotFound        = errors.New("woosync: record not found")
	ErrConfigurationNotFound = errors.New("woosync: sync configuration not found")
	ErrStockItemNotFound     = errors.New("woosync: product is not a stock-tracked item of this store")

	// Configuration errors
	ErrInvalidConfiguration = errors.New("woosync: invalid configuration")
	ErrInvalidQuantity      = errors.New("woosync: invalid stock quantity")

	// Run errors
	ErrRunInProgress = errors.New("woosync: a sync run is already in progress for this configuration")
)

// IsFatal reports whether err must abort the whole run instead of a single record.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConnectionFailed) || errors.Is(err, ErrDimensionUnitMissing)
}
