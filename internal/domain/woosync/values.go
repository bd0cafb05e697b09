package woosync

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// RemoteDateLayout is the shape of every remote date after the T separator is replaced
	RemoteDateLayout = "2006-01-02 15:04:05"
	// RemoteFilterLayout is the shape of the modified_after listing filter
	RemoteFilterLayout = "2006-01-02T15:04:05"
)

// ParseRemoteDate parses a remote date such as "2024-01-01T10:00:00".
// An empty string yields nil. Anything else that does not match the layout
// exactly returns ErrInvalidRemoteDate.
func ParseRemoteDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(RemoteDateLayout, strings.Replace(s, "T", " ", 1), time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRemoteDate, s)
	}
	return &t, nil
}

// FormatRemoteDate formats a time in the remote date layout
func FormatRemoteDate(t time.Time) string {
	return t.UTC().Format(RemoteFilterLayout)
}

// ParseDecimal parses a remote decimal string, returning zero on empty or invalid input
func ParseDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Volume returns length x width x height when all three dimensions are set.
// Any empty dimension leaves the volume unset rather than zero.
func Volume(length, width, height string) decimal.NullDecimal {
	if strings.TrimSpace(length) == "" || strings.TrimSpace(width) == "" || strings.TrimSpace(height) == "" {
		return decimal.NullDecimal{}
	}
	v := ParseDecimal(length).Mul(ParseDecimal(width)).Mul(ParseDecimal(height))
	return decimal.NewNullDecimal(v)
}

// RemoteIsNewer reports whether a remote modification time is strictly after
// the local write time. A missing remote time is never newer.
func RemoteIsNewer(remoteModified *time.Time, localUpdated time.Time) bool {
	if remoteModified == nil {
		return false
	}
	if localUpdated.IsZero() {
		return true
	}
	return remoteModified.After(localUpdated)
}
