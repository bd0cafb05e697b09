package woosync

import (
	"time"

	"github.com/google/uuid"
)

const (
	// PlaceholderCustomerRef is the fixed reference of the anonymous-customer sentinel
	PlaceholderCustomerRef = "WooCommerce_Customer_Placeholder"
	// PlaceholderCustomerName is the display name of the anonymous-customer sentinel
	PlaceholderCustomerName = "WooCommerce Customer Placeholder"
	// CompanyTypePerson marks individual customers
	CompanyTypePerson = "person"
)

// Customer is a local partner linked to a remote customer account
type Customer struct {
	// ID is the local identity
	ID uuid.UUID
	// SiteURL and RemoteID form the natural key; RemoteID is 0 for guests
	SiteURL  string
	RemoteID int64

	Name         string
	Ref          string
	CompanyType  string
	CustomerRank int
	Email        string
	Mobile       string
	Street       string
	Street2      string
	City         string
	State        string
	Zip          string
	CountryCode  string
	Username     string
	Role         string
	ImageKey     string
	// ResponsibleUser is the assigned salesperson
	ResponsibleUser string
	// Active is false for archived customers (the placeholder)
	Active bool

	LastLoginAt      *time.Time
	RemoteCreatedAt  *time.Time
	RemoteModifiedAt *time.Time
	SyncedAt         *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewCustomer creates an active customer linked to a remote account
func NewCustomer(siteURL string, remoteID int64) *Customer {
	return &Customer{
		ID:          uuid.New(),
		SiteURL:     siteURL,
		RemoteID:    remoteID,
		CompanyType: CompanyTypePerson,
		Active:      true,
	}
}

// NewPlaceholderCustomer creates the archived anonymous-customer sentinel
func NewPlaceholderCustomer() *Customer {
	return &Customer{
		ID:          uuid.New(),
		Name:        PlaceholderCustomerName,
		Ref:         PlaceholderCustomerRef,
		CompanyType: CompanyTypePerson,
		Active:      false,
	}
}

// MarkSynced stamps the local write and sync times
func (c *Customer) MarkSynced(now time.Time) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	synced := now
	c.SyncedAt = &synced
}
