package woosync

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ttacon/libphonenumber"

	"github.com/erp/woosync/internal/domain/woosync"
)

const (
	metaLastLogin = "wfls-last-login"
)

// CustomerFields is the local shape of a remote customer before the avatar download
type CustomerFields struct {
	Name         string
	Ref          string
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
	AvatarURL    string

	LastLoginAt      *time.Time
	RemoteCreatedAt  *time.Time
	RemoteModifiedAt *time.Time
}

// MapCustomer maps a remote customer account. The address comes from billing.
func MapCustomer(rc *woosync.RemoteCustomer) (*CustomerFields, error) {
	created, err := woosync.ParseRemoteDate(rc.DateCreatedGMT)
	if err != nil {
		return nil, fmt.Errorf("customer %d date_created_gmt: %w", rc.ID, err)
	}
	modified, err := woosync.ParseRemoteDate(rc.DateModifiedGMT)
	if err != nil {
		return nil, fmt.Errorf("customer %d date_modified_gmt: %w", rc.ID, err)
	}

	f := addressFields(rc.Billing)
	f.Name = strings.TrimSpace(rc.FirstName + " " + rc.LastName)
	f.Ref = strconv.FormatInt(rc.ID, 10)
	f.Email = rc.Email
	f.Username = rc.Username
	f.Role = rc.Role
	f.AvatarURL = rc.AvatarURL
	f.LastLoginAt = lastLogin(rc.MetaData)
	f.RemoteCreatedAt = created
	f.RemoteModifiedAt = modified
	if rc.IsPayingCustomer {
		f.CustomerRank = 1
	}
	return f, nil
}

// MapGuestCustomer builds a customer from the billing address of a guest order
func MapGuestCustomer(ro *woosync.RemoteOrder) *CustomerFields {
	f := addressFields(ro.Billing)
	f.Name = ro.Billing.FullName()
	f.Ref = strconv.FormatInt(ro.CustomerID, 10)
	f.Email = strings.TrimSpace(ro.Billing.Email)
	return f
}

func addressFields(a woosync.RemoteAddress) *CustomerFields {
	return &CustomerFields{
		Mobile:      NormalizePhone(a.Phone, a.Country),
		Street:      a.Address1,
		Street2:     a.Address2,
		City:        a.City,
		State:       a.State,
		Zip:         a.Postcode,
		CountryCode: strings.ToUpper(strings.TrimSpace(a.Country)),
	}
}

// Apply copies the mapped fields onto c
func (f *CustomerFields) Apply(c *woosync.Customer) {
	c.Name = f.Name
	c.Ref = f.Ref
	c.CompanyType = woosync.CompanyTypePerson
	c.CustomerRank = f.CustomerRank
	c.Email = f.Email
	c.Mobile = f.Mobile
	c.Street = f.Street
	c.Street2 = f.Street2
	c.City = f.City
	c.State = f.State
	c.Zip = f.Zip
	c.CountryCode = f.CountryCode
	c.Username = f.Username
	c.Role = f.Role
	c.Active = true
	c.LastLoginAt = f.LastLoginAt
	c.RemoteCreatedAt = f.RemoteCreatedAt
	c.RemoteModifiedAt = f.RemoteModifiedAt
}

// NormalizePhone formats a phone number as E.164 using country as the default region.
// Numbers that do not parse or are not valid are returned trimmed but otherwise untouched.
func NormalizePhone(raw, country string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	num, err := libphonenumber.Parse(raw, strings.ToUpper(strings.TrimSpace(country)))
	if err != nil || !libphonenumber.IsValidNumber(num) {
		return raw
	}
	return libphonenumber.Format(num, libphonenumber.E164)
}

// lastLogin reads the login plugin's unix timestamp; absent or invalid values yield nil
func lastLogin(meta []woosync.RemoteMeta) *time.Time {
	v, ok := woosync.MetaValue(meta, metaLastLogin)
	if !ok {
		return nil
	}
	secs, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || secs <= 0 {
		return nil
	}
	t := time.Unix(secs, 0).UTC()
	return &t
}
