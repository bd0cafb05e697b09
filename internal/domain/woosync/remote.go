package woosync

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Shared remote value types
// ---------------------------------------------------------------------------

// RemoteTaxonomy is a category, tag or brand reference on a remote product
type RemoteTaxonomy struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// RemoteImage is a media reference on a remote product or variation
type RemoteImage struct {
	ID   int64  `json:"id,omitempty"`
	Src  string `json:"src"`
	Name string `json:"name"`
	Alt  string `json:"alt,omitempty"`
}

// RemoteDimensions holds the package dimensions as decimal strings
type RemoteDimensions struct {
	Length string `json:"length"`
	Width  string `json:"width"`
	Height string `json:"height"`
}

// RemoteAttribute is an attribute on a product (Options) or variation (Option)
type RemoteAttribute struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Option    string   `json:"option,omitempty"`
	Options   []string `json:"options,omitempty"`
	Visible   bool     `json:"visible,omitempty"`
	Variation bool     `json:"variation,omitempty"`
}

// RemoteMeta is one entry of a remote meta_data list
type RemoteMeta struct {
	ID    int64           `json:"id,omitempty"`
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// MetaValue scans an unordered metadata list for key.
// String values are unquoted; other scalars are returned verbatim.
func MetaValue(meta []RemoteMeta, key string) (string, bool) {
	for _, m := range meta {
		if m.Key != key {
			continue
		}
		raw := bytes.TrimSpace(m.Value)
		if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
			return "", false
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s, s != ""
		}
		return string(raw), true
	}
	return "", false
}

// StockFlag decodes manage_stock, which variations report as true, false or "parent"
type StockFlag bool

// UnmarshalJSON accepts booleans and the string "parent" (managed on the parent, truthy)
func (f *StockFlag) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch raw {
	case "true", `"parent"`, `"true"`:
		*f = true
	case "false", "null", `""`, `"false"`:
		*f = false
	default:
		return fmt.Errorf("%w: manage_stock %s", ErrRemoteInvalidBody, raw)
	}
	return nil
}

// MarshalJSON encodes the flag as a boolean
func (f StockFlag) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatBool(bool(f))), nil
}

// RemoteAddress is a billing or shipping address
type RemoteAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// FullName returns "first last" without surrounding blanks
func (a RemoteAddress) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

// RemoteProduct is a snapshot of a remote product
type RemoteProduct struct {
	ID               int64               `json:"id"`
	Name             string              `json:"name"`
	Slug             string              `json:"slug"`
	Permalink        string              `json:"permalink"`
	Type             string              `json:"type"`
	Status           string              `json:"status"`
	Featured         bool                `json:"featured"`
	Description      string              `json:"description"`
	ShortDescription string              `json:"short_description"`
	SKU              string              `json:"sku"`
	Price            string              `json:"price"`
	RegularPrice     string              `json:"regular_price"`
	SalePrice        string              `json:"sale_price"`
	DateOnSaleFrom   string              `json:"date_on_sale_from_gmt"`
	DateOnSaleTo     string              `json:"date_on_sale_to_gmt"`
	Purchasable      bool                `json:"purchasable"`
	TaxStatus        string              `json:"tax_status"`
	TaxClass         string              `json:"tax_class"`
	ManageStock      StockFlag           `json:"manage_stock"`
	StockQuantity    decimal.NullDecimal `json:"stock_quantity"`
	StockStatus      string              `json:"stock_status"`
	Weight           string              `json:"weight"`
	Dimensions       RemoteDimensions    `json:"dimensions"`
	Categories       []RemoteTaxonomy    `json:"categories"`
	Tags             []RemoteTaxonomy    `json:"tags"`
	Brands           []RemoteTaxonomy    `json:"brands"`
	Images           []RemoteImage       `json:"images"`
	Attributes       []RemoteAttribute   `json:"attributes"`
	Variations       []int64             `json:"variations"`
	RelatedIDs       []int64             `json:"related_ids"`
	ParentID         int64               `json:"parent_id"`
	DateCreatedGMT   string              `json:"date_created_gmt"`
	DateModifiedGMT  string              `json:"date_modified_gmt"`
	Lang             string              `json:"lang,omitempty"`
	MetaData         []RemoteMeta        `json:"meta_data"`
}

// RemoteVariation is a snapshot of a remote product variation
type RemoteVariation struct {
	ID              int64               `json:"id"`
	Type            string              `json:"type"`
	Status          string              `json:"status"`
	Description     string              `json:"description"`
	SKU             string              `json:"sku"`
	Price           string              `json:"price"`
	RegularPrice    string              `json:"regular_price"`
	SalePrice       string              `json:"sale_price"`
	Purchasable     bool                `json:"purchasable"`
	TaxClass        string              `json:"tax_class"`
	ManageStock     StockFlag           `json:"manage_stock"`
	StockQuantity   decimal.NullDecimal `json:"stock_quantity"`
	Weight          string              `json:"weight"`
	Dimensions      RemoteDimensions    `json:"dimensions"`
	Image           *RemoteImage        `json:"image"`
	Attributes      []RemoteAttribute   `json:"attributes"`
	DateCreatedGMT  string              `json:"date_created_gmt"`
	DateModifiedGMT string              `json:"date_modified_gmt"`
	Lang            string              `json:"lang,omitempty"`
	MetaData        []RemoteMeta        `json:"meta_data"`
}

// ---------------------------------------------------------------------------
// Customers and orders
// ---------------------------------------------------------------------------

// RemoteCustomer is a snapshot of a remote customer account
type RemoteCustomer struct {
	ID               int64         `json:"id"`
	Email            string        `json:"email"`
	FirstName        string        `json:"first_name"`
	LastName         string        `json:"last_name"`
	Role             string        `json:"role"`
	Username         string        `json:"username"`
	IsPayingCustomer bool          `json:"is_paying_customer"`
	AvatarURL        string        `json:"avatar_url"`
	Billing          RemoteAddress `json:"billing"`
	Shipping         RemoteAddress `json:"shipping"`
	DateCreatedGMT   string        `json:"date_created_gmt"`
	DateModifiedGMT  string        `json:"date_modified_gmt"`
	MetaData         []RemoteMeta  `json:"meta_data"`
}

// RemoteLineTax is the per-rate tax split of a line item
type RemoteLineTax struct {
	ID       int64  `json:"id"`
	Total    string `json:"total"`
	Subtotal string `json:"subtotal"`
}

// RemoteLineItem is a line of a remote order
type RemoteLineItem struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	ProductID   int64           `json:"product_id"`
	VariationID int64           `json:"variation_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	TaxClass    string          `json:"tax_class"`
	Subtotal    string          `json:"subtotal"`
	SubtotalTax string          `json:"subtotal_tax"`
	Total       string          `json:"total"`
	TotalTax    string          `json:"total_tax"`
	Taxes       []RemoteLineTax `json:"taxes"`
	MetaData    []RemoteMeta    `json:"meta_data"`
	SKU         string          `json:"sku"`
	Price       decimal.Decimal `json:"price"`
}

// RemoteOrder is a snapshot of a remote order
type RemoteOrder struct {
	ID                 int64            `json:"id"`
	ParentID           int64            `json:"parent_id"`
	Number             string           `json:"number"`
	OrderKey           string           `json:"order_key"`
	CreatedVia         string           `json:"created_via"`
	Version            string           `json:"version"`
	Status             string           `json:"status"`
	Currency           string           `json:"currency"`
	DateCreatedGMT     string           `json:"date_created_gmt"`
	DateModifiedGMT    string           `json:"date_modified_gmt"`
	DatePaidGMT        string           `json:"date_paid_gmt"`
	DateCompletedGMT   string           `json:"date_completed_gmt"`
	DiscountTotal      string           `json:"discount_total"`
	DiscountTax        string           `json:"discount_tax"`
	ShippingTotal      string           `json:"shipping_total"`
	ShippingTax        string           `json:"shipping_tax"`
	CartTax            string           `json:"cart_tax"`
	Total              string           `json:"total"`
	TotalTax           string           `json:"total_tax"`
	PricesIncludeTax   bool             `json:"prices_include_tax"`
	CustomerID         int64            `json:"customer_id"`
	CustomerIPAddress  string           `json:"customer_ip_address"`
	CustomerUserAgent  string           `json:"customer_user_agent"`
	CustomerNote       string           `json:"customer_note"`
	Billing            RemoteAddress    `json:"billing"`
	Shipping           RemoteAddress    `json:"shipping"`
	PaymentMethod      string           `json:"payment_method"`
	PaymentMethodTitle string           `json:"payment_method_title"`
	TransactionID      string           `json:"transaction_id"`
	CartHash           string           `json:"cart_hash"`
	MetaData           []RemoteMeta     `json:"meta_data"`
	LineItems          []RemoteLineItem `json:"line_items"`
	Lang               string           `json:"lang,omitempty"`
}

// ---------------------------------------------------------------------------
// Shared context sources
// ---------------------------------------------------------------------------

// RemoteTaxRate is one row of the remote tax table
type RemoteTaxRate struct {
	ID       int64  `json:"id"`
	Country  string `json:"country"`
	State    string `json:"state"`
	Rate     string `json:"rate"`
	Name     string `json:"name"`
	Priority int    `json:"priority"`
	Class    string `json:"class"`
}

// RemoteSetting is a single remote settings option
type RemoteSetting struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// ---------------------------------------------------------------------------
// Export payloads
// ---------------------------------------------------------------------------

// RemoteTaxonomyRef references a remote category, tag or brand by ID
type RemoteTaxonomyRef struct {
	ID int64 `json:"id"`
}

// RemoteProductPayload is the body of a product create or update call
type RemoteProductPayload struct {
	Name           string              `json:"name"`
	SKU            string              `json:"sku"`
	DateCreatedGMT string              `json:"date_created_gmt,omitempty"`
	Description    string              `json:"description"`
	Status         string              `json:"status"`
	Purchasable    bool                `json:"purchasable"`
	TaxClass       string              `json:"tax_class"`
	RegularPrice   string              `json:"regular_price"`
	ManageStock    bool                `json:"manage_stock"`
	Type           string              `json:"type"`
	Weight         string              `json:"weight"`
	Dimensions     RemoteDimensions    `json:"dimensions"`
	Attributes     []RemoteAttribute   `json:"attributes,omitempty"`
	Brands         []RemoteTaxonomyRef `json:"brands,omitempty"`
	Categories     []RemoteTaxonomyRef `json:"categories,omitempty"`
	Tags           []RemoteTaxonomyRef `json:"tags,omitempty"`
	Lang           string              `json:"lang,omitempty"`
}

// RemoteVariationPayload is the body of a variation create or update call
type RemoteVariationPayload struct {
	SKU          string            `json:"sku"`
	RegularPrice string            `json:"regular_price"`
	ManageStock  bool              `json:"manage_stock"`
	Attributes   []RemoteAttribute `json:"attributes,omitempty"`
}

// RemoteStockPayload is the body of a stock quantity push
type RemoteStockPayload struct {
	StockQuantity int64 `json:"stock_quantity"`
}

// RemoteTerm is a remote category, tag, brand or global attribute as returned by
// the products/{categories|tags|brands|attributes} endpoints
type RemoteTerm struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// RemoteTaxonomyPayload creates a remote category, tag or brand
type RemoteTaxonomyPayload struct {
	Name string `json:"name"`
	Lang string `json:"lang,omitempty"`
}
