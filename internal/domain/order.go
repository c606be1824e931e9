package domain

import "time"

// Order is a cart that has progressed past the "cart" state. State is whatever
// the upstream reports; the gateway stores it, never computes it.
type Order struct {
	ID          int64      `json:"id"`
	Number      string     `json:"number"`
	State       string     `json:"state"`
	Email       string     `json:"email,omitempty"`
	Total       string     `json:"total"`
	ItemTotal   string     `json:"item_total"`
	ShipTotal   string     `json:"ship_total,omitempty"`
	ItemCount   int        `json:"item_count"`
	LineItems   []LineItem `json:"line_items"`
	BillAddress *Address   `json:"bill_address,omitempty"`
	ShipAddress *Address   `json:"ship_address,omitempty"`
	Payments    []Payment  `json:"payments,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type Address struct {
	ID          int64        `json:"id,omitempty"`
	Name        string       `json:"name,omitempty"`
	Firstname   string       `json:"firstname,omitempty"`
	Lastname    string       `json:"lastname,omitempty"`
	Address1    string       `json:"address1,omitempty"`
	Address2    string       `json:"address2,omitempty"`
	City        string       `json:"city,omitempty"`
	Zipcode     string       `json:"zipcode,omitempty"`
	Phone       string       `json:"phone,omitempty"`
	Company     string       `json:"company,omitempty"`
	StateID     int64        `json:"state_id,omitempty"`
	StateName   string       `json:"state_name,omitempty"`
	CountryID   int64        `json:"country_id,omitempty"`
	CountryName string       `json:"country_name,omitempty"`
	UserAddress *UserAddress `json:"user_address,omitempty"`
}

// UserAddress is the nested relation flagging an address as a user default.
type UserAddress struct {
	DefaultBilling  bool `json:"default_billing"`
	DefaultShipping bool `json:"default_shipping"`
}

type Payment struct {
	ID              int64  `json:"id"`
	Amount          string `json:"amount"`
	State           string `json:"state"`
	Number          string `json:"number,omitempty"`
	PaymentMethodID *int64 `json:"payment_method_id,omitempty"`
}

// PaymentMethod is an upstream-configured method selected by identifier.
// Type is the Spree class tag, e.g. "Spree::PaymentMethod::Check".
type PaymentMethod struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
	Active      bool   `json:"active"`
	Position    int    `json:"position,omitempty"`
}

type ShippingRate struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Cost        string `json:"cost,omitempty"`
	DisplayCost string `json:"display_cost,omitempty"`
}
