package domain

type User struct {
	ID        int64     `json:"id,omitempty"`
	Email     string    `json:"email,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Addresses []Address `json:"addresses,omitempty"`
}
