package domain

// Monetary amounts are upstream-formatted strings. The gateway never does
// currency arithmetic; only quantities are recomputed locally.

type Cart struct {
	ID        int64      `json:"id"`
	Number    string     `json:"number"`
	State     string     `json:"state"`
	Email     string     `json:"email,omitempty"`
	Total     string     `json:"total"`
	ItemTotal string     `json:"item_total"`
	ShipTotal string     `json:"ship_total"`
	ItemCount int        `json:"item_count"`
	LineItems []LineItem `json:"line_items"`
}

type LineItem struct {
	ID       int64    `json:"id"`
	Quantity int      `json:"quantity"`
	Price    string   `json:"price"`
	Total    string   `json:"total"`
	Variant  *Variant `json:"variant,omitempty"`
}

type Variant struct {
	ID      int64   `json:"id"`
	SKU     string  `json:"sku"`
	Name    string  `json:"name"`
	Images  []Image `json:"images,omitempty"`
	Product *struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Slug string `json:"slug"`
	} `json:"product,omitempty"`
}

type Image struct {
	ID            int64  `json:"id"`
	Alt           string `json:"alt,omitempty"`
	URL           string `json:"url,omitempty"`
	AttachmentURL string `json:"attachment_url,omitempty"`
}

// RecountItems recomputes ItemCount as the sum of line-item quantities.
// Upstream sends its own count, but optimistic local patches must keep the
// invariant without waiting for the next fetch.
func (c *Cart) RecountItems() {
	total := 0
	for _, li := range c.LineItems {
		total += li.Quantity
	}
	c.ItemCount = total
}

// Empty reports whether the cart has no line items.
func (c *Cart) Empty() bool {
	return c == nil || len(c.LineItems) == 0
}
