package checkout

import "context"

// Metadata keys attached to the provider-side product object. The provider
// session is the only durable handle that survives the redirect round-trip,
// so these keys are the contract for passing internal identifiers through
// the external payment flow: CreateSession must attach them, GetSession must
// surface them back on each line item.
const (
	MetadataProductID = "product_id"
	MetadataFileURL   = "file_url"
)

// PaymentStatusPaid is the provider payment status that permits recording sales.
const PaymentStatusPaid = "paid"

// CartItem is one entry of the client-held cart. Ephemeral: never persisted
// server-side before purchase.
type CartItem struct {
	ID          string
	Name        string
	Description string
	Price       float64 // decimal dollars
	ImageURL    string
	FileURL     string
}

// Session is a provider-neutral view of a checkout session.
type Session struct {
	ID            string
	URL           string // provider-hosted redirect URL
	PaymentStatus string
	CustomerEmail string
	LineItems     []LineItem
}

// LineItem is one priced unit within a session. ProductID and FileURL come
// from the metadata channel and may be empty if the session was created
// outside this flow; callers must treat that as a data-integrity warning.
type LineItem struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	AmountTotal int64  `json:"amount_total"` // minor currency units
	ProductID   string `json:"product_id,omitempty"`
	FileURL     string `json:"file_url,omitempty"`
}

// PaymentProvider abstracts the hosted payment service so the flow logic is
// testable with fakes.
type PaymentProvider interface {
	// CreateSession opens a one-time-payment session for the given cart and
	// returns its identifier and redirect URL. The pending session exists
	// provider-side only; no local state changes.
	CreateSession(ctx context.Context, items []CartItem) (*Session, error)

	// GetSession retrieves the full session including line items and their
	// product metadata.
	GetSession(ctx context.Context, id string) (*Session, error)
}
