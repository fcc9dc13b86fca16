package sales

import "time"

// Delivery statuses for a recorded sale. Recording is monotonic: once a
// (session, product) pair is recorded it only moves forward through these.
const (
	DeliveryPending    = "PENDING"
	DeliveryProcessing = "PROCESSING"
	DeliveryDelivered  = "DELIVERED"
	DeliveryFailed     = "FAILED"
)

// SaleRecord is the durable record of one de-duplicated purchase of one
// product within one checkout session. The primary key is the composite
// session#product id, which is what makes repeated verification calls safe.
type SaleRecord struct {
	SaleID         string    `dynamodbav:"sale_id"`    // PK: sessionID#productID
	SessionID      string    `dynamodbav:"session_id"` // GSI: session_id-index
	ProductID      string    `dynamodbav:"product_id"`
	ProductName    string    `dynamodbav:"product_name,omitempty"`
	FileURL        string    `dynamodbav:"file_url"`
	Amount         float64   `dynamodbav:"amount"` // dollars (minor units / 100)
	CustomerEmail  string    `dynamodbav:"customer_email"`
	DeliveryStatus string    `dynamodbav:"delivery_status"`
	CreatedAt      time.Time `dynamodbav:"created_at"`
	UpdatedAt      time.Time `dynamodbav:"updated_at"`
}

// SaleID builds the composite primary key for a (session, product) pair.
func SaleID(sessionID, productID string) string {
	return sessionID + "#" + productID
}
