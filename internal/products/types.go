package products

import "time"

// Product is the catalog item stored in the products DynamoDB table.
// SalesCount is incremented exactly once per unique (session, product) sale;
// the checkout flow does the increment inside the sale transaction.
type Product struct {
	ProductID   string    `dynamodbav:"product_id"` // PK
	Name        string    `dynamodbav:"name"`
	Description string    `dynamodbav:"description,omitempty"`
	Price       float64   `dynamodbav:"price"` // decimal dollars
	ImageURL    string    `dynamodbav:"image_url,omitempty"`
	FileURL     string    `dynamodbav:"file_url"` // downloadable asset reference
	SalesCount  int64     `dynamodbav:"sales_count"`
	CreatedAt   time.Time `dynamodbav:"created_at"`
	UpdatedAt   time.Time `dynamodbav:"updated_at"`
}
