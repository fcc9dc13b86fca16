package worker

// SaleMessage is the payload sent from API -> SQS -> Worker for each newly
// recorded sale.
type SaleMessage struct {
	SaleID        string `json:"sale_id"`
	SessionID     string `json:"session_id"`
	ProductID     string `json:"product_id"`
	FileURL       string `json:"file_url"`
	CustomerEmail string `json:"customer_email"`
}
