package validation

// CartItemRequest is a single cart entry in the create-checkout payload.
type CartItemRequest struct {
	ID          string  `json:"id" validate:"required"`         // product identifier
	Name        string  `json:"name" validate:"required"`       // display name
	Description string  `json:"description,omitempty"`          // optional blurb
	Price       float64 `json:"price" validate:"required,gt=0"` // decimal dollars
	ImageURL    string  `json:"image_url,omitempty" validate:"omitempty,url"`
	FileURL     string  `json:"file_url" validate:"required,url"` // downloadable asset
}

// CreateCheckoutRequest is the payload for POST /checkout/sessions.
type CreateCheckoutRequest struct {
	Items []CartItemRequest `json:"items" validate:"required,min=1,dive"` // at least one item
}

// CreateProductRequest is the payload for the admin POST /products.
type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	ImageURL    string  `json:"image_url,omitempty" validate:"omitempty,url"`
	FileURL     string  `json:"file_url" validate:"required,url"`
}
