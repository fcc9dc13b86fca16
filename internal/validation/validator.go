package validation

import (
	"fmt"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// register struct-level validation for CreateCheckoutRequest to reject
	// carts listing the same product twice: digital goods are sold once per
	// session, and a duplicate would collapse into a single sale record
	// while charging twice.
	v.RegisterStructValidation(createCheckoutStructValidation, CreateCheckoutRequest{})

	return v
}

func createCheckoutStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CreateCheckoutRequest)

	seen := make(map[string]bool, len(req.Items))
	for _, it := range req.Items {
		if seen[it.ID] {
			sl.ReportError(req.Items, "items", "Items", "unique_product_ids", fmt.Sprintf("product %s appears more than once", it.ID))
			return
		}
		seen[it.ID] = true
	}
}
