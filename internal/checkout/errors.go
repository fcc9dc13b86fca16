package checkout

import "errors"

// ErrMissingSessionID indicates a verify call without a session identifier.
// Not retriable; the caller must fix the request.
var ErrMissingSessionID = errors.New("missing session id")

// ErrEmptyCart indicates a create call with no cart items.
var ErrEmptyCart = errors.New("cart is empty")

// ErrPaymentIncomplete indicates the provider session is not paid yet.
// Terminal for this call; the caller may poll again since the provider
// status can still transition.
var ErrPaymentIncomplete = errors.New("payment not completed")
