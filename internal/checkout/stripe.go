package checkout

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// requestTimeout bounds every provider call. Stripe's default HTTP client
// waits 80 seconds; a verify call holding the confirmation page that long
// is worse than failing and letting the client retry.
const requestTimeout = 30 * time.Second

// StripeProvider implements PaymentProvider over Stripe Checkout Sessions.
// The API client is an explicitly constructed handle, not the package-global
// stripe.Key, so two providers with different keys can coexist in tests.
type StripeProvider struct {
	api        *client.API
	successURL string
	cancelURL  string
	currency   string
}

// NewStripeProvider builds a provider bound to an API key and the storefront
// return URLs. successURL must NOT already carry a query string: the session
// id placeholder is appended here, which is the return-URL contract the
// verify endpoint depends on. cancelURL carries no session id.
func NewStripeProvider(apiKey, successURL, cancelURL string) *StripeProvider {
	backendConfig := &stripe.BackendConfig{
		HTTPClient: &http.Client{Timeout: requestTimeout},
	}
	api := &client.API{}
	api.Init(apiKey, &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendConfig),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendConfig),
	})

	return &StripeProvider{
		api:        api,
		successURL: successURL,
		cancelURL:  cancelURL,
		currency:   string(stripe.CurrencyUSD),
	}
}

// CreateSession opens a one-time-payment Checkout Session. Each cart item
// becomes a line item with the unit price in minor units and the product id
// plus downloadable-file reference stashed as metadata on the provider-side
// product object.
func (p *StripeProvider) CreateSession(ctx context.Context, items []CartItem) (*Session, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for _, item := range items {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
			Metadata: map[string]string{
				MetadataProductID: item.ID,
				MetadataFileURL:   item.FileURL,
			},
		}
		if item.Description != "" {
			productData.Description = stripe.String(item.Description)
		}
		if item.ImageURL != "" {
			productData.Images = []*string{stripe.String(item.ImageURL)}
		}

		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(p.currency),
				UnitAmount:  stripe.Int64(MinorUnits(item.Price)),
				ProductData: productData,
			},
		})
	}

	params := &stripe.CheckoutSessionParams{
		Params:     stripe.Params{Context: ctx},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(p.successURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(p.cancelURL),
		LineItems:  lineItems,
	}

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create session: %w", err)
	}

	return &Session{
		ID:            sess.ID,
		URL:           sess.URL,
		PaymentStatus: string(sess.PaymentStatus),
	}, nil
}

// GetSession retrieves a session with line items and their product metadata
// expanded, and maps it to the provider-neutral view.
func (p *StripeProvider) GetSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
	}
	params.AddExpand("line_items")
	params.AddExpand("line_items.data.price.product")

	sess, err := p.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe get session: %w", err)
	}

	out := &Session{
		ID:            sess.ID,
		URL:           sess.URL,
		PaymentStatus: string(sess.PaymentStatus),
	}
	if sess.CustomerDetails != nil {
		out.CustomerEmail = sess.CustomerDetails.Email
	}

	if sess.LineItems != nil {
		out.LineItems = make([]LineItem, 0, len(sess.LineItems.Data))
		for _, li := range sess.LineItems.Data {
			item := LineItem{
				Description: li.Description,
				AmountTotal: li.AmountTotal,
			}
			if li.Price != nil && li.Price.Product != nil {
				item.Name = li.Price.Product.Name
				item.ProductID = li.Price.Product.Metadata[MetadataProductID]
				item.FileURL = li.Price.Product.Metadata[MetadataFileURL]
			}
			if item.Name == "" {
				item.Name = li.Description
			}
			out.LineItems = append(out.LineItems, item)
		}
	}

	return out, nil
}
