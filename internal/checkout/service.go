package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/pocketshop/storefront-checkout/internal/sales"
)

// defaultCustomerEmail is stored on a sale when the provider has no customer
// contact for the session.
const defaultCustomerEmail = "unknown"

// SaleStore is the ledger capability the verify flow needs. RecordSale must
// be atomic per (session, product): it either records the sale and counts
// it exactly once (created=true) or observes an existing record
// (created=false). sales.Store satisfies this with a conditional transact
// write.
type SaleStore interface {
	RecordSale(ctx context.Context, rec sales.SaleRecord) (bool, error)
}

// SaleRecordedEvent is handed to the publisher for each newly recorded sale
// so the fulfillment worker can pick it up.
type SaleRecordedEvent struct {
	SaleID        string `json:"sale_id"`
	SessionID     string `json:"session_id"`
	ProductID     string `json:"product_id"`
	FileURL       string `json:"file_url"`
	CustomerEmail string `json:"customer_email"`
}

// SalePublisher enqueues sale-recorded events. May be nil-implemented in
// tests; publish failures never fail the verify call since the sale itself
// is already durable.
type SalePublisher interface {
	PublishSaleRecorded(ctx context.Context, ev SaleRecordedEvent) error
}

// MetricsSink receives per-verify counters. Implementations are best-effort.
type MetricsSink interface {
	CountSales(ctx context.Context, recorded, skipped int)
}

// Service wires the payment provider and the sales ledger into the two
// storefront checkout operations.
type Service struct {
	provider  PaymentProvider
	saleStore SaleStore
	publisher SalePublisher // optional
	metrics   MetricsSink   // optional
	nowFunc   func() time.Time
}

// NewService builds a Service. publisher and metrics may be nil.
func NewService(provider PaymentProvider, saleStore SaleStore, publisher SalePublisher, metrics MetricsSink) *Service {
	return &Service{
		provider:  provider,
		saleStore: saleStore,
		publisher: publisher,
		metrics:   metrics,
		nowFunc:   time.Now,
	}
}

// CreateSession opens a provider checkout session for the cart. The cart is
// validated at the HTTP boundary; the empty-cart guard here keeps the
// contract honest for non-HTTP callers.
func (s *Service) CreateSession(ctx context.Context, items []CartItem) (*Session, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	sess, err := s.provider.CreateSession(ctx, items)
	if err != nil {
		if errors.Is(err, ErrEmptyCart) {
			return nil, err
		}
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return sess, nil
}

// VerifyResult is what a verification call reports back to the client.
type VerifyResult struct {
	SessionID string
	LineItems []LineItem // full list, for display and download links
	Recorded  []string   // product ids newly recorded by THIS call; empty means "already recorded"
	Skipped   []string   // line items dropped for missing metadata
}

// VerifySession fetches the session from the provider, checks payment
// status, and records each purchased line item at most once per
// (session, product) pair. Safe to call repeatedly, e.g. on a refresh of
// the confirmation page: replays record nothing and report an empty
// Recorded list.
//
// A store failure on one line item never aborts its siblings; collected
// errors are joined and returned alongside the partial result.
func (s *Service) VerifySession(ctx context.Context, sessionID string) (*VerifyResult, error) {
	if sessionID == "" {
		return nil, ErrMissingSessionID
	}

	sess, err := s.provider.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("fetch session: %w", err)
	}
	if sess.PaymentStatus != PaymentStatusPaid {
		return nil, fmt.Errorf("session %s has status %q: %w", sessionID, sess.PaymentStatus, ErrPaymentIncomplete)
	}

	email := sess.CustomerEmail
	if email == "" {
		email = defaultCustomerEmail
	}

	result := &VerifyResult{
		SessionID: sessionID,
		LineItems: sess.LineItems,
		Recorded:  []string{},
		Skipped:   []string{},
	}

	var itemErrs []error
	now := s.nowFunc()

	for _, li := range sess.LineItems {
		if li.ProductID == "" || li.FileURL == "" {
			// Data-integrity warning, not fatal: the item is omitted from
			// recording but the rest of the session still processes.
			log.Printf("[checkout] session=%s line item %q missing product metadata, skipping", sessionID, li.Name)
			result.Skipped = append(result.Skipped, li.Name)
			continue
		}

		rec := sales.SaleRecord{
			SaleID:         sales.SaleID(sessionID, li.ProductID),
			SessionID:      sessionID,
			ProductID:      li.ProductID,
			ProductName:    li.Name,
			FileURL:        li.FileURL,
			Amount:         Dollars(li.AmountTotal),
			CustomerEmail:  email,
			DeliveryStatus: sales.DeliveryPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		created, err := s.saleStore.RecordSale(ctx, rec)
		if err != nil {
			log.Printf("[checkout] session=%s product=%s record sale failed: %v", sessionID, li.ProductID, err)
			itemErrs = append(itemErrs, fmt.Errorf("record sale for product %s: %w", li.ProductID, err))
			continue
		}
		if !created {
			// Already recorded by an earlier call; no-op keeps re-invocation safe.
			continue
		}

		result.Recorded = append(result.Recorded, li.ProductID)

		if s.publisher != nil {
			ev := SaleRecordedEvent{
				SaleID:        rec.SaleID,
				SessionID:     sessionID,
				ProductID:     li.ProductID,
				FileURL:       li.FileURL,
				CustomerEmail: email,
			}
			if perr := s.publisher.PublishSaleRecorded(ctx, ev); perr != nil {
				// The sale is durable; fulfillment can be redriven from the ledger.
				log.Printf("[checkout] session=%s product=%s enqueue fulfillment failed: %v", sessionID, li.ProductID, perr)
			}
		}
	}

	if s.metrics != nil {
		s.metrics.CountSales(ctx, len(result.Recorded), len(result.Skipped))
	}

	if len(itemErrs) > 0 {
		return result, errors.Join(itemErrs...)
	}
	return result, nil
}
