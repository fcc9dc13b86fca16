package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/events"

	"github.com/pocketshop/storefront-checkout/internal/aws"
	"github.com/pocketshop/storefront-checkout/internal/sales"
)

// Processor handles SQS messages and drives sale delivery transitions.
type Processor struct {
	saleStore *sales.Store
}

// NewProcessor creates a worker processor with AWS clients injected.
func NewProcessor(clients *aws.Clients, salesTable, productsTable string) *Processor {
	return &Processor{
		saleStore: sales.NewStore(clients.DynamoDB, salesTable, productsTable),
	}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return error: Lambda will retry. If failed too many times, message goes to DLQ.
			log.Printf("worker error: %v", err)
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg SaleMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	log.Printf("[worker] received sale=%s session=%s product=%s",
		msg.SaleID, msg.SessionID, msg.ProductID)

	// Step 1: Read the current sale record
	sale, err := p.saleStore.Get(ctx, msg.SaleID)
	if err != nil {
		return fmt.Errorf("failed to fetch sale: %w", err)
	}
	if sale == nil {
		// Should never happen: the API records the sale before publishing. DLQ if it does.
		return fmt.Errorf("sale not found: %s", msg.SaleID)
	}

	// Step 2: Move PENDING -> PROCESSING (idempotent)
	err = p.saleStore.UpdateDeliveryStatus(ctx, msg.SaleID, sales.DeliveryPending, sales.DeliveryProcessing)
	if errors.Is(err, sales.ErrStatusMismatch) {
		// Already processed or competing worker:
		// If already DELIVERED -> treat as success.
		// If already FAILED -> fail permanently.
		// If already PROCESSING -> another worker took it, swallow the duplicate.
		s2, gerr := p.saleStore.Get(ctx, msg.SaleID)
		if gerr != nil {
			return fmt.Errorf("failed to re-fetch sale: %w", gerr)
		}
		switch s2.DeliveryStatus {
		case sales.DeliveryDelivered:
			log.Printf("[worker] already delivered sale=%s", msg.SaleID)
			return nil
		case sales.DeliveryFailed:
			return fmt.Errorf("sale=%s is already FAILED", msg.SaleID)
		case sales.DeliveryProcessing:
			log.Printf("[worker] duplicate delivery event for sale=%s", msg.SaleID)
			return nil
		default:
			return fmt.Errorf("unexpected delivery status for sale=%s: %s", msg.SaleID, s2.DeliveryStatus)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to update status to PROCESSING: %w", err)
	}

	// Step 3: Prepare the delivery. The storefront serves downloads straight
	// from the stored file reference, so preparation is just confirming the
	// asset pointer made it onto the ledger.
	if msg.FileURL == "" && sale.FileURL == "" {
		ferr := p.saleStore.UpdateDeliveryStatus(ctx, msg.SaleID, sales.DeliveryProcessing, sales.DeliveryFailed)
		if ferr != nil {
			return fmt.Errorf("failed to mark sale FAILED: %w", ferr)
		}
		return fmt.Errorf("sale=%s has no file reference to deliver", msg.SaleID)
	}
	log.Printf("[worker] download ready for sale=%s customer=%s", msg.SaleID, msg.CustomerEmail)

	// Step 4: Complete delivery: PROCESSING -> DELIVERED
	err = p.saleStore.UpdateDeliveryStatus(ctx, msg.SaleID, sales.DeliveryProcessing, sales.DeliveryDelivered)
	if err != nil {
		return fmt.Errorf("failed to update status to DELIVERED: %w", err)
	}

	log.Printf("[worker] delivered sale=%s", msg.SaleID)
	return nil
}
