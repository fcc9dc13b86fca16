package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/pocketshop/storefront-checkout/internal/aws"
)

// SessionIndex is the GSI used to list all sales of one checkout session.
const SessionIndex = "session_id-index"

// Store encapsulates the sales ledger and its coupled counter update on the
// products table.
type Store struct {
	client        aws.DynamoDBAPI
	tableName     string
	productsTable string
	nowFunc       func() time.Time
}

// NewStore creates a sales Store. productsTable is needed because recording
// a sale and incrementing the product counter happen in one transaction.
func NewStore(client aws.DynamoDBAPI, tableName, productsTable string) *Store {
	return &Store{
		client:        client,
		tableName:     tableName,
		productsTable: productsTable,
		nowFunc:       time.Now,
	}
}

// ErrStatusMismatch indicates a conditional delivery-status transition failed.
var ErrStatusMismatch = errors.New("delivery status mismatch/conditional failed")

// RecordSale atomically, in a single TransactWriteItems call:
//   - puts the sale record guarded by attribute_not_exists(sale_id)
//   - increments the product's sales_count by 1
//
// Exactly one of two outcomes is possible per (session, product) pair:
// both writes land once, or neither does. Concurrent verification calls for
// the same session race to one winner; losers get (created=false, nil).
//
// Returns (true, nil) when this call recorded the sale, (false, nil) when a
// record already existed, (false, err) on other failures.
func (s *Store) RecordSale(ctx context.Context, sale SaleRecord) (bool, error) {
	now := s.nowFunc()
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = now
	}
	sale.UpdatedAt = now
	if sale.DeliveryStatus == "" {
		sale.DeliveryStatus = DeliveryPending
	}

	saleMap, err := attributevalue.MarshalMap(sale)
	if err != nil {
		return false, fmt.Errorf("marshal sale record: %w", err)
	}

	transactItems := []types.TransactWriteItem{
		{
			Put: &types.Put{
				TableName:           &s.tableName,
				Item:                saleMap,
				ConditionExpression: awsString("attribute_not_exists(sale_id)"),
			},
		},
		{
			Update: &types.Update{
				TableName: &s.productsTable,
				Key: map[string]types.AttributeValue{
					"product_id": &types.AttributeValueMemberS{Value: sale.ProductID},
				},
				UpdateExpression: awsString("SET sales_count = if_not_exists(sales_count, :zero) + :inc, updated_at = :ua"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":zero": &types.AttributeValueMemberN{Value: "0"},
					":inc":  &types.AttributeValueMemberN{Value: "1"},
					":ua":   &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
				},
			},
		},
	}

	_, err = s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		// A cancellation is only benign when the guarded put itself lost
		// its condition check: the sale is already recorded and the counter
		// already counted it. Any other cancellation reason (transaction
		// conflict, throttling, validation) means nothing was written, so
		// it must surface as an error the caller can retry.
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			if saleConditionFailed(tce) {
				return false, nil
			}
			return false, fmt.Errorf("transact write canceled: %w", err)
		}
		return false, fmt.Errorf("transact write: %w", err)
	}
	return true, nil
}

// saleConditionFailed reports whether the transaction was canceled because
// the sale put's attribute_not_exists condition failed. The put is the first
// transact item, so only the first cancellation reason is consulted.
func saleConditionFailed(tce *types.TransactionCanceledException) bool {
	if len(tce.CancellationReasons) == 0 {
		return false
	}
	code := tce.CancellationReasons[0].Code
	return code != nil && *code == "ConditionalCheckFailed"
}

// Get fetches a sale by its composite sale_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, saleID string) (*SaleRecord, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"sale_id": &types.AttributeValueMemberS{Value: saleID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec SaleRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal sale: %w", err)
	}
	return &rec, nil
}

// ListBySession queries the session GSI and returns all sales recorded for
// one checkout session.
func (s *Store) ListBySession(ctx context.Context, sessionID string) ([]SaleRecord, error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.tableName,
		IndexName:              awsString(SessionIndex),
		KeyConditionExpression: awsString("session_id = :sid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sid": &types.AttributeValueMemberS{Value: sessionID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query sales by session: %w", err)
	}

	recs := make([]SaleRecord, 0, len(out.Items))
	for _, raw := range out.Items {
		var rec SaleRecord
		if err := attributevalue.UnmarshalMap(raw, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal sale: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// UpdateDeliveryStatus conditionally moves delivery_status from expected to
// newStatus. Returns ErrStatusMismatch if the record is not in the expected
// state, which the worker uses to detect duplicate or competing deliveries.
func (s *Store) UpdateDeliveryStatus(ctx context.Context, saleID, expectedStatus, newStatus string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"sale_id": &types.AttributeValueMemberS{Value: saleID},
		},
		UpdateExpression:    awsString("SET delivery_status = :new, updated_at = :ua"),
		ConditionExpression: awsString("delivery_status = :expected"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new":      &types.AttributeValueMemberS{Value: newStatus},
			":expected": &types.AttributeValueMemberS{Value: expectedStatus},
			":ua":       &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	}

	_, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrStatusMismatch
		}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException" {
			return ErrStatusMismatch
		}
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
