package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/pocketshop/storefront-checkout/internal/aws"
	"github.com/pocketshop/storefront-checkout/internal/checkout"
	"github.com/pocketshop/storefront-checkout/internal/products"
	"github.com/pocketshop/storefront-checkout/internal/sales"
	"github.com/pocketshop/storefront-checkout/internal/validation"
)

// HandlerConfig groups dependencies for the storefront routes.
type HandlerConfig struct {
	DynamoDBClient   aws.DynamoDBAPI
	SQSClient        aws.SQSAPI
	CloudWatchClient aws.CloudWatchAPI
	Provider         checkout.PaymentProvider
	SalesTable       string
	ProductsTable    string
	QueueURL         string
	MetricsNamespace string
}

// saleEventPublisher adapts the SQS publisher to the checkout service's
// SalePublisher interface by marshalling events to JSON message bodies.
type saleEventPublisher struct {
	publisher *aws.Publisher
}

func (p *saleEventPublisher) PublishSaleRecorded(ctx context.Context, ev checkout.SaleRecordedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	attrs := map[string]string{
		"sale_id":    ev.SaleID,
		"session_id": ev.SessionID,
		"product_id": ev.ProductID,
	}
	return p.publisher.SendSaleMessage(ctx, string(body), attrs)
}

// RegisterRoutes wires all storefront routes onto the router.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	saleStore := sales.NewStore(cfg.DynamoDBClient, cfg.SalesTable, cfg.ProductsTable)
	productStore := products.NewStore(cfg.DynamoDBClient, cfg.ProductsTable)

	var publisher checkout.SalePublisher
	if cfg.SQSClient != nil && cfg.QueueURL != "" {
		publisher = &saleEventPublisher{publisher: aws.NewPublisher(cfg.SQSClient, cfg.QueueURL)}
	}
	var metrics checkout.MetricsSink
	if cfg.CloudWatchClient != nil {
		metrics = aws.NewMetrics(cfg.CloudWatchClient, cfg.MetricsNamespace)
	}

	svc := checkout.NewService(cfg.Provider, saleStore, publisher, metrics)

	registerCheckoutRoutes(r, v, svc)
	registerCatalogRoutes(r, v, productStore, saleStore)
}

func registerCheckoutRoutes(r *gin.Engine, v *validatorv10.Validate, svc *checkout.Service) {
	r.POST("/checkout/sessions", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.CreateCheckoutRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		items := make([]checkout.CartItem, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, checkout.CartItem{
				ID:          it.ID,
				Name:        it.Name,
				Description: it.Description,
				Price:       it.Price,
				ImageURL:    it.ImageURL,
				FileURL:     it.FileURL,
			})
		}

		sess, err := svc.CreateSession(ctx, items)
		if err != nil {
			if errors.Is(err, checkout.ErrEmptyCart) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "empty_cart"})
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": "provider_unavailable", "detail": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"session_id": sess.ID, "url": sess.URL})
	})

	r.GET("/checkout/sessions/verify", func(c *gin.Context) {
		ctx := c.Request.Context()

		sessionID := c.Query("session_id")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_session_id"})
			return
		}

		result, err := svc.VerifySession(ctx, sessionID)
		if err != nil {
			switch {
			case errors.Is(err, checkout.ErrMissingSessionID):
				c.JSON(http.StatusBadRequest, gin.H{"error": "missing_session_id"})
			case errors.Is(err, checkout.ErrPaymentIncomplete):
				c.JSON(http.StatusPaymentRequired, gin.H{"error": "payment_incomplete"})
			default:
				c.JSON(http.StatusBadGateway, gin.H{"error": "verification_failed", "detail": err.Error()})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"session_id": result.SessionID,
			"line_items": result.LineItems,
			"recorded":   result.Recorded,
			"skipped":    result.Skipped,
		})
	})
}
