package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pocketshop/storefront-checkout/internal/products"
	"github.com/pocketshop/storefront-checkout/internal/sales"
	"github.com/pocketshop/storefront-checkout/internal/validation"
)

func registerCatalogRoutes(r *gin.Engine, v *validatorv10.Validate, productStore *products.Store, saleStore *sales.Store) {
	r.GET("/products", func(c *gin.Context) {
		items, err := productStore.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "store_unavailable", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": items})
	})

	r.GET("/products/:id", func(c *gin.Context) {
		p, err := productStore.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "store_unavailable", "detail": err.Error()})
			return
		}
		if p == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "product_not_found"})
			return
		}
		c.JSON(http.StatusOK, p)
	})

	// Admin seeding endpoint. Auth sits in front of this service; the
	// storefront dashboard is the only caller.
	r.POST("/products", func(c *gin.Context) {
		var req validation.CreateProductRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		p := products.Product{
			ProductID:   uuid.NewString(),
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			ImageURL:    req.ImageURL,
			FileURL:     req.FileURL,
		}
		if err := productStore.Put(c.Request.Context(), p); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "store_unavailable", "detail": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"product_id": p.ProductID})
	})

	// Admin ledger view: all sales recorded for one checkout session.
	r.GET("/sales", func(c *gin.Context) {
		sessionID := c.Query("session_id")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_session_id"})
			return
		}
		recs, err := saleStore.ListBySession(c.Request.Context(), sessionID)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "store_unavailable", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sales": recs})
	})
}
