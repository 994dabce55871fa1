package gateway

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/inventory"
	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/models"
	"go.uber.org/zap"
)

type statusRequest struct {
	Status models.Status `json:"status"`
}

type loginRequest struct {
	Code string `json:"code"`
}

// writeError maps service errors onto HTTP statuses.
func (g *Gateway) writeError(c *gin.Context, err error) {
	var ierr *inventory.Error
	switch {
	case errors.Is(err, inventory.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, inventory.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &ierr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + ierr.Op})
	default:
		g.logger.Error("Unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
}

// listProducts godoc
// @Summary List all products
// @Tags products
// @Produce json
// @Success 200 {array} models.Product
// @Router /products [get]
func (g *Gateway) listProducts(c *gin.Context) {
	products, err := g.service.ListProducts(c.Request.Context())
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// getProduct godoc
// @Summary Get one product
// @Tags products
// @Produce json
// @Param id path string true "Product id"
// @Success 200 {object} models.Product
// @Router /products/{id} [get]
func (g *Gateway) getProduct(c *gin.Context) {
	product, err := g.service.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// createProduct godoc
// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Param product body models.ProductInput true "Product"
// @Success 200 {object} models.Product
// @Router /products [post]
func (g *Gateway) createProduct(c *gin.Context) {
	var req models.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	product, err := g.service.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// updateProduct godoc
// @Summary Update product fields
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "Product id"
// @Param patch body models.ProductPatch true "Fields to change"
// @Success 200 {object} models.Product
// @Router /products/{id} [put]
func (g *Gateway) updateProduct(c *gin.Context) {
	var req models.ProductPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	product, err := g.service.UpdateProduct(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// deleteProduct godoc
// @Summary Delete a product
// @Tags products
// @Produce json
// @Param id path string true "Product id"
// @Success 200 {object} map[string]bool
// @Router /products/{id} [delete]
func (g *Gateway) deleteProduct(c *gin.Context) {
	if err := g.service.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// stockHistory godoc
// @Summary Stock movements of a product, newest first
// @Tags products
// @Produce json
// @Param id path string true "Product id"
// @Param limit query int false "Maximum entries (1-500)"
// @Success 200 {array} repository.AuditLog
// @Router /products/{id}/audit [get]
func (g *Gateway) stockHistory(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", strconv.Itoa(inventory.DefaultHistoryLimit)), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a number"})
		return
	}

	logs, err := g.service.StockHistory(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

// listOrders godoc
// @Summary List all orders, newest first
// @Tags orders
// @Produce json
// @Success 200 {array} models.Order
// @Router /orders [get]
func (g *Gateway) listOrders(c *gin.Context) {
	orders, err := g.service.ListOrders(c.Request.Context())
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// createOrder godoc
// @Summary Book costumes
// @Tags orders
// @Accept json
// @Produce json
// @Param order body models.OrderInput true "Booking"
// @Success 200 {object} models.Order
// @Failure 400 {object} map[string]string
// @Router /orders [post]
func (g *Gateway) createOrder(c *gin.Context) {
	var req models.OrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := g.service.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// updateOrderStatus godoc
// @Summary Change an order's status
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order id"
// @Param status body statusRequest true "New status"
// @Success 200 {object} models.Order
// @Router /orders/{id} [put]
func (g *Gateway) updateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := g.service.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// seed godoc
// @Summary Replace all data with the fixture files
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /seed [get]
func (g *Gateway) seed(c *gin.Context) {
	fixtures, err := inventory.LoadFixtures(g.config.Seed.ProductsFile, g.config.Seed.OrdersFile)
	if err != nil {
		g.logger.Error("Failed to load fixtures", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result, err := g.service.Seed(c.Request.Context(), fixtures)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  result.Message(),
		"products": result.Products,
		"orders":   result.Orders,
	})
}

// adminLogin godoc
// @Summary Verify the admin code
// @Tags admin
// @Accept json
// @Produce json
// @Param login body loginRequest true "Admin code"
// @Success 200 {object} map[string]bool
// @Failure 401 {object} map[string]string
// @Router /admin/login [post]
func (g *Gateway) adminLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if g.config.Admin.Code != "" && !g.validAdminCode(req.Code) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid admin code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
