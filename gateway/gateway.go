package gateway

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/ninadsuryawanshi/kanchuki-natyavishwa/docs"
	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/config"
	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/inventory"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

const adminHeader = "X-Admin-Code"

type Gateway struct {
	config  *config.Config
	service *inventory.Service
	logger  *zap.Logger
	router  *gin.Engine
	server  *http.Server
}

func NewGateway(cfg *config.Config, logger *zap.Logger, svc *inventory.Service) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	g := &Gateway{
		config:  cfg,
		service: svc,
		logger:  logger,
		router:  router,
	}
	g.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return g
}

func (g *Gateway) SetupRoutes() {
	// Health check
	g.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// The storefront pages call /api/...; both prefixes serve the same API.
	for _, base := range []string{"/", "/api"} {
		g.registerAPI(g.router.Group(base))
	}

	// Swagger
	g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (g *Gateway) registerAPI(r *gin.RouterGroup) {
	admin := g.requireAdmin()

	products := r.Group("/products")
	{
		products.GET("", g.listProducts)
		products.GET("/:id", g.getProduct)
		products.POST("", admin, g.createProduct)
		products.PUT("/:id", admin, g.updateProduct)
		products.DELETE("/:id", admin, g.deleteProduct)
		products.GET("/:id/audit", admin, g.stockHistory)
	}

	orders := r.Group("/orders")
	{
		orders.GET("", g.listOrders)
		orders.POST("", g.createOrder)
		orders.PUT("/:id", admin, g.updateOrderStatus)
	}

	r.GET("/seed", admin, g.seed)
	r.POST("/admin/login", g.adminLogin)
}

func (g *Gateway) Handler() http.Handler {
	return g.router
}

func (g *Gateway) Start() error {
	g.logger.Info("Gateway starting", zap.String("address", g.server.Addr))
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	return g.server.Shutdown(ctx)
}

// requireAdmin checks the shared admin code when one is configured.
func (g *Gateway) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if g.config.Admin.Code == "" {
			c.Next()
			return
		}
		if !g.validAdminCode(c.GetHeader(adminHeader)) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid admin code"})
			return
		}
		c.Next()
	}
}

func (g *Gateway) validAdminCode(code string) bool {
	return subtle.ConstantTimeCompare([]byte(code), []byte(g.config.Admin.Code)) == 1
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
