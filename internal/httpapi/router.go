package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"shopnex/internal/metrics"
)

// RouterOptions tunes the middleware stack.
type RouterOptions struct {
	Logger         *slog.Logger
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter registers the catalog routes. Product-by-id routes answer on
// both /products/:id and the singular /product/:id.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		WithRequestID(),
		WithLogging(logger),
		WithMetrics(),
		WithCORS(opts.CORSOrigins),
		WithRateLimit(opts.RateLimitRPS, opts.RateLimitBurst),
	)
	r.NoRoute(func(c *gin.Context) {
		WriteJSONError(c, http.StatusNotFound, "Route Not Found")
	})

	r.GET("/", h.root)
	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	r.POST("/products", h.createProduct)
	r.GET("/products", h.listProducts)
	r.GET("/products/user/:email", h.listProductsByOwner)

	for _, base := range []string{"/products/:id", "/product/:id"} {
		r.GET(base, h.getProduct)
		r.PUT(base, h.updateProduct)
		r.DELETE(base, h.deleteProduct)
	}
	return r
}
