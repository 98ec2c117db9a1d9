package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/mercadillo-app/storefront/docs"
	"github.com/mercadillo-app/storefront/internal/auth"
	"github.com/mercadillo-app/storefront/internal/cache"
	"github.com/mercadillo-app/storefront/internal/cart"
	"github.com/mercadillo-app/storefront/internal/catalog"
	"github.com/mercadillo-app/storefront/internal/checkout"
	"github.com/mercadillo-app/storefront/internal/config"
	"github.com/mercadillo-app/storefront/internal/coupon"
	"github.com/mercadillo-app/storefront/internal/httpx"
	"github.com/mercadillo-app/storefront/internal/order"
	"github.com/mercadillo-app/storefront/internal/telemetry"
)

// @title Mercadillo Storefront API
// @version 1.0
// @description Marketplace storefront: catalog, cart, coupons, atomic checkout and order views.
// @BasePath /
func main() {
	cfg := config.Load()
	ctx := context.Background()

	shutdownTracing, err := telemetry.Init("storefront")
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	defer func() { _ = shutdownTracing(ctx) }()

	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	rc := cache.New(cfg.RedisAddr, cfg.CacheTTL)
	defer rc.Close()

	var verifier auth.Verifier
	var authClient *auth.Client
	if cfg.AuthBaseURL != "" {
		authClient, err = auth.NewClient(cfg.AuthBaseURL, cfg.AuthHealthAddr)
		if err != nil {
			log.Fatalf("auth: %v", err)
		}
		verifier = authClient
	}

	catalogRepo := catalog.NewPGRepo(pool)
	orderRepo := order.NewPGRepo(pool)
	carts := cart.NewStore()
	coupons := coupon.NewEngine(coupon.DefaultCatalog())
	orch := checkout.New(carts, coupons, orderRepo, rc)
	notices := newNotifier(carts)

	sweeper := catalog.NewSweeper(catalogRepo, cfg.SweepInterval)
	sweeper.Start()
	defer sweeper.Stop()

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger())

	r.GET("/healthz", func(c *gin.Context) {
		if err := pool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "postgres down"})
			return
		}
		status := gin.H{"status": "ok"}
		if err := rc.Ping(c.Request.Context()); err != nil {
			status["cache"] = "down"
		}
		if authClient != nil && !authClient.Healthy(c.Request.Context()) {
			status["auth"] = "down"
		}
		c.JSON(http.StatusOK, status)
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/products", listProductsHandler(catalogRepo, rc))
	r.GET("/products/:id", getProductHandler(catalogRepo))
	r.POST("/products", createProductHandler(catalogRepo, rc))
	r.PUT("/products/:id", updateProductHandler(catalogRepo, rc))
	r.DELETE("/products/:id", deleteProductHandler(catalogRepo, rc))

	authed := r.Group("/", identity(verifier))
	authed.GET("/cart", getCartHandler(orch))
	authed.POST("/cart/items", addCartItemHandler(carts, catalogRepo))
	authed.PUT("/cart/items/:product_id", updateCartItemHandler(carts))
	authed.DELETE("/cart/items/:product_id", removeCartItemHandler(carts))
	authed.POST("/cart/coupon", applyCouponHandler(coupons))
	authed.DELETE("/cart/coupon", removeCouponHandler(coupons))
	authed.POST("/checkout", checkoutHandler(orch))
	authed.GET("/notifications", notificationsHandler(notices))
	authed.GET("/users/:user_id/orders", listUserOrdersHandler(orderRepo, rc))
	authed.GET("/vendors/:vendor_id/orders", listVendorOrdersHandler(orderRepo, rc))
	authed.PUT("/orders/:id/status", updateOrderStatusHandler(orderRepo, rc))

	log.Printf("storefront-service listening on %s", cfg.StorefrontAddr)
	log.Fatal(r.Run(cfg.StorefrontAddr))
}
