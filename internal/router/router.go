package router

import (
	"net/http"

	"github.com/emberline/storefront/internal/cache"
	"github.com/emberline/storefront/internal/config"
	"github.com/emberline/storefront/internal/http/handlers/backoffice"
	"github.com/emberline/storefront/internal/http/handlers/public"
	"github.com/emberline/storefront/internal/logger"
	"github.com/emberline/storefront/internal/provider"

	"github.com/gin-gonic/gin"
)

// Setup builds the HTTP engine with all routes registered.
func Setup(cfg *config.Config, container *provider.Container) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		RequestIDMiddleware(),
		LoggerMiddleware(logger.Z()),
		CORSMiddleware(cfg.CORS),
	)

	publicHandler := public.New(container)
	backofficeHandler := backoffice.New(container)
	redisClient := cache.Client()

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.GET("/products", publicHandler.ListProducts)
		api.GET("/products/:slug", publicHandler.GetProduct)

		auth := api.Group("/auth")
		{
			loginLimit := RateLimitMiddleware(redisClient, RateLimitRule{
				Prefix:        "rl:login",
				WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
				MaxRequests:   cfg.Security.LoginRateLimit.MaxRequests,
			}, KeyByIPAndJSONField("email"))
			auth.POST("/register", loginLimit, publicHandler.Register)
			auth.POST("/login", loginLimit, publicHandler.Login)
		}

		checkout := api.Group("/checkout")
		checkout.Use(OptionalUserJWTAuthMiddleware(cfg.UserJWT.SecretKey, container.UserRepo))
		{
			checkout.POST("/session", RateLimitMiddleware(redisClient, RateLimitRule{
				Prefix:        "rl:checkout",
				WindowSeconds: cfg.Security.CheckoutRateLimit.WindowSeconds,
				MaxRequests:   cfg.Security.CheckoutRateLimit.MaxRequests,
			}, KeyByIP), publicHandler.CreateCheckoutSession)
			checkout.GET("/session/status", RateLimitMiddleware(redisClient, RateLimitRule{
				Prefix:        "rl:checkout_status",
				WindowSeconds: cfg.Security.StatusRateLimit.WindowSeconds,
				MaxRequests:   cfg.Security.StatusRateLimit.MaxRequests,
			}, KeyByIP), publicHandler.CheckoutSessionStatus)
		}

		api.POST("/webhooks/payment", publicHandler.PaymentWebhook)

		me := api.Group("/me")
		me.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, container.UserRepo))
		{
			me.GET("/profile", publicHandler.Me)
			me.GET("/cart", publicHandler.GetCart)
			me.PUT("/cart/items", publicHandler.UpsertCartItem)
			me.DELETE("/cart/items/:product_id", publicHandler.DeleteCartItem)
			me.DELETE("/cart", publicHandler.ClearCart)
			me.POST("/cart/merge", publicHandler.MergeCart)
			me.GET("/orders", publicHandler.ListOrders)
			me.GET("/orders/:id", publicHandler.GetOrder)
		}

		bo := api.Group("/backoffice")
		bo.Use(BackofficeTokenMiddleware(cfg.Security.BackofficeToken))
		{
			bo.POST("/orders/:id/status", backofficeHandler.TransitionOrderStatus)
		}
	}

	return r
}
