package router

import (
	"fmt"
	"strings"

	"github.com/vialpool-next/internal/cache"
	"github.com/vialpool-next/internal/config"
	adminhandlers "github.com/vialpool-next/internal/http/handlers/admin"
	publichandlers "github.com/vialpool-next/internal/http/handlers/public"
	"github.com/vialpool-next/internal/logger"
	"github.com/vialpool-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "vp"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.login_too_many",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.login_too_many",
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口：批次橱窗
		public := apiV1.Group("/public")
		{
			public.GET("/batches", publicHandler.GetBatches)
			public.GET("/batches/:id", publicHandler.GetBatch)
			public.GET("/batches/:id/offers", publicHandler.GetBatchOffers)
		}

		// 买家认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("phone")), publicHandler.UserLogin)
		}

		// 买家接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.GetCurrentUser)
			user.PUT("/me/profile", publicHandler.UpdateUserProfile)
			user.GET("/cart", publicHandler.GetCart)
			user.POST("/cart/items", publicHandler.AddCartItem)
			user.PUT("/cart/items/:offer_id", publicHandler.SetCartItemQuantity)
			user.DELETE("/cart/items/:offer_id", publicHandler.DeleteCartItem)
			user.POST("/checkout", publicHandler.Checkout)
			user.GET("/orders", publicHandler.GetMyOrders)
			user.GET("/orders/:id", publicHandler.GetMyOrder)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.AdminLogin)

			authorized := admin.Use(AdminJWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				authorized.GET("/me", adminHandler.GetCurrentAdmin)
				authorized.PUT("/password", adminHandler.UpdateAdminPassword)

				// 批次管理
				authorized.GET("/batches", adminHandler.GetAdminBatches)
				authorized.GET("/batches/:id", adminHandler.GetAdminBatch)
				authorized.POST("/batches", adminHandler.CreateBatch)
				authorized.PUT("/batches/:id", adminHandler.UpdateBatch)
				authorized.DELETE("/batches/:id", adminHandler.DeleteBatch)
				authorized.POST("/batches/:id/phase", adminHandler.TransitionBatchPhase)
				authorized.POST("/batches/:id/phase/override", adminHandler.OverrideBatchPhase)
				authorized.GET("/batches/:id/capacity", adminHandler.GetBatchCapacity)
				authorized.GET("/batches/:id/offers", adminHandler.GetAdminBatchOffers)
				authorized.POST("/batches/:id/offers", adminHandler.CreateOffer)
				authorized.GET("/phase-audit-logs", adminHandler.GetPhaseAuditLogs)

				// 报价管理
				authorized.PUT("/offers/:id", adminHandler.UpdateOffer)
				authorized.PATCH("/offers/:id/capacity", adminHandler.AdjustOfferCapacity)
				authorized.DELETE("/offers/:id", adminHandler.DeleteOffer)

				// 药品目录管理
				authorized.GET("/products", adminHandler.GetAdminProducts)
				authorized.GET("/products/:id", adminHandler.GetAdminProduct)
				authorized.POST("/products", adminHandler.CreateProduct)
				authorized.PUT("/products/:id", adminHandler.UpdateProduct)
				authorized.DELETE("/products/:id", adminHandler.DeleteProduct)

				// 订单管理
				authorized.GET("/orders", adminHandler.GetAdminOrders)
				authorized.GET("/orders/:id", adminHandler.GetAdminOrder)
				authorized.PATCH("/orders/:id/status", adminHandler.UpdateOrderStatus)
				authorized.POST("/orders/:id/cancel", adminHandler.CancelOrder)

				// 买家白名单管理
				authorized.GET("/buyers", adminHandler.GetAdminBuyers)
				authorized.GET("/buyers/:id", adminHandler.GetAdminBuyer)
				authorized.POST("/buyers", adminHandler.CreateBuyer)
				authorized.POST("/buyers/:id/access-code", adminHandler.ResetBuyerAccessCode)
				authorized.PATCH("/buyers/:id/status", adminHandler.UpdateBuyerStatus)

				// 权限管理
				authorized.GET("/authz/roles", adminHandler.GetRoles)
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetRolePolicies)
				authorized.POST("/authz/roles/:role/policies", adminHandler.GrantRolePolicy)
				authorized.DELETE("/authz/roles/:role/policies", adminHandler.RevokeRolePolicy)
				authorized.GET("/authz/admins/:id/roles", adminHandler.GetAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAdminRoles)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
