package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/controller"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/middleware"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/model"
)

// Controllers 控制器集合
type Controllers struct {
	Auth         *controller.AuthController
	Product      *controller.ProductController
	Order        *controller.OrderController
	Subscription *controller.SubscriptionController
	Billing      *controller.BillingController
	Ad           *controller.AdController
	Plan         *controller.PlanController
}

// SetupRouter 注册所有路由
func SetupRouter(ctrls *Controllers) *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default())

	// Swagger 文档路由
	// 访问 http://localhost:8080/swagger/index.html 即可查看
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	{
		// auth 鉴权组（无 token）
		auth := api.Group("/auth")
		{
			auth.POST("/register", ctrls.Auth.Register)
			auth.POST("/login", ctrls.Auth.Login)
			auth.POST("/refresh", ctrls.Auth.RefreshToken)
		}

		// Stripe 回调（签名校验在 service 层，无 token）
		api.POST("/billing/webhook", ctrls.Billing.Webhook)

		// Shopify 授权回跳（商户身份由 state 关联，无 token）
		api.GET("/auth/store/callback", ctrls.Auth.StoreCallback)

		// 以下路由需要登录
		authed := api.Group("")
		authed.Use(middleware.JWTAuth())
		{
			authed.GET("/auth/profile", ctrls.Auth.GetProfile)
			authed.POST("/auth/store/connect", ctrls.Auth.ConnectStore)

			// catalog 全局商品目录
			catalog := authed.Group("/catalog/products")
			{
				catalog.GET("", ctrls.Product.SearchCatalog)
				// 供应商建目录
				catalog.POST("", middleware.RequireRole(model.RoleSupplier), ctrls.Product.CreateCatalogProduct)
			}

			// products 商户商品
			products := authed.Group("/products")
			{
				products.GET("", ctrls.Product.List)
				products.GET("/:id", ctrls.Product.GetDetail)
				products.POST("/import", ctrls.Product.ImportProduct)
				products.PUT("/:id/price", ctrls.Product.Reprice)
				products.POST("/bulk-reprice", ctrls.Product.BulkReprice)
				products.DELETE("/:id", ctrls.Product.Remove)
				products.POST("/:id/push", ctrls.Product.PushToStore)
			}

			// orders 订单
			orders := authed.Group("/orders")
			{
				orders.GET("", ctrls.Order.List)
				orders.GET("/stats", ctrls.Order.GetStats)
				orders.GET("/:id", ctrls.Order.GetDetail)
				orders.POST("", ctrls.Order.Create)
				orders.POST("/:id/pay", ctrls.Order.MarkPaid)
				orders.PUT("/:id/fulfillment", ctrls.Order.UpdateItemFulfillment)
				orders.POST("/:id/cancel", ctrls.Order.Cancel)
			}

			// subscription 订阅与用量
			subscription := authed.Group("/subscription")
			{
				subscription.GET("", ctrls.Subscription.GetSubscription)
				subscription.GET("/usage", ctrls.Subscription.GetUsage)
				subscription.PUT("/plan", ctrls.Subscription.ChangePlan)
			}

			// team 团队成员
			team := authed.Group("/team/members")
			{
				team.GET("", ctrls.Subscription.ListTeamMembers)
				team.POST("", ctrls.Subscription.InviteTeamMember)
				team.DELETE("/:id", ctrls.Subscription.RemoveTeamMember)
			}

			// billing 计费
			billing := authed.Group("/billing")
			{
				billing.POST("/checkout", ctrls.Billing.CreateCheckout)
				billing.POST("/portal", ctrls.Billing.CreatePortal)
			}

			// ads 广告创意
			ads := authed.Group("/ads")
			{
				ads.GET("", ctrls.Ad.List)
				ads.GET("/:id", ctrls.Ad.GetDetail)
				ads.POST("/generate", ctrls.Ad.Generate)
			}

			// plans 套餐展示
			authed.GET("/plans", ctrls.Plan.ListPublic)

			// admin 管理端
			admin := authed.Group("/admin")
			admin.Use(middleware.RequireRole(model.RoleAdmin))
			{
				admin.GET("/plans", ctrls.Plan.ListAll)
				admin.POST("/plans", ctrls.Plan.Create)
				admin.PUT("/plans/:id", ctrls.Plan.Update)
				admin.DELETE("/plans/:id", ctrls.Plan.Deactivate)
			}
		}
	}

	return r
}
