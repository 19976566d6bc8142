package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/controller"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/middleware"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/model"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/repository"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/router"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/service"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/internal/task"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/pkg/database"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/pkg/shopify"
	"github.com/sushila-owner/ShopifyMultiTenant-sub002/pkg/stripe"
)

func main() {
	// 1. 加载环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}

	// 2. 初始化数据库
	db := initDatabase()

	// 3. 初始化依赖
	deps := initDependencies(db)

	// 4. 启动定时任务
	initTasks(deps)

	// 5. 初始化路由
	r := router.SetupRouter(deps.Controllers)

	// 6. 启动服务
	startServer(r)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
}

// Repositories 仓库集合
type Repositories struct {
	Merchant     repository.MerchantRepository
	Plan         repository.PlanRepository
	Subscription repository.SubscriptionRepository
	Product      repository.ProductRepository
	Order        repository.OrderRepository
	AdCreative   repository.AdCreativeRepository
	Uow          *repository.UnitOfWork
}

// Services 服务集合
type Services struct {
	Auth         *service.AuthService
	Subscription *service.SubscriptionService
	Product      *service.ProductService
	Catalog      *service.CatalogService
	Order        *service.OrderService
	Billing      *service.BillingService
	Ad           *service.AdService
	Plan         *service.PlanService
	AI           *service.AIService
	Storage      service.StorageProvider
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase() *gorm.DB {
	dsn := getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=dropship_hub port=5432 sslmode=disable")
	return database.InitDB(dsn,
		// Merchant
		&model.Merchant{}, &model.TeamMember{}, &model.Supplier{},
		// Subscription
		&model.Plan{}, &model.Subscription{},
		// Product
		&model.Product{},
		// Order
		&model.Order{},
		// Ad
		&model.AdCreative{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB) *Dependencies {
	// -------- JWT 配置 --------
	if secret := getEnv("JWT_SECRET", ""); secret != "" {
		cfg := middleware.DefaultJWTConfig()
		cfg.SecretKey = secret
		middleware.SetJWTConfig(cfg)
	}

	// -------- Repo 层 --------
	repos := initRepositories(db)

	// -------- 外部客户端 --------
	shopifyClient := shopify.NewClient(&shopify.Config{
		ApiKey:    getEnv("SHOPIFY_API_KEY", ""),
		ApiSecret: getEnv("SHOPIFY_API_SECRET", ""),
		ApiVer:    getEnv("SHOPIFY_API_VERSION", ""),
	})
	stripeClient := stripe.NewClient(getEnv("STRIPE_SECRET_KEY", ""))

	// -------- 存储 & AI --------
	storageProvider := initStorageProvider()
	aiSvc := service.NewAIService(
		getEnv("GEMINI_API_KEY", ""),
		getEnv("GEMINI_MODEL", ""),
	)

	// -------- 业务服务 --------
	services := &Services{
		AI:      aiSvc,
		Storage: storageProvider,
	}

	subscriptionSvc, err := service.NewSubscriptionService(
		repos.Uow, repos.Plan,
		repos.Product, repos.Order, repos.Merchant,
		&service.SubscriptionConfig{
			FreeForLifeThresholdCents: mustEnvInt64("FREE_FOR_LIFE_THRESHOLD_CENTS"),
			TrialDays:                 getEnvInt("TRIAL_DAYS", 14),
		},
	)
	if err != nil {
		logrus.Fatalf("订阅服务初始化失败: %v", err)
	}
	services.Subscription = subscriptionSvc

	services.Auth = service.NewAuthService(repos.Merchant, subscriptionSvc, shopifyClient)
	services.Product = service.NewProductService(repos.Uow, subscriptionSvc, shopifyClient, repos.Merchant)
	services.Catalog = service.NewCatalogService(repos.Product, aiSvc)
	services.Order = service.NewOrderService(repos.Uow, repos.Product, subscriptionSvc, subscriptionSvc)
	services.Billing = service.NewBillingService(
		repos.Subscription, repos.Plan, stripeClient, subscriptionSvc,
		&service.BillingConfig{
			SuccessURL: getEnv("BILLING_SUCCESS_URL", "http://localhost:3000/billing/success"),
			CancelURL:  getEnv("BILLING_CANCEL_URL", "http://localhost:3000/billing/cancel"),
			PortalURL:  getEnv("BILLING_PORTAL_RETURN_URL", "http://localhost:3000/settings"),
		},
	)
	services.Ad = service.NewAdService(
		repos.AdCreative, repos.Product, subscriptionSvc, aiSvc,
		storageProvider, aiSvc.ModelVersion,
	)
	services.Plan = service.NewPlanService(repos.Plan)

	// -------- Controller 层 --------
	controllers := initControllers(services)

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
	}
}

// initRepositories 初始化所有仓库
func initRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Merchant:     repository.NewMerchantRepository(db),
		Plan:         repository.NewPlanRepository(db),
		Subscription: repository.NewSubscriptionRepository(db),
		Product:      repository.NewProductRepository(db),
		Order:        repository.NewOrderRepository(db),
		AdCreative:   repository.NewAdCreativeRepository(db),
		Uow:          repository.NewUnitOfWork(db),
	}
}

// initStorageProvider 初始化存储
func initStorageProvider() service.StorageProvider {
	provider, err := service.NewStorageProvider(&service.StorageConfig{
		Provider:  getEnv("STORAGE_PROVIDER", "s3"),
		Bucket:    getEnv("AWS_BUCKET", ""),
		Region:    getEnv("AWS_REGION", ""),
		AccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		CDNDomain: getEnv("AWS_CDN_DOMAIN", ""),
		BasePath:  getEnv("STORAGE_BASE_PATH", "dropship-hub"),
		BaseURL:   getEnv("STORAGE_BASE_URL", ""),
	})
	if err != nil {
		// 存储不可用时广告创意沿用商品原图，不阻塞启动
		logrus.Warnf("存储服务初始化失败: %v", err)
		return nil
	}
	return provider
}

// initControllers 初始化所有控制器
func initControllers(svc *Services) *router.Controllers {
	return &router.Controllers{
		Auth:         controller.NewAuthController(svc.Auth),
		Product:      controller.NewProductController(svc.Product, svc.Catalog),
		Order:        controller.NewOrderController(svc.Order),
		Subscription: controller.NewSubscriptionController(svc.Subscription),
		Billing:      controller.NewBillingController(svc.Billing),
		Ad:           controller.NewAdController(svc.Ad),
		Plan:         controller.NewPlanController(svc.Plan),
	}
}

// ==================== 定时任务 ====================

// initTasks 初始化定时任务
func initTasks(deps *Dependencies) {
	// 每日广告配额重置
	usageReset := task.NewUsageResetTask(deps.Repos.Subscription)
	usageReset.Start()

	// 计费周期巡检
	billingSweep := task.NewBillingSweepTask(deps.Repos.Subscription)
	billingSweep.Start()

	log.Println("定时任务已启动")
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r http.Handler) {
	port := getEnv("SERVER_PORT", "8080")

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// mustEnvInt64 读取必填的整型环境变量，缺失或非法时直接退出
func mustEnvInt64(key string) int64 {
	value := os.Getenv(key)
	if value == "" {
		logrus.Fatalf("环境变量 %s 未配置", key)
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		logrus.Fatalf("环境变量 %s 非法: %q", key, value)
	}
	return n
}
