package provider

import (
	"github.com/vialpool-next/internal/authz"
	"github.com/vialpool-next/internal/cache"
	"github.com/vialpool-next/internal/config"
	"github.com/vialpool-next/internal/logger"
	"github.com/vialpool-next/internal/models"
	"github.com/vialpool-next/internal/queue"
	"github.com/vialpool-next/internal/repository"
	"github.com/vialpool-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo         repository.AdminRepository
	UserRepo          repository.UserRepository
	BatchRepo         repository.BatchRepository
	ProductRepo       repository.ProductRepository
	OfferRepo         repository.OfferRepository
	CartRepo          repository.CartRepository
	OrderRepo         repository.OrderRepository
	PhaseAuditLogRepo repository.PhaseAuditLogRepository

	// Services
	AuthzService    *authz.Service
	AuthService     *service.AuthService
	UserAuthService *service.UserAuthService
	BuyerService    *service.BuyerService
	BatchService    *service.BatchService
	ProductService  *service.ProductService
	OfferService    *service.OfferService
	CapacityService *service.CapacityService
	CartService     *service.CartService
	CheckoutService *service.CheckoutService
	OrderService    *service.OrderService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.BatchRepo = repository.NewBatchRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.OfferRepo = repository.NewOfferRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PhaseAuditLogRepo = repository.NewPhaseAuditLogRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.BuyerService = service.NewBuyerService(c.UserRepo)
	c.BatchService = service.NewBatchService(c.BatchRepo, c.OfferRepo, c.OrderRepo, c.PhaseAuditLogRepo)
	c.ProductService = service.NewProductService(c.ProductRepo)
	c.OfferService = service.NewOfferService(c.OfferRepo, c.BatchRepo, c.ProductRepo, c.QueueClient)
	c.CapacityService = service.NewCapacityService(c.OfferRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.OfferRepo, c.BatchRepo)
	c.CheckoutService = service.NewCheckoutService(c.CartRepo, c.OfferRepo, c.OrderRepo, c.BatchRepo, c.UserRepo, c.CapacityService, c.QueueClient)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.CapacityService, c.QueueClient)
}
