package provider

import (
	"github.com/emberline/storefront/internal/cache"
	"github.com/emberline/storefront/internal/config"
	"github.com/emberline/storefront/internal/logger"
	"github.com/emberline/storefront/internal/models"
	"github.com/emberline/storefront/internal/queue"
	"github.com/emberline/storefront/internal/repository"
	"github.com/emberline/storefront/internal/service"
)

// Container wires repositories and services together for the HTTP and worker
// entry points.
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo    repository.UserRepository
	ProductRepo repository.ProductRepository
	CartRepo    repository.CartRepository
	OrderRepo   repository.OrderRepository

	// Services
	UserAuthService    *service.UserAuthService
	EmailService       *service.EmailService
	CartService        *service.CartService
	OrderService       *service.OrderService
	CheckoutService    *service.CheckoutService
	FulfillmentService *service.FulfillmentService
}

// NewContainer initializes the container.
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

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
	c.initRepositories()
	c.initServices()
	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
}

func (c *Container) initServices() {
	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo)
	c.OrderService = service.NewOrderService(c.OrderRepo)
	c.CheckoutService = service.NewCheckoutService(c.ProductRepo, c.Config.Payment, c.Config.Checkout)
	c.FulfillmentService = service.NewFulfillmentService(c.OrderRepo, c.CartRepo, c.QueueClient, c.Config.Payment)
}
