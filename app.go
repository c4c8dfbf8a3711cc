package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"pharmacy/internal/catalog"
	"pharmacy/internal/config"
	"pharmacy/internal/handlers"
	"pharmacy/internal/middleware"
	"pharmacy/internal/models"
	"pharmacy/internal/repositories"
	"pharmacy/internal/services"
	"pharmacy/pkg/cache"
	"pharmacy/pkg/rabbitmq"
)

// App wires the storefront together.
type App struct {
	cfg   config.Config
	http  *fiber.App
	db    *gorm.DB
	mq    *rabbitmq.Client
	cache *cache.Cache
	sched *cron.Cron

	catalog    *services.CatalogService
	products   *services.ProductService
	categories *services.CategoryService
}

type repositorySet struct {
	products   repositories.ProductRepository
	categories repositories.CategoryRepository
	orders     repositories.OrderRepository
	reviews    repositories.ReviewRepository
}

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// NewApp builds every dependency named by cfg. RabbitMQ and Redis are
// optional: an empty address disables them. The catalog is loaded once; a
// failed initial load is logged and an empty catalog is served until the
// next refresh.
func NewApp(cfg config.Config) (*App, error) {
	a := &App{cfg: cfg}

	repos, err := a.openRepositories()
	if err != nil {
		return nil, err
	}

	var events services.EventPublisher
	if cfg.RabbitMQURL != "" {
		a.mq, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Exchange: cfg.RabbitMQExchange})
		if err != nil {
			a.Close()
			return nil, err
		}
		events = a.mq
	}

	var source catalog.Source = services.NewRepositorySource(repos.products, repos.categories)
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		a.cache, err = cache.Connect(ctx, cache.Config{RedisAddr: cfg.RedisAddr, Prefix: cfg.RedisPrefix, TTL: cfg.RedisTTL})
		cancel()
		if err != nil {
			a.Close()
			return nil, err
		}
		source = services.NewFallbackSource(source, a.cache)
	}

	store := catalog.NewStore(source)
	a.catalog = services.NewCatalogService(store, cfg.CatalogPageSize, events)
	a.products = services.NewProductService(repos.products, a.catalog)
	a.categories = services.NewCategoryService(repos.categories, a.catalog)
	orderService := services.NewOrderService(repos.orders, repos.products, events, a.catalog)
	reviewService := services.NewReviewService(repos.reviews, repos.products, a.catalog)

	a.http = fiber.New(fiber.Config{AppName: "pharmacy"})
	a.http.Use(recover.New())
	a.http.Use(requestid.New())
	a.http.Use(middleware.RequestLogger())

	health := handlers.NewHealthHandler(a.catalog, a.healthChecks())
	health.RegisterRoutes(a.http)

	api := a.http.Group("/api")
	health.RegisterRoutes(api)
	handlers.NewCatalogHandler(a.catalog).RegisterRoutes(api)
	handlers.NewProductHandler(a.products).RegisterRoutes(api)
	handlers.NewCategoryHandler(a.categories).RegisterRoutes(api)
	handlers.NewOrderHandler(orderService).RegisterRoutes(api)
	handlers.NewReviewHandler(reviewService).RegisterRoutes(api)

	if _, _, err := a.catalog.Refresh(context.Background()); err != nil {
		zap.L().Warn("initial catalog load failed, serving an empty catalog", zap.Error(err))
	}
	return a, nil
}

func (a *App) openRepositories() (repositorySet, error) {
	var dialector gorm.Dialector
	switch a.cfg.DatabaseDriver {
	case "memory":
		return repositorySet{
			products:   repositories.NewMockProductRepository(),
			categories: repositories.NewMockCategoryRepository(),
			orders:     repositories.NewMockOrderRepository(),
			reviews:    repositories.NewMockReviewRepository(),
		}, nil
	case "postgres":
		dialector = postgres.Open(a.cfg.DatabaseDSN)
	case "sqlite", "":
		dialector = sqlite.Open(a.cfg.DatabaseDSN)
	default:
		return repositorySet{}, fmt.Errorf("unsupported database driver %q", a.cfg.DatabaseDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return repositorySet{}, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.Category{}, &models.Order{}, &models.Review{}); err != nil {
		return repositorySet{}, fmt.Errorf("failed to migrate database: %w", err)
	}
	a.db = db
	zap.L().Info("database connected", zap.String("driver", a.cfg.DatabaseDriver))

	return repositorySet{
		products:   repositories.NewGORMProductRepository(db),
		categories: repositories.NewGORMCategoryRepository(db),
		orders:     repositories.NewGORMOrderRepository(db),
		reviews:    repositories.NewGORMReviewRepository(db),
	}, nil
}

func (a *App) healthChecks() map[string]handlers.HealthCheck {
	checks := map[string]handlers.HealthCheck{}
	if a.db != nil {
		checks["database"] = func(ctx context.Context) error {
			sqlDB, err := a.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if a.cache != nil {
		checks["redis"] = a.cache.Ping
	}
	return checks
}

// Seed imports the products of a JSON file and creates their categories.
// Products whose ID already exists are left alone.
func (a *App) Seed(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	created, err := a.products.Import(f)
	if err != nil {
		return err
	}
	products, err := a.products.GetAllProducts()
	if err != nil {
		return err
	}
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Category)
	}
	newCategories, err := a.categories.EnsureCategories(names)
	if err != nil {
		return err
	}
	zap.L().Info("seed imported",
		zap.String("file", path),
		zap.Int("products", created),
		zap.Int("categories", newCategories))
	return nil
}

// StartScheduler refreshes the catalog on the configured schedule.
func (a *App) StartScheduler() error {
	a.sched = cron.New(cron.WithParser(cronParser))
	_, err := a.sched.AddFunc(a.cfg.CatalogRefreshSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, _, err := a.catalog.Refresh(ctx); err != nil {
			zap.L().Warn("scheduled catalog refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", a.cfg.CatalogRefreshSchedule, err)
	}
	a.sched.Start()
	return nil
}

// StartConsumers starts the order event consumer when RabbitMQ is enabled.
func (a *App) StartConsumers() error {
	if a.mq == nil {
		return nil
	}
	return a.mq.ConsumeOrderEvents(rabbitmq.HandleOrderMessage)
}

// Close stops the scheduler and releases every connection.
func (a *App) Close() error {
	var errs []error
	if a.sched != nil {
		<-a.sched.Stop().Done()
	}
	if a.mq != nil {
		errs = append(errs, a.mq.Close())
	}
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
