package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tillpoint/api/internal/platform/config"
	"github.com/tillpoint/api/internal/repositories"
	"github.com/tillpoint/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Offers   services.OfferService
	Carts    services.CartService
	Sales    services.SaleService
	Exports  services.SalesExportService
	Jobs     services.BackgroundJobDispatcher
	Counters services.CounterService
	Audit    services.AuditLogService
	System   services.SystemService
}

// Container wires repositories, services, and background infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// Option customises container assembly with collaborators that live outside
// the repository registry (publishers, archive writers, build metadata).
type Option func(*containerOptions)

type containerOptions struct {
	saleEvents services.SaleEventPublisher
	exportJobs services.ExportJobPublisher
	archive    services.ExportArchiveWriter
	build      services.BuildInfo
	logger     func(context.Context, string, map[string]any)
}

// WithSaleEventPublisher supplies the Pub/Sub publisher for completed-sale events.
func WithSaleEventPublisher(publisher services.SaleEventPublisher) Option {
	return func(o *containerOptions) {
		o.saleEvents = publisher
	}
}

// WithExportJobPublisher supplies the Pub/Sub publisher for sales export jobs.
func WithExportJobPublisher(publisher services.ExportJobPublisher) Option {
	return func(o *containerOptions) {
		o.exportJobs = publisher
	}
}

// WithExportArchive supplies the object-store writer used for daily sales exports.
func WithExportArchive(archive services.ExportArchiveWriter) Option {
	return func(o *containerOptions) {
		o.archive = archive
	}
}

// WithBuildInfo records build metadata surfaced by the system service.
func WithBuildInfo(build services.BuildInfo) Option {
	return func(o *containerOptions) {
		o.build = build
	}
}

// WithLogger routes service-level structured events to the provided sink.
func WithLogger(logger func(context.Context, string, map[string]any)) Option {
	return func(o *containerOptions) {
		o.logger = logger
	}
}

// NewContainer constructs the runtime dependencies. Production wiring provides real
// implementations, while tests can supply in-memory registries.
func NewContainer(ctx context.Context, cfg config.Config, reg repositories.Registry, opts ...Option) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	options := containerOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if options.build.Environment == "" {
		options.build.Environment = cfg.Security.Environment
	}
	if options.build.StartedAt.IsZero() {
		options.build.StartedAt = time.Now().UTC()
	}

	svc, err := buildServices(ctx, reg, cfg, options)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases resources such as repository clients, background workers, or caches.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(ctx context.Context, reg repositories.Registry, cfg config.Config, options containerOptions) (Services, error) {
	var svc Services

	if auditRepo := reg.AuditLogs(); auditRepo != nil {
		auditSvc, err := services.NewAuditLogService(services.AuditLogServiceDeps{
			Repository: auditRepo,
			Clock:      time.Now,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build audit log service: %w", err)
		}
		svc.Audit = auditSvc
	}

	counterRepo := reg.Counters()
	if counterRepo != nil {
		counterSvc, err := services.NewCounterService(services.CounterServiceDeps{
			Repository: counterRepo,
			Clock:      time.Now,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build counter service: %w", err)
		}
		svc.Counters = counterSvc
	}

	if options.saleEvents != nil && options.exportJobs != nil {
		dispatcher, err := services.NewBackgroundJobDispatcher(services.BackgroundJobDispatcherDeps{
			SaleEvents: options.saleEvents,
			ExportJobs: options.exportJobs,
			Clock:      time.Now,
			Logger:     options.logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build background job dispatcher: %w", err)
		}
		svc.Jobs = dispatcher
	}

	engine := services.NewPromotionEngine(services.PromotionEngineDeps{
		Logger: options.logger,
	})

	offersRepo := reg.Offers()
	if offersRepo != nil {
		offerSvc, err := services.NewOfferService(services.OfferServiceDeps{
			Offers: offersRepo,
			Audit:  svc.Audit,
			Clock:  time.Now,
			Logger: options.logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build offer service: %w", err)
		}
		svc.Offers = offerSvc
	}

	cartsRepo := reg.Carts()
	if cartsRepo != nil && svc.Offers != nil {
		cartSvc, err := services.NewCartService(services.CartServiceDeps{
			Carts:  cartsRepo,
			Offers: svc.Offers,
			Engine: engine,
			Clock:  time.Now,
			Logger: options.logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build cart service: %w", err)
		}
		svc.Carts = cartSvc
	}

	salesRepo := reg.Sales()
	if salesRepo != nil && cartsRepo != nil && svc.Offers != nil && svc.Counters != nil {
		saleSvc, err := services.NewSaleService(services.SaleServiceDeps{
			Carts:      cartsRepo,
			Sales:      salesRepo,
			Offers:     svc.Offers,
			Engine:     engine,
			Counters:   svc.Counters,
			UnitOfWork: reg,
			Events:     svc.Jobs,
			Audit:      svc.Audit,
			Clock:      time.Now,
			Logger:     options.logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build sale service: %w", err)
		}
		svc.Sales = saleSvc
	}

	if salesRepo != nil && options.archive != nil {
		exportSvc, err := services.NewSalesExportService(services.SalesExportServiceDeps{
			Sales:   salesRepo,
			Archive: options.archive,
			Clock:   time.Now,
			Logger:  options.logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build sales export service: %w", err)
		}
		svc.Exports = exportSvc
	}

	if healthRepo := reg.Health(); healthRepo != nil {
		systemSvc, err := services.NewSystemService(services.SystemServiceDeps{
			HealthRepository: healthRepo,
			Clock:            time.Now,
			Build:            options.build,
			Counters:         svc.Counters,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build system service: %w", err)
		}
		svc.System = systemSvc
	}

	return svc, nil
}
