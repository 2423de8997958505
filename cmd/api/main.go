package main

import (
	"context"
	"fmt"
	"log"

	common_api "lavpop-sync/internal/common/api"
	"lavpop-sync/internal/config"
	"lavpop-sync/internal/database"
	cron_feature "lavpop-sync/internal/features/cron"
	"lavpop-sync/internal/features/customer"
	"lavpop-sync/internal/features/notification"
	"lavpop-sync/internal/features/settings"
	"lavpop-sync/internal/features/sync"
	"lavpop-sync/internal/features/system"
	"lavpop-sync/internal/features/upload"
	"lavpop-sync/internal/features/whatchimp"
	"lavpop-sync/internal/logger"
	"lavpop-sync/internal/middleware"
	"lavpop-sync/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             32 * 1024 * 1024, // POS exports can be large
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),    // Cast to Interface
		fx.ResultTags(`group:"routes"`), // Add to Group
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	utils.SetSecret(cfg.JWTSecret)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Databases
			database.NewDatabase,
			database.NewSupabaseDB,

			// Initialize Repository
			customer.NewCustomerRepository,
			settings.NewSettingsRepository,
			sync.NewSyncLogRepository,
			upload.NewUploadRepository,

			// Initialize Services
			whatchimp.NewClient,
			notification.NewTwilioClient,
			notification.NewNotificationService,
			settings.NewSettingsService,
			sync.NewSyncService,
			upload.NewUploadService,
			cron_feature.NewCronService,

			// Interface Adapters to satisfy Fx
			func(c *system.WebSocketController) sync.Broadcaster { return c },

			// Initialize Controller
			system.NewWebSocketController,
			settings.NewSettingsController,
			sync.NewSyncController,
			upload.NewUploadController,

			// Initialize API Routes
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewWebSocketApi),
			AsRoute(settings.NewSettingsApi),
			AsRoute(sync.NewSyncApi),
			AsRoute(upload.NewUploadApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			func(lc fx.Lifecycle, cronService cron_feature.CronService) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return cronService.Start()
					},
					OnStop: func(ctx context.Context) error {
						cronService.Stop()
						return nil
					},
				})
			},
		),
	)

	app.Run()
}
