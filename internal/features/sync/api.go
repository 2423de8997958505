package sync

import (
	"lavpop-sync/internal/common/api"
	"lavpop-sync/internal/config"
	"lavpop-sync/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type SyncApi struct {
	controller *SyncController
	config     *config.Config
}

func NewSyncApi(controller *SyncController, config *config.Config) api.Route {
	return &SyncApi{
		controller: controller,
		config:     config,
	}
}

// Setup registers all sync routes
func (h *SyncApi) Setup(app *fiber.App) {
	group := app.Group("/api/whatchimp", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Post("/", h.controller.HandleAction)
	group.Post("/background", h.controller.BackgroundSync)
	group.Get("/status", h.controller.Status)

	logs := app.Group("/api/sync", middleware.AuthMiddleware(h.config.SkipAuth))
	logs.Get("/logs", h.controller.Logs)
}
