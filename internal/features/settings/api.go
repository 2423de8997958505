package settings

import (
	"lavpop-sync/internal/common/api"
	"lavpop-sync/internal/config"
	"lavpop-sync/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type SettingsApi struct {
	controller *SettingsController
	config     *config.Config
}

func NewSettingsApi(controller *SettingsController, config *config.Config) api.Route {
	return &SettingsApi{
		controller: controller,
		config:     config,
	}
}

// Setup registers all settings routes
func (h *SettingsApi) Setup(app *fiber.App) {
	group := app.Group("/api/settings", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/general", h.controller.GetGeneralConfig)
	group.Put("/general", h.controller.UpdateGeneralConfig)
}
