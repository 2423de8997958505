package upload

import (
	"lavpop-sync/internal/common/api"
	"lavpop-sync/internal/config"
	"lavpop-sync/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type UploadApi struct {
	controller *UploadController
	config     *config.Config
}

func NewUploadApi(controller *UploadController, config *config.Config) api.Route {
	return &UploadApi{
		controller: controller,
		config:     config,
	}
}

// Setup registers all upload routes
func (h *UploadApi) Setup(app *fiber.App) {
	group := app.Group("/api/upload", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Post("/", h.controller.Upload)
	group.Get("/history", h.controller.History)
}
