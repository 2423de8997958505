package upload

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type UploadController struct {
	Service UploadService
	Log     *zap.Logger
}

func NewUploadController(service UploadService, log *zap.Logger) *UploadController {
	return &UploadController{
		Service: service,
		Log:     log,
	}
}

// Upload godoc
func (ctrl *UploadController) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file is required",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to open uploaded file",
		})
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to read uploaded file",
		})
	}

	source := c.FormValue("source", "manual_upload")

	fileType, result, err := ctrl.Service.DetectAndUpload(c.Context(), fileHeader.Filename, content, source)
	if err != nil {
		if fileType == FileTypeUnknown {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		ctrl.Log.Error("Upload failed", zap.String("file", fileHeader.Filename), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"file_type": fileType,
		"result":    result,
	})
}

// History godoc
func (ctrl *UploadController) History(c *fiber.Ctx) error {
	limit := int64(c.QueryInt("limit", 20))

	entries, err := ctrl.Service.History(c.Context(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": entries,
	})
}
