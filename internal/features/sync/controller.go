package sync

import (
	"errors"

	"lavpop-sync/internal/features/whatchimp"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// maxReportedErrors caps the error list returned to the dashboard; the rest
// is reported as a count only.
const maxReportedErrors = 10

type actionRequest struct {
	Action string `json:"action"`
	Doc    string `json:"doc"`
	Phone  string `json:"phone"`
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
}

type SyncController struct {
	Service SyncService
	Log     *zap.Logger
}

func NewSyncController(service SyncService, log *zap.Logger) *SyncController {
	return &SyncController{
		Service: service,
		Log:     log,
	}
}

// HandleAction godoc
func (ctrl *SyncController) HandleAction(c *fiber.Ctx) error {
	var req actionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	switch req.Action {
	case "sync_all":
		return ctrl.syncAll(c)
	case "sync_customer":
		return ctrl.syncCustomer(c, req)
	case "get_labels":
		return c.JSON(fiber.Map{
			"success": true,
			"labels":  whatchimp.ManagedLabelIDs(),
			"mapping": whatchimp.LabelMapping(),
		})
	case "list_subscribers":
		return ctrl.listSubscribers(c, req)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown action: " + req.Action,
		})
	}
}

func (ctrl *SyncController) syncAll(c *fiber.Ctx) error {
	report, err := ctrl.Service.SyncAll(c.Context())
	if err != nil {
		ctrl.Log.Error("Sync run failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	allErrors := report.Errors()
	reported := allErrors
	omitted := 0
	if len(allErrors) > maxReportedErrors {
		reported = allErrors[:maxReportedErrors]
		omitted = len(allErrors) - maxReportedErrors
	}

	resp := fiber.Map{
		"success":    true,
		"summary":    report.Summary,
		"duplicates": report.Duplicates,
		"errors":     reported,
		"duration":   report.Duration.String(),
	}
	if omitted > 0 {
		resp["errors_omitted"] = omitted
	}
	return c.JSON(resp)
}

func (ctrl *SyncController) syncCustomer(c *fiber.Ctx, req actionRequest) error {
	if req.Doc == "" && req.Phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Either doc or phone is required",
		})
	}

	target, result, err := ctrl.Service.SyncCustomer(c.Context(), req.Doc, req.Phone)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Customer not found",
			})
		}
		ctrl.Log.Error("Single customer sync failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success":   result.Status != StatusFailed,
		"customer":  target,
		"whatchimp": result,
	})
}

func (ctrl *SyncController) listSubscribers(c *fiber.Ctx, req actionRequest) error {
	if req.Page <= 0 || req.Limit <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "page and limit are required",
		})
	}

	subscribers, err := ctrl.Service.ListSubscribers(c.Context(), req.Page, req.Limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"page":        req.Page,
		"count":       len(subscribers),
		"subscribers": subscribers,
	})
}

// BackgroundSync godoc
func (ctrl *SyncController) BackgroundSync(c *fiber.Ctx) error {
	ctrl.Service.RunBackground("manual")
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success": true,
		"message": "Sync started in background",
	})
}

// Status godoc
func (ctrl *SyncController) Status(c *fiber.Ctx) error {
	status, err := ctrl.Service.LastStatus(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": status,
	})
}

// Logs godoc
func (ctrl *SyncController) Logs(c *fiber.Ctx) error {
	limit := int64(c.QueryInt("limit", 20))

	logs, err := ctrl.Service.ListLogs(c.Context(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": logs,
	})
}
