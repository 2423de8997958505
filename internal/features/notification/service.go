package notification

import (
	"context"
	"fmt"
	"time"

	"lavpop-sync/internal/config"

	"go.uber.org/zap"
)

type NotificationService interface {
	NotifySyncFinished(ctx context.Context, trigger string, total, created, updated, failed int, duration time.Duration)
}

type NotificationServiceImpl struct {
	twilio  *TwilioClient
	adminTo string
	log     *zap.Logger
}

func NewNotificationService(cfg *config.Config, twilio *TwilioClient, log *zap.Logger) NotificationService {
	return &NotificationServiceImpl{
		twilio:  twilio,
		adminTo: cfg.TwilioAdminTo,
		log:     log,
	}
}

// NotifySyncFinished sends the operator a WhatsApp summary of a finished
// background run. Failures only get logged; a lost notification must never
// mark the run itself as failed.
func (s *NotificationServiceImpl) NotifySyncFinished(ctx context.Context, trigger string, total, created, updated, failed int, duration time.Duration) {
	if !s.twilio.Configured() || s.adminTo == "" {
		return
	}

	body := fmt.Sprintf(
		"Lavpop sync (%s) finalizado em %s: %d clientes, %d criados, %d atualizados, %d falhas",
		trigger, duration.Round(time.Second), total, created, updated, failed)

	if err := s.twilio.SendWhatsApp(ctx, s.adminTo, body); err != nil {
		s.log.Warn("Failed to send sync notification", zap.Error(err))
	}
}
