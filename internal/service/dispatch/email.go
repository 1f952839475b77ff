package dispatch

import (
	"context"
	"fmt"

	"github.com/psiconnect/practice-api/internal/model"
)

// Subjects for email notifications, by notification type.
var emailSubjects = map[string]string{
	"appointment_reminder":  "Recordatorio de cita",
	"appointment_confirmed": "Cita confirmada",
	"appointment_cancelled": "Cita cancelada",
	"payment_due":           "Pago pendiente",
	"welcome":               "Bienvenido/a",
}

// ProcessEmail drains the email queue, including items rerouted there by the
// WhatsApp fallback conversion. Same claim and terminal-status contract as
// the WhatsApp pass; there is no gateway gate and no inter-message delay.
func (s *Service) ProcessEmail(ctx context.Context) (*model.DispatchResult, error) {
	notifications, err := s.repo.FetchPending(ctx, model.DeliveryMethodEmail, s.config.BatchSize)
	if err != nil {
		s.metrics.DatabaseOperations.WithLabelValues("fetch_pending", "error").Inc()
		return nil, fmt.Errorf("failed to fetch pending email notifications: %w", err)
	}
	s.metrics.DatabaseOperations.WithLabelValues("fetch_pending", "success").Inc()

	templates := s.loadTemplates(ctx)

	result := &model.DispatchResult{Total: len(notifications)}

	for _, n := range notifications {
		sent, err := s.processOneEmail(ctx, n, templates)
		if err == errAlreadyClaimed {
			continue
		}
		if err != nil {
			s.logger.Error(err, "failed to process email notification", "notification_id", n.ID.String())
			continue
		}
		if sent {
			result.Processed++
		} else {
			result.Failed++
		}
	}

	if result.Total > 0 {
		result.SuccessRate = float64(result.Processed) / float64(result.Total) * 100
	}
	return result, nil
}

func (s *Service) processOneEmail(ctx context.Context, n *model.Notification, templates model.TemplateSet) (bool, error) {
	claimed, err := s.repo.Claim(ctx, n.ID)
	if err != nil {
		return false, fmt.Errorf("failed to claim notification: %w", err)
	}
	if !claimed {
		return false, errAlreadyClaimed
	}

	to := n.Metadata.GetString("email")
	if to == "" {
		s.fail(ctx, n, model.ErrReasonNoEmailAddress, "", nil)
		return false, nil
	}

	subject, ok := emailSubjects[n.Type]
	if !ok {
		subject = "Notificación"
	}
	body := s.resolveMessage(n, templates)

	if err := s.mail.Send(to, subject, body); err != nil {
		s.fail(ctx, n, model.ErrReasonSMTPError, err.Error(), model.Metadata{
			"retry_count": n.Metadata.GetInt("retry_count") + 1,
		})
		return false, nil
	}

	patch := model.Metadata{"email_to": to}
	if err := s.repo.UpdateStatus(ctx, n.ID, model.NotificationStatusSent, patch); err != nil {
		s.metrics.DatabaseOperations.WithLabelValues("update_status", "error").Inc()
		s.logger.Error(err, "failed to mark email notification sent", "notification_id", n.ID.String())
		return false, nil
	}
	s.metrics.DatabaseOperations.WithLabelValues("update_status", "success").Inc()
	s.metrics.NotificationsProcessed.WithLabelValues(n.DeliveryMethod, "sent").Inc()

	s.publishOutcome(ctx, "notification.sent", n, patch)
	return true, nil
}
