// Package dispatch runs the notification queue workers: the WhatsApp
// dispatch pass with its gateway gate and email fallback, and the email
// dispatch pass that drains rerouted items.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/psiconnect/practice-api/internal/email"
	"github.com/psiconnect/practice-api/internal/gateway/whatsapp"
	"github.com/psiconnect/practice-api/internal/model"
	"github.com/psiconnect/practice-api/internal/phone"
	"github.com/psiconnect/practice-api/internal/repository"
	"github.com/psiconnect/practice-api/internal/template"
	"github.com/psiconnect/practice-api/pkg/logger"
	"github.com/psiconnect/practice-api/pkg/messaging"
	"github.com/psiconnect/practice-api/pkg/metrics"
)

const (
	gatewayStatusConnected    = "connected"
	gatewayStatusDisconnected = "disconnected"

	eventChannel = "notifications"
)

// errAlreadyClaimed marks an item another worker claimed first; the item is
// skipped without counting toward the pass result.
var errAlreadyClaimed = errors.New("notification claimed by another worker")

// Gateway is the slice of the WhatsApp client the orchestrator needs.
type Gateway interface {
	IsConnected(ctx context.Context) bool
	SendMessage(ctx context.Context, phoneNumber, message string) (*whatsapp.SendResponse, error)
}

type Config struct {
	BatchSize       int
	FallbackLimit   int
	MessageInterval time.Duration
}

type Service struct {
	repo      repository.NotificationRepository
	templates repository.TemplateRepository
	gateway   Gateway
	mail      email.Sender
	broker    messaging.Broker
	metrics   *metrics.Metrics
	logger    *logger.Logger
	config    Config
}

func NewService(
	repo repository.NotificationRepository,
	templates repository.TemplateRepository,
	gateway Gateway,
	mail email.Sender,
	broker messaging.Broker,
	m *metrics.Metrics,
	l *logger.Logger,
	config Config,
) *Service {
	if config.BatchSize <= 0 {
		panic("BatchSize must be greater than 0")
	}
	if config.FallbackLimit <= 0 {
		panic("FallbackLimit must be greater than 0")
	}
	if config.MessageInterval <= 0 {
		panic("MessageInterval must be greater than 0")
	}

	return &Service{
		repo:      repo,
		templates: templates,
		gateway:   gateway,
		mail:      mail,
		broker:    broker,
		metrics:   m,
		logger:    l,
		config:    config,
	}
}

// ProcessWhatsApp runs one dispatch pass over the WhatsApp queue. A non-nil
// error means the pass could not run at all (queue fetch failed); per-item
// failures are absorbed into the result counts.
func (s *Service) ProcessWhatsApp(ctx context.Context) (*model.DispatchResult, error) {
	timer := prometheus.NewTimer(s.metrics.DispatchLatency)
	defer timer.ObserveDuration()

	if !s.gateway.IsConnected(ctx) {
		s.metrics.GatewayConnected.Set(0)
		s.logger.Warn("whatsapp gateway disconnected, converting queue to email fallback")

		converted := s.ConvertToFallback(ctx, model.DeliveryMethodWhatsApp, model.DeliveryMethodEmail, s.config.FallbackLimit)
		return &model.DispatchResult{
			GatewayDown:   true,
			GatewayStatus: gatewayStatusDisconnected,
			FallbackCount: converted,
		}, nil
	}
	s.metrics.GatewayConnected.Set(1)

	notifications, err := s.repo.FetchPending(ctx, model.DeliveryMethodWhatsApp, s.config.BatchSize)
	if err != nil {
		s.metrics.DatabaseOperations.WithLabelValues("fetch_pending", "error").Inc()
		return nil, fmt.Errorf("failed to fetch pending notifications: %w", err)
	}
	s.metrics.DatabaseOperations.WithLabelValues("fetch_pending", "success").Inc()

	templates := s.loadTemplates(ctx)

	// Fixed-rate limiter: burst 1, so the first send goes out immediately
	// and every following send waits out the full interval.
	limiter := rate.NewLimiter(rate.Every(s.config.MessageInterval), 1)

	result := &model.DispatchResult{
		Total:         len(notifications),
		GatewayStatus: gatewayStatusConnected,
	}

	for _, n := range notifications {
		if err := limiter.Wait(ctx); err != nil {
			s.logger.Warn("dispatch pass interrupted", "error", err.Error())
			break
		}

		sent, err := s.processOne(ctx, n, templates)
		if err == errAlreadyClaimed {
			continue
		}
		if err != nil {
			s.logger.Error(err, "failed to process notification", "notification_id", n.ID.String())
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

// processOne drives a single notification to a terminal status. The returned
// error only covers claim failures; everything after the claim resolves to
// sent or failed. A (false, nil) with no status written means the claim was
// lost to another worker.
func (s *Service) processOne(ctx context.Context, n *model.Notification, templates model.TemplateSet) (bool, error) {
	claimed, err := s.repo.Claim(ctx, n.ID)
	if err != nil {
		return false, fmt.Errorf("failed to claim notification: %w", err)
	}
	if !claimed {
		s.logger.Debug("notification already claimed, skipping", "notification_id", n.ID.String())
		return false, errAlreadyClaimed
	}

	start := time.Now()

	rawPhone := n.Metadata.GetString("phone_number")
	if rawPhone == "" {
		s.fail(ctx, n, model.ErrReasonNoPhoneNumber, "", nil)
		return false, nil
	}

	formatted := phone.Normalize(rawPhone)
	if !phone.IsValid(formatted) {
		s.fail(ctx, n, model.ErrReasonInvalidPhoneNumber, "", model.Metadata{
			"original_phone": rawPhone,
		})
		return false, nil
	}

	message := s.resolveMessage(n, templates)

	resp, err := s.gateway.SendMessage(ctx, formatted, message)
	if err != nil {
		s.fail(ctx, n, model.ErrReasonProcessingException, err.Error(), model.Metadata{
			"retry_count": n.Metadata.GetInt("retry_count") + 1,
		})
		return false, nil
	}
	if !resp.Success {
		s.fail(ctx, n, model.ErrReasonAPIError, resp.Message, model.Metadata{
			"retry_count": n.Metadata.GetInt("retry_count") + 1,
		})
		return false, nil
	}

	patch := model.Metadata{
		"message_id":      resp.MessageID,
		"formatted_phone": formatted,
		"processing_time": time.Since(start).Milliseconds(),
	}
	if err := s.repo.UpdateStatus(ctx, n.ID, model.NotificationStatusSent, patch); err != nil {
		s.metrics.DatabaseOperations.WithLabelValues("update_status", "error").Inc()
		s.logger.Error(err, "failed to mark notification sent", "notification_id", n.ID.String())
		return false, nil
	}
	s.metrics.DatabaseOperations.WithLabelValues("update_status", "success").Inc()
	s.metrics.NotificationsProcessed.WithLabelValues(n.DeliveryMethod, "sent").Inc()

	s.publishOutcome(ctx, "notification.sent", n, patch)
	return true, nil
}

// fail records a terminal per-item failure with its typed reason. Failures
// here never abort the batch.
func (s *Service) fail(ctx context.Context, n *model.Notification, reason, message string, extra model.Metadata) {
	patch := model.Metadata{"error_reason": reason}
	if message != "" {
		patch["error_message"] = message
	}
	patch = patch.Merge(extra)

	if err := s.repo.UpdateStatus(ctx, n.ID, model.NotificationStatusFailed, patch); err != nil {
		s.metrics.DatabaseOperations.WithLabelValues("update_status", "error").Inc()
		s.logger.Error(err, "failed to mark notification failed",
			"notification_id", n.ID.String(), "reason", reason)
		return
	}
	s.metrics.DatabaseOperations.WithLabelValues("update_status", "success").Inc()
	s.metrics.NotificationsProcessed.WithLabelValues(n.DeliveryMethod, "failed").Inc()

	s.logger.Warn("notification failed",
		"notification_id", n.ID.String(), "reason", reason, "message", message)
	s.publishOutcome(ctx, "notification.failed", n, patch)
}

// resolveMessage picks the rendered template when the item asks for one and
// a matching template exists, the raw message field otherwise.
func (s *Service) resolveMessage(n *model.Notification, templates model.TemplateSet) string {
	if !n.Metadata.GetBool("use_template") {
		return n.Message
	}

	key := model.TemplateKeyFor(n.Type)
	tmpl, ok := templates[key]
	if !ok {
		return n.Message
	}
	return template.Render(tmpl, n.Metadata.GetMap("template_variables"))
}

// loadTemplates overlays stored overrides on the hard-coded defaults. A
// store failure degrades to defaults rather than aborting the pass.
func (s *Service) loadTemplates(ctx context.Context) model.TemplateSet {
	templates := model.DefaultTemplates()

	stored, err := s.templates.GetTemplates(ctx)
	if err != nil {
		s.logger.Error(err, "failed to load stored templates, using defaults")
		return templates
	}
	for key, tmpl := range stored {
		templates[key] = tmpl
	}
	return templates
}

// Templates exposes the effective template set (defaults overlaid with
// stored overrides) for operator inspection.
func (s *Service) Templates(ctx context.Context) model.TemplateSet {
	return s.loadTemplates(ctx)
}

// ConvertToFallback reroutes up to limit still-pending notifications from
// one delivery method to another. Converted items stay pending so the
// fallback worker picks them up. Individual conversion failures are logged
// and skipped.
func (s *Service) ConvertToFallback(ctx context.Context, from, to string, limit int) int {
	notifications, err := s.repo.FetchPending(ctx, from, limit)
	if err != nil {
		s.metrics.DatabaseOperations.WithLabelValues("fetch_pending", "error").Inc()
		s.logger.Error(err, "failed to fetch notifications for fallback conversion")
		return 0
	}

	converted := 0
	for _, n := range notifications {
		patch := model.Metadata{
			"original_method": from,
			"fallback_reason": "whatsapp_disconnected",
		}
		if err := s.repo.ConvertDeliveryMethod(ctx, n.ID, to, patch); err != nil {
			s.logger.Error(err, "failed to convert notification to fallback",
				"notification_id", n.ID.String())
			continue
		}
		converted++
		s.metrics.FallbackConversions.Inc()
	}

	if converted > 0 {
		s.logger.Info("converted notifications to fallback method",
			"from", from, "to", to, "count", converted)
	}
	return converted
}

func (s *Service) publishOutcome(ctx context.Context, eventType string, n *model.Notification, patch model.Metadata) {
	if s.broker == nil {
		return
	}

	msg := messaging.Message{
		Type: eventType,
		Payload: map[string]interface{}{
			"notification_id":   n.ID.String(),
			"patient_id":        n.PatientID.String(),
			"delivery_method":   n.DeliveryMethod,
			"notification_type": n.Type,
			"metadata":          patch,
		},
	}
	if err := s.broker.Publish(ctx, eventChannel, msg); err != nil {
		s.logger.Error(err, "failed to publish dispatch outcome", "type", eventType)
	}
}
