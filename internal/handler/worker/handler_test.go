package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psiconnect/practice-api/internal/gateway/whatsapp"
	"github.com/psiconnect/practice-api/internal/model"
	"github.com/psiconnect/practice-api/internal/service/dispatch"
	"github.com/psiconnect/practice-api/pkg/logger"
	"github.com/psiconnect/practice-api/pkg/metrics"
)

type stubRepo struct {
	notifications []*model.Notification
	fetchErr      error
	converted     int
}

func (s *stubRepo) FetchPending(_ context.Context, method string, limit int) ([]*model.Notification, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	var out []*model.Notification
	for _, n := range s.notifications {
		if n.DeliveryMethod == method && n.Status == model.NotificationStatusPending {
			out = append(out, n)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *stubRepo) Claim(_ context.Context, id uuid.UUID) (bool, error) {
	for _, n := range s.notifications {
		if n.ID == id && n.Status == model.NotificationStatusPending {
			n.Status = model.NotificationStatusProcessing
			return true, nil
		}
	}
	return false, nil
}

func (s *stubRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.NotificationStatus, patch model.Metadata) error {
	for _, n := range s.notifications {
		if n.ID == id {
			n.Status = status
			n.Metadata = n.Metadata.Merge(patch)
		}
	}
	return nil
}

func (s *stubRepo) ConvertDeliveryMethod(_ context.Context, id uuid.UUID, method string, patch model.Metadata) error {
	for _, n := range s.notifications {
		if n.ID == id {
			n.DeliveryMethod = method
			n.Metadata = n.Metadata.Merge(patch)
			s.converted++
		}
	}
	return nil
}

type stubTemplates struct{}

func (stubTemplates) GetTemplates(context.Context) (model.TemplateSet, error) { return nil, nil }

type stubGateway struct {
	connected bool
	resp      *whatsapp.SendResponse
}

func (g *stubGateway) IsConnected(context.Context) bool { return g.connected }

func (g *stubGateway) SendMessage(context.Context, string, string) (*whatsapp.SendResponse, error) {
	return g.resp, nil
}

type stubSender struct{}

func (stubSender) Send(string, string, string) error { return nil }

func newTestRouter(repo *stubRepo, gw *stubGateway) *gin.Engine {
	gin.SetMode(gin.TestMode)

	l := &logger.Logger{ZL: zerolog.Nop()}
	svc := dispatch.NewService(repo, stubTemplates{}, gw, stubSender{}, nil, metrics.New("test"), l, dispatch.Config{
		BatchSize:       10,
		FallbackLimit:   10,
		MessageInterval: time.Millisecond,
	})

	engine := gin.New()
	NewHandler(svc).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func doRequest(t *testing.T, engine *gin.Engine, path string) (int, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestProcessWhatsAppEndpoint(t *testing.T) {
	repo := &stubRepo{notifications: []*model.Notification{{
		ID:             uuid.New(),
		DeliveryMethod: model.DeliveryMethodWhatsApp,
		Status:         model.NotificationStatusPending,
		Metadata:       model.Metadata{"phone_number": "+5491122334455"},
		Message:        "hola",
	}}}
	gw := &stubGateway{connected: true, resp: &whatsapp.SendResponse{Success: true, MessageID: "m-1"}}

	code, body := doRequest(t, newTestRouter(repo, gw), "/api/v1/workers/whatsapp/process")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["processed"])
	assert.Equal(t, float64(0), body["failed"])
	assert.Equal(t, float64(1), body["total"])
	assert.Equal(t, float64(100), body["success_rate"])
	assert.Equal(t, "connected", body["whatsapp_status"])
}

func TestProcessWhatsAppEndpointGatewayDown(t *testing.T) {
	repo := &stubRepo{notifications: []*model.Notification{{
		ID:             uuid.New(),
		DeliveryMethod: model.DeliveryMethodWhatsApp,
		Status:         model.NotificationStatusPending,
		Metadata:       model.Metadata{"phone_number": "+5491122334455"},
	}}}
	gw := &stubGateway{connected: false}

	code, body := doRequest(t, newTestRouter(repo, gw), "/api/v1/workers/whatsapp/process")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "disconnected", body["whatsapp_status"])
	assert.Equal(t, float64(1), body["fallback_processed"])
	assert.Equal(t, 1, repo.converted)
}

func TestProcessWhatsAppEndpointFetchError(t *testing.T) {
	repo := &stubRepo{fetchErr: assert.AnError}
	gw := &stubGateway{connected: true}

	code, body := doRequest(t, newTestRouter(repo, gw), "/api/v1/workers/whatsapp/process")

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestProcessEmailEndpoint(t *testing.T) {
	repo := &stubRepo{notifications: []*model.Notification{{
		ID:             uuid.New(),
		DeliveryMethod: model.DeliveryMethodEmail,
		Status:         model.NotificationStatusPending,
		Metadata:       model.Metadata{"email": "ana@example.com"},
		Message:        "hola",
	}}}

	code, body := doRequest(t, newTestRouter(repo, &stubGateway{}), "/api/v1/workers/email/process")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["processed"])
}
