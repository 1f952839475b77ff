package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type NotificationStatus string

const (
	NotificationStatusPending    NotificationStatus = "pending"
	NotificationStatusProcessing NotificationStatus = "processing"
	NotificationStatusSent       NotificationStatus = "sent"
	NotificationStatusFailed     NotificationStatus = "failed"
)

// Delivery methods understood by the dispatch workers.
const (
	DeliveryMethodWhatsApp = "whatsapp"
	DeliveryMethodEmail    = "email"
)

// Per-item failure reasons recorded in metadata under "error_reason".
const (
	ErrReasonNoPhoneNumber       = "no_phone_number"
	ErrReasonInvalidPhoneNumber  = "invalid_phone_number"
	ErrReasonNoEmailAddress      = "no_email_address"
	ErrReasonAPIError            = "api_error"
	ErrReasonSMTPError           = "smtp_error"
	ErrReasonProcessingException = "processing_exception"
)

// Metadata is the open key-value bag carried by a notification. It holds the
// contact fields (phone_number, email), template controls (use_template,
// template_variables) and the diagnostic fields written back by the workers.
type Metadata map[string]interface{}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src interface{}) error {
	if src == nil {
		*m = Metadata{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("metadata: cannot scan %T", src)
	}
	if len(b) == 0 {
		*m = Metadata{}
		return nil
	}
	return json.Unmarshal(b, m)
}

// Merge returns a copy of m with every key of patch added or overwritten.
// Keys absent from patch are preserved. Shallow only.
func (m Metadata) Merge(patch Metadata) Metadata {
	out := make(Metadata, len(m)+len(patch))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// GetString returns the value for key stringified, or "" when absent or nil.
func (m Metadata) GetString(key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// GetBool returns the boolean value for key, false when absent or not a bool.
func (m Metadata) GetBool(key string) bool {
	b, _ := m[key].(bool)
	return b
}

// GetInt handles both native ints and the float64 values json decoding yields.
func (m Metadata) GetInt(key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// GetMap returns the nested object stored under key, nil when absent.
func (m Metadata) GetMap(key string) map[string]interface{} {
	v, _ := m[key].(map[string]interface{})
	return v
}

type Notification struct {
	ID             uuid.UUID          `db:"id" json:"id"`
	PatientID      uuid.UUID          `db:"patient_id" json:"patient_id"`
	DeliveryMethod string             `db:"delivery_method" json:"delivery_method"`
	Status         NotificationStatus `db:"status" json:"status"`
	Type           string             `db:"notification_type" json:"notification_type"`
	Message        string             `db:"message" json:"message"`
	Metadata       Metadata           `db:"metadata" json:"metadata"`
	ScheduledFor   time.Time          `db:"scheduled_for" json:"scheduled_for"`
	SentAt         *time.Time         `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `db:"updated_at" json:"updated_at"`
}

// DispatchResult summarizes one worker pass over the queue.
type DispatchResult struct {
	Processed     int     `json:"processed"`
	Failed        int     `json:"failed"`
	Total         int     `json:"total"`
	SuccessRate   float64 `json:"success_rate"`
	GatewayStatus string  `json:"whatsapp_status"`
	FallbackCount int     `json:"fallback_processed,omitempty"`
	GatewayDown   bool    `json:"-"`
}
