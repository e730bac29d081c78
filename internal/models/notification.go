package models

import "time"

type Audience string

const (
	AudienceClient    Audience = "client"
	AudienceTherapist Audience = "therapist"
	AudienceOperator  Audience = "operator"
)

type NotificationKind string

const (
	KindSuccess NotificationKind = "success"
	KindWarning NotificationKind = "warning"
	KindInfo    NotificationKind = "info"
)

type Notification struct {
	ID          int64            `json:"id"`
	Audience    Audience         `json:"audience"`
	RecipientID int64            `json:"recipient_id"`
	Kind        NotificationKind `json:"kind"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Link        *string          `json:"link,omitempty"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"created_at"`
}
