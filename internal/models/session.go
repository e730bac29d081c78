package models

import "time"

type SessionStatus string

const (
	SessionScheduled       SessionStatus = "scheduled"
	SessionCompleted       SessionStatus = "completed"
	SessionCancelled       SessionStatus = "cancelled"
	SessionAbsentClient    SessionStatus = "absent_client"
	SessionAbsentTherapist SessionStatus = "absent_therapist"
	SessionNoShowBoth      SessionStatus = "no_show_both"
)

// Terminal reports whether no further transition is allowed from s.
func (s SessionStatus) Terminal() bool {
	return s != SessionScheduled
}

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionScheduled, SessionCompleted, SessionCancelled,
		SessionAbsentClient, SessionAbsentTherapist, SessionNoShowBoth:
		return true
	}
	return false
}

type SessionMode string

const (
	ModeVideo   SessionMode = "video"
	ModeVoice   SessionMode = "voice"
	ModeMessage SessionMode = "message"
)

func (m SessionMode) Valid() bool {
	return m == ModeVideo || m == ModeVoice || m == ModeMessage
}

// Party is one side of a session.
type Party string

const (
	PartyClient    Party = "client"
	PartyTherapist Party = "therapist"
)

type Session struct {
	ID                int64         `json:"id"`
	ClientID          int64         `json:"client_id"`
	TherapistID       int64         `json:"therapist_id"`
	SlotID            int64         `json:"slot_id"`
	StartsAt          time.Time     `json:"starts_at"`
	Price             int64         `json:"price"`
	Commission        int64         `json:"commission"`
	CommissionOwnerID *int64        `json:"commission_owner_id"`
	Mode              SessionMode   `json:"mode"`
	Status            SessionStatus `json:"status"`
	IsNew             bool          `json:"is_new"`
	ClientAttended    bool          `json:"client_attended"`
	TherapistAttended bool          `json:"therapist_attended"`
	Feedback          *string       `json:"feedback"`
	Rating            *int          `json:"rating"`
	CancelReason      *string       `json:"cancel_reason"`
	CanceledBy        *Party        `json:"canceled_by"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// RatingSummary averages a therapist's rated sessions. Average is zero when
// nothing has been rated yet.
type RatingSummary struct {
	TherapistID int64   `json:"therapist_id"`
	Average     float64 `json:"average"`
	Count       int64   `json:"count"`
}
