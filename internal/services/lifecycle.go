package services

import (
	"time"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
)

// ResolveOverdue picks the terminal status for a scheduled session whose
// grace period has run out.
func ResolveOverdue(clientAttended, therapistAttended bool) models.SessionStatus {
	switch {
	case clientAttended && therapistAttended:
		return models.SessionCompleted
	case !clientAttended && !therapistAttended:
		return models.SessionNoShowBoth
	case !clientAttended:
		return models.SessionAbsentClient
	default:
		return models.SessionAbsentTherapist
	}
}

// Overdue reports whether a scheduled session is past startsAt + grace.
func Overdue(session *models.Session, now time.Time, grace time.Duration) bool {
	return session.Status == models.SessionScheduled && now.After(session.StartsAt.Add(grace))
}

// CancellationOpen reports whether a session starting at startsAt may still
// be cancelled at now.
func CancellationOpen(startsAt, now time.Time, window time.Duration) bool {
	return now.Before(startsAt.Add(-window))
}

// partyOf returns which side of the session the actor is on.
func partyOf(actor Actor, session *models.Session) (models.Party, bool) {
	switch {
	case actor.Role == models.RoleClient && session.ClientID == actor.ID:
		return models.PartyClient, true
	case actor.Role == models.RoleTherapist && session.TherapistID == actor.ID:
		return models.PartyTherapist, true
	}
	return "", false
}

func canViewSession(actor Actor, session *models.Session) bool {
	if actor.Role == models.RoleOperator {
		return true
	}
	_, ok := partyOf(actor, session)
	return ok
}
