package services

import (
	"context"
	"time"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
	"github.com/shopspring/decimal"
)

// Policy holds the business constants shared by the session, ledger and
// withdrawal services.
type Policy struct {
	CommissionRate     decimal.Decimal
	CancellationWindow time.Duration
	GracePeriod        time.Duration
	MinWithdrawal      int64
	SweepBatchSize     int
	SweepOnRead        bool
	Location           *time.Location
}

func DefaultPolicy() Policy {
	return Policy{
		CommissionRate:     decimal.RequireFromString("0.20"),
		CancellationWindow: time.Hour,
		GracePeriod:        time.Hour,
		MinWithdrawal:      500,
		SweepBatchSize:     100,
		SweepOnRead:        true,
		Location:           time.UTC,
	}
}

// Split returns the platform commission and the therapist share of price,
// each rounded down to a whole minor unit.
func (p Policy) Split(price int64) (commission, share int64) {
	amount := decimal.NewFromInt(price)
	commission = amount.Mul(p.CommissionRate).Floor().IntPart()
	share = amount.Mul(decimal.NewFromInt(1).Sub(p.CommissionRate)).Floor().IntPart()
	return commission, share
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// StartsAt resolves a slot's local date and time to an instant.
func (p Policy) StartsAt(slot *models.Slot) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", slot.Date+" "+slot.Time, p.location())
}

// Actor is the authenticated identity an operation runs on behalf of.
type Actor struct {
	ID   int64
	Role models.Role
}

// requireActive rejects actors whose account is missing, blocked, or carries a
// different role than the token claims.
func requireActive(ctx context.Context, users UserStore, actor Actor) error {
	if actor.ID <= 0 {
		return ErrForbidden
	}
	user, err := users.GetByID(ctx, actor.ID)
	if err != nil {
		if isNoRows(err) {
			return ErrForbidden
		}
		return err
	}
	if !user.IsActive || user.Role != actor.Role {
		return ErrForbidden
	}
	return nil
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

func validDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

func validTime(s string) bool {
	_, err := time.Parse(timeLayout, s)
	return err == nil
}
