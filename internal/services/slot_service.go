package services

import (
	"context"
	"iter"
	"sort"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
	"github.com/MUHAMMEDJasir72/MindEase/internal/repository"
	"go.uber.org/zap"
)

const slotPageSize = 100

type SlotService struct {
	store  Store
	logger *zap.Logger
}

func NewSlotService(store Store, logger *zap.Logger) *SlotService {
	return &SlotService{store: store, logger: logger}
}

// AddSlots opens times on a date for the acting therapist. Times that already
// exist are left as they are.
func (s *SlotService) AddSlots(ctx context.Context, actor Actor, date string, times []string) ([]models.Slot, error) {
	if actor.Role != models.RoleTherapist {
		return nil, ErrForbidden
	}
	if !validDate(date) {
		return nil, invalid("date must be YYYY-MM-DD")
	}
	if len(times) == 0 {
		return nil, invalid("at least one time is required")
	}
	unique := make(map[string]struct{}, len(times))
	for _, t := range times {
		if !validTime(t) {
			return nil, invalid("time %q must be HH:MM", t)
		}
		unique[t] = struct{}{}
	}
	ordered := make([]string, 0, len(unique))
	for t := range unique {
		ordered = append(ordered, t)
	}
	sort.Strings(ordered)

	var slots []models.Slot
	err := s.store.InTx(ctx, func(r Repos) error {
		if err := requireActive(ctx, r.Users, actor); err != nil {
			return err
		}
		dateID, err := r.Slots.UpsertDate(ctx, actor.ID, date)
		if err != nil {
			return err
		}
		for _, t := range ordered {
			if _, err := r.Slots.AddTime(ctx, dateID, t); err != nil {
				return err
			}
		}
		slots, err = r.Slots.ListByDate(ctx, dateID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return slots, nil
}

// RemoveSlot deletes an unbooked slot and its date once the date is empty.
func (s *SlotService) RemoveSlot(ctx context.Context, actor Actor, slotID int64) error {
	if actor.Role != models.RoleTherapist {
		return ErrForbidden
	}
	return s.store.InTx(ctx, func(r Repos) error {
		if err := requireActive(ctx, r.Users, actor); err != nil {
			return err
		}
		slot, err := r.Slots.GetByIDForUpdate(ctx, slotID)
		if err != nil {
			if isNoRows(err) {
				return notFound("slot")
			}
			return err
		}
		if slot.TherapistID != actor.ID {
			return ErrForbidden
		}
		if slot.IsBooked {
			return ErrAlreadyBooked
		}
		deleted, err := r.Slots.DeleteUnbooked(ctx, slotID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrAlreadyBooked
		}
		return r.Slots.DeleteDateIfEmpty(ctx, slot.DateID)
	})
}

// ReserveSlot books a slot in its own transaction.
func (s *SlotService) ReserveSlot(ctx context.Context, slotID int64, date string, therapistID int64) (*models.Slot, error) {
	var slot *models.Slot
	err := s.store.InTx(ctx, func(r Repos) error {
		var err error
		slot, err = reserveSlot(ctx, r, slotID, date, therapistID)
		return err
	})
	return slot, err
}

// reserveSlot is a single test-and-set on is_booked. When nothing was updated
// the slot is read back only to tell a lost race from a bad reference.
func reserveSlot(ctx context.Context, r Repos, slotID int64, date string, therapistID int64) (*models.Slot, error) {
	slot, err := r.Slots.Reserve(ctx, slotID, date, therapistID)
	if err == nil {
		return slot, nil
	}
	if !isNoRows(err) {
		return nil, err
	}
	existing, err := r.Slots.GetByID(ctx, slotID)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("slot")
		}
		return nil, err
	}
	if existing.TherapistID != therapistID || existing.Date != date {
		return nil, notFound("slot")
	}
	return nil, ErrAlreadyBooked
}

// ListAvailable yields a therapist's unbooked slots on or after fromDate in
// date and time order. Each range over the sequence starts again from the
// first slot.
func (s *SlotService) ListAvailable(ctx context.Context, therapistID int64, fromDate string) iter.Seq2[models.Slot, error] {
	return func(yield func(models.Slot, error) bool) {
		if !validDate(fromDate) {
			yield(models.Slot{}, invalid("from must be YYYY-MM-DD"))
			return
		}
		var cursor *repository.SlotCursor
		for {
			page, err := s.store.Read().Slots.ListAvailable(ctx, therapistID, fromDate, cursor, slotPageSize)
			if err != nil {
				yield(models.Slot{}, err)
				return
			}
			for _, slot := range page {
				if !yield(slot, nil) {
					return
				}
			}
			if len(page) < slotPageSize {
				return
			}
			last := page[len(page)-1]
			cursor = &repository.SlotCursor{Date: last.Date, Time: last.Time, ID: last.ID}
		}
	}
}
