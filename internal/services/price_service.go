package services

import (
	"context"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
)

type PriceService struct {
	store Store
}

func NewPriceService(store Store) *PriceService {
	return &PriceService{store: store}
}

func (s *PriceService) Get(ctx context.Context) (*models.PriceList, error) {
	return s.store.Read().Prices.Get(ctx)
}

// Set replaces the price list. Existing sessions keep the price they were
// booked at.
func (s *PriceService) Set(ctx context.Context, actor Actor, prices models.PriceList) (*models.PriceList, error) {
	if actor.Role != models.RoleOperator {
		return nil, ErrForbidden
	}
	if prices.VideoCall < 0 || prices.VoiceCall < 0 || prices.Message < 0 {
		return nil, invalid("prices cannot be negative")
	}
	var out *models.PriceList
	err := s.store.InTx(ctx, func(r Repos) error {
		if err := requireActive(ctx, r.Users, actor); err != nil {
			return err
		}
		var err error
		out, err = r.Prices.Set(ctx, prices)
		return err
	})
	return out, err
}
