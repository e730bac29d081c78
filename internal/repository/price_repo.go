package repository

import (
	"context"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
)

type PriceRepository struct {
	db DBTX
}

func NewPriceRepository(db DBTX) *PriceRepository {
	return &PriceRepository{db: db}
}

func (r *PriceRepository) Get(ctx context.Context) (*models.PriceList, error) {
	var p models.PriceList
	err := r.db.QueryRow(ctx, `
		SELECT video_call, voice_call, message, updated_at FROM session_prices WHERE id = 1
	`).Scan(&p.VideoCall, &p.VoiceCall, &p.Message, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PriceRepository) Set(ctx context.Context, p models.PriceList) (*models.PriceList, error) {
	var out models.PriceList
	err := r.db.QueryRow(ctx, `
		INSERT INTO session_prices (id, video_call, voice_call, message)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET video_call = EXCLUDED.video_call,
		    voice_call = EXCLUDED.voice_call,
		    message = EXCLUDED.message,
		    updated_at = NOW()
		RETURNING video_call, voice_call, message, updated_at
	`, p.VideoCall, p.VoiceCall, p.Message).Scan(&out.VideoCall, &out.VoiceCall, &out.Message, &out.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
