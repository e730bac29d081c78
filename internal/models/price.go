package models

import "time"

type PriceList struct {
	VideoCall int64     `json:"video_call"`
	VoiceCall int64     `json:"voice_call"`
	Message   int64     `json:"message"`
	UpdatedAt time.Time `json:"updated_at"`
}

// For returns the configured price of a mode.
func (p PriceList) For(mode SessionMode) int64 {
	switch mode {
	case ModeVideo:
		return p.VideoCall
	case ModeVoice:
		return p.VoiceCall
	case ModeMessage:
		return p.Message
	}
	return 0
}
