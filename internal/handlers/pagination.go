package handlers

import (
	"strconv"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 50

	// limits for keyset listings (notifications, ledger, slots)
	defaultListLimit = 50
	maxListLimit     = 200
)

func buildPaginationMeta(page, limit, total int) models.PaginationMeta {
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return models.PaginationMeta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func listLimit(raw string) int {
	return min(parsePositiveInt(raw, defaultListLimit), maxListLimit)
}

// parseCursor reads an optional id cursor. Empty means start from the top.
func parseCursor(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		return 0, strconv.ErrSyntax
	}
	return value, nil
}
