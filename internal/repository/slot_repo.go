package repository

import (
	"context"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
	"github.com/jackc/pgx/v5"
)

// SlotCursor marks the last slot of a page; the next page starts strictly after it.
type SlotCursor struct {
	Date string
	Time string
	ID   int64
}

type SlotRepository struct {
	db DBTX
}

func NewSlotRepository(db DBTX) *SlotRepository {
	return &SlotRepository{db: db}
}

const slotSelect = `
	SELECT t.id, t.date_id, d.therapist_id, to_char(d.date, 'YYYY-MM-DD'), to_char(t.time_of_day, 'HH24:MI'), t.is_booked
	FROM available_times t
	JOIN available_dates d ON d.id = t.date_id
`

func scanSlot(row rowScanner) (*models.Slot, error) {
	var slot models.Slot
	if err := row.Scan(&slot.ID, &slot.DateID, &slot.TherapistID, &slot.Date, &slot.Time, &slot.IsBooked); err != nil {
		return nil, err
	}
	return &slot, nil
}

func collectSlots(rows pgx.Rows) ([]models.Slot, error) {
	defer rows.Close()
	slots := make([]models.Slot, 0)
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *slot)
	}
	return slots, rows.Err()
}

// UpsertDate returns the id of the therapist's date record, creating it if needed.
func (r *SlotRepository) UpsertDate(ctx context.Context, therapistID int64, date string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO available_dates (therapist_id, date)
		VALUES ($1, $2::date)
		ON CONFLICT (therapist_id, date) DO UPDATE SET date = EXCLUDED.date
		RETURNING id
	`, therapistID, date).Scan(&id)
	return id, err
}

// AddTime inserts a time on a date and reports whether a new row was created.
func (r *SlotRepository) AddTime(ctx context.Context, dateID int64, timeOfDay string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO available_times (date_id, time_of_day)
		VALUES ($1, $2::time)
		ON CONFLICT (date_id, time_of_day) DO NOTHING
	`, dateID, timeOfDay)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *SlotRepository) ListByDate(ctx context.Context, dateID int64) ([]models.Slot, error) {
	rows, err := r.db.Query(ctx, slotSelect+` WHERE t.date_id = $1 ORDER BY t.time_of_day, t.id`, dateID)
	if err != nil {
		return nil, err
	}
	return collectSlots(rows)
}

func (r *SlotRepository) GetByID(ctx context.Context, slotID int64) (*models.Slot, error) {
	return scanSlot(r.db.QueryRow(ctx, slotSelect+` WHERE t.id = $1`, slotID))
}

func (r *SlotRepository) GetByIDForUpdate(ctx context.Context, slotID int64) (*models.Slot, error) {
	return scanSlot(r.db.QueryRow(ctx, slotSelect+` WHERE t.id = $1 FOR UPDATE OF t`, slotID))
}

// DeleteUnbooked removes a slot only while it has never been booked.
func (r *SlotRepository) DeleteUnbooked(ctx context.Context, slotID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM available_times WHERE id = $1 AND is_booked = FALSE`, slotID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteDateIfEmpty drops a date record once its last time has been removed.
func (r *SlotRepository) DeleteDateIfEmpty(ctx context.Context, dateID int64) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM available_dates d
		WHERE d.id = $1
		  AND NOT EXISTS (SELECT 1 FROM available_times t WHERE t.date_id = d.id)
	`, dateID)
	return err
}

// Reserve flips is_booked in a single conditional statement. It returns
// pgx.ErrNoRows when the slot is unknown, belongs to someone else, is on a
// different date, or is already booked.
func (r *SlotRepository) Reserve(ctx context.Context, slotID int64, date string, therapistID int64) (*models.Slot, error) {
	return scanSlot(r.db.QueryRow(ctx, `
		UPDATE available_times t
		SET is_booked = TRUE
		FROM available_dates d
		WHERE t.id = $1
		  AND t.date_id = d.id
		  AND d.date = $2::date
		  AND d.therapist_id = $3
		  AND t.is_booked = FALSE
		RETURNING t.id, t.date_id, d.therapist_id, to_char(d.date, 'YYYY-MM-DD'), to_char(t.time_of_day, 'HH24:MI'), t.is_booked
	`, slotID, date, therapistID))
}

// ListAvailable returns one page of unbooked slots on or after fromDate,
// ordered by date, time and id.
func (r *SlotRepository) ListAvailable(
	ctx context.Context,
	therapistID int64,
	fromDate string,
	after *SlotCursor,
	limit int,
) ([]models.Slot, error) {
	cursor := SlotCursor{Date: fromDate, Time: "00:00"}
	if after != nil {
		cursor = *after
	}
	rows, err := r.db.Query(ctx, slotSelect+`
		WHERE d.therapist_id = $1
		  AND d.date >= $2::date
		  AND t.is_booked = FALSE
		  AND ($3::bigint = 0 OR (d.date, t.time_of_day, t.id) > ($4::date, $5::time, $3::bigint))
		ORDER BY d.date, t.time_of_day, t.id
		LIMIT $6
	`, therapistID, fromDate, cursor.ID, cursor.Date, cursor.Time, pageSize(limit))
	if err != nil {
		return nil, err
	}
	return collectSlots(rows)
}
