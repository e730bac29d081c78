package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MUHAMMEDJasir72/MindEase/internal/models"
)

type CreateSessionInput struct {
	ClientID          int64
	TherapistID       int64
	SlotID            int64
	StartsAt          time.Time
	Price             int64
	Commission        int64
	CommissionOwnerID int64
	Mode              models.SessionMode
	IsNew             bool
}

type SessionListFilter struct {
	ActorID   int64
	Role      models.Role
	Status    string
	Timeframe string
	Limit     int
}

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `
	id, client_id, therapist_id, slot_id, starts_at, price, commission, commission_owner_id, mode, status, is_new,
	client_attended, therapist_attended, feedback, rating, cancel_reason, canceled_by,
	created_at, updated_at
`

func scanSession(row rowScanner) (*models.Session, error) {
	var s models.Session
	if err := row.Scan(
		&s.ID,
		&s.ClientID,
		&s.TherapistID,
		&s.SlotID,
		&s.StartsAt,
		&s.Price,
		&s.Commission,
		&s.CommissionOwnerID,
		&s.Mode,
		&s.Status,
		&s.IsNew,
		&s.ClientAttended,
		&s.TherapistAttended,
		&s.Feedback,
		&s.Rating,
		&s.CancelReason,
		&s.CanceledBy,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) Create(ctx context.Context, input CreateSessionInput) (*models.Session, error) {
	query := `
		INSERT INTO therapy_sessions (
			client_id, therapist_id, slot_id, starts_at, price, commission, commission_owner_id, mode, is_new
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + sessionColumns
	return scanSession(r.db.QueryRow(
		ctx,
		query,
		input.ClientID,
		input.TherapistID,
		input.SlotID,
		input.StartsAt,
		input.Price,
		input.Commission,
		input.CommissionOwnerID,
		input.Mode,
		input.IsNew,
	))
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID int64) (*models.Session, error) {
	return scanSession(r.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM therapy_sessions WHERE id = $1`, sessionID))
}

func (r *SessionRepository) GetByIDForUpdate(ctx context.Context, sessionID int64) (*models.Session, error) {
	return scanSession(r.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM therapy_sessions WHERE id = $1 FOR UPDATE`, sessionID))
}

// HasPriorSession reports whether the client already booked this therapist.
func (r *SessionRepository) HasPriorSession(ctx context.Context, clientID, therapistID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM therapy_sessions WHERE client_id = $1 AND therapist_id = $2)
	`, clientID, therapistID).Scan(&exists)
	return exists, err
}

func (r *SessionRepository) List(ctx context.Context, filter SessionListFilter) ([]models.Session, error) {
	var (
		args       []any
		whereParts []string
	)
	switch filter.Role {
	case models.RoleClient:
		args = append(args, filter.ActorID)
		whereParts = append(whereParts, "client_id = $1")
	case models.RoleTherapist:
		args = append(args, filter.ActorID)
		whereParts = append(whereParts, "therapist_id = $1")
	case models.RoleOperator:
		// operators read every session
	default:
		return nil, fmt.Errorf("list sessions: unsupported role %q", filter.Role)
	}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}

	switch strings.TrimSpace(filter.Timeframe) {
	case "upcoming":
		whereParts = append(whereParts, "starts_at > NOW()")
	case "past":
		whereParts = append(whereParts, "starts_at <= NOW()")
	}

	where := "TRUE"
	if len(whereParts) > 0 {
		where = strings.Join(whereParts, " AND ")
	}
	args = append(args, pageSize(filter.Limit))
	query := fmt.Sprintf(`
		SELECT %s
		FROM therapy_sessions
		WHERE %s
		ORDER BY starts_at DESC, id DESC
		LIMIT $%d
	`, sessionColumns, where, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// RatingSummary averages the therapist's non-null ratings.
func (r *SessionRepository) RatingSummary(ctx context.Context, therapistID int64) (*models.RatingSummary, error) {
	out := models.RatingSummary{TherapistID: therapistID}
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(AVG(rating), 0)::float8, COUNT(rating)
		FROM therapy_sessions
		WHERE therapist_id = $1 AND rating IS NOT NULL
	`, therapistID).Scan(&out.Average, &out.Count)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListDueIDs pages through scheduled sessions that started before cutoff.
func (r *SessionRepository) ListDueIDs(ctx context.Context, cutoff time.Time, afterID int64, limit int) ([]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id
		FROM therapy_sessions
		WHERE status = 'scheduled' AND starts_at < $1 AND id > $2
		ORDER BY id
		LIMIT $3
	`, cutoff, afterID, pageSize(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TransitionIfScheduled moves a scheduled session to next. It returns
// pgx.ErrNoRows when the session is missing or already terminal.
func (r *SessionRepository) TransitionIfScheduled(
	ctx context.Context,
	sessionID int64,
	next models.SessionStatus,
) (*models.Session, error) {
	query := `
		UPDATE therapy_sessions
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'scheduled'
		RETURNING ` + sessionColumns
	return scanSession(r.db.QueryRow(ctx, query, sessionID, next))
}

func (r *SessionRepository) CancelIfScheduled(
	ctx context.Context,
	sessionID int64,
	reason string,
	by models.Party,
) (*models.Session, error) {
	query := `
		UPDATE therapy_sessions
		SET status = 'cancelled', cancel_reason = $2, canceled_by = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'scheduled'
		RETURNING ` + sessionColumns
	return scanSession(r.db.QueryRow(ctx, query, sessionID, reason, by))
}

// MarkAttendance sets one party's flag on a scheduled session.
func (r *SessionRepository) MarkAttendance(
	ctx context.Context,
	sessionID int64,
	party models.Party,
) (*models.Session, error) {
	column := "client_attended"
	if party == models.PartyTherapist {
		column = "therapist_attended"
	}
	query := fmt.Sprintf(`
		UPDATE therapy_sessions
		SET %s = TRUE, updated_at = NOW()
		WHERE id = $1 AND status = 'scheduled'
		RETURNING %s
	`, column, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) SetFeedback(
	ctx context.Context,
	sessionID int64,
	feedback string,
	rating int,
) (*models.Session, error) {
	query := `
		UPDATE therapy_sessions
		SET feedback = $2, rating = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + sessionColumns
	return scanSession(r.db.QueryRow(ctx, query, sessionID, feedback, rating))
}
