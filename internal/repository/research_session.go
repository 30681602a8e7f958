package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	apperrors "github.com/advista/advista-server-go/internal/errors"
	"github.com/advista/advista-server-go/internal/model"
)

type ResearchSessionRepository interface {
	FindByID(ctx context.Context, id string) (*model.ResearchSession, error)
	FindByThreadID(ctx context.Context, threadID string) (*model.ResearchSession, error)
	ListByUser(ctx context.Context, userID string) ([]model.ResearchSession, error)
	FindLatestCompleted(ctx context.Context) (*model.ResearchSession, error)
	Create(ctx context.Context, params model.CreateResearchSessionParams) (*model.ResearchSession, error)
	// UpdateStatus moves the session from expected to next. It returns
	// an invalid-transition error when the row is no longer in expected,
	// so concurrent workers cannot double-advance a session.
	UpdateStatus(ctx context.Context, id string, expected, next model.ResearchSessionStatus) error
	SaveTaskIDs(ctx context.Context, id string, taskIDs json.RawMessage) error
	SaveSearchResults(ctx context.Context, id string, results json.RawMessage) error
	SaveProcessedResults(ctx context.Context, id string, processed json.RawMessage) error
	SaveReport(ctx context.Context, id string, report, resourcesUsed json.RawMessage) error
	MarkFailed(ctx context.Context, id string, meta json.RawMessage) error
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) ResearchSessionRepository
}

type researchSessionDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type researchSessionRepo struct {
	db researchSessionDB
}

func NewResearchSessionRepository(db *sqlx.DB) ResearchSessionRepository {
	return &researchSessionRepo{db: db}
}

func (r *researchSessionRepo) WithTx(tx *sqlx.Tx) ResearchSessionRepository {
	return &researchSessionRepo{db: tx}
}

func (r *researchSessionRepo) FindByID(ctx context.Context, id string) (*model.ResearchSession, error) {
	var session model.ResearchSession
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM research_sessions WHERE id = $1
	`, id)
	return HandleNotFound(&session, err)
}

func (r *researchSessionRepo) FindByThreadID(ctx context.Context, threadID string) (*model.ResearchSession, error) {
	var session model.ResearchSession
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM research_sessions WHERE thread_id = $1
	`, threadID)
	return HandleNotFound(&session, err)
}

func (r *researchSessionRepo) ListByUser(ctx context.Context, userID string) ([]model.ResearchSession, error) {
	var sessions []model.ResearchSession
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT * FROM research_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *researchSessionRepo) FindLatestCompleted(ctx context.Context) (*model.ResearchSession, error) {
	var session model.ResearchSession
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM research_sessions
		WHERE status = 'completed'
		ORDER BY completed_at DESC
		LIMIT 1
	`)
	return HandleNotFound(&session, err)
}

func (r *researchSessionRepo) Create(ctx context.Context, params model.CreateResearchSessionParams) (*model.ResearchSession, error) {
	var session model.ResearchSession
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO research_sessions (thread_id, user_id, research_brief)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.ThreadID, params.UserID, params.ResearchBrief)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, apperrors.AlreadyExists("Research session")
		}
		return nil, err
	}
	return &session, nil
}

func (r *researchSessionRepo) UpdateStatus(ctx context.Context, id string, expected, next model.ResearchSessionStatus) error {
	if !model.CanTransition(expected, next) {
		return apperrors.InvalidTransition(string(expected), string(next))
	}

	completedAt := sql.NullTime{}
	if next == model.ResearchStatusCompleted {
		completedAt = sql.NullTime{Time: time.Now(), Valid: true}
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE research_sessions SET
			status = $3,
			completed_at = COALESCE($4, completed_at),
			updated_at = $5
		WHERE id = $1 AND status = $2
	`, id, expected, next, completedAt, time.Now())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.InvalidTransition(string(expected), string(next)).
			WithDetails(map[string]any{"sessionId": id})
	}
	return nil
}

func (r *researchSessionRepo) SaveTaskIDs(ctx context.Context, id string, taskIDs json.RawMessage) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE research_sessions SET
			task_ids = $2,
			updated_at = $3
		WHERE id = $1
	`, id, taskIDs, time.Now())
	return err
}

func (r *researchSessionRepo) SaveSearchResults(ctx context.Context, id string, results json.RawMessage) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE research_sessions SET
			search_results = $2,
			updated_at = $3
		WHERE id = $1
	`, id, results, time.Now())
	return err
}

func (r *researchSessionRepo) SaveProcessedResults(ctx context.Context, id string, processed json.RawMessage) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE research_sessions SET
			processed_results = $2,
			updated_at = $3
		WHERE id = $1
	`, id, processed, time.Now())
	return err
}

func (r *researchSessionRepo) SaveReport(ctx context.Context, id string, report, resourcesUsed json.RawMessage) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE research_sessions SET
			report = $2,
			resources_used = $3,
			updated_at = $4
		WHERE id = $1
	`, id, report, resourcesUsed, time.Now())
	return err
}

func (r *researchSessionRepo) MarkFailed(ctx context.Context, id string, meta json.RawMessage) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE research_sessions SET
			status = 'failed',
			meta = $2,
			updated_at = $3
		WHERE id = $1 AND status NOT IN ('completed', 'failed')
	`, id, meta, time.Now())
	return err
}
