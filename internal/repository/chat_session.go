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

type ChatSessionRepository interface {
	FindByThreadID(ctx context.Context, threadID string) (*model.ChatSession, error)
	Create(ctx context.Context, params model.CreateChatSessionParams) (*model.ChatSession, error)
	Touch(ctx context.Context, threadID string, expiresAt time.Time) error
	SaveBrief(ctx context.Context, threadID string, brief json.RawMessage, status model.ChatSessionStatus) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) ChatSessionRepository
}

type chatSessionDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type chatSessionRepo struct {
	db chatSessionDB
}

func NewChatSessionRepository(db *sqlx.DB) ChatSessionRepository {
	return &chatSessionRepo{db: db}
}

func (r *chatSessionRepo) WithTx(tx *sqlx.Tx) ChatSessionRepository {
	return &chatSessionRepo{db: tx}
}

func (r *chatSessionRepo) FindByThreadID(ctx context.Context, threadID string) (*model.ChatSession, error) {
	var session model.ChatSession
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM chat_sessions WHERE thread_id = $1
	`, threadID)
	return HandleNotFound(&session, err)
}

func (r *chatSessionRepo) Create(ctx context.Context, params model.CreateChatSessionParams) (*model.ChatSession, error) {
	metadata := params.Metadata
	if metadata == nil {
		metadata = json.RawMessage(`{}`)
	}
	var session model.ChatSession
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO chat_sessions (thread_id, user_id, metadata, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.ThreadID, params.UserID, metadata, params.ExpiresAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, apperrors.AlreadyExists("Chat session")
		}
		return nil, err
	}
	return &session, nil
}

// Touch extends the session's idle window and records activity.
func (r *chatSessionRepo) Touch(ctx context.Context, threadID string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE chat_sessions SET
			last_activity = $2,
			expires_at = $3
		WHERE thread_id = $1
	`, threadID, time.Now(), expiresAt)
	return err
}

func (r *chatSessionRepo) SaveBrief(ctx context.Context, threadID string, brief json.RawMessage, status model.ChatSessionStatus) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE chat_sessions SET
			research_brief = $2,
			status = $3,
			last_activity = $4
		WHERE thread_id = $1
	`, threadID, brief, status, time.Now())
	return err
}

func (r *chatSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM chat_sessions WHERE expires_at < $1
	`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
