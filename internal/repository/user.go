package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	apperrors "github.com/advista/advista-server-go/internal/errors"
	"github.com/advista/advista-server-go/internal/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, params model.CreateUserParams) (*model.User, error)
	MarkVerified(ctx context.Context, id string) error
	SetVerificationCode(ctx context.Context, id string, code string, expiresAt time.Time) error
	SetResetCode(ctx context.Context, id string, code string, expiresAt time.Time) error
	UpdatePassword(ctx context.Context, id string, hashedPassword string) error
	ClearExpiredCodes(ctx context.Context, now time.Time) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) UserRepository
}

type userDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type userRepo struct {
	db userDB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) WithTx(tx *sqlx.Tx) UserRepository {
	return &userRepo{db: tx}
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE id = $1
	`, id)
	return HandleNotFound(&user, err)
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE LOWER(email) = LOWER($1)
	`, email)
	return HandleNotFound(&user, err)
}

func (r *userRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		INSERT INTO users (email, hashed_password, display_name, firebase_uid, verification_code, verification_expires_at)
		VALUES (LOWER($1), $2, $3, $4, $5, $6)
		RETURNING *
	`, params.Email, params.HashedPassword, params.DisplayName, params.FirebaseUID,
		params.VerificationCode, params.VerificationExpiresAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, apperrors.AlreadyExists("User")
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) MarkVerified(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			is_verified = TRUE,
			verification_code = NULL,
			verification_expires_at = NULL,
			updated_at = $2
		WHERE id = $1
	`, id, time.Now())
	return err
}

func (r *userRepo) SetVerificationCode(ctx context.Context, id string, code string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			verification_code = $2,
			verification_expires_at = $3,
			updated_at = $4
		WHERE id = $1
	`, id, code, expiresAt, time.Now())
	return err
}

func (r *userRepo) SetResetCode(ctx context.Context, id string, code string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			reset_code = $2,
			reset_expires_at = $3,
			updated_at = $4
		WHERE id = $1
	`, id, code, expiresAt, time.Now())
	return err
}

func (r *userRepo) UpdatePassword(ctx context.Context, id string, hashedPassword string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			hashed_password = $2,
			reset_code = NULL,
			reset_expires_at = NULL,
			updated_at = $3
		WHERE id = $1
	`, id, hashedPassword, time.Now())
	return err
}

func (r *userRepo) ClearExpiredCodes(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			verification_code = NULL,
			verification_expires_at = NULL
		WHERE verification_code IS NOT NULL
		AND verification_expires_at < $1
	`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
