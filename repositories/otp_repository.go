package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/profhack/profhack-backend/models"
)

var ErrOTPNotFound = errors.New("otp not found")

type OTPRepository interface {
	// Upsert replaces any existing code for the email with a fresh one.
	Upsert(ctx context.Context, otp *models.EmailOTP) error
	GetByEmail(ctx context.Context, email string) (*models.EmailOTP, error)
	IncrementAttempts(ctx context.Context, id int) error
	Delete(ctx context.Context, id int) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type postgresOTPRepository struct {
	db *sql.DB
}

func NewPostgresOTPRepository(db *sql.DB) OTPRepository {
	return &postgresOTPRepository{db: db}
}

func (r *postgresOTPRepository) Upsert(ctx context.Context, otp *models.EmailOTP) error {
	query := `
		INSERT INTO email_otps (email, code_hash, attempts, expires_at)
		VALUES (lower($1), $2, 0, $3)
		ON CONFLICT (email) DO UPDATE
			SET code_hash = EXCLUDED.code_hash,
			    attempts = 0,
			    expires_at = EXCLUDED.expires_at,
			    created_at = NOW()
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		otp.Email,
		otp.CodeHash,
		otp.ExpiresAt,
	).Scan(&otp.ID, &otp.CreatedAt)
}

func (r *postgresOTPRepository) GetByEmail(ctx context.Context, email string) (*models.EmailOTP, error) {
	query := `
		SELECT id, email, code_hash, attempts, expires_at, created_at
		FROM email_otps
		WHERE email = lower($1)`

	otp := &models.EmailOTP{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&otp.ID,
		&otp.Email,
		&otp.CodeHash,
		&otp.Attempts,
		&otp.ExpiresAt,
		&otp.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOTPNotFound
		}
		return nil, err
	}

	return otp, nil
}

func (r *postgresOTPRepository) IncrementAttempts(ctx context.Context, id int) error {
	query := `UPDATE email_otps SET attempts = attempts + 1 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrOTPNotFound
	}

	return nil
}

func (r *postgresOTPRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM email_otps WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrOTPNotFound
	}

	return nil
}

func (r *postgresOTPRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM email_otps WHERE expires_at <= NOW()`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}

	return checkRowsAffected(result)
}
