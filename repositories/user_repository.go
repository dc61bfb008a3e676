package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/profhack/profhack-backend/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailConflict = errors.New("user email conflict")
	ErrUserTeamInvalid   = errors.New("user team conflict or invalid")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateTeamID(ctx context.Context, userID int, teamID *int) error
	MarkEmailVerified(ctx context.Context, email string) error
	SetPasswordResetToken(ctx context.Context, userID int, token string, expiresAt time.Time) error
	GetByPasswordResetToken(ctx context.Context, token string) (*models.User, error)
	ListByTeamID(ctx context.Context, teamID int) ([]models.User, error)
	ListAvailable(ctx context.Context) ([]models.User, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

const userColumns = `id, first_name, last_name, email, password_hash, department, designation, skills, years_experience, team_id, email_verified, created_at`

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (first_name, last_name, email, password_hash, department, designation, skills, years_experience, team_id, email_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.Department,
		user.Designation,
		user.Skills,
		user.YearsExperience,
		user.TeamID,
		user.EmailVerified,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "users_email_key" {
					return ErrUserEmailConflict
				}
			case "23503": // foreign_key_violation
				if pqErr.Constraint == "users_team_id_fkey" {
					return ErrUserTeamInvalid
				}
			}
		}
		return err
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(ctx, query, id)
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return r.scanUser(ctx, query, email)
}

func (r *postgresUserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET
			first_name = $1,
			last_name = $2,
			email = $3,
			password_hash = $4,
			department = $5,
			designation = $6,
			skills = $7,
			years_experience = $8,
			team_id = $9,
			email_verified = $10,
			password_reset_token = $11,
			password_reset_expires_at = $12
		WHERE id = $13`

	result, err := r.db.ExecContext(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.Department,
		user.Designation,
		user.Skills,
		user.YearsExperience,
		user.TeamID,
		user.EmailVerified,
		user.PasswordResetToken,
		user.PasswordResetExpiresAt,
		user.ID,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "users_email_key" {
					return ErrUserEmailConflict
				}
			case "23503":
				if pqErr.Constraint == "users_team_id_fkey" {
					return ErrUserTeamInvalid
				}
			}
		}
		return err
	}

	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *postgresUserRepository) UpdateTeamID(ctx context.Context, userID int, teamID *int) error {
	query := `UPDATE users SET team_id = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, teamID, userID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			if pqErr.Constraint == "users_team_id_fkey" {
				return ErrUserTeamInvalid
			}
		}
		return err
	}

	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *postgresUserRepository) MarkEmailVerified(ctx context.Context, email string) error {
	query := `UPDATE users SET email_verified = TRUE WHERE lower(email) = lower($1)`

	result, err := r.db.ExecContext(ctx, query, email)
	if err != nil {
		return err
	}

	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *postgresUserRepository) SetPasswordResetToken(ctx context.Context, userID int, token string, expiresAt time.Time) error {
	query := `UPDATE users SET password_reset_token = $1, password_reset_expires_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, token, expiresAt, userID)
	if err != nil {
		return err
	}

	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *postgresUserRepository) GetByPasswordResetToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT ` + userColumns + `, password_reset_token, password_reset_expires_at
		FROM users WHERE password_reset_token = $1`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.Department,
		&user.Designation,
		&user.Skills,
		&user.YearsExperience,
		&user.TeamID,
		&user.EmailVerified,
		&user.CreatedAt,
		&user.PasswordResetToken,
		&user.PasswordResetExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ListByTeamID returns the members of a team ordered by join time.
func (r *postgresUserRepository) ListByTeamID(ctx context.Context, teamID int) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE team_id = $1 ORDER BY created_at ASC`
	return r.listUsers(ctx, query, teamID)
}

// ListAvailable returns verified faculty not yet on any team.
func (r *postgresUserRepository) ListAvailable(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE team_id IS NULL AND email_verified ORDER BY first_name ASC, last_name ASC`
	return r.listUsers(ctx, query)
}

func (r *postgresUserRepository) listUsers(ctx context.Context, query string, args ...interface{}) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var user models.User
		scanErr := rows.Scan(
			&user.ID,
			&user.FirstName,
			&user.LastName,
			&user.Email,
			&user.PasswordHash,
			&user.Department,
			&user.Designation,
			&user.Skills,
			&user.YearsExperience,
			&user.TeamID,
			&user.EmailVerified,
			&user.CreatedAt,
		)
		if scanErr != nil {
			return nil, scanErr
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *postgresUserRepository) scanUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.Department,
		&user.Designation,
		&user.Skills,
		&user.YearsExperience,
		&user.TeamID,
		&user.EmailVerified,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}
