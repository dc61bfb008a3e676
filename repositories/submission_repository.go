package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/profhack/profhack-backend/models"
)

var (
	ErrSubmissionNotFound    = errors.New("submission not found")
	ErrSubmissionConflict    = errors.New("submission already exists for team")
	ErrSubmissionTeamInvalid = errors.New("submission team conflict or invalid")
)

type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByTeamID(ctx context.Context, teamID int) (*models.Submission, error)
}

type postgresSubmissionRepository struct {
	db *sql.DB
}

func NewPostgresSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &postgresSubmissionRepository{db: db}
}

func (r *postgresSubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	query := `
		INSERT INTO submissions (team_id, track, brief, file_key, submitted_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		submission.TeamID,
		submission.Track,
		submission.Brief,
		submission.FileKey,
		submission.SubmittedBy,
	).Scan(&submission.ID, &submission.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				// submissions.team_id is unique: one entry per team.
				if pqErr.Constraint == "submissions_team_id_key" {
					return ErrSubmissionConflict
				}
			case "23503":
				if pqErr.Constraint == "submissions_team_id_fkey" {
					return ErrSubmissionTeamInvalid
				}
			}
		}
		return err
	}

	return nil
}

func (r *postgresSubmissionRepository) GetByTeamID(ctx context.Context, teamID int) (*models.Submission, error) {
	query := `
		SELECT id, team_id, track, brief, file_key, submitted_by, created_at
		FROM submissions
		WHERE team_id = $1`

	submission := &models.Submission{}
	err := r.db.QueryRowContext(ctx, query, teamID).Scan(
		&submission.ID,
		&submission.TeamID,
		&submission.Track,
		&submission.Brief,
		&submission.FileKey,
		&submission.SubmittedBy,
		&submission.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}

	return submission, nil
}
