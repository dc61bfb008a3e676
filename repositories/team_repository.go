package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/profhack/profhack-backend/models"
)

var (
	ErrTeamNotFound      = errors.New("team not found")
	ErrTeamNameConflict  = errors.New("team name conflict")
	ErrTeamLeaderInvalid = errors.New("team leader invalid")
)

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	List(ctx context.Context) ([]*models.Team, error)
	Update(ctx context.Context, team *models.Team) error
	UpdateStatus(ctx context.Context, teamID int, status models.TeamStatus) error
	AddScore(ctx context.Context, teamID int, delta int) error
	Delete(ctx context.Context, id int) error
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (name, description, leader_id, max_size, is_private, skills, status, score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		team.Name,
		team.Description,
		team.LeaderID,
		team.MaxSize,
		team.IsPrivate,
		team.Skills,
		team.Status,
	).Scan(&team.ID, &team.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "teams_name_key" {
					return ErrTeamNameConflict
				}
			case "23503":
				if pqErr.Constraint == "teams_leader_id_fkey" {
					return ErrTeamLeaderInvalid
				}
			}
		}
		return err
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := teamSelect + ` WHERE t.id = $1`

	teams, err := r.queryTeams(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return nil, ErrTeamNotFound
	}
	return teams[0], nil
}

func (r *postgresTeamRepository) List(ctx context.Context) ([]*models.Team, error) {
	query := teamSelect + ` ORDER BY t.created_at DESC`
	return r.queryTeams(ctx, query)
}

const teamSelect = `
	SELECT
		t.id, t.name, t.description, t.leader_id, t.max_size, t.is_private, t.skills, t.status, t.score, t.created_at,
		u.id, u.first_name, u.last_name, u.email, u.department, u.designation, u.skills, u.years_experience
	FROM teams t
	JOIN users u ON u.id = t.leader_id`

func (r *postgresTeamRepository) queryTeams(ctx context.Context, query string, args ...interface{}) ([]*models.Team, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		var team models.Team
		var leader models.User
		scanErr := rows.Scan(
			&team.ID,
			&team.Name,
			&team.Description,
			&team.LeaderID,
			&team.MaxSize,
			&team.IsPrivate,
			&team.Skills,
			&team.Status,
			&team.Score,
			&team.CreatedAt,
			&leader.ID,
			&leader.FirstName,
			&leader.LastName,
			&leader.Email,
			&leader.Department,
			&leader.Designation,
			&leader.Skills,
			&leader.YearsExperience,
		)
		if scanErr != nil {
			return nil, scanErr
		}
		team.Leader = &leader
		teams = append(teams, &team)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return teams, nil
}

func (r *postgresTeamRepository) Update(ctx context.Context, team *models.Team) error {
	query := `
		UPDATE teams SET
			name = $1,
			description = $2,
			leader_id = $3,
			is_private = $4,
			skills = $5,
			status = $6
		WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		team.Name,
		team.Description,
		team.LeaderID,
		team.IsPrivate,
		team.Skills,
		team.Status,
		team.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "teams_name_key" {
				return ErrTeamNameConflict
			}
		}
		return err
	}

	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrTeamNotFound
	}

	return nil
}

func (r *postgresTeamRepository) UpdateStatus(ctx context.Context, teamID int, status models.TeamStatus) error {
	query := `UPDATE teams SET status = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, status, teamID)
	if err != nil {
		return err
	}

	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrTeamNotFound
	}

	return nil
}

func (r *postgresTeamRepository) AddScore(ctx context.Context, teamID int, delta int) error {
	query := `UPDATE teams SET score = score + $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, delta, teamID)
	if err != nil {
		return err
	}

	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrTeamNotFound
	}

	return nil
}

func (r *postgresTeamRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM teams WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrTeamNotFound
	}

	return nil
}

// Leaderboard ranks teams by score, oldest first on ties.
func (r *postgresTeamRepository) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	query := `
		SELECT
			RANK() OVER (ORDER BY t.score DESC, t.created_at ASC) AS rank,
			t.id, t.name, t.score,
			(SELECT COUNT(*) FROM users u WHERE u.team_id = t.id) AS member_count,
			t.status
		FROM teams t
		ORDER BY rank ASC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.LeaderboardEntry, 0)
	for rows.Next() {
		var e models.LeaderboardEntry
		if scanErr := rows.Scan(&e.Rank, &e.TeamID, &e.TeamName, &e.Score, &e.MemberCount, &e.Status); scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, e)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
