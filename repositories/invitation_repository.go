package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/profhack/profhack-backend/models"
)

var (
	ErrInvitationNotFound    = errors.New("invitation not found")
	ErrInvitationConflict    = errors.New("invitation already exists")
	ErrInvitationTeamInvalid = errors.New("invitation team conflict or invalid")
)

type InvitationRepository interface {
	Create(ctx context.Context, invitation *models.Invitation) error
	GetByID(ctx context.Context, id int) (*models.Invitation, error)
	ListPendingByRecipient(ctx context.Context, recipientID int) ([]*models.Invitation, error)
	ListByTeam(ctx context.Context, teamID int) ([]*models.Invitation, error)
	UpdateStatus(ctx context.Context, id int, status models.InvitationStatus) error
	DeclinePendingForUser(ctx context.Context, userID int) (int64, error)
	DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}

type postgresInvitationRepository struct {
	db *sql.DB
}

func NewPostgresInvitationRepository(db *sql.DB) InvitationRepository {
	return &postgresInvitationRepository{db: db}
}

func (r *postgresInvitationRepository) Create(ctx context.Context, invitation *models.Invitation) error {
	query := `
		INSERT INTO invitations (team_id, sender_id, recipient_id, kind, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		invitation.TeamID,
		invitation.SenderID,
		invitation.RecipientID,
		invitation.Kind,
		invitation.Status,
	).Scan(&invitation.ID, &invitation.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				// Partial unique index on (team_id, sender_id, recipient_id, kind)
			// for pending rows.
				if pqErr.Constraint == "invitations_pending_key" {
					return ErrInvitationConflict
				}
			case "23503":
				if pqErr.Constraint == "invitations_team_id_fkey" {
					return ErrInvitationTeamInvalid
				}
			}
		}
		return err
	}

	return nil
}

const invitationSelect = `
	SELECT
		i.id, i.team_id, i.sender_id, i.recipient_id, i.kind, i.status, i.created_at,
		t.name, t.status,
		s.first_name, s.last_name, s.department,
		rc.first_name, rc.last_name, rc.department
	FROM invitations i
	JOIN teams t ON t.id = i.team_id
	JOIN users s ON s.id = i.sender_id
	JOIN users rc ON rc.id = i.recipient_id`

func (r *postgresInvitationRepository) GetByID(ctx context.Context, id int) (*models.Invitation, error) {
	invitations, err := r.queryInvitations(ctx, invitationSelect+` WHERE i.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(invitations) == 0 {
		return nil, ErrInvitationNotFound
	}
	return invitations[0], nil
}

func (r *postgresInvitationRepository) ListPendingByRecipient(ctx context.Context, recipientID int) ([]*models.Invitation, error) {
	query := invitationSelect + ` WHERE i.recipient_id = $1 AND i.status = 'pending' ORDER BY i.created_at DESC`
	return r.queryInvitations(ctx, query, recipientID)
}

func (r *postgresInvitationRepository) ListByTeam(ctx context.Context, teamID int) ([]*models.Invitation, error) {
	query := invitationSelect + ` WHERE i.team_id = $1 ORDER BY i.created_at DESC`
	return r.queryInvitations(ctx, query, teamID)
}

func (r *postgresInvitationRepository) queryInvitations(ctx context.Context, query string, args ...interface{}) ([]*models.Invitation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invitations := make([]*models.Invitation, 0)
	for rows.Next() {
		var inv models.Invitation
		var team models.Team
		var sender, recipient models.User
		if scanErr := rows.Scan(
			&inv.ID,
			&inv.TeamID,
			&inv.SenderID,
			&inv.RecipientID,
			&inv.Kind,
			&inv.Status,
			&inv.CreatedAt,
			&team.Name,
			&team.Status,
			&sender.FirstName,
			&sender.LastName,
			&sender.Department,
			&recipient.FirstName,
			&recipient.LastName,
			&recipient.Department,
		); scanErr != nil {
			return nil, scanErr
		}
		team.ID = inv.TeamID
		sender.ID = inv.SenderID
		recipient.ID = inv.RecipientID
		inv.Team = &team
		inv.Sender = &sender
		inv.Recipient = &recipient
		invitations = append(invitations, &inv)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return invitations, nil
}

func (r *postgresInvitationRepository) UpdateStatus(ctx context.Context, id int, status models.InvitationStatus) error {
	query := `UPDATE invitations SET status = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}

	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrInvitationNotFound
	}

	return nil
}

// DeclinePendingForUser declines every pending invitation a user is the
// recipient of. Called once the user lands on a team.
func (r *postgresInvitationRepository) DeclinePendingForUser(ctx context.Context, userID int) (int64, error) {
	query := `UPDATE invitations SET status = 'declined' WHERE recipient_id = $1 AND status = 'pending'`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, err
	}

	return checkRowsAffected(result)
}

func (r *postgresInvitationRepository) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `DELETE FROM invitations WHERE status = 'pending' AND created_at <= NOW() - $1::interval`

	result, err := r.db.ExecContext(ctx, query, olderThan.String())
	if err != nil {
		return 0, err
	}

	return checkRowsAffected(result)
}
