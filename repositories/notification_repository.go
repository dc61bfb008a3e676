package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/profhack/profhack-backend/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id int, userID int) error
}

type postgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	query := `
		INSERT INTO notifications (user_id, type, message, read, team_id, invitation_id)
		VALUES ($1, $2, $3, FALSE, $4, $5)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		notification.UserID,
		notification.Type,
		notification.Message,
		notification.TeamID,
		notification.InvitationID,
	).Scan(&notification.ID, &notification.CreatedAt)
}

func (r *postgresNotificationRepository) ListByUser(ctx context.Context, userID int) ([]*models.Notification, error) {
	query := `
		SELECT id, user_id, type, message, read, team_id, invitation_id, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]*models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if scanErr := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Type,
			&n.Message,
			&n.Read,
			&n.TeamID,
			&n.InvitationID,
			&n.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		notifications = append(notifications, &n)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return notifications, nil
}

// MarkRead is scoped to the owning user so one user cannot touch another's
// notifications.
func (r *postgresNotificationRepository) MarkRead(ctx context.Context, id int, userID int) error {
	query := `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}

	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrNotificationNotFound
	}

	return nil
}
