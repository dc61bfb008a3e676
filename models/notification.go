package models

import "time"

type NotificationType string

const (
	NotificationTypeInvite             NotificationType = "team_invite"
	NotificationTypeJoinRequest        NotificationType = "join_request"
	NotificationTypeInvitationAccepted NotificationType = "invitation_accepted"
	NotificationTypeInvitationDeclined NotificationType = "invitation_declined"
	NotificationTypeMemberRemoved      NotificationType = "member_removed"
	NotificationTypeTeamDisbanded      NotificationType = "team_disbanded"
	NotificationTypeSubmissionReceived NotificationType = "submission_received"
)

type Notification struct {
	ID           int              `json:"id" db:"id"`
	UserID       int              `json:"user_id" db:"user_id"`
	Type         NotificationType `json:"type" db:"type"`
	Message      string           `json:"message" db:"message"`
	Read         bool             `json:"read" db:"read"`
	TeamID       *int             `json:"team_id,omitempty" db:"team_id"`
	InvitationID *int             `json:"invitation_id,omitempty" db:"invitation_id"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
}
