package models

import "time"

type InvitationKind string

const (
	// InvitationKindInvite is sent by a team leader to a prospective member.
	InvitationKindInvite InvitationKind = "invite"
	// InvitationKindJoinRequest is sent by a user to a team's leader.
	InvitationKindJoinRequest InvitationKind = "join_request"
)

type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusDeclined InvitationStatus = "declined"
)

type Invitation struct {
	ID          int              `json:"id" db:"id"`
	TeamID      int              `json:"team_id" db:"team_id"`
	SenderID    int              `json:"sender_id" db:"sender_id"`
	RecipientID int              `json:"recipient_id" db:"recipient_id"`
	Kind        InvitationKind   `json:"kind" db:"kind"`
	Status      InvitationStatus `json:"status" db:"status"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`

	Team      *Team `json:"team,omitempty" db:"-"`
	Sender    *User `json:"sender,omitempty" db:"-"`
	Recipient *User `json:"recipient,omitempty" db:"-"`
}
