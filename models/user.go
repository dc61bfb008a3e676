package models

import "time"

type User struct {
	ID              int    `json:"id"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	PasswordHash    string `json:"-"`
	Department      string `json:"department"`
	Designation     string `json:"designation"`
	Skills          string `json:"skills"`
	YearsExperience int    `json:"years_experience"`
	TeamID          *int   `json:"team_id,omitempty"`
	EmailVerified   bool   `json:"email_verified"`

	PasswordResetToken     *string    `json:"-"`
	PasswordResetExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`

	Team *Team `json:"team,omitempty"`
}

// FullName is used in notification messages and invite emails.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
