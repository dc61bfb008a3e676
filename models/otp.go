package models

import "time"

// EmailOTP is the verification code row for a registering email address.
// At most one row exists per email; resends replace the code.
type EmailOTP struct {
	ID        int       `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	CodeHash  string    `json:"-" db:"code_hash"`
	Attempts  int       `json:"attempts" db:"attempts"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
