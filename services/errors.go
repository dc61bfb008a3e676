package services

import (
	"errors"
	"fmt"
	"strings"
)

// Shared errors used across services and the HTTP mapping layer.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed   = errors.New("validation failed")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("email is not verified")
	ErrEmailInvalid       = errors.New("invalid email address")
	ErrTeamNameRequired   = errors.New("team name is required")
	ErrUserAlreadyInTeam  = errors.New("user is already in a team")
	ErrUserNotInTeam      = errors.New("user is not in this team")
	ErrTeamFull           = errors.New("team is full")
	ErrCannotRemoveLeader = errors.New("cannot remove the team leader")
	ErrLeaderCannotLeave  = errors.New("the team leader cannot leave, disband the team instead")
	ErrTrackInvalid       = errors.New("invalid track")
	ErrBriefRequired      = errors.New("idea brief is required")
	ErrFileNotPDF         = errors.New("submission file must be a PDF")
	ErrFileTooLarge       = errors.New("submission file exceeds the size limit")
	ErrRosterIncomplete   = errors.New("team roster is not complete")

	// OTP
	ErrOTPInvalid         = errors.New("invalid verification code")
	ErrOTPExpired         = errors.New("verification code has expired")
	ErrOTPAttemptsReached = errors.New("too many failed verification attempts, request a new code")
	ErrOTPResendThrottled = errors.New("please wait before requesting another code")

	// Conflicts
	ErrUserEmailConflict  = errors.New("email address is already in use")
	ErrTeamNameConflict   = errors.New("team name is already in use")
	ErrInvitationConflict = errors.New("a pending invitation already exists for this user")
	ErrSubmissionConflict = errors.New("team has already submitted")

	// Authentication and authorization
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")
	ErrLeaderActionOnly     = errors.New("only the team leader can perform this action")
	ErrInvitationNotYours   = errors.New("invitation is not addressed to the current user")
	ErrInvitationNotPending = errors.New("invitation is no longer pending")

	// Entity-specific not-found errors
	ErrUserNotFound         = errors.New("user not found")
	ErrTeamNotFound         = errors.New("team not found")
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrSubmissionNotFound   = errors.New("submission not found")

	// Password reset
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")
)

// CompositionError carries the full list of roster rule violations so the
// HTTP layer can return them as a structured violations array.
type CompositionError struct {
	Violations []string
}

func (e *CompositionError) Error() string {
	return "team composition invalid: " + strings.Join(e.Violations, "; ")
}

// DepartmentError reports a single candidate rejected by the department
// rules. The HTTP layer returns it with a department field so the UI can
// point at the offending selection.
type DepartmentError struct {
	Department string
	Reason     string
}

func (e *DepartmentError) Error() string {
	return fmt.Sprintf("department %q ineligible: %s", e.Department, e.Reason)
}
