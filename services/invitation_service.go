package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/profhack/profhack-backend/models"
	"github.com/profhack/profhack-backend/repositories"
)

// InvitationResolver is the shape of Accept and Decline, so handlers can
// route both through one code path.
type InvitationResolver func(ctx context.Context, invitationID, currentUserID int) (*models.Invitation, error)

type InvitationService interface {
	ListForUser(ctx context.Context, userID int) ([]*models.Invitation, error)
	Accept(ctx context.Context, invitationID, currentUserID int) (*models.Invitation, error)
	Decline(ctx context.Context, invitationID, currentUserID int) (*models.Invitation, error)
}

type invitationService struct {
	invitationRepo repositories.InvitationRepository
	teamService    TeamService
	userRepo       repositories.UserRepository
	notifications  NotificationService
	logger         *slog.Logger
}

func NewInvitationService(
	invitationRepo repositories.InvitationRepository,
	teamService TeamService,
	userRepo repositories.UserRepository,
	notifications NotificationService,
	logger *slog.Logger,
) InvitationService {
	return &invitationService{
		invitationRepo: invitationRepo,
		teamService:    teamService,
		userRepo:       userRepo,
		notifications:  notifications,
		logger:         logger,
	}
}

func (s *invitationService) ListForUser(ctx context.Context, userID int) ([]*models.Invitation, error) {
	invitations, err := s.invitationRepo.ListPendingByRecipient(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations for user %d: %w", userID, err)
	}
	return invitations, nil
}

// Accept resolves a pending invitation. Only the recipient may accept: for a
// leader invite that is the invited user, for a join request it is the team
// leader. Eligibility is re-checked against the roster as it stands now, not
// as it stood when the invitation was created.
func (s *invitationService) Accept(ctx context.Context, invitationID, currentUserID int) (*models.Invitation, error) {
	invitation, err := s.getPending(ctx, invitationID, currentUserID)
	if err != nil {
		return nil, err
	}

	// The user who joins the team is the invited user for a leader invite,
	// or the requester for a join request.
	joiningUserID := invitation.RecipientID
	if invitation.Kind == models.InvitationKindJoinRequest {
		joiningUserID = invitation.SenderID
	}

	joining, err := s.userRepo.GetByID(ctx, joiningUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", joiningUserID, err)
	}

	team, err := s.teamService.GetTeamByID(ctx, invitation.TeamID)
	if err != nil {
		return nil, err
	}

	if err := s.teamService.PlaceMember(ctx, team.ID, joining.ID); err != nil {
		return nil, err
	}

	if err := s.invitationRepo.UpdateStatus(ctx, invitationID, models.InvitationStatusAccepted); err != nil {
		// The member is already placed; surface the inconsistency instead of
		// rolling the join back.
		return nil, fmt.Errorf("user %d joined team %d but invitation %d was not marked accepted: %w",
			joining.ID, team.ID, invitationID, err)
	}
	invitation.Status = models.InvitationStatusAccepted

	s.notifyOutcome(ctx, invitation, team, models.NotificationTypeInvitationAccepted,
		fmt.Sprintf("%s joined %s", joining.FullName(), team.Name))

	return invitation, nil
}

func (s *invitationService) Decline(ctx context.Context, invitationID, currentUserID int) (*models.Invitation, error) {
	invitation, err := s.getPending(ctx, invitationID, currentUserID)
	if err != nil {
		return nil, err
	}

	if err := s.invitationRepo.UpdateStatus(ctx, invitationID, models.InvitationStatusDeclined); err != nil {
		if errors.Is(err, repositories.ErrInvitationNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to decline invitation %d: %w", invitationID, err)
	}
	invitation.Status = models.InvitationStatusDeclined

	s.notifyOutcome(ctx, invitation, invitation.Team, models.NotificationTypeInvitationDeclined,
		fmt.Sprintf("Your %s for %s was declined", kindLabel(invitation.Kind), invitation.Team.Name))

	return invitation, nil
}

func (s *invitationService) getPending(ctx context.Context, invitationID, currentUserID int) (*models.Invitation, error) {
	invitation, err := s.invitationRepo.GetByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, repositories.ErrInvitationNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to get invitation %d: %w", invitationID, err)
	}

	if invitation.RecipientID != currentUserID {
		return nil, ErrInvitationNotYours
	}
	if invitation.Status != models.InvitationStatusPending {
		return nil, ErrInvitationNotPending
	}

	return invitation, nil
}

func (s *invitationService) notifyOutcome(ctx context.Context, invitation *models.Invitation, team *models.Team, ntype models.NotificationType, message string) {
	n := &models.Notification{
		UserID:       invitation.SenderID,
		Type:         ntype,
		Message:      message,
		InvitationID: &invitation.ID,
	}
	if team != nil {
		n.TeamID = &team.ID
	}
	if err := s.notifications.Notify(ctx, n); err != nil {
		s.logger.Warn("failed to deliver notification",
			slog.Int("user_id", n.UserID), slog.Any("error", err))
	}
}

func kindLabel(kind models.InvitationKind) string {
	if kind == models.InvitationKindJoinRequest {
		return "join request"
	}
	return "invitation"
}
