package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/profhack/profhack-backend/eligibility"
	"github.com/profhack/profhack-backend/models"
	"github.com/profhack/profhack-backend/repositories"
)

const leaderboardLimit = 50

type CreateTeamInput struct {
	Name        string `json:"name" validate:"required,max=80"`
	Description string `json:"description"`
	IsPrivate   bool   `json:"is_private"`
	Skills      string `json:"skills"`
	// MemberIDs are teammates selected at creation time, leader excluded.
	MemberIDs []int `json:"member_ids" validate:"max=4"`

	LeaderID int `json:"-"`
}

// Candidate is an available faculty member annotated with the eligibility
// decision against a team's current roster.
type Candidate struct {
	User     models.User          `json:"user"`
	Decision eligibility.Decision `json:"decision"`
}

type TeamService interface {
	CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error)
	GetTeamByID(ctx context.Context, teamID int) (*models.Team, error)
	ListTeams(ctx context.Context) ([]*models.Team, error)
	RequestJoin(ctx context.Context, teamID, userID int) (*models.Invitation, error)
	Invite(ctx context.Context, teamID, recipientID, senderID int) (*models.Invitation, error)
	AddMember(ctx context.Context, teamID, userID, currentUserID int) error
	// PlaceMember adds a user to a team after running the selection rules,
	// without a leader check. Used by invitation acceptance, where
	// authorization has already been established.
	PlaceMember(ctx context.Context, teamID, userID int) error
	RemoveMember(ctx context.Context, teamID, memberID, currentUserID int) error
	Leave(ctx context.Context, teamID, currentUserID int) error
	DeleteTeam(ctx context.Context, teamID, currentUserID int) error
	AvailableFaculty(ctx context.Context, teamID int) ([]Candidate, error)
	Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error)
}

type teamService struct {
	teamRepo       repositories.TeamRepository
	userRepo       repositories.UserRepository
	invitationRepo repositories.InvitationRepository
	notifications  NotificationService
	logger         *slog.Logger
}

func NewTeamService(
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	invitationRepo repositories.InvitationRepository,
	notifications NotificationService,
	logger *slog.Logger,
) TeamService {
	return &teamService{
		teamRepo:       teamRepo,
		userRepo:       userRepo,
		invitationRepo: invitationRepo,
		notifications:  notifications,
		logger:         logger,
	}
}

func (s *teamService) CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	if input.Name == "" {
		return nil, ErrTeamNameRequired
	}

	leader, err := s.getUser(ctx, input.LeaderID)
	if err != nil {
		return nil, err
	}
	if leader.TeamID != nil {
		return nil, ErrUserAlreadyInTeam
	}

	members := make([]*models.User, 0, len(input.MemberIDs))
	for _, id := range input.MemberIDs {
		member, err := s.getUser(ctx, id)
		if err != nil {
			return nil, err
		}
		if member.TeamID != nil {
			return nil, ErrUserAlreadyInTeam
		}
		members = append(members, member)
	}

	roster := []eligibility.Member{toEligibilityMember(leader)}
	if len(members)+1 == eligibility.TeamSize {
		// Full roster at creation: evaluate every rule, report all violations.
		for _, m := range members {
			roster = append(roster, toEligibilityMember(m))
		}
		if violations := eligibility.ValidateComposition(roster); len(violations) > 0 {
			return nil, &CompositionError{Violations: violations}
		}
	} else {
		// Partial roster: admit members one at a time so the first offending
		// candidate is reported.
		for _, m := range members {
			if err := checkCandidate(toEligibilityMember(m), roster); err != nil {
				return nil, err
			}
			roster = append(roster, toEligibilityMember(m))
		}
	}

	team := &models.Team{
		Name:        input.Name,
		Description: input.Description,
		LeaderID:    leader.ID,
		MaxSize:     models.TeamMaxSize,
		IsPrivate:   input.IsPrivate,
		Skills:      input.Skills,
		Status:      models.TeamStatusRecruiting,
	}
	if len(roster) == eligibility.TeamSize {
		team.Status = models.TeamStatusActive
	}

	if err := s.teamRepo.Create(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	for _, u := range append([]*models.User{leader}, members...) {
		if err := s.userRepo.UpdateTeamID(ctx, u.ID, &team.ID); err != nil {
			return nil, fmt.Errorf("failed to assign user %d to team %d: %w", u.ID, team.ID, err)
		}
	}

	// Teammates picked at creation already said yes out of band; retire any
	// invitations they still have open.
	for _, m := range members {
		if _, err := s.invitationRepo.DeclinePendingForUser(ctx, m.ID); err != nil {
			s.logger.Warn("failed to decline pending invitations",
				slog.Int("user_id", m.ID), slog.Any("error", err))
		}
	}

	return s.GetTeamByID(ctx, team.ID)
}

func (s *teamService) GetTeamByID(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	if err := s.loadMembers(ctx, team); err != nil {
		return nil, err
	}

	return team, nil
}

func (s *teamService) ListTeams(ctx context.Context) ([]*models.Team, error) {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}

	for _, team := range teams {
		if err := s.loadMembers(ctx, team); err != nil {
			return nil, err
		}
	}

	return teams, nil
}

// RequestJoin records a join request addressed to the team leader. The
// eligibility check runs now so obviously-doomed requests fail fast, and runs
// again at accept time because the roster may change in between.
func (s *teamService) RequestJoin(ctx context.Context, teamID, userID int) (*models.Invitation, error) {
	team, err := s.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TeamID != nil {
		return nil, ErrUserAlreadyInTeam
	}

	if err := checkCandidate(toEligibilityMember(user), rosterOf(team)); err != nil {
		return nil, err
	}

	invitation := &models.Invitation{
		TeamID:      teamID,
		SenderID:    userID,
		RecipientID: team.LeaderID,
		Kind:        models.InvitationKindJoinRequest,
		Status:      models.InvitationStatusPending,
	}
	if err := s.createInvitation(ctx, invitation); err != nil {
		return nil, err
	}

	s.notify(ctx, &models.Notification{
		UserID:       team.LeaderID,
		Type:         models.NotificationTypeJoinRequest,
		Message:      fmt.Sprintf("%s (%s) requested to join %s", user.FullName(), user.Department, team.Name),
		TeamID:       &team.ID,
		InvitationID: &invitation.ID,
	})

	return invitation, nil
}

// Invite sends a leader's invitation to an available user.
func (s *teamService) Invite(ctx context.Context, teamID, recipientID, senderID int) (*models.Invitation, error) {
	team, err := s.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.LeaderID != senderID {
		return nil, ErrLeaderActionOnly
	}

	recipient, err := s.getUser(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	if recipient.TeamID != nil {
		return nil, ErrUserAlreadyInTeam
	}

	if err := checkCandidate(toEligibilityMember(recipient), rosterOf(team)); err != nil {
		return nil, err
	}

	invitation := &models.Invitation{
		TeamID:      teamID,
		SenderID:    senderID,
		RecipientID: recipientID,
		Kind:        models.InvitationKindInvite,
		Status:      models.InvitationStatusPending,
	}
	if err := s.createInvitation(ctx, invitation); err != nil {
		return nil, err
	}
	invitation.Team = team
	invitation.Recipient = recipient

	s.notify(ctx, &models.Notification{
		UserID:       recipientID,
		Type:         models.NotificationTypeInvite,
		Message:      fmt.Sprintf("You have been invited to join %s", team.Name),
		TeamID:       &team.ID,
		InvitationID: &invitation.ID,
	})

	return invitation, nil
}

// AddMember lets the leader place a user on the roster directly.
func (s *teamService) AddMember(ctx context.Context, teamID, userID, currentUserID int) error {
	team, err := s.GetTeamByID(ctx, teamID)
	if err != nil {
		return err
	}
	if team.LeaderID != currentUserID {
		return ErrLeaderActionOnly
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	return s.placeOnTeam(ctx, team, user)
}

func (s *teamService) PlaceMember(ctx context.Context, teamID, userID int) error {
	team, err := s.GetTeamByID(ctx, teamID)
	if err != nil {
		return err
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	return s.placeOnTeam(ctx, team, user)
}

func (s *teamService) RemoveMember(ctx context.Context, teamID, memberID, currentUserID int) error {
	team, err := s.GetTeamByID(ctx, teamID)
	if err != nil {
		return err
	}
	if team.LeaderID != currentUserID {
		return ErrLeaderActionOnly
	}
	if memberID == team.LeaderID {
		return ErrCannotRemoveLeader
	}

	member, err := s.getUser(ctx, memberID)
	if err != nil {
		return err
	}
	if member.TeamID == nil || *member.TeamID != teamID {
		return ErrUserNotInTeam
	}

	if err := s.userRepo.UpdateTeamID(ctx, memberID, nil); err != nil {
		return fmt.Errorf("failed to remove user %d from team %d: %w", memberID, teamID, err)
	}

	s.notify(ctx, &models.Notification{
		UserID:  memberID,
		Type:    models.NotificationTypeMemberRemoved,
		Message: fmt.Sprintf("You have been removed from %s", team.Name),
		TeamID:  &team.ID,
	})

	return s.refreshStatus(ctx, teamID)
}

func (s *teamService) Leave(ctx context.Context, teamID, currentUserID int) error {
	team, err := s.GetTeamByID(ctx, teamID)
	if err != nil {
		return err
	}
	if team.LeaderID == currentUserID {
		return ErrLeaderCannotLeave
	}

	user, err := s.getUser(ctx, currentUserID)
	if err != nil {
		return err
	}
	if user.TeamID == nil || *user.TeamID != teamID {
		return ErrUserNotInTeam
	}

	if err := s.userRepo.UpdateTeamID(ctx, currentUserID, nil); err != nil {
		return fmt.Errorf("failed to remove user %d from team %d: %w", currentUserID, teamID, err)
	}

	s.notify(ctx, &models.Notification{
		UserID:  team.LeaderID,
		Type:    models.NotificationTypeMemberRemoved,
		Message: fmt.Sprintf("%s left %s", user.FullName(), team.Name),
		TeamID:  &team.ID,
	})

	return s.refreshStatus(ctx, teamID)
}

func (s *teamService) DeleteTeam(ctx context.Context, teamID, currentUserID int) error {
	team, err := s.GetTeamByID(ctx, teamID)
	if err != nil {
		return err
	}
	if team.LeaderID != currentUserID {
		return ErrLeaderActionOnly
	}

	for _, member := range team.Members {
		if err := s.userRepo.UpdateTeamID(ctx, member.ID, nil); err != nil {
			return fmt.Errorf("failed to detach user %d from team %d: %w", member.ID, teamID, err)
		}
		if member.ID != team.LeaderID {
			s.notify(ctx, &models.Notification{
				UserID:  member.ID,
				Type:    models.NotificationTypeTeamDisbanded,
				Message: fmt.Sprintf("Team %s has been disbanded", team.Name),
			})
		}
	}

	if err := s.teamRepo.Delete(ctx, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to delete team %d: %w", teamID, err)
	}

	return nil
}

// AvailableFaculty annotates the candidate pool with per-candidate selection
// decisions against the team's current roster.
func (s *teamService) AvailableFaculty(ctx context.Context, teamID int) ([]Candidate, error) {
	team, err := s.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	available, err := s.userRepo.ListAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list available users: %w", err)
	}

	roster := rosterOf(team)
	candidates := make([]Candidate, 0, len(available))
	for _, u := range available {
		u.PasswordHash = ""
		candidates = append(candidates, Candidate{
			User:     u,
			Decision: eligibility.CanSelect(toEligibilityMember(&u), roster),
		})
	}

	return candidates, nil
}

func (s *teamService) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	entries, err := s.teamRepo.Leaderboard(ctx, leaderboardLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return entries, nil
}

// placeOnTeam runs the selection rules and attaches the user to the roster.
// Shared by direct adds and invitation acceptance.
func (s *teamService) placeOnTeam(ctx context.Context, team *models.Team, user *models.User) error {
	if user.TeamID != nil {
		return ErrUserAlreadyInTeam
	}

	if err := checkCandidate(toEligibilityMember(user), rosterOf(team)); err != nil {
		return err
	}

	if err := s.userRepo.UpdateTeamID(ctx, user.ID, &team.ID); err != nil {
		return fmt.Errorf("failed to add user %d to team %d: %w", user.ID, team.ID, err)
	}

	// A user on a team has no use for their other pending invitations.
	if _, err := s.invitationRepo.DeclinePendingForUser(ctx, user.ID); err != nil {
		s.logger.Warn("failed to decline pending invitations",
			slog.Int("user_id", user.ID), slog.Any("error", err))
	}

	return s.refreshStatus(ctx, team.ID)
}

// refreshStatus recomputes Recruiting/Active from the current roster.
// Submitted is terminal.
func (s *teamService) refreshStatus(ctx context.Context, teamID int) error {
	team, err := s.GetTeamByID(ctx, teamID)
	if err != nil {
		return err
	}
	if team.Status == models.TeamStatusSubmitted {
		return nil
	}

	status := models.TeamStatusRecruiting
	if len(team.Members) == eligibility.TeamSize && len(eligibility.ValidateComposition(rosterOf(team))) == 0 {
		status = models.TeamStatusActive
	}

	if status == team.Status {
		return nil
	}
	if err := s.teamRepo.UpdateStatus(ctx, teamID, status); err != nil {
		return fmt.Errorf("failed to update status of team %d: %w", teamID, err)
	}
	return nil
}

func (s *teamService) loadMembers(ctx context.Context, team *models.Team) error {
	members, err := s.userRepo.ListByTeamID(ctx, team.ID)
	if err != nil {
		return fmt.Errorf("failed to list members of team %d: %w", team.ID, err)
	}
	for i := range members {
		members[i].PasswordHash = ""
		members[i].Team = nil
	}
	team.Members = members
	return nil
}

func (s *teamService) getUser(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return user, nil
}

func (s *teamService) createInvitation(ctx context.Context, invitation *models.Invitation) error {
	if err := s.invitationRepo.Create(ctx, invitation); err != nil {
		switch {
		case errors.Is(err, repositories.ErrInvitationConflict):
			return ErrInvitationConflict
		case errors.Is(err, repositories.ErrInvitationTeamInvalid):
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

func (s *teamService) notify(ctx context.Context, n *models.Notification) {
	if err := s.notifications.Notify(ctx, n); err != nil {
		s.logger.Warn("failed to deliver notification",
			slog.Int("user_id", n.UserID), slog.Any("error", err))
	}
}

func toEligibilityMember(u *models.User) eligibility.Member {
	return eligibility.Member{
		ID:         u.ID,
		Name:       u.FullName(),
		Department: u.Department,
	}
}

func rosterOf(team *models.Team) []eligibility.Member {
	roster := make([]eligibility.Member, 0, len(team.Members))
	for i := range team.Members {
		roster = append(roster, toEligibilityMember(&team.Members[i]))
	}
	return roster
}

// checkCandidate converts a CanSelect denial into the service error the HTTP
// layer knows how to shape.
func checkCandidate(candidate eligibility.Member, roster []eligibility.Member) error {
	decision := eligibility.CanSelect(candidate, roster)
	if decision.Allowed {
		return nil
	}
	switch decision.Reason {
	case "Already selected":
		return ErrUserAlreadyInTeam
	case "Team is full":
		return ErrTeamFull
	default:
		return &DepartmentError{Department: candidate.Department, Reason: decision.Reason}
	}
}
