package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/profhack/profhack-backend/models"
	"github.com/profhack/profhack-backend/repositories"
)

func newInvitationServiceForTest() (*invitationService, *MockInvitationRepository, *MockTeamService, *MockUserRepository, *MockNotificationService) {
	invitationRepo := new(MockInvitationRepository)
	teamSvc := new(MockTeamService)
	userRepo := new(MockUserRepository)
	notifications := new(MockNotificationService)
	svc := NewInvitationService(invitationRepo, teamSvc, userRepo, notifications, discardLogger()).(*invitationService)
	return svc, invitationRepo, teamSvc, userRepo, notifications
}

func invitationFixture(kind models.InvitationKind) *models.Invitation {
	return &models.Invitation{
		ID:          11,
		TeamID:      3,
		SenderID:    1,
		RecipientID: 2,
		Kind:        kind,
		Status:      models.InvitationStatusPending,
		Team:        &models.Team{ID: 3, Name: "Quantum Leap"},
	}
}

func TestAcceptLeaderInvitePlacesTheInvitedUser(t *testing.T) {
	svc, invitationRepo, teamSvc, userRepo, notifications := newInvitationServiceForTest()
	ctx := context.Background()

	invitationRepo.On("GetByID", ctx, 11).Return(invitationFixture(models.InvitationKindInvite), nil)
	userRepo.On("GetByID", ctx, 2).Return(userFixture(2, "Physics"), nil)
	teamSvc.On("GetTeamByID", ctx, 3).Return(&models.Team{ID: 3, Name: "Quantum Leap", LeaderID: 1}, nil)
	teamSvc.On("PlaceMember", ctx, 3, 2).Return(nil)
	invitationRepo.On("UpdateStatus", ctx, 11, models.InvitationStatusAccepted).Return(nil)
	// The sender, not the recipient, is told about the outcome.
	notifications.On("Notify", ctx, mock.MatchedBy(func(n *models.Notification) bool {
		return n.UserID == 1 && n.Type == models.NotificationTypeInvitationAccepted
	})).Return(nil)

	invitation, err := svc.Accept(ctx, 11, 2)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationStatusAccepted, invitation.Status)

	invitationRepo.AssertExpectations(t)
	teamSvc.AssertExpectations(t)
	notifications.AssertExpectations(t)
}

func TestAcceptJoinRequestPlacesTheRequester(t *testing.T) {
	svc, invitationRepo, teamSvc, userRepo, notifications := newInvitationServiceForTest()
	ctx := context.Background()

	// For a join request the recipient is the team leader and the sender is
	// the user asking to join.
	invitationRepo.On("GetByID", ctx, 11).Return(invitationFixture(models.InvitationKindJoinRequest), nil)
	userRepo.On("GetByID", ctx, 1).Return(userFixture(1, "Chemistry"), nil)
	teamSvc.On("GetTeamByID", ctx, 3).Return(&models.Team{ID: 3, Name: "Quantum Leap", LeaderID: 2}, nil)
	teamSvc.On("PlaceMember", ctx, 3, 1).Return(nil)
	invitationRepo.On("UpdateStatus", ctx, 11, models.InvitationStatusAccepted).Return(nil)
	notifications.On("Notify", ctx, mock.Anything).Return(nil)

	invitation, err := svc.Accept(ctx, 11, 2)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationStatusAccepted, invitation.Status)
	teamSvc.AssertCalled(t, "PlaceMember", ctx, 3, 1)
}

func TestAcceptReChecksEligibilityAtAcceptTime(t *testing.T) {
	svc, invitationRepo, teamSvc, userRepo, _ := newInvitationServiceForTest()
	ctx := context.Background()

	invitationRepo.On("GetByID", ctx, 11).Return(invitationFixture(models.InvitationKindInvite), nil)
	userRepo.On("GetByID", ctx, 2).Return(userFixture(2, "Physics"), nil)
	teamSvc.On("GetTeamByID", ctx, 3).Return(&models.Team{ID: 3, Name: "Quantum Leap", LeaderID: 1}, nil)
	deptErr := &DepartmentError{Department: "Physics", Reason: "Department already represented"}
	teamSvc.On("PlaceMember", ctx, 3, 2).Return(deptErr)

	_, err := svc.Accept(ctx, 11, 2)

	var gotErr *DepartmentError
	require.ErrorAs(t, err, &gotErr)
	invitationRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestAcceptGuards(t *testing.T) {
	t.Run("failure: not the recipient", func(t *testing.T) {
		svc, invitationRepo, teamSvc, _, _ := newInvitationServiceForTest()
		ctx := context.Background()

		invitationRepo.On("GetByID", ctx, 11).Return(invitationFixture(models.InvitationKindInvite), nil)

		_, err := svc.Accept(ctx, 11, 99)
		assert.ErrorIs(t, err, ErrInvitationNotYours)
		teamSvc.AssertNotCalled(t, "PlaceMember", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("failure: already resolved", func(t *testing.T) {
		svc, invitationRepo, _, _, _ := newInvitationServiceForTest()
		ctx := context.Background()

		invitation := invitationFixture(models.InvitationKindInvite)
		invitation.Status = models.InvitationStatusDeclined
		invitationRepo.On("GetByID", ctx, 11).Return(invitation, nil)

		_, err := svc.Accept(ctx, 11, 2)
		assert.ErrorIs(t, err, ErrInvitationNotPending)
	})

	t.Run("failure: unknown invitation", func(t *testing.T) {
		svc, invitationRepo, _, _, _ := newInvitationServiceForTest()
		ctx := context.Background()

		invitationRepo.On("GetByID", ctx, 11).Return(nil, repositories.ErrInvitationNotFound)

		_, err := svc.Accept(ctx, 11, 2)
		assert.ErrorIs(t, err, ErrInvitationNotFound)
	})
}

func TestDeclineMarksAndNotifiesSender(t *testing.T) {
	svc, invitationRepo, teamSvc, _, notifications := newInvitationServiceForTest()
	ctx := context.Background()

	invitationRepo.On("GetByID", ctx, 11).Return(invitationFixture(models.InvitationKindInvite), nil)
	invitationRepo.On("UpdateStatus", ctx, 11, models.InvitationStatusDeclined).Return(nil)
	notifications.On("Notify", ctx, mock.MatchedBy(func(n *models.Notification) bool {
		return n.UserID == 1 && n.Type == models.NotificationTypeInvitationDeclined
	})).Return(nil)

	invitation, err := svc.Decline(ctx, 11, 2)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationStatusDeclined, invitation.Status)
	teamSvc.AssertNotCalled(t, "PlaceMember", mock.Anything, mock.Anything, mock.Anything)
	notifications.AssertExpectations(t)
}

func TestListForUserPassesThrough(t *testing.T) {
	svc, invitationRepo, _, _, _ := newInvitationServiceForTest()
	ctx := context.Background()

	pending := []*models.Invitation{invitationFixture(models.InvitationKindInvite)}
	invitationRepo.On("ListPendingByRecipient", ctx, 2).Return(pending, nil)

	got, err := svc.ListForUser(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, pending, got)
}
