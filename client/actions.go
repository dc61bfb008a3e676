package client

import (
	"context"
	"errors"
	"log/slog"

	"github.com/profhack/profhack-backend/models"
)

// ErrCancelled is returned when the Confirm hook declines an action.
var ErrCancelled = errors.New("client: action cancelled")

// ActionsConfig enumerates the hooks an Actions wrapper may call. Confirm
// is required; Notify is optional.
type ActionsConfig struct {
	// Confirm is asked before every mutating call. Returning false cancels
	// the action with ErrCancelled.
	Confirm func(prompt string) bool

	// Notify, when set, receives a short success message after each
	// completed action.
	Notify func(message string)
}

// Actions wraps the mutating team operations with a confirmation step and a
// state re-fetch after success, so callers always end up with the server's
// view of the world.
type Actions struct {
	client *Client
	cfg    ActionsConfig
	logger *slog.Logger
}

func NewActions(c *Client, cfg ActionsConfig, logger *slog.Logger) (*Actions, error) {
	if cfg.Confirm == nil {
		return nil, errors.New("client: ActionsConfig.Confirm is required")
	}
	return &Actions{client: c, cfg: cfg, logger: logger}, nil
}

func (a *Actions) CreateTeam(ctx context.Context, input CreateTeamInput) (*TeamData, error) {
	if !a.cfg.Confirm("Create team " + input.Name + "?") {
		return nil, ErrCancelled
	}
	team, err := a.client.CreateTeam(ctx, input)
	if err != nil {
		return nil, err
	}
	return a.finish(ctx, "Team "+team.Name+" created")
}

func (a *Actions) RequestJoin(ctx context.Context, team *models.Team) (*TeamData, error) {
	if !a.cfg.Confirm("Request to join " + team.Name + "?") {
		return nil, ErrCancelled
	}
	if _, err := a.client.RequestJoin(ctx, team.ID); err != nil {
		return nil, err
	}
	return a.finish(ctx, "Join request sent to "+team.Name)
}

func (a *Actions) InviteMember(ctx context.Context, teamID int, user models.User) (*TeamData, error) {
	if !a.cfg.Confirm("Invite " + user.FullName() + "?") {
		return nil, ErrCancelled
	}
	if _, err := a.client.InviteMember(ctx, teamID, user.ID); err != nil {
		return nil, err
	}
	return a.finish(ctx, "Invitation sent to "+user.FullName())
}

func (a *Actions) AcceptInvitation(ctx context.Context, invitation *models.Invitation) (*TeamData, error) {
	if !a.cfg.Confirm("Accept this invitation?") {
		return nil, ErrCancelled
	}
	if _, err := a.client.AcceptInvitation(ctx, invitation.ID); err != nil {
		return nil, err
	}
	return a.finish(ctx, "Invitation accepted")
}

func (a *Actions) DeclineInvitation(ctx context.Context, invitation *models.Invitation) (*TeamData, error) {
	if !a.cfg.Confirm("Decline this invitation?") {
		return nil, ErrCancelled
	}
	if _, err := a.client.DeclineInvitation(ctx, invitation.ID); err != nil {
		return nil, err
	}
	return a.finish(ctx, "Invitation declined")
}

func (a *Actions) LeaveTeam(ctx context.Context, team *models.Team) (*TeamData, error) {
	if !a.cfg.Confirm("Leave " + team.Name + "?") {
		return nil, ErrCancelled
	}
	if err := a.client.LeaveTeam(ctx, team.ID); err != nil {
		return nil, err
	}
	return a.finish(ctx, "Left "+team.Name)
}

func (a *Actions) DeleteTeam(ctx context.Context, team *models.Team) (*TeamData, error) {
	if !a.cfg.Confirm("Disband " + team.Name + "? This cannot be undone.") {
		return nil, ErrCancelled
	}
	if err := a.client.DeleteTeam(ctx, team.ID); err != nil {
		return nil, err
	}
	return a.finish(ctx, team.Name+" disbanded")
}

// finish re-fetches the team working set and emits the success message.
func (a *Actions) finish(ctx context.Context, message string) (*TeamData, error) {
	data, err := a.client.FetchTeamData(ctx, a.logger)
	if err != nil {
		return nil, err
	}
	if a.cfg.Notify != nil {
		a.cfg.Notify(message)
	}
	return data, nil
}
