package client

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/profhack/profhack-backend/models"
)

// TeamData is the team-page working set: everything the teams view needs,
// loaded in one call.
type TeamData struct {
	Profile   *models.User
	Teams     []*models.Team
	Available []models.User

	// MyTeam is the team whose roster contains the profile's user, or nil.
	MyTeam *models.Team

	// Invitations is a best-effort load: a failure leaves it empty and the
	// rest of the data intact.
	Invitations []*models.Invitation
}

// FetchTeamData loads the profile, team list and available-user list
// concurrently, derives the caller's own team from the roster, then fetches
// pending invitations. Any primary fetch failure fails the whole call;
// the invitation fetch only logs.
func (c *Client) FetchTeamData(ctx context.Context, logger *slog.Logger) (*TeamData, error) {
	data := &TeamData{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		profile, err := c.Profile(gctx)
		if err != nil {
			return err
		}
		data.Profile = profile
		return nil
	})
	g.Go(func() error {
		teams, err := c.Teams(gctx)
		if err != nil {
			return err
		}
		data.Teams = teams
		return nil
	})
	g.Go(func() error {
		available, err := c.AvailableUsers(gctx)
		if err != nil {
			return err
		}
		data.Available = available
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	data.MyTeam = findTeamOf(data.Teams, data.Profile.ID)

	invitations, err := c.Invitations(ctx)
	if err != nil {
		if logger != nil {
			logger.Warn("failed to load invitations", slog.Any("error", err))
		}
	} else {
		data.Invitations = invitations
	}

	return data, nil
}

func findTeamOf(teams []*models.Team, userID int) *models.Team {
	for _, team := range teams {
		if team.LeaderID == userID {
			return team
		}
		for _, member := range team.Members {
			if member.ID == userID {
				return team
			}
		}
	}
	return nil
}
