package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/profhack/profhack-backend/middleware"
	"github.com/profhack/profhack-backend/services"
)

type TeamHandler struct {
	teamService  services.TeamService
	emailService *services.EmailService
	userService  services.UserService
	logger       *slog.Logger
}

func NewTeamHandler(teamService services.TeamService, emailService *services.EmailService, userService services.UserService, logger *slog.Logger) *TeamHandler {
	return &TeamHandler{
		teamService:  teamService,
		emailService: emailService,
		userService:  userService,
		logger:       logger,
	}
}

func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.CreateTeamInput
	if err := readValidatedJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.LeaderID = currentUserID

	team, err := h.teamService.CreateTeam(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"team": team}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.GetTeamByID(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"team": team}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teamService.ListTeams(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"teams": teams}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) RequestJoin(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	invitation, err := h.teamService.RequestJoin(r.Context(), teamID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"invitation": invitation}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type inviteMemberRequest struct {
	UserID int `json:"user_id" validate:"required,gt=0"`
}

func (h *TeamHandler) InviteMember(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input inviteMemberRequest
	if err := readValidatedJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	invitation, err := h.teamService.Invite(r.Context(), teamID, input.UserID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	// The invitation email is best effort; the in-app invitation is already
	// recorded either way.
	go h.sendInviteEmail(invitation.ID, input.UserID, teamID)

	response := jsonResponse{"invitation": invitation}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) sendInviteEmail(invitationID, userID, teamID int) {
	ctx := context.Background()

	user, err := h.userService.GetProfile(ctx, userID)
	if err != nil {
		h.logger.Warn("invite email skipped, user lookup failed",
			slog.Int("invitation_id", invitationID), slog.Any("error", err))
		return
	}
	team, err := h.teamService.GetTeamByID(ctx, teamID)
	if err != nil {
		h.logger.Warn("invite email skipped, team lookup failed",
			slog.Int("invitation_id", invitationID), slog.Any("error", err))
		return
	}

	if err := h.emailService.SendTeamInviteEmail(user.Email, team.Name); err != nil {
		h.logger.Warn("failed to send invite email",
			slog.String("email", user.Email), slog.Any("error", err))
	}
}

type addMemberRequest struct {
	UserID int `json:"user_id" validate:"required,gt=0"`
}

func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input addMemberRequest
	if err := readValidatedJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.teamService.AddMember(r.Context(), teamID, input.UserID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	team, err := h.teamService.GetTeamByID(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"team": team}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	memberID, err := getIDFromURL(r, "memberID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.teamService.RemoveMember(r.Context(), teamID, memberID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"message": "member removed"}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) Leave(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.teamService.Leave(r.Context(), teamID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"message": "left team"}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.teamService.DeleteTeam(r.Context(), teamID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"message": "team deleted"}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AvailableFaculty lists faculty without a team, each annotated with whether
// the selection rules would let them join the given team right now.
func (h *TeamHandler) AvailableFaculty(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	candidates, err := h.teamService.AvailableFaculty(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"candidates": candidates}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.teamService.Leaderboard(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"leaderboard": entries}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
