package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/profhack/profhack-backend/middleware"
	"github.com/profhack/profhack-backend/models"
	"github.com/profhack/profhack-backend/services"
)

type SubmissionHandler struct {
	submissionService services.SubmissionService
}

func NewSubmissionHandler(submissionService services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService}
}

// Submit accepts a multipart form with the idea deck PDF under "file" plus
// "team_id", "track" and "brief" fields.
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	teamID, err := strconv.Atoi(r.FormValue("team_id"))
	if err != nil || teamID < 1 {
		badRequestResponse(w, r, errors.New("invalid team_id form field"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to get submission file from form: %w", err))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, r, errors.New("content-type header is required for the submission file"))
		return
	}

	input := services.SubmitInput{
		TeamID:        teamID,
		Track:         models.Track(r.FormValue("track")),
		Brief:         r.FormValue("brief"),
		FileName:      header.Filename,
		ContentType:   contentType,
		FileSize:      header.Size,
		File:          file,
		CurrentUserID: currentUserID,
	}

	submission, err := h.submissionService.Submit(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"submission": submission}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SubmissionHandler) GetByTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	submission, err := h.submissionService.GetByTeam(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"submission": submission}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
