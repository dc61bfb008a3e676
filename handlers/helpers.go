package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/profhack/profhack-backend/services"
)

type jsonResponse map[string]interface{}

var validate = validator.New(validator.WithRequiredStructEnabled())

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err) // programmer error: dst is not a pointer
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

// readValidatedJSON decodes and then runs struct-tag validation on the DTO.
func readValidatedJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if err := readJSON(w, r, dst); err != nil {
		return err
	}
	if err := validate.Struct(dst); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			panic(err)
		}
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("field %q failed validation on the %q rule", fe.Field(), fe.Tag())
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	if err != nil {
		return err
	}

	return nil
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	err := writeJSON(w, status, env, nil)
	if err != nil {
		slog.Error("failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal server error", slog.String("path", r.URL.Path), slog.Any("error", err))
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	errorResponse(w, r, http.StatusNotFound, message)
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

func forbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusForbidden, message)
}

func tooManyRequestsResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusTooManyRequests, message)
}

// mapServiceErrorToHTTP converts service-layer errors to HTTP responses.
// Composition and department errors carry structured bodies the UI branches
// on, everything else maps to a plain error envelope.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	var compositionErr *services.CompositionError
	var departmentErr *services.DepartmentError

	switch {
	case errors.As(err, &compositionErr):
		env := jsonResponse{
			"message":    "team composition is invalid",
			"violations": compositionErr.Violations,
		}
		if writeErr := writeJSON(w, http.StatusUnprocessableEntity, env, nil); writeErr != nil {
			serverErrorResponse(w, r, writeErr)
		}

	case errors.As(err, &departmentErr):
		env := jsonResponse{
			"message":    departmentErr.Reason,
			"department": departmentErr.Department,
		}
		if writeErr := writeJSON(w, http.StatusUnprocessableEntity, env, nil); writeErr != nil {
			serverErrorResponse(w, r, writeErr)
		}

	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrInvitationNotFound),
		errors.Is(err, services.ErrNotificationNotFound),
		errors.Is(err, services.ErrSubmissionNotFound):
		notFoundResponse(w, r)

	case errors.Is(err, services.ErrUserEmailConflict),
		errors.Is(err, services.ErrTeamNameConflict),
		errors.Is(err, services.ErrInvitationConflict),
		errors.Is(err, services.ErrSubmissionConflict):
		conflictResponse(w, r, err.Error())

	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrEmailInvalid),
		errors.Is(err, services.ErrTeamNameRequired),
		errors.Is(err, services.ErrUserAlreadyInTeam),
		errors.Is(err, services.ErrUserNotInTeam),
		errors.Is(err, services.ErrTeamFull),
		errors.Is(err, services.ErrCannotRemoveLeader),
		errors.Is(err, services.ErrLeaderCannotLeave),
		errors.Is(err, services.ErrTrackInvalid),
		errors.Is(err, services.ErrBriefRequired),
		errors.Is(err, services.ErrFileNotPDF),
		errors.Is(err, services.ErrFileTooLarge),
		errors.Is(err, services.ErrRosterIncomplete),
		errors.Is(err, services.ErrOTPInvalid),
		errors.Is(err, services.ErrOTPExpired),
		errors.Is(err, services.ErrOTPAttemptsReached),
		errors.Is(err, services.ErrInvitationNotPending),
		errors.Is(err, services.ErrResetTokenInvalid):
		badRequestResponse(w, r, err)

	case errors.Is(err, services.ErrOTPResendThrottled):
		tooManyRequestsResponse(w, r, err.Error())

	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrEmailNotVerified),
		errors.Is(err, services.ErrAuthenticationFailed):
		unauthorizedResponse(w, r, err.Error())

	case errors.Is(err, services.ErrForbiddenOperation),
		errors.Is(err, services.ErrLeaderActionOnly),
		errors.Is(err, services.ErrInvitationNotYours):
		forbiddenResponse(w, r, err.Error())

	default:
		serverErrorResponse(w, r, err)
	}
}

func getIDFromURL(r *http.Request, param string) (int, error) {
	idStr := chi.URLParam(r, param)
	if idStr == "" {
		return 0, fmt.Errorf("missing %s in URL path", param)
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format", param)
	}

	if id <= 0 {
		return 0, fmt.Errorf("invalid %s value", param)
	}

	return id, nil
}
