package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/profhack/profhack-backend/services"
)

const tokenTTL = 24 * time.Hour

type AuthHandler struct {
	authService  services.AuthService
	emailService *services.EmailService
	jwtSecret    []byte
	logger       *slog.Logger
}

func NewAuthHandler(authService services.AuthService, emailService *services.EmailService, jwtSecret string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		emailService: emailService,
		jwtSecret:    []byte(jwtSecret),
		logger:       logger,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput

	if err := readValidatedJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.authService.Register(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	// Kick off email verification right away so the user has a code waiting.
	code, err := h.authService.SendOTP(r.Context(), user.Email)
	if err != nil {
		h.logger.Error("failed to issue OTP after registration", slog.Any("error", err))
	} else if err := h.emailService.SendOTPEmail(user.Email, code); err != nil {
		h.logger.Error("failed to send OTP email", slog.Any("error", err))
	}

	response := jsonResponse{
		"user":    user,
		"message": "registration successful, check your email for a verification code",
	}

	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput

	if err := readValidatedJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(tokenTTL).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(h.jwtSecret)
	if err != nil {
		serverErrorResponse(w, r, fmt.Errorf("failed to sign token: %w", err))
		return
	}

	response := jsonResponse{
		"token": tokenString,
		"user":  user,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type otpRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	h.issueOTP(w, r, h.authService.SendOTP)
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	h.issueOTP(w, r, h.authService.ResendOTP)
}

func (h *AuthHandler) issueOTP(w http.ResponseWriter, r *http.Request, issue func(ctx context.Context, email string) (string, error)) {
	var input otpRequest
	if err := readValidatedJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	code, err := issue(r.Context(), input.Email)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := h.emailService.SendOTPEmail(input.Email, code); err != nil {
		h.logger.Error("failed to send OTP email", slog.Any("error", err))
		serverErrorResponse(w, r, fmt.Errorf("failed to send verification email: %w", err))
		return
	}

	response := jsonResponse{"message": "verification code sent"}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email" validate:"required,email"`
		Code  string `json:"code" validate:"required,len=6,numeric"`
	}
	if err := readValidatedJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.authService.VerifyOTP(r.Context(), input.Email, input.Code); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"message": "email verified"}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := readValidatedJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	resetToken, err := h.authService.GeneratePasswordResetToken(r.Context(), input.Email)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if resetToken != "" {
		if err := h.emailService.SendPasswordResetEmail(input.Email, resetToken); err != nil {
			h.logger.Error("failed to send password reset email", slog.Any("error", err))
		}
	}

	// Identical response whether or not the email exists.
	response := jsonResponse{"message": "if the email is registered, a reset link has been sent"}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Token       string `json:"token" validate:"required"`
		NewPassword string `json:"new_password" validate:"required"`
	}
	if err := readValidatedJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.authService.ResetPasswordByToken(r.Context(), input.Token, input.NewPassword); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"message": "password updated"}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
