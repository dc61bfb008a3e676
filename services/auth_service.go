package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/profhack/profhack-backend/models"
	"github.com/profhack/profhack-backend/repositories"
	"github.com/profhack/profhack-backend/utils"
)

const (
	otpLength      = 6
	otpTTL         = 10 * time.Minute
	otpMaxAttempts = 5

	// One resend per interval per email, with a small burst for the first
	// send plus one immediate retry.
	otpResendInterval = 60 * time.Second
	otpResendBurst    = 2

	resetTokenLength = 32
	resetTokenTTL    = 1 * time.Hour

	minPasswordLength = 8
)

type RegisterInput struct {
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	Department      string `json:"department" validate:"required"`
	Designation     string `json:"designation"`
	Skills          string `json:"skills"`
	YearsExperience int    `json:"years_experience" validate:"gte=0"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*models.User, error)

	// SendOTP issues a fresh verification code for the email and returns the
	// plaintext code for the caller to deliver. ResendOTP additionally
	// throttles per email.
	SendOTP(ctx context.Context, email string) (string, error)
	ResendOTP(ctx context.Context, email string) (string, error)
	VerifyOTP(ctx context.Context, email, code string) error

	GeneratePasswordResetToken(ctx context.Context, email string) (string, error)
	ResetPasswordByToken(ctx context.Context, token string, newPassword string) error
}

type authService struct {
	userRepo repositories.UserRepository
	otpRepo  repositories.OTPRepository

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewAuthService(userRepo repositories.UserRepository, otpRepo repositories.OTPRepository) AuthService {
	return &authService{
		userRepo: userRepo,
		otpRepo:  otpRepo,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if !utils.IsValidEmail(input.Email) {
		return nil, ErrEmailInvalid
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		FirstName:       input.FirstName,
		LastName:        input.LastName,
		Email:           input.Email,
		PasswordHash:    hashedPassword,
		Department:      input.Department,
		Designation:     input.Designation,
		Skills:          input.Skills,
		YearsExperience: input.YearsExperience,
		EmailVerified:   false,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, ErrUserEmailConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	if !utils.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	user.PasswordHash = ""

	return user, nil
}

func (s *authService) SendOTP(ctx context.Context, email string) (string, error) {
	if _, err := s.userRepo.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to look up user for OTP: %w", err)
	}

	code, err := utils.GenerateOTP(otpLength)
	if err != nil {
		return "", err
	}

	otp := &models.EmailOTP{
		Email:     email,
		CodeHash:  utils.HashOTP(code),
		ExpiresAt: time.Now().Add(otpTTL),
	}
	if err := s.otpRepo.Upsert(ctx, otp); err != nil {
		return "", fmt.Errorf("failed to store OTP: %w", err)
	}

	return code, nil
}

func (s *authService) ResendOTP(ctx context.Context, email string) (string, error) {
	if !s.resendLimiter(email).Allow() {
		return "", ErrOTPResendThrottled
	}
	return s.SendOTP(ctx, email)
}

func (s *authService) VerifyOTP(ctx context.Context, email, code string) error {
	otp, err := s.otpRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrOTPNotFound) {
			return ErrOTPInvalid
		}
		return fmt.Errorf("failed to load OTP: %w", err)
	}

	if time.Now().After(otp.ExpiresAt) {
		return ErrOTPExpired
	}
	if otp.Attempts >= otpMaxAttempts {
		return ErrOTPAttemptsReached
	}

	if !utils.OTPMatches(code, otp.CodeHash) {
		if incErr := s.otpRepo.IncrementAttempts(ctx, otp.ID); incErr != nil {
			return fmt.Errorf("failed to record OTP attempt: %w", incErr)
		}
		return ErrOTPInvalid
	}

	if err := s.userRepo.MarkEmailVerified(ctx, email); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	// Used codes are single-shot. A delete failure leaves an already-consumed
	// code behind until the expiry sweeper picks it up, so it is not fatal.
	if err := s.otpRepo.Delete(ctx, otp.ID); err != nil && !errors.Is(err, repositories.ErrOTPNotFound) {
		return fmt.Errorf("failed to delete used OTP: %w", err)
	}

	return nil
}

func (s *authService) resendLimiter(email string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[email]
	if !ok {
		l = rate.NewLimiter(rate.Every(otpResendInterval), otpResendBurst)
		s.limiters[email] = l
	}
	return l
}

func (s *authService) GeneratePasswordResetToken(ctx context.Context, email string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		// Never reveal whether the email is registered.
		return "", nil
	}

	resetToken := generateRandomToken(resetTokenLength)
	if err := s.userRepo.SetPasswordResetToken(ctx, user.ID, resetToken, time.Now().Add(resetTokenTTL)); err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}

	return resetToken, nil
}

func (s *authService) ResetPasswordByToken(ctx context.Context, token string, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.userRepo.GetByPasswordResetToken(ctx, token)
	if err != nil {
		return ErrResetTokenInvalid
	}
	if user.PasswordResetExpiresAt == nil || user.PasswordResetExpiresAt.Before(time.Now()) {
		return ErrResetTokenInvalid
	}

	hashedPassword, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = hashedPassword
	user.PasswordResetToken = nil
	user.PasswordResetExpiresAt = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

func generateRandomToken(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	randomBytes := make([]byte, length)
	if _, err := rand.Read(randomBytes); err != nil {
		for i := range b {
			b[i] = charset[int(time.Now().UnixNano())%len(charset)]
		}
		return string(b)
	}
	for i, rb := range randomBytes {
		b[i] = charset[int(rb)%len(charset)]
	}
	return string(b)
}
