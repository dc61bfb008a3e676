package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/profhack/profhack-backend/models"
	"github.com/profhack/profhack-backend/repositories"
	"github.com/profhack/profhack-backend/utils"
)

func newAuthServiceForTest() (AuthService, *MockUserRepository, *MockOTPRepository) {
	userRepo := new(MockUserRepository)
	otpRepo := new(MockOTPRepository)
	return NewAuthService(userRepo, otpRepo), userRepo, otpRepo
}

func TestRegister(t *testing.T) {
	validInput := RegisterInput{
		FirstName:  "Asha",
		LastName:   "Rao",
		Email:      "asha@college.edu",
		Password:   "correct-horse",
		Department: "Physics",
	}

	tests := []struct {
		name        string
		input       RegisterInput
		setupMocks  func(*MockUserRepository)
		expectedErr error
	}{
		{
			name:  "success",
			input: validInput,
			setupMocks: func(ur *MockUserRepository) {
				ur.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
					return u.Email == "asha@college.edu" && !u.EmailVerified && u.PasswordHash != "correct-horse"
				})).Return(nil)
			},
		},
		{
			name: "failure: malformed email",
			input: RegisterInput{
				FirstName: "Asha", Email: "not-an-email", Password: "correct-horse", Department: "Physics",
			},
			expectedErr: ErrEmailInvalid,
		},
		{
			name: "failure: short password",
			input: RegisterInput{
				FirstName: "Asha", Email: "asha@college.edu", Password: "short", Department: "Physics",
			},
			expectedErr: ErrPasswordTooShort,
		},
		{
			name:  "failure: duplicate email",
			input: validInput,
			setupMocks: func(ur *MockUserRepository) {
				ur.On("Create", mock.Anything, mock.Anything).Return(repositories.ErrUserEmailConflict)
			},
			expectedErr: ErrUserEmailConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, userRepo, _ := newAuthServiceForTest()
			if tt.setupMocks != nil {
				tt.setupMocks(userRepo)
			}

			user, err := svc.Register(context.Background(), tt.input)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, utils.CheckPasswordHash("correct-horse", user.PasswordHash))
			userRepo.AssertExpectations(t)
		})
	}
}

func TestLogin(t *testing.T) {
	hash, err := utils.HashPassword("correct-horse")
	require.NoError(t, err)

	verified := &models.User{ID: 7, Email: "asha@college.edu", PasswordHash: hash, EmailVerified: true}
	unverified := &models.User{ID: 8, Email: "new@college.edu", PasswordHash: hash, EmailVerified: false}

	tests := []struct {
		name        string
		input       LoginInput
		setupMocks  func(*MockUserRepository)
		expectedErr error
	}{
		{
			name:  "success",
			input: LoginInput{Email: "asha@college.edu", Password: "correct-horse"},
			setupMocks: func(ur *MockUserRepository) {
				ur.On("GetByEmail", mock.Anything, "asha@college.edu").Return(verified, nil)
			},
		},
		{
			name:  "failure: unknown email maps to invalid credentials",
			input: LoginInput{Email: "ghost@college.edu", Password: "correct-horse"},
			setupMocks: func(ur *MockUserRepository) {
				ur.On("GetByEmail", mock.Anything, "ghost@college.edu").Return(nil, repositories.ErrUserNotFound)
			},
			expectedErr: ErrInvalidCredentials,
		},
		{
			name:  "failure: wrong password",
			input: LoginInput{Email: "asha@college.edu", Password: "wrong"},
			setupMocks: func(ur *MockUserRepository) {
				ur.On("GetByEmail", mock.Anything, "asha@college.edu").Return(verified, nil)
			},
			expectedErr: ErrInvalidCredentials,
		},
		{
			name:  "failure: unverified email is rejected",
			input: LoginInput{Email: "new@college.edu", Password: "correct-horse"},
			setupMocks: func(ur *MockUserRepository) {
				ur.On("GetByEmail", mock.Anything, "new@college.edu").Return(unverified, nil)
			},
			expectedErr: ErrEmailNotVerified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, userRepo, _ := newAuthServiceForTest()
			tt.setupMocks(userRepo)

			user, err := svc.Login(context.Background(), tt.input)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, user.PasswordHash, "password hash must not leave the service")
		})
	}

	// The fixture is shared across subtests; restore the hash it was built with.
	verified.PasswordHash = hash
}

func TestSendOTPStoresHashedCode(t *testing.T) {
	svc, userRepo, otpRepo := newAuthServiceForTest()
	ctx := context.Background()

	userRepo.On("GetByEmail", ctx, "asha@college.edu").Return(&models.User{ID: 7}, nil)

	var stored *models.EmailOTP
	otpRepo.On("Upsert", ctx, mock.AnythingOfType("*models.EmailOTP")).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*models.EmailOTP)
	}).Return(nil)

	code, err := svc.SendOTP(ctx, "asha@college.edu")

	require.NoError(t, err)
	assert.Len(t, code, 6)
	require.NotNil(t, stored)
	assert.NotEqual(t, code, stored.CodeHash, "the plaintext code must never be stored")
	assert.True(t, utils.OTPMatches(code, stored.CodeHash))
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), stored.ExpiresAt, 5*time.Second)
}

func TestSendOTPUnknownEmail(t *testing.T) {
	svc, userRepo, _ := newAuthServiceForTest()
	ctx := context.Background()

	userRepo.On("GetByEmail", ctx, "ghost@college.edu").Return(nil, repositories.ErrUserNotFound)

	_, err := svc.SendOTP(ctx, "ghost@college.edu")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestResendOTPThrottlesPerEmail(t *testing.T) {
	svc, userRepo, otpRepo := newAuthServiceForTest()
	ctx := context.Background()

	userRepo.On("GetByEmail", ctx, mock.Anything).Return(&models.User{ID: 7}, nil)
	otpRepo.On("Upsert", ctx, mock.Anything).Return(nil)

	// The burst allows two immediate sends, then the limiter kicks in.
	_, err := svc.ResendOTP(ctx, "asha@college.edu")
	require.NoError(t, err)
	_, err = svc.ResendOTP(ctx, "asha@college.edu")
	require.NoError(t, err)
	_, err = svc.ResendOTP(ctx, "asha@college.edu")
	assert.ErrorIs(t, err, ErrOTPResendThrottled)

	// A different email has its own limiter.
	_, err = svc.ResendOTP(ctx, "other@college.edu")
	assert.NoError(t, err)
}

func TestVerifyOTP(t *testing.T) {
	const code = "482913"
	freshOTP := func() *models.EmailOTP {
		return &models.EmailOTP{
			ID:        1,
			Email:     "asha@college.edu",
			CodeHash:  utils.HashOTP(code),
			ExpiresAt: time.Now().Add(5 * time.Minute),
		}
	}

	t.Run("success: marks the email verified and burns the code", func(t *testing.T) {
		svc, userRepo, otpRepo := newAuthServiceForTest()
		ctx := context.Background()

		otpRepo.On("GetByEmail", ctx, "asha@college.edu").Return(freshOTP(), nil)
		userRepo.On("MarkEmailVerified", ctx, "asha@college.edu").Return(nil)
		otpRepo.On("Delete", ctx, 1).Return(nil)

		require.NoError(t, svc.VerifyOTP(ctx, "asha@college.edu", code))
		otpRepo.AssertExpectations(t)
		userRepo.AssertExpectations(t)
	})

	t.Run("failure: wrong code records the attempt", func(t *testing.T) {
		svc, _, otpRepo := newAuthServiceForTest()
		ctx := context.Background()

		otpRepo.On("GetByEmail", ctx, "asha@college.edu").Return(freshOTP(), nil)
		otpRepo.On("IncrementAttempts", ctx, 1).Return(nil)

		err := svc.VerifyOTP(ctx, "asha@college.edu", "000000")
		assert.ErrorIs(t, err, ErrOTPInvalid)
		otpRepo.AssertCalled(t, "IncrementAttempts", ctx, 1)
	})

	t.Run("failure: expired code", func(t *testing.T) {
		svc, _, otpRepo := newAuthServiceForTest()
		ctx := context.Background()

		expired := freshOTP()
		expired.ExpiresAt = time.Now().Add(-time.Minute)
		otpRepo.On("GetByEmail", ctx, "asha@college.edu").Return(expired, nil)

		assert.ErrorIs(t, svc.VerifyOTP(ctx, "asha@college.edu", code), ErrOTPExpired)
	})

	t.Run("failure: attempts exhausted even with the right code", func(t *testing.T) {
		svc, _, otpRepo := newAuthServiceForTest()
		ctx := context.Background()

		burned := freshOTP()
		burned.Attempts = 5
		otpRepo.On("GetByEmail", ctx, "asha@college.edu").Return(burned, nil)

		assert.ErrorIs(t, svc.VerifyOTP(ctx, "asha@college.edu", code), ErrOTPAttemptsReached)
	})

	t.Run("failure: no code on file", func(t *testing.T) {
		svc, _, otpRepo := newAuthServiceForTest()
		ctx := context.Background()

		otpRepo.On("GetByEmail", ctx, "asha@college.edu").Return(nil, repositories.ErrOTPNotFound)

		assert.ErrorIs(t, svc.VerifyOTP(ctx, "asha@college.edu", code), ErrOTPInvalid)
	})
}

func TestGeneratePasswordResetToken(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, userRepo, _ := newAuthServiceForTest()
		ctx := context.Background()

		userRepo.On("GetByEmail", ctx, "asha@college.edu").Return(&models.User{ID: 7}, nil)
		userRepo.On("SetPasswordResetToken", ctx, 7, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)

		token, err := svc.GeneratePasswordResetToken(ctx, "asha@college.edu")
		require.NoError(t, err)
		assert.Len(t, token, 32)
	})

	t.Run("unknown email stays silent", func(t *testing.T) {
		svc, userRepo, _ := newAuthServiceForTest()
		ctx := context.Background()

		userRepo.On("GetByEmail", ctx, "ghost@college.edu").Return(nil, repositories.ErrUserNotFound)

		token, err := svc.GeneratePasswordResetToken(ctx, "ghost@college.edu")
		assert.NoError(t, err)
		assert.Empty(t, token)
		userRepo.AssertNotCalled(t, "SetPasswordResetToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestResetPasswordByToken(t *testing.T) {
	t.Run("success: clears the token and rehashes", func(t *testing.T) {
		svc, userRepo, _ := newAuthServiceForTest()
		ctx := context.Background()

		token := "reset-token"
		expires := time.Now().Add(30 * time.Minute)
		user := &models.User{ID: 7, PasswordResetToken: &token, PasswordResetExpiresAt: &expires}
		userRepo.On("GetByPasswordResetToken", ctx, token).Return(user, nil)
		userRepo.On("Update", ctx, mock.MatchedBy(func(u *models.User) bool {
			return u.PasswordResetToken == nil && u.PasswordResetExpiresAt == nil &&
				utils.CheckPasswordHash("new-password-1", u.PasswordHash)
		})).Return(nil)

		require.NoError(t, svc.ResetPasswordByToken(ctx, token, "new-password-1"))
		userRepo.AssertExpectations(t)
	})

	t.Run("failure: expired token", func(t *testing.T) {
		svc, userRepo, _ := newAuthServiceForTest()
		ctx := context.Background()

		token := "reset-token"
		expires := time.Now().Add(-time.Minute)
		user := &models.User{ID: 7, PasswordResetToken: &token, PasswordResetExpiresAt: &expires}
		userRepo.On("GetByPasswordResetToken", ctx, token).Return(user, nil)

		assert.ErrorIs(t, svc.ResetPasswordByToken(ctx, token, "new-password-1"), ErrResetTokenInvalid)
	})

	t.Run("failure: short replacement password", func(t *testing.T) {
		svc, _, _ := newAuthServiceForTest()
		assert.ErrorIs(t, svc.ResetPasswordByToken(context.Background(), "tok", "short"), ErrPasswordTooShort)
	})
}
