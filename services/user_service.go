package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/profhack/profhack-backend/models"
	"github.com/profhack/profhack-backend/repositories"
)

type UpdateProfileInput struct {
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	Designation     *string `json:"designation"`
	Skills          *string `json:"skills"`
	YearsExperience *int    `json:"years_experience" validate:"omitempty,gte=0"`
}

type UserService interface {
	GetProfile(ctx context.Context, userID int) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.User, error)
	ListAvailable(ctx context.Context) ([]models.User, error)
	ListByTeamID(ctx context.Context, teamID int) ([]models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetProfile(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateProfile applies only the provided fields. Department is fixed after
// registration because team eligibility depends on it.
func (s *userService) UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Designation != nil {
		user.Designation = *input.Designation
	}
	if input.Skills != nil {
		user.Skills = *input.Skills
	}
	if input.YearsExperience != nil {
		user.YearsExperience = *input.YearsExperience
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user %d: %w", userID, err)
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *userService) ListAvailable(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.ListAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list available users: %w", err)
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *userService) ListByTeamID(ctx context.Context, teamID int) ([]models.User, error) {
	users, err := s.userRepo.ListByTeamID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of team %d: %w", teamID, err)
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}
