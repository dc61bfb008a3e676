package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/profhack/profhack-backend/eligibility"
	"github.com/profhack/profhack-backend/models"
	"github.com/profhack/profhack-backend/repositories"
	"github.com/profhack/profhack-backend/storage"
)

const (
	// MaxSubmissionFileSize bounds the uploaded PDF.
	MaxSubmissionFileSize = 10 << 20 // 10 MB

	submissionContentType = "application/pdf"

	// submissionPoints is awarded to the leaderboard score on a successful
	// submission.
	submissionPoints = 100
)

type SubmitInput struct {
	TeamID      int
	Track       models.Track
	Brief       string
	FileName    string
	ContentType string
	FileSize    int64
	File        io.Reader

	CurrentUserID int
}

type SubmissionService interface {
	Submit(ctx context.Context, input SubmitInput) (*models.Submission, error)
	GetByTeam(ctx context.Context, teamID int) (*models.Submission, error)
}

type submissionService struct {
	submissionRepo repositories.SubmissionRepository
	teamService    TeamService
	teamRepo       repositories.TeamRepository
	uploader       storage.FileUploader
	notifications  NotificationService
	logger         *slog.Logger
}

func NewSubmissionService(
	submissionRepo repositories.SubmissionRepository,
	teamService TeamService,
	teamRepo repositories.TeamRepository,
	uploader storage.FileUploader,
	notifications NotificationService,
	logger *slog.Logger,
) SubmissionService {
	return &submissionService{
		submissionRepo: submissionRepo,
		teamService:    teamService,
		teamRepo:       teamRepo,
		uploader:       uploader,
		notifications:  notifications,
		logger:         logger,
	}
}

// Submit stores a team's competition entry: leader only, complete and valid
// roster, one submission per team, PDF within the size limit.
func (s *submissionService) Submit(ctx context.Context, input SubmitInput) (*models.Submission, error) {
	if !input.Track.Valid() {
		return nil, ErrTrackInvalid
	}
	if input.Brief == "" {
		return nil, ErrBriefRequired
	}
	if input.ContentType != submissionContentType {
		return nil, ErrFileNotPDF
	}
	if input.FileSize > MaxSubmissionFileSize {
		return nil, ErrFileTooLarge
	}

	team, err := s.teamService.GetTeamByID(ctx, input.TeamID)
	if err != nil {
		return nil, err
	}
	if team.LeaderID != input.CurrentUserID {
		return nil, ErrLeaderActionOnly
	}

	roster := make([]eligibility.Member, 0, len(team.Members))
	for i := range team.Members {
		roster = append(roster, eligibility.Member{
			ID:         team.Members[i].ID,
			Department: team.Members[i].Department,
		})
	}
	if violations := eligibility.ValidateComposition(roster); len(violations) > 0 {
		return nil, &CompositionError{Violations: violations}
	}

	key := fmt.Sprintf("submissions/team_%d/%d.pdf", team.ID, time.Now().Unix())
	uploadResult, err := s.uploader.Upload(ctx, key, input.ContentType, io.LimitReader(input.File, MaxSubmissionFileSize))
	if err != nil {
		return nil, fmt.Errorf("failed to upload submission file: %w", err)
	}

	submission := &models.Submission{
		TeamID:      team.ID,
		Track:       input.Track,
		Brief:       input.Brief,
		FileKey:     uploadResult.Key,
		SubmittedBy: input.CurrentUserID,
	}
	if err := s.submissionRepo.Create(ctx, submission); err != nil {
		// Roll the orphaned object back; losing it only wastes storage.
		if delErr := s.uploader.Delete(ctx, uploadResult.Key); delErr != nil {
			s.logger.Warn("failed to delete orphaned submission file",
				slog.String("key", uploadResult.Key), slog.Any("error", delErr))
		}
		if errors.Is(err, repositories.ErrSubmissionConflict) {
			return nil, ErrSubmissionConflict
		}
		return nil, fmt.Errorf("failed to store submission: %w", err)
	}
	submission.FileURL = s.uploader.GetPublicURL(submission.FileKey)

	if err := s.teamRepo.AddScore(ctx, team.ID, submissionPoints); err != nil {
		s.logger.Warn("failed to award submission points",
			slog.Int("team_id", team.ID), slog.Any("error", err))
	}
	if err := s.teamRepo.UpdateStatus(ctx, team.ID, models.TeamStatusSubmitted); err != nil {
		s.logger.Warn("failed to update team status after submission",
			slog.Int("team_id", team.ID), slog.Any("error", err))
	}

	for _, member := range team.Members {
		if member.ID == input.CurrentUserID {
			continue
		}
		n := &models.Notification{
			UserID:  member.ID,
			Type:    models.NotificationTypeSubmissionReceived,
			Message: fmt.Sprintf("Team %s submitted its entry for %s", team.Name, input.Track),
			TeamID:  &team.ID,
		}
		if err := s.notifications.Notify(ctx, n); err != nil {
			s.logger.Warn("failed to deliver submission notification",
				slog.Int("user_id", member.ID), slog.Any("error", err))
		}
	}

	return submission, nil
}

func (s *submissionService) GetByTeam(ctx context.Context, teamID int) (*models.Submission, error) {
	submission, err := s.submissionRepo.GetByTeamID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrSubmissionNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission for team %d: %w", teamID, err)
	}
	submission.FileURL = s.uploader.GetPublicURL(submission.FileKey)
	return submission, nil
}
