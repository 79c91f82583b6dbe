package app

import (
	"context"

	"party-game-service/internal/domain"
)

// AnalyticsService exposes per-game statistics to the organizer.
type AnalyticsService struct {
	games     GameRepository
	analytics AnalyticsRepository
}

func NewAnalyticsService(games GameRepository, analytics AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{games: games, analytics: analytics}
}

// GameAnalytics returns statistics for a game the caller organizes.
func (s *AnalyticsService) GameAnalytics(ctx context.Context, actor domain.Identity, gameID string) (domain.Analytics, error) {
	if err := actor.Require(domain.CapabilityModerate); err != nil {
		return domain.Analytics{}, err
	}
	if _, err := loadOwnedGame(ctx, s.games, actor, gameID); err != nil {
		return domain.Analytics{}, err
	}
	return s.analytics.GameAnalytics(ctx, gameID)
}

// SummarizeSubmissions computes analytics from a game's live submissions.
func SummarizeSubmissions(gameID string, submissions []domain.Submission) domain.Analytics {
	out := domain.Analytics{GameID: gameID}
	users := make(map[string]struct{})
	for i := range submissions {
		s := submissions[i]
		out.TotalSubmissions++
		users[s.UserID] = struct{}{}
		switch s.Status {
		case domain.SubmissionStatusPending:
			out.PendingSubmissions++
		case domain.SubmissionStatusApproved:
			out.ApprovedSubmissions++
			out.TotalPoints += s.TotalPoints()
		case domain.SubmissionStatusRejected:
			out.RejectedSubmissions++
		}
		if s.IsFlagged {
			out.FlaggedSubmissions++
		}
		at := s.SubmittedAt
		if out.FirstSubmissionAt == nil || at.Before(*out.FirstSubmissionAt) {
			out.FirstSubmissionAt = &at
		}
		if out.LastSubmissionAt == nil || at.After(*out.LastSubmissionAt) {
			out.LastSubmissionAt = &at
		}
	}
	out.DistinctParticipants = len(users)
	if out.ApprovedSubmissions > 0 {
		out.AveragePoints = float64(out.TotalPoints) / float64(out.ApprovedSubmissions)
	}
	return out
}
