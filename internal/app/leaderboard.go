package app

import (
	"context"
	"sort"
	"time"

	"party-game-service/internal/domain"
)

// RankSubmissions aggregates approved submissions into standings: score descending, then
// earliest submission, then user id so the order is total.
func RankSubmissions(gameID string, submissions []domain.Submission, now time.Time) domain.Leaderboard {
	byUser := make(map[string]*domain.LeaderboardEntry)
	for _, s := range submissions {
		if s.Status != domain.SubmissionStatusApproved {
			continue
		}
		entry, ok := byUser[s.UserID]
		if !ok {
			entry = &domain.LeaderboardEntry{UserID: s.UserID, FirstSubmittedAt: s.SubmittedAt}
			byUser[s.UserID] = entry
		}
		entry.Score += s.TotalPoints()
		entry.Submissions++
		if s.SubmittedAt.Before(entry.FirstSubmittedAt) {
			entry.FirstSubmittedAt = s.SubmittedAt
		}
	}

	entries := make([]domain.LeaderboardEntry, 0, len(byUser))
	for _, entry := range byUser {
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if !entries[i].FirstSubmittedAt.Equal(entries[j].FirstSubmittedAt) {
			return entries[i].FirstSubmittedAt.Before(entries[j].FirstSubmittedAt)
		}
		return entries[i].UserID < entries[j].UserID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	return domain.Leaderboard{
		GameID:      gameID,
		Entries:     entries,
		GeneratedAt: now,
	}
}

// LeaderboardService recomputes standings from the store on every read.
type LeaderboardService struct {
	games       GameRepository
	submissions SubmissionRepository
	now         func() time.Time
}

func NewLeaderboardService(games GameRepository, submissions SubmissionRepository) *LeaderboardService {
	return &LeaderboardService{games: games, submissions: submissions, now: time.Now}
}

// Leaderboard returns the current standings for a game.
func (s *LeaderboardService) Leaderboard(ctx context.Context, gameID string) (domain.Leaderboard, error) {
	if _, err := s.games.GetGame(ctx, gameID); err != nil {
		return domain.Leaderboard{}, err
	}
	approved, err := s.submissions.ListSubmissions(ctx, gameID, SubmissionFilter{Status: domain.SubmissionStatusApproved})
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return RankSubmissions(gameID, approved, s.now()), nil
}
