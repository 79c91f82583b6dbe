package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"party-game-service/internal/domain"
)

// SubmissionService handles participant submissions.
type SubmissionService struct {
	games       GameRepository
	submissions SubmissionRepository
	scoring     ScoringEngine
	broadcaster Broadcaster
	now         func() time.Time
	newID       func() string
}

func NewSubmissionService(games GameRepository, submissions SubmissionRepository, scoring ScoringEngine, broadcaster Broadcaster) *SubmissionService {
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	return &SubmissionService{
		games:       games,
		submissions: submissions,
		scoring:     scoring,
		broadcaster: broadcaster,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *SubmissionService) WithClock(now func() time.Time) *SubmissionService {
	s.now = now
	return s
}

// Create validates and stores a submission against an active game. With auto-approval
// the submission is scored immediately.
func (s *SubmissionService) Create(ctx context.Context, actor domain.Identity, gameID string, payload domain.SubmissionPayload) (domain.Submission, error) {
	if err := actor.Require(domain.CapabilityJoin); err != nil {
		return domain.Submission{}, err
	}
	game, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return domain.Submission{}, err
	}
	if game.Status != domain.GameStatusActive {
		return domain.Submission{}, domain.NewStateConflictError(fmt.Sprintf("game is %s; submissions are accepted only while active", game.Status))
	}
	if err := ValidateSubmission(game.Type, payload).Err(); err != nil {
		return domain.Submission{}, err
	}
	if err := checkAgainstConfig(game, payload); err != nil {
		return domain.Submission{}, err
	}

	now := s.now().UTC()
	sub := domain.Submission{
		ID:          s.newID(),
		GameID:      game.ID,
		UserID:      actor.UserID,
		Payload:     payload,
		Status:      domain.SubmissionStatusPending,
		SubmittedAt: now,
	}
	if game.Settings.AutoApprove {
		score := s.scoring.Score(game, payload)
		sub.Status = domain.SubmissionStatusApproved
		sub.PointsAwarded = score.Total()
		sub.ReviewedBy = domain.SystemReviewer
		sub.ReviewedAt = &now
	}

	// One submission per user is enforced by the store's unique constraint.
	if err := s.submissions.CreateSubmission(ctx, sub, !game.Settings.AllowMultipleSubmissions); err != nil {
		return domain.Submission{}, err
	}
	log.Printf("[submission] %s created for game %s by %s (%s)", sub.ID, game.ID, actor.UserID, sub.Status)

	s.broadcaster.BroadcastToGame(game.ID, domain.Event{
		Name:   domain.EventSubmissionReceived,
		GameID: game.ID,
		Data: map[string]any{
			"submissionId": sub.ID,
			"userId":       sub.UserID,
			"status":       sub.Status,
		},
		SentAt: now,
	})
	switch {
	case game.Type == domain.GameTypeSongVoting:
		s.broadcaster.BroadcastToGame(game.ID, domain.Event{
			Name:   domain.EventVoteCast,
			GameID: game.ID,
			Data:   map[string]string{"userId": sub.UserID, "itemId": payload.SelectedItemID},
			SentAt: now,
		})
	case game.Type.Keyed():
		s.broadcaster.BroadcastToGame(game.ID, domain.Event{
			Name:   domain.EventAnswerSubmitted,
			GameID: game.ID,
			Data:   map[string]any{"userId": sub.UserID, "answered": len(payload.Answers)},
			SentAt: now,
		})
	}
	return sub, nil
}

// List returns every submission of a game to its organizer, or the caller's own
// submissions to a participant.
func (s *SubmissionService) List(ctx context.Context, actor domain.Identity, gameID string, filter SubmissionFilter) ([]domain.Submission, error) {
	game, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.Role.Can(domain.CapabilityModerate) && game.OwnedBy(actor.UserID):
	case actor.Role.Can(domain.CapabilityJoin):
		filter.UserID = actor.UserID
	default:
		return nil, domain.ErrNotOwner
	}
	return s.submissions.ListSubmissions(ctx, gameID, filter)
}
