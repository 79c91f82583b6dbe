package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"party-game-service/internal/domain"
)

// ModerationService applies organizer review actions to submissions.
type ModerationService struct {
	games       GameRepository
	submissions SubmissionRepository
	broadcaster Broadcaster
	now         func() time.Time
}

func NewModerationService(games GameRepository, submissions SubmissionRepository, broadcaster Broadcaster) *ModerationService {
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	return &ModerationService{games: games, submissions: submissions, broadcaster: broadcaster, now: time.Now}
}

// WithClock is test-only for deterministic timestamps.
func (m *ModerationService) WithClock(now func() time.Time) *ModerationService {
	m.now = now
	return m
}

// Approve moves a pending submission to approved. Without an override the game's
// default points are awarded.
func (m *ModerationService) Approve(ctx context.Context, actor domain.Identity, submissionID string, override *int) (domain.Submission, error) {
	if override != nil && *override < 0 {
		return domain.Submission{}, domain.NewValidationError("invalid approval", domain.FieldError{Field: "points", Message: "must not be negative"})
	}
	sub, game, err := m.load(ctx, actor, submissionID)
	if err != nil {
		return domain.Submission{}, err
	}
	switch sub.Status {
	case domain.SubmissionStatusPending:
	case domain.SubmissionStatusApproved:
		return domain.Submission{}, domain.NewStateConflictError("submission is already approved")
	default:
		return domain.Submission{}, domain.NewStateConflictError(fmt.Sprintf("cannot approve a %s submission", sub.Status))
	}

	points := game.Settings.DefaultPoints
	if override != nil {
		points = *override
	}
	now := m.now().UTC()
	sub.Status = domain.SubmissionStatusApproved
	sub.PointsAwarded = max(points, 0)
	sub.ReviewedBy = actor.UserID
	sub.ReviewedAt = &now
	return m.save(ctx, actor, sub, "approved")
}

// Reject moves a pending submission to rejected and zeroes its points.
func (m *ModerationService) Reject(ctx context.Context, actor domain.Identity, submissionID, reason string) (domain.Submission, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return domain.Submission{}, domain.NewValidationError("invalid rejection", domain.FieldError{Field: "reason", Message: "is required"})
	}
	sub, _, err := m.load(ctx, actor, submissionID)
	if err != nil {
		return domain.Submission{}, err
	}
	if sub.Status != domain.SubmissionStatusPending {
		return domain.Submission{}, domain.NewStateConflictError(fmt.Sprintf("cannot reject a %s submission", sub.Status))
	}

	now := m.now().UTC()
	sub.Status = domain.SubmissionStatusRejected
	sub.PointsAwarded = 0
	sub.BonusPoints = 0
	sub.RejectionReason = reason
	sub.ReviewedBy = actor.UserID
	sub.ReviewedAt = &now
	return m.save(ctx, actor, sub, "rejected")
}

// Flag sets or clears the flag side channel. It never touches the approval status.
func (m *ModerationService) Flag(ctx context.Context, actor domain.Identity, submissionID string, flagged bool, reason string) (domain.Submission, error) {
	reason = strings.TrimSpace(reason)
	if flagged && reason == "" {
		return domain.Submission{}, domain.NewValidationError("invalid flag", domain.FieldError{Field: "reason", Message: "is required"})
	}
	sub, _, err := m.load(ctx, actor, submissionID)
	if err != nil {
		return domain.Submission{}, err
	}
	sub.IsFlagged = flagged
	sub.FlagReason = ""
	if flagged {
		sub.FlagReason = reason
	}
	action := "unflagged"
	if flagged {
		action = "flagged"
	}
	return m.save(ctx, actor, sub, action)
}

// AwardBonus adds points to an approved submission. Awards accumulate.
func (m *ModerationService) AwardBonus(ctx context.Context, actor domain.Identity, submissionID string, points int, reason string) (domain.Submission, error) {
	reason = strings.TrimSpace(reason)
	var errs []domain.FieldError
	if points <= 0 {
		errs = append(errs, domain.FieldError{Field: "points", Message: "must be a positive integer"})
	}
	if reason == "" {
		errs = append(errs, domain.FieldError{Field: "reason", Message: "is required"})
	}
	if len(errs) > 0 {
		return domain.Submission{}, domain.NewValidationError("invalid bonus", errs...)
	}
	sub, _, err := m.load(ctx, actor, submissionID)
	if err != nil {
		return domain.Submission{}, err
	}
	if sub.Status != domain.SubmissionStatusApproved {
		return domain.Submission{}, domain.NewStateConflictError("bonus points require an approved submission")
	}

	now := m.now().UTC()
	sub.BonusPoints += points
	if sub.BonusReason == "" {
		sub.BonusReason = reason
	} else {
		sub.BonusReason += "; " + reason
	}
	sub.ReviewedBy = actor.UserID
	sub.ReviewedAt = &now
	return m.save(ctx, actor, sub, "bonus")
}

func (m *ModerationService) load(ctx context.Context, actor domain.Identity, submissionID string) (domain.Submission, domain.Game, error) {
	if err := actor.Require(domain.CapabilityModerate); err != nil {
		return domain.Submission{}, domain.Game{}, err
	}
	sub, err := m.submissions.GetSubmission(ctx, submissionID)
	if err != nil {
		return domain.Submission{}, domain.Game{}, err
	}
	game, err := loadOwnedGame(ctx, m.games, actor, sub.GameID)
	if err != nil {
		return domain.Submission{}, domain.Game{}, err
	}
	return sub, game, nil
}

func (m *ModerationService) save(ctx context.Context, actor domain.Identity, sub domain.Submission, action string) (domain.Submission, error) {
	if err := m.submissions.UpdateSubmission(ctx, &sub); err != nil {
		if errors.Is(err, domain.ErrStaleWrite) {
			return domain.Submission{}, domain.NewStateConflictError("submission was reviewed concurrently; reload and retry")
		}
		return domain.Submission{}, err
	}
	log.Printf("[moderation] submission %s %s by %s", sub.ID, action, actor.UserID)

	m.broadcaster.NotifyUser(sub.UserID, domain.Event{
		Name:   domain.EventSubmissionReviewed,
		GameID: sub.GameID,
		Data: map[string]any{
			"submissionId":  sub.ID,
			"action":        action,
			"status":        sub.Status,
			"pointsAwarded": sub.PointsAwarded,
			"bonusPoints":   sub.BonusPoints,
		},
		SentAt: m.now().UTC(),
	})
	return sub, nil
}
