package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"party-game-service/internal/domain"
)

type gameModel struct {
	bun.BaseModel `bun:"table:games,alias:g"`

	ID          string            `bun:"id,pk"`
	Title       string            `bun:"title,notnull"`
	Description string            `bun:"description,notnull"`
	Type        string            `bun:"type,notnull"`
	OrganizerID string            `bun:"organizer_id,notnull"`
	Status      string            `bun:"status,notnull"`
	JoinCode    *string           `bun:"join_code"`
	Config      domain.GameConfig `bun:"config,type:jsonb,notnull"`
	Settings    domain.Settings   `bun:"settings,type:jsonb,notnull"`
	CreatedAt   time.Time         `bun:"created_at,notnull"`
	UpdatedAt   time.Time         `bun:"updated_at,notnull"`
	StartedAt   *time.Time        `bun:"started_at"`
	PausedAt    *time.Time        `bun:"paused_at"`
	ResumedAt   *time.Time        `bun:"resumed_at"`
	CompletedAt *time.Time        `bun:"completed_at"`
	Version     int               `bun:"version,notnull"`
	DeletedAt   *time.Time        `bun:"deleted_at"`
}

func newGameModel(g domain.Game) *gameModel {
	return &gameModel{
		ID:          g.ID,
		Title:       g.Title,
		Description: g.Description,
		Type:        string(g.Type),
		OrganizerID: g.OrganizerID,
		Status:      string(g.Status),
		JoinCode:    g.JoinCode,
		Config:      g.Config,
		Settings:    g.Settings,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
		StartedAt:   g.StartedAt,
		PausedAt:    g.PausedAt,
		ResumedAt:   g.ResumedAt,
		CompletedAt: g.CompletedAt,
		Version:     g.Version,
	}
}

func (m *gameModel) toDomain() domain.Game {
	return domain.Game{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Type:        domain.GameType(m.Type),
		OrganizerID: m.OrganizerID,
		Status:      domain.GameStatus(m.Status),
		JoinCode:    m.JoinCode,
		Config:      m.Config,
		Settings:    m.Settings,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
		StartedAt:   utcPtr(m.StartedAt),
		PausedAt:    utcPtr(m.PausedAt),
		ResumedAt:   utcPtr(m.ResumedAt),
		CompletedAt: utcPtr(m.CompletedAt),
		Version:     m.Version,
	}
}

type submissionModel struct {
	bun.BaseModel `bun:"table:submissions,alias:s"`

	ID              string                   `bun:"id,pk"`
	GameID          string                   `bun:"game_id,notnull"`
	UserID          string                   `bun:"user_id,notnull"`
	Payload         domain.SubmissionPayload `bun:"payload,type:jsonb,notnull"`
	Status          string                   `bun:"status,notnull"`
	PointsAwarded   int                      `bun:"points_awarded,notnull"`
	BonusPoints     int                      `bun:"bonus_points,notnull"`
	BonusReason     string                   `bun:"bonus_reason,notnull"`
	RejectionReason string                   `bun:"rejection_reason,notnull"`
	IsFlagged       bool                     `bun:"is_flagged,notnull"`
	FlagReason      string                   `bun:"flag_reason,notnull"`
	ReviewedBy      string                   `bun:"reviewed_by,notnull"`
	ReviewedAt      *time.Time               `bun:"reviewed_at"`
	SubmittedAt     time.Time                `bun:"submitted_at,notnull"`
	DedupeKey       *string                  `bun:"dedupe_key"`
	Version         int                      `bun:"version,notnull"`
	DeletedAt       *time.Time               `bun:"deleted_at"`
}

func newSubmissionModel(s domain.Submission) *submissionModel {
	return &submissionModel{
		ID:              s.ID,
		GameID:          s.GameID,
		UserID:          s.UserID,
		Payload:         s.Payload,
		Status:          string(s.Status),
		PointsAwarded:   s.PointsAwarded,
		BonusPoints:     s.BonusPoints,
		BonusReason:     s.BonusReason,
		RejectionReason: s.RejectionReason,
		IsFlagged:       s.IsFlagged,
		FlagReason:      s.FlagReason,
		ReviewedBy:      s.ReviewedBy,
		ReviewedAt:      s.ReviewedAt,
		SubmittedAt:     s.SubmittedAt,
		Version:         s.Version,
	}
}

func (m *submissionModel) toDomain() domain.Submission {
	return domain.Submission{
		ID:              m.ID,
		GameID:          m.GameID,
		UserID:          m.UserID,
		Payload:         m.Payload,
		Status:          domain.SubmissionStatus(m.Status),
		PointsAwarded:   m.PointsAwarded,
		BonusPoints:     m.BonusPoints,
		BonusReason:     m.BonusReason,
		RejectionReason: m.RejectionReason,
		IsFlagged:       m.IsFlagged,
		FlagReason:      m.FlagReason,
		ReviewedBy:      m.ReviewedBy,
		ReviewedAt:      utcPtr(m.ReviewedAt),
		SubmittedAt:     m.SubmittedAt.UTC(),
		Version:         m.Version,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
