package app

import (
	"context"

	"party-game-service/internal/domain"
)

// GameRepository persists games (in-memory, Postgres, etc).
// Implementations hide soft-deleted games from every read.
type GameRepository interface {
	CreateGame(ctx context.Context, game domain.Game) error
	GetGame(ctx context.Context, id string) (domain.Game, error)
	ListGames(ctx context.Context, organizerID string, status domain.GameStatus) ([]domain.Game, error)
	ListActiveGames(ctx context.Context) ([]domain.Game, error)
	// UpdateGame writes every field except the join code, provided the stored version
	// still equals game.Version. On success game.Version is advanced.
	UpdateGame(ctx context.Context, game *domain.Game) error
	// SetJoinCode reserves code for the game atomically, failing with ErrJoinCodeTaken
	// when another live game holds it.
	SetJoinCode(ctx context.Context, gameID, code string) error
	// ClearJoinCode is a no-op when the game holds no code.
	ClearJoinCode(ctx context.Context, gameID string) error
	FindByJoinCode(ctx context.Context, code string) (domain.Game, error)
	DeleteGame(ctx context.Context, id string) error
}

// SubmissionFilter narrows submission listings. Zero values match everything.
type SubmissionFilter struct {
	Status      domain.SubmissionStatus
	UserID      string
	FlaggedOnly bool
}

// SubmissionRepository persists submissions.
type SubmissionRepository interface {
	// CreateSubmission inserts s. When exclusive is set the store rejects a second live
	// submission for the same (game, user) with ErrDuplicateSubmission.
	CreateSubmission(ctx context.Context, s domain.Submission, exclusive bool) error
	GetSubmission(ctx context.Context, id string) (domain.Submission, error)
	// UpdateSubmission applies the same version check as UpdateGame.
	UpdateSubmission(ctx context.Context, s *domain.Submission) error
	ListSubmissions(ctx context.Context, gameID string, filter SubmissionFilter) ([]domain.Submission, error)
	DeleteSubmissionsByGame(ctx context.Context, gameID string) error
}

// AnalyticsRepository computes per-game submission statistics.
type AnalyticsRepository interface {
	GameAnalytics(ctx context.Context, gameID string) (domain.Analytics, error)
}

// Broadcaster fans events out to connected sockets. Delivery is best effort and
// failures never reach the caller.
type Broadcaster interface {
	BroadcastToGame(gameID string, event domain.Event)
	NotifyUser(userID string, event domain.Event)
}

// CodeIndex resolves join codes to game ids, possibly through a cache.
type CodeIndex interface {
	GameIDForCode(ctx context.Context, code string) (string, error)
	Forget(ctx context.Context, code string)
}

// NopBroadcaster drops every event.
type NopBroadcaster struct{}

func (NopBroadcaster) BroadcastToGame(string, domain.Event) {}
func (NopBroadcaster) NotifyUser(string, domain.Event)      {}
