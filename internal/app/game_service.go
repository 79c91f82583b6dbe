package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"party-game-service/internal/domain"
)

type transition struct {
	name string
	from []domain.GameStatus
	to   domain.GameStatus
}

var startTransition = transition{
	name: "start",
	from: []domain.GameStatus{domain.GameStatusDraft, domain.GameStatusPaused},
	to:   domain.GameStatusActive,
}

var pauseTransition = transition{
	name: "pause",
	from: []domain.GameStatus{domain.GameStatusActive},
	to:   domain.GameStatusPaused,
}

var resumeTransition = transition{
	name: "resume",
	from: []domain.GameStatus{domain.GameStatusPaused},
	to:   domain.GameStatusActive,
}

// Completion is terminal and reachable from every other state.
var completeTransition = transition{
	name: "complete",
	from: []domain.GameStatus{domain.GameStatusDraft, domain.GameStatusActive, domain.GameStatusPaused},
	to:   domain.GameStatusCompleted,
}

func (t transition) allowed(from domain.GameStatus) bool {
	for _, s := range t.from {
		if s == from {
			return true
		}
	}
	return false
}

// GameService owns the game lifecycle and join codes.
type GameService struct {
	games       GameRepository
	submissions SubmissionRepository
	codes       *JoinCodeAllocator
	broadcaster Broadcaster
	now         func() time.Time
	newID       func() string
}

func NewGameService(games GameRepository, submissions SubmissionRepository, codes *JoinCodeAllocator, broadcaster Broadcaster) *GameService {
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	return &GameService{
		games:       games,
		submissions: submissions,
		codes:       codes,
		broadcaster: broadcaster,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *GameService) WithClock(now func() time.Time) *GameService {
	s.now = now
	return s
}

// Create stores a new draft game owned by the caller.
func (s *GameService) Create(ctx context.Context, actor domain.Identity, in CreateGameInput) (domain.Game, error) {
	if err := actor.Require(domain.CapabilityCreate); err != nil {
		return domain.Game{}, err
	}

	var errs []domain.FieldError
	title, fe := validateTitle(in.Title)
	errs = append(errs, fe...)
	description, fe := validateDescription(in.Description)
	errs = append(errs, fe...)
	if !in.Type.Valid() {
		errs = append(errs, domain.FieldError{Field: "type", Message: "unknown game type " + string(in.Type)})
	}
	config, fe := normalizeConfig(in.Type, in.Config)
	errs = append(errs, fe...)
	errs = append(errs, validateSettings(in.Settings)...)
	if len(errs) > 0 {
		return domain.Game{}, domain.NewValidationError("invalid game", errs...)
	}

	now := s.now().UTC()
	game := domain.Game{
		ID:          s.newID(),
		Title:       title,
		Description: description,
		Type:        in.Type,
		OrganizerID: actor.UserID,
		Status:      domain.GameStatusDraft,
		Config:      config,
		Settings:    in.Settings,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.games.CreateGame(ctx, game); err != nil {
		return domain.Game{}, err
	}
	log.Printf("[lifecycle] game %s created by %s (%s)", game.ID, actor.UserID, game.Type)
	return game, nil
}

// Get returns a game the caller organizes.
func (s *GameService) Get(ctx context.Context, actor domain.Identity, gameID string) (domain.Game, error) {
	return s.ownedGame(ctx, actor, gameID)
}

// List returns the caller's games, newest first. An empty status lists all.
func (s *GameService) List(ctx context.Context, actor domain.Identity, status domain.GameStatus) ([]domain.Game, error) {
	if err := actor.Require(domain.CapabilityCreate); err != nil {
		return nil, err
	}
	return s.games.ListGames(ctx, actor.UserID, status)
}

// Update edits a game. Type and config are frozen once the game leaves draft.
func (s *GameService) Update(ctx context.Context, actor domain.Identity, gameID string, in UpdateGameInput) (domain.Game, error) {
	game, err := s.ownedGame(ctx, actor, gameID)
	if err != nil {
		return domain.Game{}, err
	}
	if game.Status == domain.GameStatusCompleted {
		return domain.Game{}, domain.NewStateConflictError("completed games cannot be edited")
	}
	if (in.Type != nil || in.Config != nil) && game.Status != domain.GameStatusDraft {
		return domain.Game{}, domain.NewStateConflictError("type and config can only change while the game is a draft")
	}

	var errs []domain.FieldError
	if in.Title != nil {
		title, fe := validateTitle(*in.Title)
		errs = append(errs, fe...)
		game.Title = title
	}
	if in.Description != nil {
		description, fe := validateDescription(*in.Description)
		errs = append(errs, fe...)
		game.Description = description
	}
	if in.Type != nil {
		if !in.Type.Valid() {
			errs = append(errs, domain.FieldError{Field: "type", Message: "unknown game type " + string(*in.Type)})
		}
		game.Type = *in.Type
	}
	if in.Config != nil || in.Type != nil {
		config := game.Config
		if in.Config != nil {
			config = *in.Config
		}
		normalized, fe := normalizeConfig(game.Type, config)
		errs = append(errs, fe...)
		game.Config = normalized
	}
	if in.Settings != nil {
		if game.Status != domain.GameStatusDraft && in.Settings.AllowMultipleSubmissions != game.Settings.AllowMultipleSubmissions {
			return domain.Game{}, domain.NewStateConflictError("allowMultipleSubmissions can only change while the game is a draft")
		}
		errs = append(errs, validateSettings(*in.Settings)...)
		game.Settings = *in.Settings
	}
	if len(errs) > 0 {
		return domain.Game{}, domain.NewValidationError("invalid game", errs...)
	}

	game.UpdatedAt = s.now().UTC()
	if err := s.games.UpdateGame(ctx, &game); err != nil {
		return domain.Game{}, err
	}
	return game, nil
}

// Delete retires the join code, then soft-deletes the game and its submissions.
// The game goes first so no new submission can land between the two deletes.
func (s *GameService) Delete(ctx context.Context, actor domain.Identity, gameID string) error {
	game, err := s.ownedGame(ctx, actor, gameID)
	if err != nil {
		return err
	}
	if err := s.codes.Retire(ctx, game); err != nil {
		return err
	}
	if err := s.games.DeleteGame(ctx, game.ID); err != nil {
		return err
	}
	if err := s.submissions.DeleteSubmissionsByGame(ctx, game.ID); err != nil {
		return err
	}
	log.Printf("[lifecycle] game %s deleted by %s", game.ID, actor.UserID)
	return nil
}

func (s *GameService) Start(ctx context.Context, actor domain.Identity, gameID string) (domain.Game, error) {
	return s.transition(ctx, actor, gameID, startTransition)
}

func (s *GameService) Pause(ctx context.Context, actor domain.Identity, gameID string) (domain.Game, error) {
	return s.transition(ctx, actor, gameID, pauseTransition)
}

func (s *GameService) Resume(ctx context.Context, actor domain.Identity, gameID string) (domain.Game, error) {
	return s.transition(ctx, actor, gameID, resumeTransition)
}

func (s *GameService) Complete(ctx context.Context, actor domain.Identity, gameID string) (domain.Game, error) {
	return s.transition(ctx, actor, gameID, completeTransition)
}

func (s *GameService) transition(ctx context.Context, actor domain.Identity, gameID string, t transition) (domain.Game, error) {
	game, err := s.ownedGame(ctx, actor, gameID)
	if err != nil {
		return domain.Game{}, err
	}
	return s.apply(ctx, game, t)
}

// apply persists the transition, then broadcasts it. The store's version check rejects
// a concurrent transition that raced this one.
func (s *GameService) apply(ctx context.Context, game domain.Game, t transition) (domain.Game, error) {
	from := game.Status
	if !t.allowed(from) {
		return domain.Game{}, domain.NewStateConflictError(fmt.Sprintf("cannot %s a game that is %s", t.name, from))
	}

	now := s.now().UTC()
	game.Status = t.to
	game.UpdatedAt = now
	switch t.name {
	case "start":
		if from == domain.GameStatusPaused {
			game.ResumedAt = &now
		} else {
			game.StartedAt = &now
		}
	case "pause":
		game.PausedAt = &now
	case "resume":
		game.ResumedAt = &now
	case "complete":
		game.CompletedAt = &now
	}

	if err := s.games.UpdateGame(ctx, &game); err != nil {
		if errors.Is(err, domain.ErrStaleWrite) {
			return domain.Game{}, domain.NewStateConflictError("game changed state concurrently; reload and retry")
		}
		return domain.Game{}, err
	}

	if t.to == domain.GameStatusCompleted && game.JoinCode != nil {
		if err := s.codes.Retire(ctx, game); err != nil {
			log.Printf("[lifecycle] retire join code for completed game %s: %v", game.ID, err)
		} else {
			game.JoinCode = nil
		}
	}

	log.Printf("[lifecycle] game %s %s -> %s", game.ID, from, t.to)
	s.broadcaster.BroadcastToGame(game.ID, domain.Event{
		Name:   domain.EventGameStateChanged,
		GameID: game.ID,
		Data:   domain.StateChange{GameID: game.ID, From: from, To: t.to},
		SentAt: now,
	})
	return game, nil
}

// CompleteExpired completes active games whose time limit has elapsed.
func (s *GameService) CompleteExpired(ctx context.Context) (int, error) {
	active, err := s.games.ListActiveGames(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now()
	completed := 0
	for _, game := range active {
		limit := game.Settings.TimeLimitSeconds
		if limit <= 0 || game.StartedAt == nil {
			continue
		}
		if now.Before(game.StartedAt.Add(time.Duration(limit) * time.Second)) {
			continue
		}
		if _, err := s.apply(ctx, game, completeTransition); err != nil {
			log.Printf("[expiry] complete game %s: %v", game.ID, err)
			continue
		}
		completed++
	}
	return completed, nil
}

// GenerateJoinCode assigns a fresh code, replacing any previous one.
func (s *GameService) GenerateJoinCode(ctx context.Context, actor domain.Identity, gameID string) (string, error) {
	game, err := s.ownedGame(ctx, actor, gameID)
	if err != nil {
		return "", err
	}
	if game.Status == domain.GameStatusCompleted {
		return "", domain.NewStateConflictError("completed games cannot be joined")
	}
	code, err := s.codes.Allocate(ctx, game)
	if err != nil {
		return "", err
	}
	log.Printf("[lifecycle] game %s join code generated", game.ID)
	return code, nil
}

// RemoveJoinCode is idempotent.
func (s *GameService) RemoveJoinCode(ctx context.Context, actor domain.Identity, gameID string) error {
	game, err := s.ownedGame(ctx, actor, gameID)
	if err != nil {
		return err
	}
	return s.codes.Retire(ctx, game)
}

// ResolveJoinCode returns the participant-safe projection for the code of an active game.
// Draft and paused games stay hidden so prompts are not revealed early.
func (s *GameService) ResolveJoinCode(ctx context.Context, code string) (domain.PublicGame, error) {
	game, err := s.joinable(ctx, code)
	if err != nil {
		return domain.PublicGame{}, err
	}
	return game.Public(), nil
}

// Join admits a participant to an active game. Repeated joins are harmless.
func (s *GameService) Join(ctx context.Context, actor domain.Identity, code string) (domain.PublicGame, error) {
	if err := actor.Require(domain.CapabilityJoin); err != nil {
		return domain.PublicGame{}, err
	}
	game, err := s.joinable(ctx, code)
	if err != nil {
		return domain.PublicGame{}, err
	}
	s.broadcaster.BroadcastToGame(game.ID, domain.Event{
		Name:   domain.EventParticipantJoined,
		GameID: game.ID,
		Data:   map[string]string{"userId": actor.UserID, "displayName": actor.DisplayName()},
		SentAt: s.now().UTC(),
	})
	return game.Public(), nil
}

func (s *GameService) joinable(ctx context.Context, code string) (domain.Game, error) {
	game, err := s.codes.Resolve(ctx, code)
	if err != nil {
		return domain.Game{}, err
	}
	if game.Status != domain.GameStatusActive {
		return domain.Game{}, domain.NewStateConflictError(fmt.Sprintf("game is %s; joining opens once it is active", game.Status))
	}
	return game, nil
}

func (s *GameService) ownedGame(ctx context.Context, actor domain.Identity, gameID string) (domain.Game, error) {
	if err := actor.Require(domain.CapabilityCreate); err != nil {
		return domain.Game{}, err
	}
	return loadOwnedGame(ctx, s.games, actor, gameID)
}

func loadOwnedGame(ctx context.Context, games GameRepository, actor domain.Identity, gameID string) (domain.Game, error) {
	game, err := games.GetGame(ctx, gameID)
	if err != nil {
		return domain.Game{}, err
	}
	if !game.OwnedBy(actor.UserID) {
		return domain.Game{}, domain.ErrNotOwner
	}
	return game, nil
}
