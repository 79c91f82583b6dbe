package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"party-game-service/internal/app"
	"party-game-service/internal/domain"
	"party-game-service/internal/infra/memory"
)

var (
	organizer   = domain.Identity{UserID: "org-1", Role: domain.RoleOrganizer}
	otherOrg    = domain.Identity{UserID: "org-2", Role: domain.RoleOrganizer}
	participant = domain.Identity{UserID: "player-1", Role: domain.RoleParticipant}
	player2     = domain.Identity{UserID: "player-2", Role: domain.RoleParticipant}
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recorder struct {
	mu    sync.Mutex
	games []domain.Event
	users map[string][]domain.Event
}

func (r *recorder) BroadcastToGame(_ string, ev domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games = append(r.games, ev)
}

func (r *recorder) NotifyUser(userID string, ev domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.users == nil {
		r.users = make(map[string][]domain.Event)
	}
	r.users[userID] = append(r.users[userID], ev)
}

func (r *recorder) named(name string) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Event
	for _, ev := range r.games {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) forUser(userID string) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Event(nil), r.users[userID]...)
}

type fixture struct {
	games       *memory.GameRepository
	submissions *memory.SubmissionRepository
	events      *recorder
	clock       *fakeClock
	codes       *app.JoinCodeAllocator
	lifecycle   *app.GameService
	entries     *app.SubmissionService
	moderation  *app.ModerationService
	board       *app.LeaderboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		games:       memory.NewGameRepository(),
		submissions: memory.NewSubmissionRepository(),
		events:      &recorder{},
		clock:       newFakeClock(),
	}
	f.codes = app.NewJoinCodeAllocator(f.games, memory.NewCodeCache(app.CodeLoader{Games: f.games}, time.Minute), 0, 0)
	f.lifecycle = app.NewGameService(f.games, f.submissions, f.codes, f.events).WithClock(f.clock.Now)
	f.entries = app.NewSubmissionService(f.games, f.submissions, app.NewScoringEngine(app.DefaultSpeedBonusRate), f.events).WithClock(f.clock.Now)
	f.moderation = app.NewModerationService(f.games, f.submissions, f.events).WithClock(f.clock.Now)
	f.board = app.NewLeaderboardService(f.games, f.submissions)
	return f
}

func triviaInput() app.CreateGameInput {
	return app.CreateGameInput{
		Title: "Friday trivia",
		Type:  domain.GameTypeTrivia,
		Config: domain.GameConfig{Items: []domain.Item{
			{ID: "q1", Prompt: "2 + 2?", Answer: "4", AcceptedAnswers: []string{"four"}, Points: 10, TimeLimitSeconds: 20},
			{ID: "q2", Prompt: "Capital of France?", Answer: "Paris", Points: 5},
		}},
		Settings: domain.Settings{DefaultPoints: 3},
	}
}

func (f *fixture) createGame(t *testing.T, in app.CreateGameInput) domain.Game {
	t.Helper()
	game, err := f.lifecycle.Create(context.Background(), organizer, in)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	return game
}

func (f *fixture) activeGame(t *testing.T, in app.CreateGameInput) domain.Game {
	t.Helper()
	game := f.createGame(t, in)
	started, err := f.lifecycle.Start(context.Background(), organizer, game.ID)
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	return started
}

func expectKind(t *testing.T, err error, kind domain.Kind) {
	t.Helper()
	if domain.KindOf(err) != kind {
		t.Fatalf("expected %s error, got %v", kind, err)
	}
}
