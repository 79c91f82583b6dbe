package app_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"party-game-service/internal/app"
	"party-game-service/internal/domain"
	"party-game-service/internal/infra/memory"
)

func TestGenerateUsesAlphabet(t *testing.T) {
	games := memory.NewGameRepository()
	alloc := app.NewJoinCodeAllocator(games, nil, 8, 0)
	for i := 0; i < 200; i++ {
		code, err := alloc.Generate()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != 8 {
			t.Fatalf("expected 8 characters, got %q", code)
		}
		for _, r := range code {
			if !strings.ContainsRune(app.JoinCodeAlphabet, r) {
				t.Fatalf("code %q uses %q outside the alphabet", code, r)
			}
		}
	}
}

func TestGenerateSkipsBiasedBytes(t *testing.T) {
	alloc := app.NewJoinCodeAllocator(memory.NewGameRepository(), nil, 2, 0).
		WithRandom(bytes.NewReader([]byte{255, 0, 250, 1}))
	code, err := alloc.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if code != "AB" {
		t.Fatalf("expected AB, got %q", code)
	}
}

func TestAllocateRetriesOnCollision(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	holder := f.createGame(t, triviaInput())
	other := f.createGame(t, triviaInput())
	if err := f.games.SetJoinCode(ctx, holder.ID, "AAAAAA"); err != nil {
		t.Fatalf("seed code: %v", err)
	}

	entropy := append(bytes.Repeat([]byte{0}, 6), bytes.Repeat([]byte{1}, 6)...)
	alloc := app.NewJoinCodeAllocator(f.games, nil, 6, 3).WithRandom(bytes.NewReader(entropy))
	code, err := alloc.Allocate(ctx, other)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if code != "BBBBBB" {
		t.Fatalf("expected second candidate after collision, got %q", code)
	}
}

func TestAllocateGivesUpAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	holder := f.createGame(t, triviaInput())
	other := f.createGame(t, triviaInput())
	if err := f.games.SetJoinCode(ctx, holder.ID, "AAAAAA"); err != nil {
		t.Fatalf("seed code: %v", err)
	}

	alloc := app.NewJoinCodeAllocator(f.games, nil, 6, 3).WithRandom(bytes.NewReader(make([]byte, 18)))
	if _, err := alloc.Allocate(ctx, other); !errors.Is(err, domain.ErrJoinCodesExhausted) {
		t.Fatalf("expected exhaustion, got %v", err)
	}
	got, err := f.games.GetGame(ctx, other.ID)
	if err != nil || got.JoinCode != nil {
		t.Fatalf("expected no code assigned, got %+v %v", got.JoinCode, err)
	}
}

func TestConcurrentAllocationsAreDistinct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	const n = 50
	ids := make([]string, n)
	for i := range ids {
		ids[i] = f.createGame(t, triviaInput()).ID
	}

	codes := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i], errs[i] = f.lifecycle.GenerateJoinCode(ctx, organizer, ids[i])
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for i, code := range codes {
		if errs[i] != nil {
			t.Fatalf("generate %d: %v", i, errs[i])
		}
		if seen[code] {
			t.Fatalf("code %s issued twice", code)
		}
		seen[code] = true
	}
}

func TestResolveJoinCode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	game := f.createGame(t, triviaInput())
	code, err := f.lifecycle.GenerateJoinCode(ctx, organizer, game.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// Draft games keep their prompts hidden.
	public, err := f.lifecycle.ResolveJoinCode(ctx, code)
	if domain.KindOf(err) != domain.KindStateConflict || len(public.Items) != 0 {
		t.Fatalf("draft resolve: expected state conflict without items, got %+v %v", public, err)
	}

	if _, err := f.lifecycle.Start(ctx, organizer, game.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	public, err = f.lifecycle.ResolveJoinCode(ctx, "  "+strings.ToLower(code)+" ")
	if err != nil {
		t.Fatalf("resolve lower-case code: %v", err)
	}
	if public.ID != game.ID || public.Status != domain.GameStatusActive {
		t.Fatalf("unexpected projection %+v", public)
	}
	for _, item := range public.Items {
		if item.ID == "" || item.Prompt == "" {
			t.Fatalf("expected prompts in projection, got %+v", item)
		}
	}

	if _, err := f.lifecycle.Pause(ctx, organizer, game.ID); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := f.lifecycle.ResolveJoinCode(ctx, code); domain.KindOf(err) != domain.KindStateConflict {
		t.Fatalf("paused resolve: expected state conflict, got %v", err)
	}
	if _, err := f.lifecycle.Resume(ctx, organizer, game.ID); err != nil {
		t.Fatalf("resume: %v", err)
	}

	for _, bad := range []string{"", "0OIL10", code + "X"} {
		if _, err := f.lifecycle.ResolveJoinCode(ctx, bad); !errors.Is(err, domain.ErrJoinCodeNotFound) {
			t.Fatalf("resolve %q: expected not found, got %v", bad, err)
		}
	}

	// Regeneration invalidates the cached mapping of the old code.
	fresh, err := f.lifecycle.GenerateJoinCode(ctx, organizer, game.ID)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if _, err := f.lifecycle.ResolveJoinCode(ctx, code); !errors.Is(err, domain.ErrJoinCodeNotFound) {
		t.Fatalf("old code should be gone, got %v", err)
	}
	if _, err := f.lifecycle.ResolveJoinCode(ctx, fresh); err != nil {
		t.Fatalf("resolve fresh code: %v", err)
	}

	if err := f.lifecycle.RemoveJoinCode(ctx, organizer, game.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := f.lifecycle.RemoveJoinCode(ctx, organizer, game.ID); err != nil {
		t.Fatalf("remove twice: %v", err)
	}
	if _, err := f.lifecycle.ResolveJoinCode(ctx, fresh); !errors.Is(err, domain.ErrJoinCodeNotFound) {
		t.Fatalf("removed code should not resolve, got %v", err)
	}
}

func TestJoinRequiresActiveGame(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	game := f.createGame(t, triviaInput())
	code, err := f.lifecycle.GenerateJoinCode(ctx, organizer, game.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := f.lifecycle.Join(ctx, participant, code); domain.KindOf(err) != domain.KindStateConflict {
		t.Fatalf("expected draft join to conflict, got %v", err)
	}
	if _, err := f.lifecycle.Start(ctx, organizer, game.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.lifecycle.Join(ctx, participant, code); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := f.lifecycle.Join(ctx, participant, code); err != nil {
		t.Fatalf("repeat join: %v", err)
	}
	if got := len(f.events.named(domain.EventParticipantJoined)); got != 2 {
		t.Fatalf("expected 2 join events, got %d", got)
	}

	if _, err := f.lifecycle.Complete(ctx, organizer, game.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := f.lifecycle.ResolveJoinCode(ctx, code); !errors.Is(err, domain.ErrJoinCodeNotFound) {
		t.Fatalf("completed game code should be retired, got %v", err)
	}
	if _, err := f.lifecycle.GenerateJoinCode(ctx, organizer, game.ID); domain.KindOf(err) != domain.KindStateConflict {
		t.Fatalf("completed games cannot get codes, got %v", err)
	}
}
