package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"party-game-service/internal/app"
	"party-game-service/internal/domain"
)

func TestValidateSubmissionPerType(t *testing.T) {
	spent := -1.0
	cases := []struct {
		name    string
		typ     domain.GameType
		payload domain.SubmissionPayload
		valid   bool
		field   string
	}{
		{"hunt with text", domain.GameTypeScavengerHunt, domain.SubmissionPayload{Text: "found it"}, true, ""},
		{"hunt with media only", domain.GameTypeScavengerHunt, domain.SubmissionPayload{MediaURLs: []string{"https://cdn/x.jpg"}}, true, ""},
		{"creative empty", domain.GameTypeCreativeChallenge, domain.SubmissionPayload{Text: "  "}, false, "text"},
		{"dare blank media", domain.GameTypeTruthOrDare, domain.SubmissionPayload{Text: "done", MediaURLs: []string{" "}}, false, "mediaUrls"},
		{"trivia no answers", domain.GameTypeTrivia, domain.SubmissionPayload{}, false, "answers"},
		{"trivia answer", domain.GameTypeTrivia, domain.SubmissionPayload{Answers: []domain.Answer{{ItemID: "q1", Value: "4"}}}, true, ""},
		{"song blank value", domain.GameTypeGuessTheSong, domain.SubmissionPayload{Answers: []domain.Answer{{ItemID: "s1"}}}, false, "answers.value"},
		{"hangman twice", domain.GameTypeHangman, domain.SubmissionPayload{Answers: []domain.Answer{{ItemID: "w", Value: "a"}, {ItemID: "w", Value: "b"}}}, false, "answers.itemId"},
		{"scramble negative time", domain.GameTypeWordScramble, domain.SubmissionPayload{Answers: []domain.Answer{{ItemID: "w", Value: "a", TimeSpentSeconds: &spent}}}, false, "answers.timeSpentSeconds"},
		{"vote missing", domain.GameTypeSongVoting, domain.SubmissionPayload{}, false, "selectedItemId"},
		{"vote", domain.GameTypeSongVoting, domain.SubmissionPayload{SelectedItemID: "song-1"}, true, ""},
		{"unknown type", "bingo", domain.SubmissionPayload{Text: "x"}, false, "type"},
		{"hunt with answers", domain.GameTypeScavengerHunt, domain.SubmissionPayload{Text: "x", Answers: []domain.Answer{{ItemID: "q", Value: "v"}}}, false, "answers"},
		{"creative with vote", domain.GameTypeCreativeChallenge, domain.SubmissionPayload{Text: "x", SelectedItemID: "s"}, false, "selectedItemId"},
		{"dare with answers", domain.GameTypeTruthOrDare, domain.SubmissionPayload{MediaURLs: []string{"https://cdn/x.jpg"}, Answers: []domain.Answer{{ItemID: "q", Value: "v"}}}, false, "answers"},
		{"trivia with text", domain.GameTypeTrivia, domain.SubmissionPayload{Text: "free text", Answers: []domain.Answer{{ItemID: "q1", Value: "4"}}}, false, "text"},
		{"trivia with media", domain.GameTypeTrivia, domain.SubmissionPayload{MediaURLs: []string{"https://x/y.png"}, Answers: []domain.Answer{{ItemID: "q1", Value: "4"}}}, false, "mediaUrls"},
		{"song with vote", domain.GameTypeGuessTheSong, domain.SubmissionPayload{SelectedItemID: "q2", Answers: []domain.Answer{{ItemID: "s1", Value: "x"}}}, false, "selectedItemId"},
		{"hangman with text", domain.GameTypeHangman, domain.SubmissionPayload{Text: "guess", Answers: []domain.Answer{{ItemID: "w", Value: "a"}}}, false, "text"},
		{"scramble with media", domain.GameTypeWordScramble, domain.SubmissionPayload{MediaURLs: []string{"https://x/y.png"}, Answers: []domain.Answer{{ItemID: "w", Value: "a"}}}, false, "mediaUrls"},
		{"vote with text", domain.GameTypeSongVoting, domain.SubmissionPayload{SelectedItemID: "song-1", Text: "love it"}, false, "text"},
	}
	for _, tc := range cases {
		res := app.ValidateSubmission(tc.typ, tc.payload)
		if res.Valid != tc.valid {
			t.Fatalf("%s: expected valid=%v, got %+v", tc.name, tc.valid, res)
		}
		if tc.valid {
			if res.Err() != nil {
				t.Fatalf("%s: valid result returned error", tc.name)
			}
			continue
		}
		found := false
		for _, fe := range res.Errors {
			if fe.Field == tc.field {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s: expected error on %s, got %+v", tc.name, tc.field, res.Errors)
		}
		expectKind(t, res.Err(), domain.KindValidation)
	}
}

func TestSubmissionRequiresActiveGame(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	game := f.createGame(t, triviaInput())
	payload := domain.SubmissionPayload{Answers: []domain.Answer{{ItemID: "q1", Value: "4"}}}

	if _, err := f.entries.Create(ctx, participant, game.ID, payload); domain.KindOf(err) != domain.KindStateConflict {
		t.Fatalf("draft game: expected state conflict, got %v", err)
	}
	if _, err := f.lifecycle.Start(ctx, organizer, game.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.lifecycle.Pause(ctx, organizer, game.ID); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := f.entries.Create(ctx, participant, game.ID, payload); domain.KindOf(err) != domain.KindStateConflict {
		t.Fatalf("paused game: expected state conflict, got %v", err)
	}
	if _, err := f.entries.Create(ctx, organizer, game.ID, payload); domain.KindOf(err) != domain.KindAuthorization {
		t.Fatalf("organizers cannot submit, got %v", err)
	}
	if _, err := f.entries.Create(ctx, participant, "missing", payload); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected game not found, got %v", err)
	}
}

func TestSubmissionRejectsFieldsOfOtherTypes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	game := f.activeGame(t, triviaInput())
	_, err := f.entries.Create(ctx, participant, game.ID, domain.SubmissionPayload{
		Text:           "free text on a trivia game",
		MediaURLs:      []string{"https://x/y.png"},
		Answers:        []domain.Answer{{ItemID: "q1", Value: "4"}},
		SelectedItemID: "q2",
	})
	var de *domain.Error
	if !errors.As(err, &de) || de.Kind != domain.KindValidation || len(de.Fields) != 3 {
		t.Fatalf("expected three field errors, got %v", err)
	}
	stored, err := f.submissions.ListSubmissions(ctx, game.ID, app.SubmissionFilter{})
	if err != nil || len(stored) != 0 {
		t.Fatalf("nothing should be stored, got %d %v", len(stored), err)
	}
}

func TestSubmissionRejectsUnknownItems(t *testing.T) {
	f := newFixture(t)
	game := f.activeGame(t, triviaInput())
	_, err := f.entries.Create(context.Background(), participant, game.ID, domain.SubmissionPayload{
		Answers: []domain.Answer{{ItemID: "nope", Value: "4"}},
	})
	expectKind(t, err, domain.KindValidation)
}

func TestSubmissionCreatesPendingAndBroadcasts(t *testing.T) {
	f := newFixture(t)
	game := f.activeGame(t, triviaInput())
	sub, err := f.entries.Create(context.Background(), participant, game.ID, domain.SubmissionPayload{
		Answers: []domain.Answer{{ItemID: "q1", Value: "4"}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.Status != domain.SubmissionStatusPending || sub.PointsAwarded != 0 || sub.UserID != participant.UserID {
		t.Fatalf("unexpected submission %+v", sub)
	}
	if len(f.events.named(domain.EventSubmissionReceived)) != 1 || len(f.events.named(domain.EventAnswerSubmitted)) != 1 {
		t.Fatalf("expected received and answer events, got %+v", f.events.games)
	}
}

func TestDuplicateSubmissionRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	game := f.activeGame(t, triviaInput())
	payload := domain.SubmissionPayload{Answers: []domain.Answer{{ItemID: "q1", Value: "4"}}}

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.entries.Create(ctx, participant, game.ID, payload)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrDuplicateSubmission):
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("expected exactly one accepted submission, got %d", ok)
	}

	if _, err := f.entries.Create(ctx, player2, game.ID, payload); err != nil {
		t.Fatalf("another participant may submit: %v", err)
	}
}

func TestMultipleSubmissionsAllowed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	in := app.CreateGameInput{
		Title:    "Hunt",
		Type:     domain.GameTypeScavengerHunt,
		Settings: domain.Settings{AllowMultipleSubmissions: true, DefaultPoints: 2},
	}
	game := f.activeGame(t, in)
	for i := 0; i < 3; i++ {
		if _, err := f.entries.Create(ctx, participant, game.ID, domain.SubmissionPayload{Text: "photo"}); err != nil {
			t.Fatalf("submission %d: %v", i, err)
		}
	}
	mine, err := f.entries.List(ctx, participant, game.ID, app.SubmissionFilter{})
	if err != nil || len(mine) != 3 {
		t.Fatalf("expected 3 submissions, got %d %v", len(mine), err)
	}
}

func TestAutoApproveScoresImmediately(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	in := triviaInput()
	in.Settings.AutoApprove = true
	in.Settings.SpeedBonusEnabled = true
	game := f.activeGame(t, in)

	spent := 5.0
	sub, err := f.entries.Create(ctx, participant, game.ID, domain.SubmissionPayload{Answers: []domain.Answer{
		{ItemID: "q1", Value: " Four ", TimeSpentSeconds: &spent},
		{ItemID: "q2", Value: "London"},
	}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	// 10 base points for q1 plus floor((20-5)*0.5) speed bonus.
	if sub.Status != domain.SubmissionStatusApproved || sub.PointsAwarded != 17 {
		t.Fatalf("expected auto-approved with 17 points, got %+v", sub)
	}
	if sub.ReviewedBy != domain.SystemReviewer || sub.ReviewedAt == nil {
		t.Fatalf("expected system review stamp, got %+v", sub)
	}

	board, err := f.board.Leaderboard(ctx, game.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board.Entries) != 1 || board.Entries[0].Score != 17 {
		t.Fatalf("unexpected leaderboard %+v", board.Entries)
	}
}

func TestListScopesParticipantsToOwnSubmissions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	game := f.activeGame(t, triviaInput())
	payload := domain.SubmissionPayload{Answers: []domain.Answer{{ItemID: "q1", Value: "4"}}}
	for _, who := range []domain.Identity{participant, player2} {
		if _, err := f.entries.Create(ctx, who, game.ID, payload); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	all, err := f.entries.List(ctx, organizer, game.ID, app.SubmissionFilter{})
	if err != nil || len(all) != 2 {
		t.Fatalf("organizer should see 2, got %d %v", len(all), err)
	}
	mine, err := f.entries.List(ctx, player2, game.ID, app.SubmissionFilter{UserID: participant.UserID})
	if err != nil || len(mine) != 1 || mine[0].UserID != player2.UserID {
		t.Fatalf("participant should only see their own, got %+v %v", mine, err)
	}
	if _, err := f.entries.List(ctx, otherOrg, game.ID, app.SubmissionFilter{}); !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
}
