package app_test

import (
	"reflect"
	"testing"

	"party-game-service/internal/app"
	"party-game-service/internal/domain"
)

func scoredGame(typ domain.GameType, items ...domain.Item) domain.Game {
	return domain.Game{
		ID:       "g1",
		Type:     typ,
		Config:   domain.GameConfig{Items: items},
		Settings: domain.Settings{DefaultPoints: 4},
	}
}

func answers(pairs ...string) domain.SubmissionPayload {
	var p domain.SubmissionPayload
	for i := 0; i+1 < len(pairs); i += 2 {
		p.Answers = append(p.Answers, domain.Answer{ItemID: pairs[i], Value: pairs[i+1]})
	}
	return p
}

func TestScoreTrivia(t *testing.T) {
	engine := app.NewScoringEngine(app.DefaultSpeedBonusRate)
	game := scoredGame(domain.GameTypeTrivia,
		domain.Item{ID: "q1", Answer: "Jupiter", Points: 10},
		domain.Item{ID: "q2", Answer: "7", AcceptedAnswers: []string{"seven"}},
	)
	score := engine.Score(game, answers("q1", "jupiter", "q2", "SEVEN", "q3", "x"))
	if score.Base != 14 || score.Correct != 2 || score.Answered != 2 {
		t.Fatalf("unexpected score %+v", score)
	}
	if engine.Score(game, answers("q1", "Saturn")).Total() != 0 {
		t.Fatalf("wrong answers must score zero")
	}
}

func TestScoreIsPure(t *testing.T) {
	engine := app.NewScoringEngine(1)
	game := scoredGame(domain.GameTypeWordScramble, domain.Item{ID: "w", Answer: "ice cream", Points: 3, TimeLimitSeconds: 10})
	game.Settings.SpeedBonusEnabled = true
	before := game
	spent := 4.0
	payload := domain.SubmissionPayload{Answers: []domain.Answer{{ItemID: "w", Value: "ICECREAM", TimeSpentSeconds: &spent}}}

	first := engine.Score(game, payload)
	second := engine.Score(game, payload)
	if first != second {
		t.Fatalf("score changed between calls: %+v vs %+v", first, second)
	}
	if first.Base != 3 || first.SpeedBonus != 6 {
		t.Fatalf("unexpected score %+v", first)
	}
	if !reflect.DeepEqual(before, game) {
		t.Fatalf("scoring mutated the game")
	}
}

func TestSpeedBonus(t *testing.T) {
	engine := app.NewScoringEngine(app.DefaultSpeedBonusRate)
	game := scoredGame(domain.GameTypeTrivia, domain.Item{ID: "q", Answer: "a", Points: 1, TimeLimitSeconds: 30})
	cases := []struct {
		spent *float64
		on    bool
		want  int
	}{
		{ptr(10), true, 10},
		{ptr(29.5), true, 0},
		{ptr(45), true, 0},
		{nil, true, 0},
		{ptr(0), false, 0},
	}
	for _, tc := range cases {
		game.Settings.SpeedBonusEnabled = tc.on
		payload := domain.SubmissionPayload{Answers: []domain.Answer{{ItemID: "q", Value: "a", TimeSpentSeconds: tc.spent}}}
		if got := engine.Score(game, payload).SpeedBonus; got != tc.want {
			t.Fatalf("spent=%v enabled=%v: expected bonus %d, got %d", tc.spent, tc.on, tc.want, got)
		}
	}
}

func TestAnswerNormalization(t *testing.T) {
	cases := []struct {
		typ    domain.GameType
		answer string
		value  string
		match  bool
	}{
		{domain.GameTypeGuessTheSong, "Café del Mar", "cafe del mar!", true},
		{domain.GameTypeGuessTheSong, "Don't Stop Me Now", "dont stop  me now", true},
		{domain.GameTypeHangman, "NEW YORK", "newyork", true},
		{domain.GameTypeWordScramble, "listen", "silent", false},
		{domain.GameTypeTrivia, "Paris", "  PARIS ", true},
		{domain.GameTypeTrivia, "New York", " new york", true},
		{domain.GameTypeTrivia, "New York", "new  york", false},
		{domain.GameTypeHangman, "NEW YORK", "new  york", true},
		{domain.GameTypeTrivia, "", "", false},
	}
	for _, tc := range cases {
		item := domain.Item{ID: "i", Answer: tc.answer}
		if got := app.AnswerMatches(tc.typ, item, tc.value); got != tc.match {
			t.Fatalf("%s %q vs %q: expected %v", tc.typ, tc.answer, tc.value, tc.match)
		}
	}
}

func TestScoreUnkeyedTypesUseDefaultPoints(t *testing.T) {
	engine := app.NewScoringEngine(app.DefaultSpeedBonusRate)
	game := scoredGame(domain.GameTypeCreativeChallenge)
	if got := engine.Score(game, domain.SubmissionPayload{Text: "poem"}).Total(); got != 4 {
		t.Fatalf("expected default points, got %d", got)
	}
}

func TestDuplicateAnswersScoreOnce(t *testing.T) {
	engine := app.NewScoringEngine(0)
	game := scoredGame(domain.GameTypeTrivia, domain.Item{ID: "q1", Answer: "a", Points: 5})
	if got := engine.Score(game, answers("q1", "a", "q1", "a")).Base; got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
}

func ptr(f float64) *float64 { return &f }
