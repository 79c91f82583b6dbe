package app

import (
	"math"
	"strings"
	"unicode"

	"github.com/gosimple/unidecode"
	"golang.org/x/text/cases"

	"party-game-service/internal/domain"
)

// DefaultSpeedBonusRate is the points granted per unused second of an item's time limit.
const DefaultSpeedBonusRate = 0.5

// Score is the deterministic base award for one submission.
type Score struct {
	Base       int `json:"base"`
	SpeedBonus int `json:"speedBonus"`
	Correct    int `json:"correct"`
	Answered   int `json:"answered"`
}

// Total is base plus speed bonus. Moderator bonuses are tracked on the submission.
func (s Score) Total() int {
	return s.Base + s.SpeedBonus
}

// ScoringEngine computes points from a payload and the game's configuration.
type ScoringEngine struct {
	bonusRate float64
}

func NewScoringEngine(bonusRate float64) ScoringEngine {
	if bonusRate < 0 {
		bonusRate = 0
	}
	return ScoringEngine{bonusRate: bonusRate}
}

// Score awards item points for each correct answer, plus speed bonus when enabled.
// Types without an answer key earn the game's default points.
func (e ScoringEngine) Score(game domain.Game, payload domain.SubmissionPayload) Score {
	if !game.Type.Keyed() {
		return Score{Base: max(game.Settings.DefaultPoints, 0)}
	}

	var score Score
	seen := make(map[string]struct{}, len(payload.Answers))
	for _, answer := range payload.Answers {
		if _, dup := seen[answer.ItemID]; dup {
			continue
		}
		seen[answer.ItemID] = struct{}{}

		item, ok := game.Config.Item(answer.ItemID)
		if !ok {
			continue
		}
		score.Answered++
		if !AnswerMatches(game.Type, item, answer.Value) {
			continue
		}
		score.Correct++
		points := item.Points
		if points <= 0 {
			points = max(game.Settings.DefaultPoints, 0)
		}
		score.Base += points
		if game.Settings.SpeedBonusEnabled {
			score.SpeedBonus += e.speedBonus(item, answer.TimeSpentSeconds)
		}
	}
	return score
}

func (e ScoringEngine) speedBonus(item domain.Item, timeSpent *float64) int {
	if item.TimeLimitSeconds <= 0 || timeSpent == nil {
		return 0
	}
	remaining := math.Max(0, float64(item.TimeLimitSeconds)-*timeSpent)
	return int(math.Floor(remaining * e.bonusRate))
}

// AnswerMatches compares a submitted value with the item's answer and accepted alternates.
func AnswerMatches(gameType domain.GameType, item domain.Item, value string) bool {
	got := normalizeAnswer(gameType, value)
	if got == "" {
		return false
	}
	candidates := append([]string{item.Answer}, item.AcceptedAnswers...)
	for _, want := range candidates {
		if w := normalizeAnswer(gameType, want); w != "" && w == got {
			return true
		}
	}
	return false
}

// normalizeAnswer folds case for every type. Song titles also drop diacritics and
// punctuation; word puzzles ignore spacing.
func normalizeAnswer(gameType domain.GameType, s string) string {
	s = cases.Fold().String(strings.TrimSpace(s))
	switch gameType {
	case domain.GameTypeGuessTheSong:
		s = unidecode.Unidecode(s)
		s = strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, s)
		return strings.Join(strings.Fields(s), " ")
	case domain.GameTypeWordScramble, domain.GameTypeHangman:
		return strings.Join(strings.Fields(s), "")
	default:
		return s
	}
}
