package app

import (
	"slices"
	"strings"

	"party-game-service/internal/domain"
)

// ValidationResult is the outcome of ValidateSubmission.
type ValidationResult struct {
	Valid  bool                `json:"valid"`
	Errors []domain.FieldError `json:"errors,omitempty"`
}

// Err converts an invalid result into a validation error.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return domain.NewValidationError("invalid submission", r.Errors...)
}

// ValidateSubmission checks that payload carries the fields the game type requires.
// It never touches storage.
func ValidateSubmission(gameType domain.GameType, payload domain.SubmissionPayload) ValidationResult {
	var errs []domain.FieldError
	switch gameType {
	case domain.GameTypeScavengerHunt, domain.GameTypeCreativeChallenge, domain.GameTypeTruthOrDare:
		if strings.TrimSpace(payload.Text) == "" && !hasMedia(payload.MediaURLs) {
			errs = append(errs, domain.FieldError{Field: "text", Message: "text or at least one media reference is required"})
		}
		for _, url := range payload.MediaURLs {
			if strings.TrimSpace(url) == "" {
				errs = append(errs, domain.FieldError{Field: "mediaUrls", Message: "media references must not be empty"})
				break
			}
		}
	case domain.GameTypeTrivia, domain.GameTypeGuessTheSong, domain.GameTypeHangman, domain.GameTypeWordScramble:
		if len(payload.Answers) == 0 {
			errs = append(errs, domain.FieldError{Field: "answers", Message: "an answer is required"})
		}
		seen := make(map[string]struct{}, len(payload.Answers))
		for _, answer := range payload.Answers {
			if strings.TrimSpace(answer.ItemID) == "" {
				errs = append(errs, domain.FieldError{Field: "answers.itemId", Message: "is required"})
				continue
			}
			if _, dup := seen[answer.ItemID]; dup {
				errs = append(errs, domain.FieldError{Field: "answers.itemId", Message: "item " + answer.ItemID + " answered twice"})
			}
			seen[answer.ItemID] = struct{}{}
			if strings.TrimSpace(answer.Value) == "" {
				errs = append(errs, domain.FieldError{Field: "answers.value", Message: "is required"})
			}
			if answer.TimeSpentSeconds != nil && *answer.TimeSpentSeconds < 0 {
				errs = append(errs, domain.FieldError{Field: "answers.timeSpentSeconds", Message: "must not be negative"})
			}
		}
	case domain.GameTypeSongVoting:
		if strings.TrimSpace(payload.SelectedItemID) == "" {
			errs = append(errs, domain.FieldError{Field: "selectedItemId", Message: "is required"})
		}
	default:
		errs = append(errs, domain.FieldError{Field: "type", Message: "unknown game type " + string(gameType)})
		return ValidationResult{Valid: false, Errors: errs}
	}
	errs = append(errs, foreignFields(gameType, payload)...)
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// payloadFields lists the payload fields each game type reads. Anything else is rejected.
var payloadFields = map[domain.GameType][]string{
	domain.GameTypeScavengerHunt:     {"text", "mediaUrls"},
	domain.GameTypeCreativeChallenge: {"text", "mediaUrls"},
	domain.GameTypeTruthOrDare:       {"text", "mediaUrls"},
	domain.GameTypeTrivia:            {"answers"},
	domain.GameTypeGuessTheSong:      {"answers"},
	domain.GameTypeHangman:           {"answers"},
	domain.GameTypeWordScramble:      {"answers"},
	domain.GameTypeSongVoting:        {"selectedItemId"},
}

func foreignFields(gameType domain.GameType, payload domain.SubmissionPayload) []domain.FieldError {
	present := []struct {
		field string
		set   bool
	}{
		{"text", payload.Text != ""},
		{"mediaUrls", len(payload.MediaURLs) > 0},
		{"answers", len(payload.Answers) > 0},
		{"selectedItemId", payload.SelectedItemID != ""},
	}
	allowed := payloadFields[gameType]
	var errs []domain.FieldError
	for _, p := range present {
		if p.set && !slices.Contains(allowed, p.field) {
			errs = append(errs, domain.FieldError{Field: p.field, Message: "is not accepted for " + string(gameType)})
		}
	}
	return errs
}

func hasMedia(urls []string) bool {
	for _, url := range urls {
		if strings.TrimSpace(url) != "" {
			return true
		}
	}
	return false
}

// checkAgainstConfig verifies that referenced items exist in the game.
func checkAgainstConfig(game domain.Game, payload domain.SubmissionPayload) error {
	var errs []domain.FieldError
	for _, answer := range payload.Answers {
		if _, ok := game.Config.Item(answer.ItemID); !ok {
			errs = append(errs, domain.FieldError{Field: "answers.itemId", Message: "unknown item " + answer.ItemID})
		}
	}
	if game.Type == domain.GameTypeSongVoting {
		if _, ok := game.Config.Item(payload.SelectedItemID); !ok {
			errs = append(errs, domain.FieldError{Field: "selectedItemId", Message: "unknown item " + payload.SelectedItemID})
		}
	}
	if len(errs) > 0 {
		return domain.NewValidationError("invalid submission", errs...)
	}
	return nil
}
