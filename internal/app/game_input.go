package app

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gosimple/slug"

	"party-game-service/internal/domain"
)

const (
	maxTitleLength       = 120
	maxDescriptionLength = 2000
	maxItems             = 200
)

// CreateGameInput is what an organizer supplies for a new game.
type CreateGameInput struct {
	Title       string
	Description string
	Type        domain.GameType
	Config      domain.GameConfig
	Settings    domain.Settings
}

// UpdateGameInput carries optional edits. Nil fields are left untouched.
type UpdateGameInput struct {
	Title       *string
	Description *string
	Type        *domain.GameType
	Config      *domain.GameConfig
	Settings    *domain.Settings
}

func validateTitle(title string) (string, []domain.FieldError) {
	title = strings.TrimSpace(title)
	switch {
	case title == "":
		return "", []domain.FieldError{{Field: "title", Message: "is required"}}
	case utf8.RuneCountInString(title) > maxTitleLength:
		return "", []domain.FieldError{{Field: "title", Message: fmt.Sprintf("must be %d characters or fewer", maxTitleLength)}}
	}
	return title, nil
}

func validateDescription(description string) (string, []domain.FieldError) {
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return "", []domain.FieldError{{Field: "description", Message: fmt.Sprintf("must be %d characters or fewer", maxDescriptionLength)}}
	}
	return description, nil
}

func validateSettings(settings domain.Settings) []domain.FieldError {
	var errs []domain.FieldError
	if settings.DefaultPoints < 0 {
		errs = append(errs, domain.FieldError{Field: "settings.defaultPoints", Message: "must not be negative"})
	}
	if settings.TimeLimitSeconds < 0 {
		errs = append(errs, domain.FieldError{Field: "settings.timeLimitSeconds", Message: "must not be negative"})
	}
	return errs
}

// normalizeConfig validates items for the game type and derives missing item ids from prompts.
func normalizeConfig(gameType domain.GameType, config domain.GameConfig) (domain.GameConfig, []domain.FieldError) {
	var errs []domain.FieldError
	if len(config.Items) > maxItems {
		return config, []domain.FieldError{{Field: "config.items", Message: fmt.Sprintf("at most %d items are allowed", maxItems)}}
	}
	if gameType == domain.GameTypeSongVoting && len(config.Items) == 0 {
		errs = append(errs, domain.FieldError{Field: "config.items", Message: "song voting needs at least one song"})
	}

	items := make([]domain.Item, len(config.Items))
	seen := make(map[string]struct{}, len(config.Items))
	for i, item := range config.Items {
		field := fmt.Sprintf("config.items[%d]", i)
		item.Prompt = strings.TrimSpace(item.Prompt)
		item.ID = strings.TrimSpace(item.ID)
		if item.ID == "" {
			base := slug.Make(item.Prompt)
			if base == "" {
				base = "item"
			}
			item.ID = fmt.Sprintf("%s-%d", base, i+1)
		}
		if _, dup := seen[item.ID]; dup {
			errs = append(errs, domain.FieldError{Field: field + ".id", Message: "duplicate item id " + item.ID})
		}
		seen[item.ID] = struct{}{}

		if item.Prompt == "" {
			errs = append(errs, domain.FieldError{Field: field + ".prompt", Message: "is required"})
		}
		if gameType.Keyed() && strings.TrimSpace(item.Answer) == "" {
			errs = append(errs, domain.FieldError{Field: field + ".answer", Message: "is required for " + string(gameType)})
		}
		if item.Points < 0 {
			errs = append(errs, domain.FieldError{Field: field + ".points", Message: "must not be negative"})
		}
		if item.TimeLimitSeconds < 0 {
			errs = append(errs, domain.FieldError{Field: field + ".timeLimitSeconds", Message: "must not be negative"})
		}
		items[i] = item
	}
	return domain.GameConfig{Items: items}, errs
}
