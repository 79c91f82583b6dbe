package postgres

import (
	"errors"

	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	joinCodeIndex = "games_join_code_live_idx"
	dedupeIndex   = "submissions_dedupe_live_idx"
)

// isUniqueViolation reports a 23505 raised by the named index.
func isUniqueViolation(err error, index string) bool {
	var pgErr pgdriver.Error
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.IntegrityViolation() && pgErr.Field('C') == "23505" && pgErr.Field('n') == index
}
