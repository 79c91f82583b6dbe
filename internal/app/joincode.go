package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"

	"party-game-service/internal/domain"
)

// JoinCodeAlphabet omits visually confusable characters (0/O, 1/I/L).
const JoinCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	DefaultJoinCodeLength      = 6
	DefaultJoinCodeMaxAttempts = 10
)

// JoinCodeAllocator generates, reserves and retires join codes.
type JoinCodeAllocator struct {
	games       GameRepository
	index       CodeIndex
	length      int
	maxAttempts int
	random      io.Reader
}

// NewJoinCodeAllocator builds an allocator. index may be nil to resolve straight from the repository.
func NewJoinCodeAllocator(games GameRepository, index CodeIndex, length, maxAttempts int) *JoinCodeAllocator {
	if length <= 0 {
		length = DefaultJoinCodeLength
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultJoinCodeMaxAttempts
	}
	return &JoinCodeAllocator{
		games:       games,
		index:       index,
		length:      length,
		maxAttempts: maxAttempts,
		random:      rand.Reader,
	}
}

// WithRandom swaps the entropy source. Tests use it to force collisions.
func (a *JoinCodeAllocator) WithRandom(r io.Reader) *JoinCodeAllocator {
	a.random = r
	return a
}

// Generate returns a candidate code. It does not reserve it.
func (a *JoinCodeAllocator) Generate() (string, error) {
	buf := make([]byte, a.length)
	out := make([]byte, a.length)
	filled := 0
	for filled < a.length {
		if _, err := io.ReadFull(a.random, buf); err != nil {
			return "", fmt.Errorf("read entropy: %w", err)
		}
		// Rejection sampling keeps every character equally likely.
		limit := byte(256 - 256%len(JoinCodeAlphabet))
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out[filled] = JoinCodeAlphabet[int(b)%len(JoinCodeAlphabet)]
			filled++
			if filled == a.length {
				break
			}
		}
	}
	return string(out), nil
}

// Allocate reserves a fresh code for the game, retrying on store collisions.
func (a *JoinCodeAllocator) Allocate(ctx context.Context, game domain.Game) (string, error) {
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		code, err := a.Generate()
		if err != nil {
			return "", domain.NewInternalError("generate join code", err)
		}
		err = a.games.SetJoinCode(ctx, game.ID, code)
		if err == nil {
			if game.JoinCode != nil && a.index != nil {
				a.index.Forget(ctx, *game.JoinCode)
			}
			return code, nil
		}
		if !errors.Is(err, domain.ErrJoinCodeTaken) {
			return "", err
		}
	}
	return "", domain.ErrJoinCodesExhausted
}

// Retire removes the game's code. Retiring an absent code is a no-op.
func (a *JoinCodeAllocator) Retire(ctx context.Context, game domain.Game) error {
	if err := a.games.ClearJoinCode(ctx, game.ID); err != nil && !errors.Is(err, domain.ErrGameNotFound) {
		return err
	}
	if game.JoinCode != nil && a.index != nil {
		a.index.Forget(ctx, *game.JoinCode)
	}
	return nil
}

// Resolve finds the live game holding code. Lookup is case-insensitive.
func (a *JoinCodeAllocator) Resolve(ctx context.Context, code string) (domain.Game, error) {
	code = NormalizeJoinCode(code)
	if !a.validCode(code) {
		return domain.Game{}, domain.ErrJoinCodeNotFound
	}
	if a.index == nil {
		return a.games.FindByJoinCode(ctx, code)
	}

	gameID, err := a.index.GameIDForCode(ctx, code)
	if err != nil {
		return domain.Game{}, err
	}
	game, err := a.games.GetGame(ctx, gameID)
	if errors.Is(err, domain.ErrGameNotFound) {
		a.index.Forget(ctx, code)
		return domain.Game{}, domain.ErrJoinCodeNotFound
	}
	if err != nil {
		return domain.Game{}, err
	}
	// The cached mapping may predate a regeneration or removal.
	if game.JoinCode == nil || *game.JoinCode != code {
		a.index.Forget(ctx, code)
		return a.games.FindByJoinCode(ctx, code)
	}
	return game, nil
}

func (a *JoinCodeAllocator) validCode(code string) bool {
	if len(code) != a.length {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(JoinCodeAlphabet, r) {
			return false
		}
	}
	return true
}

// NormalizeJoinCode canonicalizes user input for lookup.
func NormalizeJoinCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CodeLoader adapts a GameRepository into the loader used by join-code caches.
type CodeLoader struct {
	Games GameRepository
}

func (l CodeLoader) LoadGameID(ctx context.Context, code string) (string, error) {
	game, err := l.Games.FindByJoinCode(ctx, code)
	if err != nil {
		return "", err
	}
	return game.ID, nil
}
