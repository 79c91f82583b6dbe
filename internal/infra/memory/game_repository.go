package memory

import (
	"context"
	"sort"
	"sync"

	"party-game-service/internal/domain"
)

// GameRepository is an in-memory implementation of app.GameRepository. It enforces the
// same join-code uniqueness and version checks as the Postgres store.
type GameRepository struct {
	mu    sync.RWMutex
	games map[string]*gameRecord
	codes map[string]string // join code -> game id, live games only
}

type gameRecord struct {
	game    domain.Game
	deleted bool
}

func NewGameRepository() *GameRepository {
	return &GameRepository{
		games: make(map[string]*gameRecord),
		codes: make(map[string]string),
	}
}

func (r *GameRepository) CreateGame(_ context.Context, game domain.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.games[game.ID]; exists {
		return domain.NewInternalError("create game", errDuplicateID)
	}
	game.JoinCode = nil
	game.Version = 1
	r.games[game.ID] = &gameRecord{game: cloneGame(game)}
	return nil
}

func (r *GameRepository) GetGame(_ context.Context, id string) (domain.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.games[id]
	if !ok || rec.deleted {
		return domain.Game{}, domain.ErrGameNotFound
	}
	return cloneGame(rec.game), nil
}

func (r *GameRepository) ListGames(_ context.Context, organizerID string, status domain.GameStatus) ([]domain.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Game, 0)
	for _, rec := range r.games {
		if rec.deleted || rec.game.OrganizerID != organizerID {
			continue
		}
		if status != "" && rec.game.Status != status {
			continue
		}
		out = append(out, cloneGame(rec.game))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *GameRepository) ListActiveGames(_ context.Context) ([]domain.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Game, 0)
	for _, rec := range r.games {
		if !rec.deleted && rec.game.Status == domain.GameStatusActive {
			out = append(out, cloneGame(rec.game))
		}
	}
	return out, nil
}

func (r *GameRepository) UpdateGame(_ context.Context, game *domain.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.games[game.ID]
	if !ok || rec.deleted {
		return domain.ErrGameNotFound
	}
	if rec.game.Version != game.Version {
		return domain.ErrStaleWrite
	}
	next := cloneGame(*game)
	next.JoinCode = rec.game.JoinCode
	next.OrganizerID = rec.game.OrganizerID
	next.Version++
	rec.game = next
	game.Version = next.Version
	return nil
}

func (r *GameRepository) SetJoinCode(_ context.Context, gameID, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.games[gameID]
	if !ok || rec.deleted {
		return domain.ErrGameNotFound
	}
	if holder, taken := r.codes[code]; taken && holder != gameID {
		return domain.ErrJoinCodeTaken
	}
	if rec.game.JoinCode != nil {
		delete(r.codes, *rec.game.JoinCode)
	}
	c := code
	rec.game.JoinCode = &c
	r.codes[code] = gameID
	return nil
}

func (r *GameRepository) ClearJoinCode(_ context.Context, gameID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.games[gameID]
	if !ok || rec.deleted {
		return domain.ErrGameNotFound
	}
	if rec.game.JoinCode != nil {
		delete(r.codes, *rec.game.JoinCode)
		rec.game.JoinCode = nil
	}
	return nil
}

func (r *GameRepository) FindByJoinCode(_ context.Context, code string) (domain.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.codes[code]
	if !ok {
		return domain.Game{}, domain.ErrJoinCodeNotFound
	}
	rec := r.games[id]
	if rec == nil || rec.deleted {
		return domain.Game{}, domain.ErrJoinCodeNotFound
	}
	return cloneGame(rec.game), nil
}

func (r *GameRepository) DeleteGame(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.games[id]
	if !ok || rec.deleted {
		return domain.ErrGameNotFound
	}
	if rec.game.JoinCode != nil {
		delete(r.codes, *rec.game.JoinCode)
		rec.game.JoinCode = nil
	}
	rec.deleted = true
	return nil
}

func cloneGame(g domain.Game) domain.Game {
	if g.JoinCode != nil {
		code := *g.JoinCode
		g.JoinCode = &code
	}
	items := make([]domain.Item, len(g.Config.Items))
	for i, item := range g.Config.Items {
		item.AcceptedAnswers = append([]string(nil), item.AcceptedAnswers...)
		item.Options = append([]string(nil), item.Options...)
		items[i] = item
	}
	g.Config.Items = items
	return g
}
