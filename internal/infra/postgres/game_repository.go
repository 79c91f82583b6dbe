package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"party-game-service/internal/domain"
)

// GameRepository stores games in Postgres. Deleted rows are kept with deleted_at set.
type GameRepository struct {
	db  *bun.DB
	now func() time.Time
}

func NewGameRepository(db *bun.DB) *GameRepository {
	return &GameRepository{db: db, now: time.Now}
}

func (r *GameRepository) CreateGame(ctx context.Context, game domain.Game) error {
	m := newGameModel(game)
	m.JoinCode = nil
	m.Version = 1
	if _, err := r.db.NewInsert().Model(m).Exec(ctx); err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

func (r *GameRepository) GetGame(ctx context.Context, id string) (domain.Game, error) {
	m := new(gameModel)
	err := r.live(r.db.NewSelect().Model(m)).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Game{}, domain.ErrGameNotFound
	}
	if err != nil {
		return domain.Game{}, fmt.Errorf("select game: %w", err)
	}
	return m.toDomain(), nil
}

func (r *GameRepository) ListGames(ctx context.Context, organizerID string, status domain.GameStatus) ([]domain.Game, error) {
	var rows []gameModel
	q := r.live(r.db.NewSelect().Model(&rows)).Where("organizer_id = ?", organizerID)
	if status != "" {
		q = q.Where("status = ?", string(status))
	}
	if err := q.OrderExpr("created_at DESC, id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return toGames(rows), nil
}

func (r *GameRepository) ListActiveGames(ctx context.Context) ([]domain.Game, error) {
	var rows []gameModel
	err := r.live(r.db.NewSelect().Model(&rows)).
		Where("status = ?", string(domain.GameStatusActive)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active games: %w", err)
	}
	return toGames(rows), nil
}

func (r *GameRepository) UpdateGame(ctx context.Context, game *domain.Game) error {
	m := newGameModel(*game)
	m.Version = game.Version + 1
	res, err := r.db.NewUpdate().Model(m).
		Column("title", "description", "type", "status", "config", "settings",
			"updated_at", "started_at", "paused_at", "resumed_at", "completed_at", "version").
		Where("id = ?", game.ID).
		Where("version = ?", game.Version).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	if err := r.checkWritten(ctx, res, game.ID); err != nil {
		return err
	}
	game.Version = m.Version
	return nil
}

func (r *GameRepository) SetJoinCode(ctx context.Context, gameID, code string) error {
	res, err := r.db.NewUpdate().Model((*gameModel)(nil)).
		Set("join_code = ?", code).
		Where("id = ?", gameID).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if isUniqueViolation(err, joinCodeIndex) {
		return domain.ErrJoinCodeTaken
	}
	if err != nil {
		return fmt.Errorf("set join code: %w", err)
	}
	return requireRow(res, domain.ErrGameNotFound)
}

func (r *GameRepository) ClearJoinCode(ctx context.Context, gameID string) error {
	res, err := r.db.NewUpdate().Model((*gameModel)(nil)).
		Set("join_code = NULL").
		Where("id = ?", gameID).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("clear join code: %w", err)
	}
	return requireRow(res, domain.ErrGameNotFound)
}

func (r *GameRepository) FindByJoinCode(ctx context.Context, code string) (domain.Game, error) {
	m := new(gameModel)
	err := r.live(r.db.NewSelect().Model(m)).Where("join_code = ?", code).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Game{}, domain.ErrJoinCodeNotFound
	}
	if err != nil {
		return domain.Game{}, fmt.Errorf("find by join code: %w", err)
	}
	return m.toDomain(), nil
}

func (r *GameRepository) DeleteGame(ctx context.Context, id string) error {
	res, err := r.db.NewUpdate().Model((*gameModel)(nil)).
		Set("deleted_at = ?", r.now().UTC()).
		Set("join_code = NULL").
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	return requireRow(res, domain.ErrGameNotFound)
}

func (r *GameRepository) live(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Where("deleted_at IS NULL")
}

// checkWritten tells a stale version apart from a missing row.
func (r *GameRepository) checkWritten(ctx context.Context, res sql.Result, id string) error {
	if n, err := res.RowsAffected(); err != nil || n > 0 {
		return err
	}
	exists, err := r.db.NewSelect().Model((*gameModel)(nil)).
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("check game: %w", err)
	}
	if !exists {
		return domain.ErrGameNotFound
	}
	return domain.ErrStaleWrite
}

func requireRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}

func toGames(rows []gameModel) []domain.Game {
	out := make([]domain.Game, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out
}
