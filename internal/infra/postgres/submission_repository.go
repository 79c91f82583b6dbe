package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"party-game-service/internal/app"
	"party-game-service/internal/domain"
)

// SubmissionRepository stores submissions in Postgres. Exclusive inserts carry a
// dedupe key guarded by a partial unique index.
type SubmissionRepository struct {
	db  *bun.DB
	now func() time.Time
}

func NewSubmissionRepository(db *bun.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db, now: time.Now}
}

func (r *SubmissionRepository) CreateSubmission(ctx context.Context, s domain.Submission, exclusive bool) error {
	m := newSubmissionModel(s)
	m.Version = 1
	if exclusive {
		key := s.GameID + ":" + s.UserID
		m.DedupeKey = &key
	}
	_, err := r.db.NewInsert().Model(m).Exec(ctx)
	if isUniqueViolation(err, dedupeIndex) {
		return domain.ErrDuplicateSubmission
	}
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) GetSubmission(ctx context.Context, id string) (domain.Submission, error) {
	m := new(submissionModel)
	err := r.db.NewSelect().Model(m).
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("select submission: %w", err)
	}
	return m.toDomain(), nil
}

func (r *SubmissionRepository) UpdateSubmission(ctx context.Context, s *domain.Submission) error {
	m := newSubmissionModel(*s)
	m.Version = s.Version + 1
	res, err := r.db.NewUpdate().Model(m).
		Column("payload", "status", "points_awarded", "bonus_points", "bonus_reason",
			"rejection_reason", "is_flagged", "flag_reason", "reviewed_by", "reviewed_at", "version").
		Where("id = ?", s.ID).
		Where("version = ?", s.Version).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetSubmission(ctx, s.ID); err != nil {
			return err
		}
		return domain.ErrStaleWrite
	}
	s.Version = m.Version
	return nil
}

func (r *SubmissionRepository) ListSubmissions(ctx context.Context, gameID string, filter app.SubmissionFilter) ([]domain.Submission, error) {
	var rows []submissionModel
	q := r.db.NewSelect().Model(&rows).
		Where("game_id = ?", gameID).
		Where("deleted_at IS NULL")
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.FlaggedOnly {
		q = q.Where("is_flagged")
	}
	if err := q.OrderExpr("submitted_at ASC, id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	out := make([]domain.Submission, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

// DeleteSubmissionsByGame soft-deletes and frees the dedupe keys.
func (r *SubmissionRepository) DeleteSubmissionsByGame(ctx context.Context, gameID string) error {
	_, err := r.db.NewUpdate().Model((*submissionModel)(nil)).
		Set("deleted_at = ?", r.now().UTC()).
		Set("dedupe_key = NULL").
		Where("game_id = ?", gameID).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete submissions: %w", err)
	}
	return nil
}
