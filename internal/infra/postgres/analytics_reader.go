package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"party-game-service/internal/domain"
)

const gameAnalyticsSQL = `
SELECT count(*),
       count(*) FILTER (WHERE status = 'pending'),
       count(*) FILTER (WHERE status = 'approved'),
       count(*) FILTER (WHERE status = 'rejected'),
       count(*) FILTER (WHERE is_flagged),
       count(DISTINCT user_id),
       coalesce(sum(points_awarded + bonus_points) FILTER (WHERE status = 'approved'), 0),
       min(submitted_at),
       max(submitted_at)
FROM submissions
WHERE game_id = $1 AND deleted_at IS NULL`

// AnalyticsReader aggregates submission statistics in the database.
type AnalyticsReader struct {
	pool *pgxpool.Pool
}

func NewAnalyticsReader(pool *pgxpool.Pool) *AnalyticsReader {
	return &AnalyticsReader{pool: pool}
}

func (r *AnalyticsReader) GameAnalytics(ctx context.Context, gameID string) (domain.Analytics, error) {
	var (
		total, pending, approved, rejected, flagged, participants, points int64
		first, last                                                       *time.Time
	)
	err := r.pool.QueryRow(ctx, gameAnalyticsSQL, gameID).Scan(
		&total, &pending, &approved, &rejected, &flagged, &participants, &points, &first, &last,
	)
	if err != nil {
		return domain.Analytics{}, fmt.Errorf("game analytics: %w", err)
	}
	out := domain.Analytics{
		GameID:               gameID,
		TotalSubmissions:     int(total),
		PendingSubmissions:   int(pending),
		ApprovedSubmissions:  int(approved),
		RejectedSubmissions:  int(rejected),
		FlaggedSubmissions:   int(flagged),
		DistinctParticipants: int(participants),
		TotalPoints:          int(points),
		FirstSubmissionAt:    utcPtr(first),
		LastSubmissionAt:     utcPtr(last),
	}
	if approved > 0 {
		out.AveragePoints = float64(points) / float64(approved)
	}
	return out, nil
}
