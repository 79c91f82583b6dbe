package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"party-game-service/internal/app"
	"party-game-service/internal/domain"
)

var errDuplicateID = errors.New("duplicate id")

// SubmissionRepository is an in-memory implementation of app.SubmissionRepository.
type SubmissionRepository struct {
	mu          sync.RWMutex
	submissions map[string]*submissionRecord
	exclusive   map[string]string // game id + user id -> submission id
}

type submissionRecord struct {
	submission   domain.Submission
	exclusiveKey string
	deleted      bool
}

func NewSubmissionRepository() *SubmissionRepository {
	return &SubmissionRepository{
		submissions: make(map[string]*submissionRecord),
		exclusive:   make(map[string]string),
	}
}

func exclusiveKey(gameID, userID string) string {
	return gameID + "\x00" + userID
}

func (r *SubmissionRepository) CreateSubmission(_ context.Context, s domain.Submission, exclusive bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.submissions[s.ID]; exists {
		return domain.NewInternalError("create submission", errDuplicateID)
	}
	rec := &submissionRecord{}
	if exclusive {
		key := exclusiveKey(s.GameID, s.UserID)
		if _, taken := r.exclusive[key]; taken {
			return domain.ErrDuplicateSubmission
		}
		r.exclusive[key] = s.ID
		rec.exclusiveKey = key
	}
	s.Version = 1
	rec.submission = cloneSubmission(s)
	r.submissions[s.ID] = rec
	return nil
}

func (r *SubmissionRepository) GetSubmission(_ context.Context, id string) (domain.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.submissions[id]
	if !ok || rec.deleted {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	return cloneSubmission(rec.submission), nil
}

func (r *SubmissionRepository) UpdateSubmission(_ context.Context, s *domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.submissions[s.ID]
	if !ok || rec.deleted {
		return domain.ErrSubmissionNotFound
	}
	if rec.submission.Version != s.Version {
		return domain.ErrStaleWrite
	}
	next := cloneSubmission(*s)
	next.GameID = rec.submission.GameID
	next.UserID = rec.submission.UserID
	next.Version++
	rec.submission = next
	s.Version = next.Version
	return nil
}

func (r *SubmissionRepository) ListSubmissions(_ context.Context, gameID string, filter app.SubmissionFilter) ([]domain.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Submission, 0)
	for _, rec := range r.submissions {
		s := rec.submission
		if rec.deleted || s.GameID != gameID {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.UserID != "" && s.UserID != filter.UserID {
			continue
		}
		if filter.FlaggedOnly && !s.IsFlagged {
			continue
		}
		out = append(out, cloneSubmission(s))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *SubmissionRepository) DeleteSubmissionsByGame(_ context.Context, gameID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.submissions {
		if rec.deleted || rec.submission.GameID != gameID {
			continue
		}
		rec.deleted = true
		if rec.exclusiveKey != "" {
			delete(r.exclusive, rec.exclusiveKey)
		}
	}
	return nil
}

// GameAnalytics implements app.AnalyticsRepository over the in-memory rows.
func (r *SubmissionRepository) GameAnalytics(ctx context.Context, gameID string) (domain.Analytics, error) {
	subs, err := r.ListSubmissions(ctx, gameID, app.SubmissionFilter{})
	if err != nil {
		return domain.Analytics{}, err
	}
	return app.SummarizeSubmissions(gameID, subs), nil
}

func cloneSubmission(s domain.Submission) domain.Submission {
	s.Payload.MediaURLs = append([]string(nil), s.Payload.MediaURLs...)
	answers := make([]domain.Answer, len(s.Payload.Answers))
	copy(answers, s.Payload.Answers)
	s.Payload.Answers = answers
	if s.ReviewedAt != nil {
		at := *s.ReviewedAt
		s.ReviewedAt = &at
	}
	return s
}
