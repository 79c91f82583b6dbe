package domain

import "time"

// GameType selects the submission and scoring rules applied to a game.
type GameType string

const (
	GameTypeScavengerHunt     GameType = "scavenger_hunt"
	GameTypeTrivia            GameType = "trivia"
	GameTypeGuessTheSong      GameType = "guess_the_song"
	GameTypeHangman           GameType = "hangman"
	GameTypeWordScramble      GameType = "word_scramble"
	GameTypeCreativeChallenge GameType = "creative_challenge"
	GameTypeTruthOrDare       GameType = "truth_or_dare"
	GameTypeSongVoting        GameType = "song_voting"
)

// GameTypes lists every supported game type.
var GameTypes = []GameType{
	GameTypeScavengerHunt,
	GameTypeTrivia,
	GameTypeGuessTheSong,
	GameTypeHangman,
	GameTypeWordScramble,
	GameTypeCreativeChallenge,
	GameTypeTruthOrDare,
	GameTypeSongVoting,
}

// Valid reports whether t is one of the known game types.
func (t GameType) Valid() bool {
	for _, known := range GameTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Keyed reports whether submissions for this type are checked against an answer key.
func (t GameType) Keyed() bool {
	switch t {
	case GameTypeTrivia, GameTypeGuessTheSong, GameTypeHangman, GameTypeWordScramble:
		return true
	}
	return false
}

// GameStatus is the lifecycle state of a game.
type GameStatus string

const (
	GameStatusDraft     GameStatus = "draft"
	GameStatusActive    GameStatus = "active"
	GameStatusPaused    GameStatus = "paused"
	GameStatusCompleted GameStatus = "completed"
)

// SubmissionStatus is the moderation state of a submission. Flagging is tracked separately.
type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "pending"
	SubmissionStatusApproved SubmissionStatus = "approved"
	SubmissionStatusRejected SubmissionStatus = "rejected"
)

func (s GameStatus) Valid() bool {
	switch s {
	case GameStatusDraft, GameStatusActive, GameStatusPaused, GameStatusCompleted:
		return true
	}
	return false
}

func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionStatusPending, SubmissionStatusApproved, SubmissionStatusRejected:
		return true
	}
	return false
}

// SystemReviewer is recorded as the reviewer of auto-approved submissions.
const SystemReviewer = "system"

// Item is one question, word, mission or challenge in a game's configuration.
type Item struct {
	ID               string   `json:"id"`
	Prompt           string   `json:"prompt"`
	Answer           string   `json:"answer,omitempty"`
	AcceptedAnswers  []string `json:"acceptedAnswers,omitempty"`
	Options          []string `json:"options,omitempty"`
	Points           int      `json:"points"`
	TimeLimitSeconds int      `json:"timeLimitSeconds,omitempty"`
}

// GameConfig is the ordered per-type item list.
type GameConfig struct {
	Items []Item `json:"items"`
}

// Item returns the configured item with the given id.
func (c GameConfig) Item(id string) (Item, bool) {
	for _, item := range c.Items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// Settings are the organizer-controlled switches of a game.
type Settings struct {
	AllowMultipleSubmissions bool `json:"allowMultipleSubmissions"`
	AutoApprove              bool `json:"autoApprove"`
	DefaultPoints            int  `json:"defaultPoints"`
	SpeedBonusEnabled        bool `json:"speedBonusEnabled"`
	// TimeLimitSeconds completes an active game automatically once elapsed. Zero disables it.
	TimeLimitSeconds int `json:"timeLimitSeconds,omitempty"`
}

// Game is one playable session owned by an organizer.
type Game struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Type        GameType   `json:"type"`
	OrganizerID string     `json:"organizerId"`
	Status      GameStatus `json:"status"`
	JoinCode    *string    `json:"joinCode"`
	Config      GameConfig `json:"config"`
	Settings    Settings   `json:"settings"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	PausedAt    *time.Time `json:"pausedAt,omitempty"`
	ResumedAt   *time.Time `json:"resumedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	// Version guards conditional updates in the store.
	Version int `json:"-"`
}

// OwnedBy reports whether userID organizes the game.
func (g Game) OwnedBy(userID string) bool {
	return g.OrganizerID == userID
}

// PublicItem is an item stripped of its answer key.
type PublicItem struct {
	ID               string   `json:"id"`
	Prompt           string   `json:"prompt"`
	Options          []string `json:"options,omitempty"`
	Points           int      `json:"points"`
	TimeLimitSeconds int      `json:"timeLimitSeconds,omitempty"`
}

// PublicGame is the participant-safe projection returned by join-code resolution.
type PublicGame struct {
	ID                       string       `json:"id"`
	Title                    string       `json:"title"`
	Description              string       `json:"description"`
	Type                     GameType     `json:"type"`
	Status                   GameStatus   `json:"status"`
	JoinCode                 string       `json:"joinCode"`
	Items                    []PublicItem `json:"items"`
	AllowMultipleSubmissions bool         `json:"allowMultipleSubmissions"`
	StartedAt                *time.Time   `json:"startedAt,omitempty"`
}

// Public projects the game for participants. Answers, organizer id and settings are omitted.
func (g Game) Public() PublicGame {
	items := make([]PublicItem, 0, len(g.Config.Items))
	for _, item := range g.Config.Items {
		items = append(items, PublicItem{
			ID:               item.ID,
			Prompt:           item.Prompt,
			Options:          item.Options,
			Points:           item.Points,
			TimeLimitSeconds: item.TimeLimitSeconds,
		})
	}
	code := ""
	if g.JoinCode != nil {
		code = *g.JoinCode
	}
	return PublicGame{
		ID:                       g.ID,
		Title:                    g.Title,
		Description:              g.Description,
		Type:                     g.Type,
		Status:                   g.Status,
		JoinCode:                 code,
		Items:                    items,
		AllowMultipleSubmissions: g.Settings.AllowMultipleSubmissions,
		StartedAt:                g.StartedAt,
	}
}

// Answer is a structured answer to one configured item.
type Answer struct {
	ItemID           string   `json:"itemId"`
	Value            string   `json:"value"`
	TimeSpentSeconds *float64 `json:"timeSpentSeconds,omitempty"`
}

// SubmissionPayload carries the participant's content. Which fields matter depends on the game type.
type SubmissionPayload struct {
	Text           string   `json:"text,omitempty"`
	MediaURLs      []string `json:"mediaUrls,omitempty"`
	Answers        []Answer `json:"answers,omitempty"`
	SelectedItemID string   `json:"selectedItemId,omitempty"`
}

// Submission is one participant's answer or content for a game.
type Submission struct {
	ID              string            `json:"id"`
	GameID          string            `json:"gameId"`
	UserID          string            `json:"userId"`
	Payload         SubmissionPayload `json:"payload"`
	Status          SubmissionStatus  `json:"status"`
	PointsAwarded   int               `json:"pointsAwarded"`
	BonusPoints     int               `json:"bonusPoints"`
	BonusReason     string            `json:"bonusReason,omitempty"`
	RejectionReason string            `json:"rejectionReason,omitempty"`
	IsFlagged       bool              `json:"isFlagged"`
	FlagReason      string            `json:"flagReason,omitempty"`
	ReviewedBy      string            `json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time        `json:"reviewedAt,omitempty"`
	SubmittedAt     time.Time         `json:"submittedAt"`
	Version         int               `json:"-"`
}

// TotalPoints is the base award plus moderator bonus.
func (s Submission) TotalPoints() int {
	return s.PointsAwarded + s.BonusPoints
}

// LeaderboardEntry is one ranked participant.
type LeaderboardEntry struct {
	Rank             int       `json:"rank"`
	UserID           string    `json:"userId"`
	Score            int       `json:"score"`
	Submissions      int       `json:"submissions"`
	FirstSubmittedAt time.Time `json:"firstSubmittedAt"`
}

// Leaderboard captures the ordered standings for a game.
type Leaderboard struct {
	GameID      string             `json:"gameId"`
	Entries     []LeaderboardEntry `json:"entries"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

// Analytics summarizes submission activity for a game.
type Analytics struct {
	GameID               string     `json:"gameId"`
	TotalSubmissions     int        `json:"totalSubmissions"`
	PendingSubmissions   int        `json:"pendingSubmissions"`
	ApprovedSubmissions  int        `json:"approvedSubmissions"`
	RejectedSubmissions  int        `json:"rejectedSubmissions"`
	FlaggedSubmissions   int        `json:"flaggedSubmissions"`
	DistinctParticipants int        `json:"distinctParticipants"`
	TotalPoints          int        `json:"totalPoints"`
	AveragePoints        float64    `json:"averagePoints"`
	FirstSubmissionAt    *time.Time `json:"firstSubmissionAt,omitempty"`
	LastSubmissionAt     *time.Time `json:"lastSubmissionAt,omitempty"`
}
