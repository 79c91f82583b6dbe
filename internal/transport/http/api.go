package http

import (
	"context"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"party-game-service/internal/app"
)

// MediaStore persists uploaded submission media and returns a public URL.
type MediaStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// PresenceReader answers whether any instance holds sockets in a room.
type PresenceReader interface {
	IsLive(ctx context.Context, room string) (bool, error)
}

// Services are the engine entry points the REST surface calls into.
type Services struct {
	Games       *app.GameService
	Submissions *app.SubmissionService
	Moderation  *app.ModerationService
	Leaderboard *app.LeaderboardService
	Analytics   *app.AnalyticsService
	// Media may be nil, which disables uploads.
	Media MediaStore
	// Limiter may be nil, which disables rate limiting.
	Limiter RateLimiter
	// Presence may be nil; liveness then reflects this instance only.
	Presence PresenceReader
	WS       *WSHandler
}

// API is the role-scoped REST facade over the engine.
type API struct {
	svc Services
}

func NewAPI(svc Services) *API {
	return &API{svc: svc}
}

// Routes builds the router.
func (a *API) Routes() http.Handler {
	mux := httprouter.New()
	limit := func(scope string, h httprouter.Handle) httprouter.Handle {
		return rateLimited(a.svc.Limiter, scope, h)
	}
	auth := func(scope string, h httprouter.Handle) httprouter.Handle {
		return limit(scope, authenticated(h))
	}

	mux.GET("/healthz", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		_, _ = w.Write([]byte("ok"))
	})

	mux.POST("/games", auth("games", a.createGame))
	mux.GET("/games", auth("games", a.listGames))
	mux.GET("/games/:id", auth("games", a.getGame))
	mux.PATCH("/games/:id", auth("games", a.updateGame))
	mux.DELETE("/games/:id", auth("games", a.deleteGame))
	mux.POST("/games/:id/start", auth("lifecycle", a.transition(a.svc.Games.Start)))
	mux.POST("/games/:id/pause", auth("lifecycle", a.transition(a.svc.Games.Pause)))
	mux.POST("/games/:id/resume", auth("lifecycle", a.transition(a.svc.Games.Resume)))
	mux.POST("/games/:id/complete", auth("lifecycle", a.transition(a.svc.Games.Complete)))
	mux.POST("/games/:id/join-code", auth("join-code", a.generateJoinCode))
	mux.DELETE("/games/:id/join-code", auth("join-code", a.removeJoinCode))
	mux.GET("/games/:id/analytics", auth("games", a.gameAnalytics))
	mux.GET("/games/:id/presence", auth("games", a.gamePresence))
	mux.GET("/games/:id/leaderboard", auth("leaderboard", a.leaderboard))
	mux.GET("/games/:id/submissions", auth("submissions", a.listSubmissions))
	mux.POST("/games/:id/submissions", auth("submissions", a.createSubmission))

	mux.POST("/submissions/:id/approve", auth("moderation", a.approveSubmission))
	mux.POST("/submissions/:id/reject", auth("moderation", a.rejectSubmission))
	mux.POST("/submissions/:id/flag", auth("moderation", a.flagSubmission))
	mux.POST("/submissions/:id/bonus", auth("moderation", a.awardBonus))

	mux.GET("/join/:code", limit("join", a.resolveJoinCode))
	mux.POST("/join/:code", auth("join", a.joinGame))
	mux.GET("/join/:code/qr", limit("join", a.joinCodeQR))

	mux.POST("/media", auth("media", a.uploadMedia))

	if a.svc.WS != nil {
		mux.HandlerFunc(http.MethodGet, "/ws", a.svc.WS.ServeWS)
	}

	mux.NotFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope{Message: "route not found"})
	})
	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		logPanic(r, v)
		writeJSON(w, http.StatusInternalServerError, envelope{Message: "internal server error"})
	}
	return mux
}
