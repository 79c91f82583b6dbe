package http

import (
	"context"
	"log"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"party-game-service/internal/app"
	"party-game-service/internal/domain"
	"party-game-service/internal/realtime"
)

func logPanic(r *http.Request, v any) {
	log.Printf("[http] panic on %s %s: %v", r.Method, r.URL.Path, v)
}

func (a *API) createGame(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createGameRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	game, err := a.svc.Games.Create(r.Context(), actorFrom(r.Context()), app.CreateGameInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Config:      req.Config,
		Settings:    req.Settings,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, game)
}

func (a *API) listGames(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	status := domain.GameStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		respondError(w, r, domain.NewValidationError("invalid filter",
			domain.FieldError{Field: "status", Message: "unknown status " + string(status)}))
		return
	}
	games, err := a.svc.Games.List(r.Context(), actorFrom(r.Context()), status)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, games)
}

func (a *API) getGame(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	game, err := a.svc.Games.Get(r.Context(), actorFrom(r.Context()), ps.ByName("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, game)
}

func (a *API) updateGame(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req updateGameRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	game, err := a.svc.Games.Update(r.Context(), actorFrom(r.Context()), ps.ByName("id"), app.UpdateGameInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Config:      req.Config,
		Settings:    req.Settings,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, game)
}

func (a *API) deleteGame(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := a.svc.Games.Delete(r.Context(), actorFrom(r.Context()), ps.ByName("id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "game deleted")
}

type transitionFunc func(ctx context.Context, actor domain.Identity, gameID string) (domain.Game, error)

func (a *API) transition(fn transitionFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		game, err := fn(r.Context(), actorFrom(r.Context()), ps.ByName("id"))
		if err != nil {
			respondError(w, r, err)
			return
		}
		respond(w, http.StatusOK, game)
	}
}

func (a *API) generateJoinCode(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	code, err := a.svc.Games.GenerateJoinCode(r.Context(), actorFrom(r.Context()), ps.ByName("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]string{"joinCode": code})
}

func (a *API) removeJoinCode(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := a.svc.Games.RemoveJoinCode(r.Context(), actorFrom(r.Context()), ps.ByName("id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "join code removed")
}

func (a *API) gameAnalytics(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	stats, err := a.svc.Analytics.GameAnalytics(r.Context(), actorFrom(r.Context()), ps.ByName("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, stats)
}

type presenceResponse struct {
	Room         string `json:"room"`
	Live         bool   `json:"live"`
	LocalSockets int    `json:"localSockets"`
}

// gamePresence tells the owner whether anyone is watching the game room.
func (a *API) gamePresence(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	game, err := a.svc.Games.Get(r.Context(), actorFrom(r.Context()), ps.ByName("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	room := realtime.GameRoom(game.ID)
	resp := presenceResponse{Room: room}
	if a.svc.WS != nil {
		resp.LocalSockets = a.svc.WS.hub.Members(room)
	}
	resp.Live = resp.LocalSockets > 0
	if !resp.Live && a.svc.Presence != nil {
		live, err := a.svc.Presence.IsLive(r.Context(), room)
		if err != nil {
			log.Printf("[presence] read %s: %v", room, err)
		}
		resp.Live = live
	}
	respond(w, http.StatusOK, resp)
}

func (a *API) leaderboard(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	board, err := a.svc.Leaderboard.Leaderboard(r.Context(), ps.ByName("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, board)
}
