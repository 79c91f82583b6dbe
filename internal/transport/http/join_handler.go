package http

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

// resolveJoinCode is public and returns only the participant-safe projection.
func (a *API) resolveJoinCode(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	game, err := a.svc.Games.ResolveJoinCode(r.Context(), ps.ByName("code"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, game)
}

func (a *API) joinGame(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	game, err := a.svc.Games.Join(r.Context(), actorFrom(r.Context()), ps.ByName("code"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, game)
}

// joinCodeQR renders a PNG pointing at the join URL of a live code.
func (a *API) joinCodeQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	game, err := a.svc.Games.ResolveJoinCode(r.Context(), ps.ByName("code"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	url := scheme + "://" + r.Host + "/join/" + game.JoinCode

	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}
