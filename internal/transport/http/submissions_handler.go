package http

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"party-game-service/internal/app"
	"party-game-service/internal/domain"
)

func (a *API) createSubmission(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req submissionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	sub, err := a.svc.Submissions.Create(r.Context(), actorFrom(r.Context()), ps.ByName("id"), req.payload())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, sub)
}

func (a *API) listSubmissions(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	q := r.URL.Query()
	filter := app.SubmissionFilter{Status: domain.SubmissionStatus(q.Get("status"))}
	if filter.Status != "" && !filter.Status.Valid() {
		respondError(w, r, domain.NewValidationError("invalid filter",
			domain.FieldError{Field: "status", Message: "unknown status " + string(filter.Status)}))
		return
	}
	if raw := q.Get("flagged"); raw != "" {
		flagged, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, r, domain.NewValidationError("invalid filter",
				domain.FieldError{Field: "flagged", Message: "must be true or false"}))
			return
		}
		filter.FlaggedOnly = flagged
	}
	subs, err := a.svc.Submissions.List(r.Context(), actorFrom(r.Context()), ps.ByName("id"), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, subs)
}

func (a *API) approveSubmission(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req approveRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	sub, err := a.svc.Moderation.Approve(r.Context(), actorFrom(r.Context()), ps.ByName("id"), req.Points)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, sub)
}

func (a *API) rejectSubmission(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req rejectRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	sub, err := a.svc.Moderation.Reject(r.Context(), actorFrom(r.Context()), ps.ByName("id"), req.Reason)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, sub)
}

func (a *API) flagSubmission(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req flagRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	flagged := true
	if req.Flagged != nil {
		flagged = *req.Flagged
	}
	sub, err := a.svc.Moderation.Flag(r.Context(), actorFrom(r.Context()), ps.ByName("id"), flagged, req.Reason)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, sub)
}

func (a *API) awardBonus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req bonusRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	sub, err := a.svc.Moderation.AwardBonus(r.Context(), actorFrom(r.Context()), ps.ByName("id"), req.Points, req.Reason)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, sub)
}
