package http

import (
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"party-game-service/internal/domain"
)

const maxMediaBytes = 20 << 20

var mediaTypes = []string{"image/", "audio/", "video/"}

// uploadMedia stores one multipart "file" and returns its URL for use in submission payloads.
func (a *API) uploadMedia(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if a.svc.Media == nil {
		writeJSON(w, http.StatusServiceUnavailable, envelope{Message: "media uploads are not configured"})
		return
	}
	actor := actorFrom(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxMediaBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, domain.NewValidationError("invalid upload",
			domain.FieldError{Field: "file", Message: "a file of at most 20MB is required"}))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedMediaType(contentType) {
		respondError(w, r, domain.NewValidationError("invalid upload",
			domain.FieldError{Field: "file", Message: "must be an image, audio or video file"}))
		return
	}

	key := "media/" + actor.UserID + "/" + uuid.NewString() + strings.ToLower(path.Ext(header.Filename))
	url, err := a.svc.Media.Put(r.Context(), key, contentType, file, header.Size)
	if err != nil {
		respondError(w, r, domain.NewInternalError("store media", err))
		return
	}
	respond(w, http.StatusCreated, map[string]string{"url": url})
}

func allowedMediaType(contentType string) bool {
	for _, prefix := range mediaTypes {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}
