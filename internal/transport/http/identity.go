package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"party-game-service/internal/domain"
)

// Identity headers set by the gateway after it verified the caller.
const (
	headerUserID      = "X-User-ID"
	headerUserEmail   = "X-User-Email"
	headerUserRole    = "X-User-Role"
	headerUserProfile = "X-User-Profile"
)

type identityKey struct{}

// identityFromRequest reads the gateway identity. A malformed profile is a validation error.
func identityFromRequest(r *http.Request) (domain.Identity, error) {
	userID := strings.TrimSpace(r.Header.Get(headerUserID))
	role := domain.Role(strings.ToLower(strings.TrimSpace(r.Header.Get(headerUserRole))))
	if userID == "" || !role.Valid() {
		return domain.Identity{}, errUnauthenticated
	}
	id := domain.Identity{
		UserID: userID,
		Email:  strings.TrimSpace(r.Header.Get(headerUserEmail)),
		Role:   role,
	}
	if raw := r.Header.Get(headerUserProfile); raw != "" {
		var profile domain.Profile
		if err := json.Unmarshal([]byte(raw), &profile); err != nil {
			return domain.Identity{}, domain.NewValidationError("invalid profile header",
				domain.FieldError{Field: "profile", Message: err.Error()})
		}
		if profile.Role != role {
			return domain.Identity{}, domain.NewValidationError("invalid profile header",
				domain.FieldError{Field: "profile.role", Message: "must match the caller role"})
		}
		id.Profile = &profile
	}
	return id, nil
}

// authenticated rejects requests without a gateway identity.
func authenticated(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id, err := identityFromRequest(r)
		if err != nil {
			respondError(w, r, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, id)), ps)
	}
}

func actorFrom(ctx context.Context) domain.Identity {
	id, _ := ctx.Value(identityKey{}).(domain.Identity)
	return id
}
