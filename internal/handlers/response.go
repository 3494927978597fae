package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

const maxJSONBody = 1 << 20

// apiError is an error with an HTTP status and a client-safe message.
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%d: %s", e.status, e.message)
}

func badRequest(format string, args ...any) error {
	return &apiError{status: http.StatusBadRequest, message: fmt.Sprintf(format, args...)}
}

func unauthorized(message string) error {
	return &apiError{status: http.StatusUnauthorized, message: message}
}

func forbidden(message string) error {
	return &apiError{status: http.StatusForbidden, message: message}
}

func notFound(message string) error {
	return &apiError{status: http.StatusNotFound, message: message}
}

func conflict(message string) error {
	return &apiError{status: http.StatusConflict, message: message}
}

// handlerFunc is an HTTP handler that reports failures by returning an error.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// handle adapts fn to http.HandlerFunc. *apiError values become their status and
// message; anything else is logged and answered with a generic 500.
func handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		ctx := r.Context()
		var apiErr *apiError
		if errors.As(err, &apiErr) {
			if apiErr.status >= http.StatusInternalServerError {
				logging.FromContext(ctx).Error("request failed", "status", apiErr.status, "error", err)
			}
			respondError(ctx, w, apiErr.status, apiErr.message)
			return
		}

		logging.FromContext(ctx).Error("request failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Something went wrong")
	}
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("failed to encode response", "error", err)
	}
}

// respond writes data wrapped in the success envelope.
func respond(ctx context.Context, w http.ResponseWriter, status int, data any, message string) error {
	respondJSON(ctx, w, status, models.NewAPIResponse(status, data, message))
	return nil
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	respondJSON(ctx, w, status, models.APIError{Message: message, StatusCode: status})
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return badRequest("Invalid request body")
	}
	return nil
}

// pathID parses the named path segment as a UUID.
func pathID(r *http.Request, name, label string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(r.PathValue(name)))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, badRequest("Invalid %s", label)
	}
	return id, nil
}

// requireIdentity returns the authenticated caller or a 401.
func requireIdentity(r *http.Request) (auth.Identity, error) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return auth.Identity{}, unauthorized("Unauthorized: Please login")
	}
	return id, nil
}

// viewerID returns the caller's id, or uuid.Nil for anonymous requests.
func viewerID(r *http.Request) uuid.UUID {
	id, _ := auth.IdentityFromContext(r.Context())
	return id.UserID
}

// requireOwner returns a 403 unless the caller owns o.
func requireOwner(o models.Owned, id auth.Identity, action string) error {
	if !models.OwnedBy(o, id.UserID) {
		return forbidden("You are not authorized to " + action)
	}
	return nil
}
