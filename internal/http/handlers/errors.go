package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/hongminglow/budget-be/internal/http/respond"
	"github.com/hongminglow/budget-be/internal/services"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must only contain a single JSON object")
	}
	return nil
}

// writeServiceError maps service errors to status codes. notFound is the
// message used for ErrNotFound.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error, notFound string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Errors(w, http.StatusBadRequest, "validation failed", verr.Messages)
	case errors.Is(err, services.ErrDuplicateIdentity):
		respond.Errors(w, http.StatusBadRequest, "User with this email already exists",
			[]string{"User with this email already exists"})
	case errors.Is(err, services.ErrAuthenticationFailed):
		respond.Error(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, services.ErrNotFound):
		respond.Error(w, http.StatusNotFound, notFound)
	default:
		log.Error("request failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
