package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/V4T54L/api-performance/internal/usecase"
)

// validationErrors are reported to the client as 422 with their message.
var validationErrors = []error{
	usecase.ErrInvalidPage,
	usecase.ErrInvalidSize,
	usecase.ErrInvalidCursor,
	usecase.ErrInvalidMessageCount,
	usecase.ErrInvalidPayloadSize,
	usecase.ErrUnknownStrategy,
}

type errorBody struct {
	Detail string `json:"detail"`
}

func respondWithJSON(w http.ResponseWriter, logger *slog.Logger, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithError maps validation errors to 422 and everything else to an
// opaque 500.
func respondWithError(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			respondWithJSON(w, logger, http.StatusUnprocessableEntity, errorBody{Detail: err.Error()})
			return
		}
	}
	logger.Error("request failed", "path", r.URL.Path, "error", err)
	respondWithJSON(w, logger, http.StatusInternalServerError, errorBody{Detail: "Internal Server Error"})
}

type paramError struct {
	name  string
	value string
	kind  string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("query parameter %q must be %s, got %q", e.name, e.kind, e.value)
}

func respondWithParamError(w http.ResponseWriter, logger *slog.Logger, err error) {
	respondWithJSON(w, logger, http.StatusUnprocessableEntity, errorBody{Detail: err.Error()})
}

// queryBool accepts the spellings FastAPI-style clients send: true/false,
// 1/0, yes/no and on/off.
func queryBool(r *http.Request, name string, def bool) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(raw) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, &paramError{name: name, value: raw, kind: "a boolean"}
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &paramError{name: name, value: raw, kind: "an integer"}
	}
	return v, nil
}
