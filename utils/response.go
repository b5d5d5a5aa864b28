package utils

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"wayfarer/errs"
)

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, M{"error": msg})
}

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// RespondWithErr maps err onto a status code and a message safe to show the
// caller. Details stay in the server log.
func RespondWithErr(w http.ResponseWriter, log *zap.Logger, err error) {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		log.Debug("request rejected", zap.Int("status", status), zap.Error(err))
	}
	body := M{"error": errs.PublicMessage(err), "kind": errs.KindOf(err).String()}
	if fields := errs.FieldsOf(err); len(fields) > 0 {
		body["fields"] = fields
	}
	RespondWithJSON(w, status, body)
}

// DecodeJSON reads a JSON body into v, capping its size.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return errs.Validation("invalid JSON body", map[string]string{"body": err.Error()})
	}
	return nil
}

type M map[string]any
