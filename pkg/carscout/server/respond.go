package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nekruzvatanshoev/carscout/pkg/carscout/dal"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/logging"
)

// RespondWithJSON writes payload as a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "failed to marshal JSON response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// WriteJSONError writes the failure body shared by every endpoint
func WriteJSONError(w http.ResponseWriter, code int, message, details string) {
	RespondWithJSON(w, code, dal.ErrorResponse{
		Success: false,
		Error:   message,
		Details: details,
	})
}

// writeError maps err onto a status code and error body.
func (h *httpServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := logging.FromContext(r.Context())

	var e *dal.Error
	if !errors.As(err, &e) {
		log.ErrorContext(r.Context(), "request failed", "error", err)
		WriteJSONError(w, http.StatusInternalServerError, "internal server error", "")
		return
	}

	status := e.HTTPStatus()
	message, details := e.Message, ""
	switch e.Kind {
	case dal.KindConfig:
		message, details = "server configuration error", e.Message
		log.ErrorContext(r.Context(), "missing configuration", "error", err)
	case dal.KindUpstream, dal.KindTimeout:
		if e.Err != nil {
			details = e.Err.Error()
		}
		log.WarnContext(r.Context(), "upstream call failed", "error", err, "upstream_status", e.Status)
	case dal.KindValidation, dal.KindNotFound:
		log.DebugContext(r.Context(), "request rejected", "error", err)
	}
	WriteJSONError(w, status, message, details)
}

func (h *httpServer) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return dal.ValidationError("invalid request body: " + err.Error())
	}
	return nil
}

func (h *httpServer) notFound(w http.ResponseWriter, r *http.Request) {
	WriteJSONError(w, http.StatusNotFound, "route not found", r.URL.Path)
}

func (h *httpServer) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteJSONError(w, http.StatusMethodNotAllowed, "method not allowed", r.Method)
}
