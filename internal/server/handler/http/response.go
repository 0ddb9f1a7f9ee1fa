package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/accvault/internal/models"
)

const (
	statusOK    = "ok"
	statusError = "erro"

	msgBadRequest         = "Requisição inválida."
	msgDuplicateUsername  = "Nome de usuário já está em uso! Escolha outro."
	msgInvalidCredentials = "Usuário ou senha inválidos!"
	msgEmailNotFound      = "E-mail não encontrado."
	msgFileNotFound       = "Arquivo não encontrado."
	msgUserMissing        = "Usuário não especificado."
	msgInvalidUsername    = "Nome de usuário inválido."
)

// errorMessages holds the endpoint-specific texts used when mapping a
// service error to a response.
type errorMessages struct {
	validation string
	notFound   string
	failure    string
}

// writeJSON encodes body with the given status code.
func writeJSON(w http.ResponseWriter, code int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// writeOK writes a success envelope with optional payload fields.
func writeOK(w http.ResponseWriter, message string, payload map[string]any) {
	body := map[string]any{"mensagem": message, "status": statusOK}
	for k, v := range payload {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

// writeError writes an error envelope.
func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]any{"mensagem": message, "status": statusError})
}

// writeServiceError maps err onto the error taxonomy:
// validation and duplicate username 400, invalid credentials 401,
// missing email or resource 404, anything else 500 with the error text.
func writeServiceError(w http.ResponseWriter, err error, msgs errorMessages) {
	switch {
	case errors.Is(err, models.ErrInvalidUsername):
		writeError(w, http.StatusBadRequest, msgInvalidUsername)
	case errors.Is(err, models.ErrValidation):
		writeError(w, http.StatusBadRequest, msgs.validation)
	case errors.Is(err, models.ErrDuplicateUsername):
		writeError(w, http.StatusBadRequest, msgDuplicateUsername)
	case errors.Is(err, models.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
	case errors.Is(err, models.ErrEmailNotFound):
		writeError(w, http.StatusNotFound, msgEmailNotFound)
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, msgs.notFound)
	default:
		writeError(w, http.StatusInternalServerError, msgs.failure+": "+err.Error())
	}
}

// decodeJSON reads the request body into v, answering 400 on malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return false
	}
	return true
}

// cleanupPayload adds the per-file failures of a batch deletion, if any.
func cleanupPayload(report models.CleanupReport) map[string]any {
	if report.Complete() {
		return nil
	}
	return map[string]any{"falhas": report.Failed}
}
