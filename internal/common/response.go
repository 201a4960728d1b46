package common

import (
	"encoding/json"
	"errors"
	"net/http"

	"clipshare/internal/domain"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError renders err with the status code for its kind. Errors without a
// kind are reported as 500 with a generic message.
func WriteError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	status := StatusFor(kind)
	msg := err.Error()
	if kind == "" {
		msg = "internal error"
	}
	WriteJSON(w, status, ErrorResponse{Error: msg, Kind: string(kind)})
}

func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalid:
		return http.StatusBadRequest
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindRemoteFetch, domain.KindRemoteMutation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON reads a JSON body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var syntax *json.SyntaxError
		if errors.As(err, &syntax) {
			return domain.E(domain.KindInvalid, "decode body", errors.New("malformed JSON"))
		}
		return domain.E(domain.KindInvalid, "decode body", err)
	}
	return nil
}
