package server

import (
	"net/http"

	"github.com/circuitlens/circuitlens/errors"
)

// statusForError maps domain error kinds to HTTP status codes. Anything
// unclassified is a 500; handlers never leak partial state alongside it.
func statusForError(err error) int {
	switch {
	case errors.IsUnknownGroupError(err):
		return http.StatusNotFound
	case errors.IsBackendUnavailableError(err), errors.IsBackendRejectedError(err):
		return http.StatusBadGateway
	case errors.IsNoDatasetError(err):
		return http.StatusConflict
	case errors.IsParseError(err),
		errors.IsRangeError(err),
		errors.IsSchemaError(err),
		errors.IsNameError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError writes an error response with the status implied by
// the error's kind.
func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusForError(err), err.Error())
}
