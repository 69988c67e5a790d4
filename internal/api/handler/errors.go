package handler

import (
	"errors"
	"net/http"

	"github.com/talentgrid/talentgrid/internal/api/response"
	"github.com/talentgrid/talentgrid/internal/pipeline"
	"github.com/talentgrid/talentgrid/internal/store"
)

// writeDomainError maps store and pipeline errors onto the response envelope.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound, "NOT_FOUND",
			"The requested resource does not exist", nil)
	case errors.Is(err, store.ErrDuplicateKey):
		response.Error(w, http.StatusConflict, "DUPLICATE",
			"A resource with these identifiers already exists", nil)
	case errors.Is(err, pipeline.ErrInvalidStage):
		response.Error(w, http.StatusBadRequest, "INVALID_STAGE",
			"Stage must be one of APPLIED, SCREEN, INTERVIEW, OFFER, HIRED, REJECTED", nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}
