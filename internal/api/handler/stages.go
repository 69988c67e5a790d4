package handler

import (
	"net/http"

	"github.com/talentgrid/talentgrid/internal/api/response"
	"github.com/talentgrid/talentgrid/internal/pipeline"
)

// NewStagesHandler returns an http.HandlerFunc for GET /api/v1/stages.
// The stage list is fixed; the order is the board's column order.
func NewStagesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, map[string]any{
			"stages": pipeline.Stages(),
		})
	}
}
