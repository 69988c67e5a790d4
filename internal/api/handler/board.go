package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/talentgrid/talentgrid/internal/api/response"
	"github.com/talentgrid/talentgrid/internal/board"
	"github.com/talentgrid/talentgrid/internal/pipeline"
	"github.com/talentgrid/talentgrid/internal/store"
	"github.com/talentgrid/talentgrid/pkg/models"
)

// BoardStore is the store subset the board handlers depend on.
type BoardStore interface {
	GetJobPosting(ctx context.Context, id uuid.UUID) (*models.JobPosting, error)
	ListApplicationsByJob(ctx context.Context, filter store.ApplicationFilter) ([]*models.Application, int, error)
}

// Boards manages one drag coordinator per job board. Sessions live in memory
// for the lifetime of the process; a restart simply starts from the
// persisted stages again.
type Boards struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*board.Coordinator

	store  BoardStore
	engine board.TransitionApplier
}

func NewBoards(s BoardStore, engine board.TransitionApplier) *Boards {
	return &Boards{
		sessions: make(map[uuid.UUID]*board.Coordinator),
		store:    s,
		engine:   engine,
	}
}

// coordinator returns the job's coordinator, building one from the persisted
// applications on first use. An existing idle session is reconciled with the
// store so applications created or moved through the non-board endpoints show
// up; a session with a drag in flight is returned as-is.
func (h *Boards) coordinator(ctx context.Context, jobID uuid.UUID) (*board.Coordinator, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.sessions[jobID]
	if ok && c.Busy() {
		return c, nil
	}

	if !ok {
		if _, err := h.store.GetJobPosting(ctx, jobID); err != nil {
			return nil, err
		}
	}

	apps, err := h.loadApplications(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if !ok {
		c = board.NewCoordinator(h.engine, apps)
		h.sessions[jobID] = c
	} else {
		c.Sync(apps)
	}
	return c, nil
}

func (h *Boards) loadApplications(ctx context.Context, jobID uuid.UUID) ([]*models.Application, error) {
	var apps []*models.Application
	for page := 1; ; page++ {
		batch, _, err := h.store.ListApplicationsByJob(ctx, store.ApplicationFilter{
			JobID: jobID,
			Page:  page,
			Limit: 100,
		})
		if err != nil {
			return nil, err
		}
		apps = append(apps, batch...)
		if len(batch) < 100 {
			break
		}
	}
	return apps, nil
}

type boardColumn struct {
	Stage        models.Stage `json:"stage"`
	Applications []uuid.UUID  `json:"applications"`
}

type boardView struct {
	JobID    uuid.UUID     `json:"job_id"`
	Columns  []boardColumn `json:"columns"`
	Dragging *uuid.UUID    `json:"dragging,omitempty"`
	Hover    *models.Stage `json:"hover,omitempty"`
}

func buildBoardView(jobID uuid.UUID, c *board.Coordinator) boardView {
	snapshot := c.Columns()
	view := boardView{JobID: jobID}
	for _, stage := range pipeline.Stages() {
		view.Columns = append(view.Columns, boardColumn{
			Stage:        stage,
			Applications: snapshot[stage],
		})
	}
	if item, ok := c.Dragging(); ok {
		view.Dragging = &item
	}
	if hover, ok := c.Hover(); ok {
		view.Hover = &hover
	}
	return view
}

// Get handles GET /api/v1/jobs/{jobID}/board.
func (h *Boards) Get(w http.ResponseWriter, r *http.Request) {
	jobID, c, ok := h.loadCoordinator(w, r)
	if !ok {
		return
	}
	response.JSON(w, buildBoardView(jobID, c))
}

// BeginDrag handles POST /api/v1/jobs/{jobID}/board/begin-drag.
func (h *Boards) BeginDrag(w http.ResponseWriter, r *http.Request) {
	jobID, c, ok := h.loadCoordinator(w, r)
	if !ok {
		return
	}

	var req struct {
		ApplicationID string `json:"application_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}
	appID, err := uuid.Parse(req.ApplicationID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "application_id must be a valid UUID", nil)
		return
	}

	if err := c.BeginDrag(appID); err != nil {
		writeBoardError(w, err)
		return
	}
	response.JSON(w, buildBoardView(jobID, c))
}

// DragOver handles POST /api/v1/jobs/{jobID}/board/drag-over.
func (h *Boards) DragOver(w http.ResponseWriter, r *http.Request) {
	jobID, c, ok := h.loadCoordinator(w, r)
	if !ok {
		return
	}

	var req struct {
		Stage string `json:"stage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}

	if err := c.DragOver(models.Stage(req.Stage)); err != nil {
		writeBoardError(w, err)
		return
	}
	response.JSON(w, buildBoardView(jobID, c))
}

// EndDrag handles POST /api/v1/jobs/{jobID}/board/end-drag. A null or absent
// stage cancels the drag without touching any application.
func (h *Boards) EndDrag(w http.ResponseWriter, r *http.Request) {
	jobID, c, ok := h.loadCoordinator(w, r)
	if !ok {
		return
	}

	var req struct {
		Stage *string `json:"stage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}

	var target *models.Stage
	if req.Stage != nil {
		s := models.Stage(*req.Stage)
		target = &s
	}

	app, err := c.EndDrag(r.Context(), target)
	if err != nil {
		writeBoardError(w, err)
		return
	}

	view := buildBoardView(jobID, c)
	response.JSON(w, map[string]any{
		"board":       view,
		"application": app,
	})
}

func (h *Boards) loadCoordinator(w http.ResponseWriter, r *http.Request) (uuid.UUID, *board.Coordinator, bool) {
	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "jobID must be a valid UUID", nil)
		return uuid.Nil, nil, false
	}

	c, err := h.coordinator(r.Context(), jobID)
	if err != nil {
		writeDomainError(w, err)
		return uuid.Nil, nil, false
	}
	return jobID, c, true
}

func writeBoardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, board.ErrDragActive):
		response.Error(w, http.StatusConflict, "DRAG_ACTIVE",
			"A drag is already in progress on this board", nil)
	case errors.Is(err, board.ErrNoActiveDrag):
		response.Error(w, http.StatusConflict, "NO_ACTIVE_DRAG",
			"No drag is in progress on this board", nil)
	case errors.Is(err, board.ErrUnknownItem):
		response.Error(w, http.StatusNotFound, "NOT_FOUND",
			"The application is not on this board", nil)
	default:
		writeDomainError(w, err)
	}
}
