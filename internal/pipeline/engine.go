// Package pipeline owns the applicant pipeline: which stages exist, their
// display order, and how an application moves between them.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/talentgrid/talentgrid/internal/actor"
	"github.com/talentgrid/talentgrid/internal/events"
	"github.com/talentgrid/talentgrid/internal/store"
	"github.com/talentgrid/talentgrid/pkg/models"
)

// ErrInvalidStage is returned for stage identifiers outside the six known stages.
var ErrInvalidStage = errors.New("invalid stage")

// stageOrder is the authoritative display order of the pipeline columns.
var stageOrder = []models.Stage{
	models.StageApplied,
	models.StageScreen,
	models.StageInterview,
	models.StageOffer,
	models.StageHired,
	models.StageRejected,
}

// Stages returns the ordered pipeline stages. The returned slice is a copy.
func Stages() []models.Stage {
	out := make([]models.Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// ParseStage validates a raw stage identifier. Matching is case-insensitive;
// the canonical upper-case form is returned.
func ParseStage(raw string) (models.Stage, error) {
	candidate := models.Stage(strings.ToUpper(strings.TrimSpace(raw)))
	for _, s := range stageOrder {
		if s == candidate {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStage, raw)
}

// Notifier dispatches a named remote function with a JSON payload.
type Notifier interface {
	Invoke(ctx context.Context, function string, payload any) (json.RawMessage, error)
}

// Engine validates and applies stage transitions. It is stateless: every call
// reads and writes through the store, and a failed write leaves the persisted
// record untouched for the caller to reconcile against.
type Engine struct {
	store     store.Store
	notifier  Notifier
	publisher events.Publisher
}

// NewEngine creates an Engine. notifier and publisher may be nil-equivalent
// no-ops in tests; the store is required.
func NewEngine(s store.Store, n Notifier, p events.Publisher) *Engine {
	if p == nil {
		p = events.NoopPublisher{}
	}
	return &Engine{store: s, notifier: n, publisher: p}
}

// ValidateTransition reports whether app may move to target. Any known stage
// may move to any other known stage, including out of HIRED and REJECTED:
// the product relies on this for admin corrections, so no workflow graph is
// enforced here.
func (e *Engine) ValidateTransition(app *models.Application, target models.Stage) error {
	if _, err := ParseStage(string(target)); err != nil {
		return err
	}
	return nil
}

// ApplyTransition moves one application to the target stage with a single
// stage+updated_at write. It does not retry; persistence failures are
// returned to the caller, which owns any optimistic-state rollback.
func (e *Engine) ApplyTransition(ctx context.Context, applicationID uuid.UUID, target models.Stage) (*models.Application, error) {
	target, err := ParseStage(string(target))
	if err != nil {
		return nil, err
	}

	app, err := e.store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("load application: %w", err)
	}

	if err := e.ValidateTransition(app, target); err != nil {
		return nil, err
	}

	from := app.Stage
	updated, err := e.store.UpdateApplicationStage(ctx, applicationID, target)
	if err != nil {
		return nil, fmt.Errorf("persist transition: %w", err)
	}

	if from != target {
		caller, _ := actor.FromContext(ctx)
		go e.dispatchStageChanged(events.StageChanged{
			ApplicationID: updated.ID,
			JobID:         updated.JobID,
			TalentID:      updated.TalentID,
			FromStage:     from,
			ToStage:       target,
			ActorID:       caller.ID,
			OccurredAt:    updated.UpdatedAt,
		})
	}

	return updated, nil
}

const dispatchTimeout = 10 * time.Second

// dispatchStageChanged notifies downstream collaborators fire-and-forget.
// Failures are logged, never surfaced: the transition itself has already
// been persisted.
func (e *Engine) dispatchStageChanged(ev events.StageChanged) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	if err := e.publisher.PublishStageChanged(ctx, ev); err != nil {
		slog.Warn("publish stage-changed event failed",
			"application_id", ev.ApplicationID, "error", err)
	}

	if e.notifier != nil {
		if _, err := e.notifier.Invoke(ctx, "notify-stage-change", ev); err != nil {
			slog.Warn("notify-stage-change invocation failed",
				"application_id", ev.ApplicationID, "error", err)
		}
	}
}
