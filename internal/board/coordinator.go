// Package board tracks an in-progress drag gesture over a job's Kanban board
// and coordinates optimistic column moves with rollback when persistence
// fails.
package board

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/talentgrid/talentgrid/internal/pipeline"
	"github.com/talentgrid/talentgrid/pkg/models"
)

var (
	ErrDragActive   = errors.New("a drag is already in progress")
	ErrNoActiveDrag = errors.New("no drag in progress")
	ErrUnknownItem  = errors.New("item is not on the board")
)

// TransitionApplier persists a stage move. *pipeline.Engine satisfies it.
type TransitionApplier interface {
	ApplyTransition(ctx context.Context, applicationID uuid.UUID, target models.Stage) (*models.Application, error)
}

// Snapshot is the board layout: one ordered card list per stage column.
type Snapshot map[models.Stage][]uuid.UUID

func (s Snapshot) clone() Snapshot {
	out := make(Snapshot, len(s))
	for stage, cards := range s {
		copied := make([]uuid.UUID, len(cards))
		copy(copied, cards)
		out[stage] = copied
	}
	return out
}

type dragState int

const (
	stateIdle dragState = iota
	stateDragging
	statePersisting
)

// Coordinator is one board's drag session. Only one drag may be active at a
// time; the original UI guarantees this with a single pointer, here a mutex
// plus ErrDragActive enforce it.
type Coordinator struct {
	mu     sync.Mutex
	engine TransitionApplier

	columns Snapshot

	state       dragState
	activeItem  uuid.UUID
	sourceStage models.Stage
	hoverStage  models.Stage
	hovering    bool
	preDrag     Snapshot
}

// NewCoordinator builds a board from the job's applications, one column per
// pipeline stage in display order.
func NewCoordinator(engine TransitionApplier, apps []*models.Application) *Coordinator {
	return &Coordinator{engine: engine, columns: buildColumns(apps)}
}

func buildColumns(apps []*models.Application) Snapshot {
	columns := make(Snapshot, len(pipeline.Stages()))
	for _, stage := range pipeline.Stages() {
		columns[stage] = []uuid.UUID{}
	}
	for _, app := range apps {
		columns[app.Stage] = append(columns[app.Stage], app.ID)
	}
	return columns
}

// Sync reconciles the board with the job's persisted applications: cards that
// still sit in their known column keep their position, cards created or moved
// outside the board land at the end of their persisted column, and cards no
// longer in the store disappear. A sync during an active drag or an in-flight
// drop is skipped so the gesture keeps a consistent view; the return value
// reports whether the reconcile ran.
func (c *Coordinator) Sync(apps []*models.Application) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateIdle {
		return false
	}

	persisted := make(map[uuid.UUID]models.Stage, len(apps))
	for _, app := range apps {
		persisted[app.ID] = app.Stage
	}

	next := make(Snapshot, len(pipeline.Stages()))
	for _, stage := range pipeline.Stages() {
		next[stage] = []uuid.UUID{}
	}
	for _, stage := range pipeline.Stages() {
		for _, id := range c.columns[stage] {
			if persisted[id] == stage {
				next[stage] = append(next[stage], id)
				delete(persisted, id)
			}
		}
	}
	for _, app := range apps {
		if _, ok := persisted[app.ID]; ok {
			next[app.Stage] = append(next[app.Stage], app.ID)
		}
	}

	c.columns = next
	return true
}

// Columns returns a copy of the current board layout.
func (c *Coordinator) Columns() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.columns.clone()
}

// Dragging reports the active item, if a drag is in progress.
func (c *Coordinator) Dragging() (uuid.UUID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeItem, c.state == stateDragging
}

// Busy reports whether a drag is in progress or a drop is still persisting.
func (c *Coordinator) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != stateIdle
}

// Hover reports the current drop-target hint, if any.
func (c *Coordinator) Hover() (models.Stage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hoverStage, c.hovering
}

// BeginDrag starts a drag session for itemID and snapshots the board so a
// failed drop can be rolled back.
func (c *Coordinator) BeginDrag(itemID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateIdle {
		return ErrDragActive
	}

	source, ok := c.locate(itemID)
	if !ok {
		return ErrUnknownItem
	}

	c.state = stateDragging
	c.activeItem = itemID
	c.sourceStage = source
	c.hovering = false
	c.preDrag = c.columns.clone()
	return nil
}

// DragOver records the hovered column. It is a rendering hint only: the
// board layout does not change until EndDrag.
func (c *Coordinator) DragOver(target models.Stage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateDragging {
		return ErrNoActiveDrag
	}
	if _, err := pipeline.ParseStage(string(target)); err != nil {
		return err
	}

	c.hoverStage = target
	c.hovering = true
	return nil
}

// EndDrag finishes the session. A nil target cancels with no mutation. A
// target resolving to the item's current column is a no-op drop. Otherwise
// the card moves optimistically, the transition is persisted, and on failure
// the board reverts to the pre-drag snapshot. The coordinator always returns
// to Idle.
func (c *Coordinator) EndDrag(ctx context.Context, target *models.Stage) (*models.Application, error) {
	c.mu.Lock()

	if c.state != stateDragging {
		c.mu.Unlock()
		return nil, ErrNoActiveDrag
	}

	item := c.activeItem
	source := c.sourceStage

	if target == nil {
		c.reset()
		c.mu.Unlock()
		return nil, nil
	}

	dest, err := pipeline.ParseStage(string(*target))
	if err != nil {
		c.reset()
		c.mu.Unlock()
		return nil, err
	}
	if dest == source {
		c.reset()
		c.mu.Unlock()
		return nil, nil
	}

	// Optimistic move. The lock is released while the write is in flight
	// so board reads do not stall behind the store; statePersisting keeps
	// new drags and syncs out until the drop commits or rolls back.
	c.moveCard(item, source, dest)
	c.state = statePersisting
	c.mu.Unlock()

	app, applyErr := c.engine.ApplyTransition(ctx, item, dest)

	c.mu.Lock()
	if applyErr != nil {
		c.columns = c.preDrag.clone()
	}
	c.reset()
	c.mu.Unlock()

	if applyErr != nil {
		return nil, fmt.Errorf("apply transition: %w", applyErr)
	}
	return app, nil
}

func (c *Coordinator) reset() {
	c.state = stateIdle
	c.activeItem = uuid.Nil
	c.hovering = false
}

func (c *Coordinator) locate(itemID uuid.UUID) (models.Stage, bool) {
	for stage, cards := range c.columns {
		for _, id := range cards {
			if id == itemID {
				return stage, true
			}
		}
	}
	return "", false
}

func (c *Coordinator) moveCard(itemID uuid.UUID, from, to models.Stage) {
	cards := c.columns[from]
	for i, id := range cards {
		if id == itemID {
			c.columns[from] = append(cards[:i:i], cards[i+1:]...)
			break
		}
	}
	c.columns[to] = append(c.columns[to], itemID)
}
