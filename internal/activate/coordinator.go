// Package activate performs the terminal catalog activation swap: the one
// sequence in the pipeline that mutates organization-wide state.
package activate

import (
	"context"
	"errors"
	"fmt"

	"github.com/tbialecki/catmap/pkg/logger"
	"github.com/tbialecki/catmap/pkg/models"
)

// Step names the four awaited stages of activation.
type Step string

const (
	StepDeactivate      Step = "deactivate previous catalog"
	StepPersistMappings Step = "persist confirmed mappings"
	StepRecomputeScores Step = "recompute downstream scores"
	StepActivate        Step = "mark catalog active"
)

// Error reports which activation step failed. There is no compensating
// transaction: after one of these the catalog is neither cleanly active
// nor rolled back, and an operator has to look at it.
type Error struct {
	Step Step
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("activation failed at step %q: %v", e.Step, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrConflict means another session changed the active catalog while this
// activation was running; the optimistic version check lost.
var ErrConflict = errors.New("active catalog changed concurrently")

// Registry tracks which catalog is active for the organization, guarded by
// an optimistic version so two sessions cannot both win an activation race.
type Registry interface {
	// Active returns the active catalog id ("" when none) and the
	// registry version to pass to the write operations.
	Active(ctx context.Context) (catalogID string, version int64, err error)
	// Deactivate clears the active catalog. Fails with ErrConflict when
	// the version is stale. Returns the new version.
	Deactivate(ctx context.Context, catalogID string, version int64) (int64, error)
	// SetActive marks a catalog active. Fails with ErrConflict when the
	// version is stale.
	SetActive(ctx context.Context, catalogID string, version int64) (int64, error)
}

// MappingSaver persists the confirmed mapping set against the new catalog.
type MappingSaver interface {
	SaveMappings(ctx context.Context, catalogID string, mappings []models.ConfirmedMapping) error
}

// ScoreRecomputer triggers recomputation of derived views that depend on
// the active catalog's metrics.
type ScoreRecomputer interface {
	Recompute(ctx context.Context, catalogID string) error
}

// Coordinator runs the activation sequence strictly in order, with no
// automatic rollback on partial failure.
type Coordinator struct {
	Registry Registry
	Mappings MappingSaver
	Scores   ScoreRecomputer
}

// Activate swaps the organization's active catalog to catalogID. Any
// failure names its step; the caller surfaces it prominently because the
// registry may be left in an indeterminate state.
func (c *Coordinator) Activate(ctx context.Context, catalogID string, mappings []models.ConfirmedMapping) error {
	if catalogID == "" {
		return fmt.Errorf("no catalog id to activate")
	}

	active, version, err := c.Registry.Active(ctx)
	if err != nil {
		return c.fail(StepDeactivate, catalogID, err)
	}

	// Step 1: deactivate the current catalog, if one exists.
	if active != "" {
		version, err = c.Registry.Deactivate(ctx, active, version)
		if err != nil {
			return c.fail(StepDeactivate, catalogID, err)
		}
	}

	// Step 2: persist the full confirmed mapping set.
	if err := c.Mappings.SaveMappings(ctx, catalogID, mappings); err != nil {
		return c.fail(StepPersistMappings, catalogID, err)
	}

	// Step 3: trigger downstream score recomputation.
	if c.Scores != nil {
		if err := c.Scores.Recompute(ctx, catalogID); err != nil {
			return c.fail(StepRecomputeScores, catalogID, err)
		}
	}

	// Step 4: mark the new catalog active.
	if _, err := c.Registry.SetActive(ctx, catalogID, version); err != nil {
		return c.fail(StepActivate, catalogID, err)
	}

	logger.Infof("Catalog %s activated (%d mappings persisted)", catalogID, len(mappings))
	return nil
}

func (c *Coordinator) fail(step Step, catalogID string, err error) error {
	actErr := &Error{Step: step, Err: err}
	logger.Errorf("ACTIVATION FAILED for catalog %s at step %q: %v. The catalog may be neither active nor restored; operator attention required.", catalogID, step, err)
	return actErr
}
