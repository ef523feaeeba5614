// Package manager owns the active mission and exposes the mutation surface.
// Every mutation runs inside a snapshot/validate/rollback transaction so the
// externally visible mission is never left structurally invalid.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/scferro/px4-agent/internal/config"
	"github.com/scferro/px4-agent/internal/model"
	"github.com/scferro/px4-agent/internal/validator"
)

var (
	// ErrNoMission is returned by operations that need an active mission.
	ErrNoMission = errors.New("no active mission")
	// ErrItemNotFound is returned for an out-of-range sequence number.
	ErrItemNotFound = errors.New("mission item not found")
	// ErrSelfWithoutCoordinates is returned when a self-relative move is
	// requested on an item that has no stored absolute coordinates.
	ErrSelfWithoutCoordinates = errors.New("item has no coordinates to move relative to")
	// ErrMissingPosition is returned when a survey has neither a center
	// nor polygon corners.
	ErrMissingPosition = errors.New("survey requires a center position or polygon corners")
	// ErrTooManyCorners is returned when a survey polygon exceeds the
	// corner limit.
	ErrTooManyCorners = errors.New("survey polygon supports at most 4 corners")
)

// Result is the successful outcome of a mutation: the affected item, the
// field changes made, any validator repairs, and the post-commit state
// summary.
type Result struct {
	Item    *model.Item
	Changes []string
	Fixes   []string
	Summary string
}

// Manager holds the single active mission and serializes all mutations
// through the transaction wrapper. Not safe for concurrent use; callers
// serialize access.
type Manager struct {
	logger   *slog.Logger
	settings config.Agent
	// staged validates after each mutation: hard structural rules only,
	// so a mission can be built incrementally. full runs the complete
	// rule set including auto-add and parameter completion.
	staged  *validator.Validator
	full    *validator.Validator
	mode    validator.Mode
	mission *model.Mission

	mutations metric.Int64Counter
	rollbacks metric.Int64Counter
	repairs   metric.Int64Counter
}

// New creates a Manager. Uses the global OTel meter for metrics (no-op if
// not configured).
func New(logger *slog.Logger, settings config.Agent, mode validator.Mode) (*Manager, error) {
	m := &Manager{
		logger:   logger,
		settings: settings,
		staged:   validator.NewStaged(settings),
		full:     validator.New(settings),
		mode:     mode,
	}

	mt := meter()
	var err error
	m.mutations, err = mt.Int64Counter(
		"mission.mutations",
		metric.WithDescription("Total mission mutations attempted"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating mutations counter: %w", err)
	}
	m.rollbacks, err = mt.Int64Counter(
		"mission.rollbacks",
		metric.WithDescription("Total mutations rolled back"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rollbacks counter: %w", err)
	}
	m.repairs, err = mt.Int64Counter(
		"mission.fixes_applied",
		metric.WithDescription("Total auto-fixes applied by validation"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fixes counter: %w", err)
	}
	return m, nil
}

// CreateMission replaces any current mission with a fresh empty one.
func (m *Manager) CreateMission() *model.Mission {
	m.mission = model.New()
	m.logger.Info("Mission created", "mission_id", m.mission.ID)
	return m.mission
}

// GetMission returns the active mission, or nil.
func (m *Manager) GetMission() *model.Mission { return m.mission }

// HasMission reports whether a mission is active.
func (m *Manager) HasMission() bool { return m.mission != nil }

// ClearMission drops the active mission, reporting whether one existed.
func (m *Manager) ClearMission() bool {
	had := m.mission != nil
	m.mission = nil
	if had {
		m.logger.Info("Mission cleared")
	}
	return had
}

// SetMode switches the validation mode for subsequent mutations.
func (m *Manager) SetMode(mode validator.Mode) {
	m.mode = mode
	m.logger.Info("Validation mode set", "mode", string(mode))
}

// Mode returns the active validation mode.
func (m *Manager) Mode() validator.Mode { return m.mode }

// Origin returns the configured home position that the origin reference
// frame resolves to.
func (m *Manager) Origin() model.Origin {
	return model.Origin{
		Latitude:  m.settings.TakeoffLatitude,
		Longitude: m.settings.TakeoffLongitude,
	}
}

// LogAttrs supplies dynamic mission context for the logging ContextHandler.
func (m *Manager) LogAttrs() []slog.Attr {
	if m.mission == nil {
		return nil
	}
	return []slog.Attr{
		slog.String("mission_id", m.mission.ID.String()),
		slog.Int("mission_items", m.mission.Len()),
	}
}

// mutate runs one mutation as a transaction: snapshot, apply, validate in
// the current mode, then roll back on hard errors or commit with the fixes
// the validator applied. Add operations create the mission on first use;
// edit operations require one to exist.
func (m *Manager) mutate(op string, create bool, fn func(*model.Mission) (*model.Item, []string, error)) (*Result, error) {
	ctx := context.Background()
	opAttr := metric.WithAttributes(attribute.String("operation", op))
	m.mutations.Add(ctx, 1, opAttr)

	created := false
	if m.mission == nil {
		if !create {
			return nil, ErrNoMission
		}
		m.mission = model.New()
		created = true
	}
	snap := m.mission.TakeSnapshot()
	rollback := func() {
		if created {
			m.mission = nil
		} else {
			m.mission.Restore(snap)
		}
		m.rollbacks.Add(ctx, 1, opAttr)
	}

	item, changes, err := fn(m.mission)
	if err != nil {
		rollback()
		m.logger.Warn("Mutation rejected", "operation", op, "error", err)
		return nil, err
	}

	res := m.staged.Validate(m.mission, m.mode)
	if !res.Valid {
		rollback()
		m.logger.Warn("Mutation rolled back", "operation", op, "error", res.Errors[0])
		return nil, errors.New(res.Errors[0])
	}

	if len(res.Fixes) > 0 {
		m.repairs.Add(ctx, int64(len(res.Fixes)), opAttr)
	}
	m.logger.Info("Mutation committed", "operation", op, "fixes", len(res.Fixes))
	return &Result{
		Item:    item,
		Changes: changes,
		Fixes:   res.Fixes,
		Summary: m.StateSummary(),
	}, nil
}

// ValidateMission validates the active mission in the current mode,
// committing any repairs. The returned messages combine hard errors
// verbatim with "Auto-fix: ..." entries. Hard errors roll the repairs
// back.
func (m *Manager) ValidateMission() (bool, []string) {
	if m.mission == nil {
		return false, []string{"No active mission"}
	}
	snap := m.mission.TakeSnapshot()
	res := m.full.Validate(m.mission, m.mode)

	var messages []string
	messages = append(messages, res.Errors...)
	for _, f := range res.Fixes {
		messages = append(messages, "Auto-fix: "+f)
	}
	if !res.Valid {
		m.mission.Restore(snap)
		return false, messages
	}
	if len(res.Fixes) > 0 {
		m.repairs.Add(context.Background(), int64(len(res.Fixes)),
			metric.WithAttributes(attribute.String("operation", "validate")))
	}
	return true, messages
}

// itemAt returns the item for a 1-based sequence number.
func (m *Manager) itemAt(mission *model.Mission, seq int) (*model.Item, error) {
	if seq < 1 || seq > mission.Len() {
		return nil, fmt.Errorf("%w: sequence %d of %d items", ErrItemNotFound, seq, mission.Len())
	}
	return mission.Items[seq-1], nil
}
