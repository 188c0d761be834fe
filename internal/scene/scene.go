// Package scene owns the entities of one simulated scene and advances them tick by tick.
package scene

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/roadsim/roadsim/internal/kinematics"
	"github.com/roadsim/roadsim/pkg/core"
)

var (
	// ErrDuplicateID is returned when an entity id is already present in the scene
	ErrDuplicateID = errors.New("duplicate entity id")
	// ErrInvalidExtent is returned for entities with a non-positive length or width
	ErrInvalidExtent = errors.New("entity extents must be positive")
)

const meterName = "github.com/roadsim/roadsim/internal/scene"

// Scene holds every entity of a running scene. It is not safe for concurrent use;
// one simulation goroutine drives Add, Step and Reset.
type Scene struct {
	runID    string
	name     string
	entities map[int64]core.Entity
	initial  map[int64]initialState
	tick     uint
	logger   *slog.Logger

	ticks      metric.Int64Counter
	population metric.Int64UpDownCounter
	attrs      metric.MeasurementOption
}

type initialState struct {
	state  core.KinematicState
	target core.KinematicState
}

// Option configures a Scene.
type Option func(*Scene)

// WithLogger sets the scene logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Scene) {
		s.logger = l
	}
}

// WithRunID overrides the generated run id.
func WithRunID(id string) Option {
	return func(s *Scene) {
		s.runID = id
	}
}

// New creates an empty scene. Metrics go to the global OTel meter provider,
// which is a no-op unless one is installed.
func New(name string, opts ...Option) (*Scene, error) {
	s := &Scene{
		runID:    uuid.NewString(),
		name:     name,
		entities: make(map[int64]core.Entity),
		initial:  make(map[int64]initialState),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.attrs = metric.WithAttributes(attribute.String("scene", name))

	m := otel.Meter(meterName)

	var err error
	s.ticks, err = m.Int64Counter(
		"scene.ticks",
		metric.WithDescription("Total simulation ticks advanced"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick counter: %w", err)
	}

	s.population, err = m.Int64UpDownCounter(
		"scene.entities",
		metric.WithDescription("Entities currently in the scene"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating entity counter: %w", err)
	}

	return s, nil
}

func (s *Scene) RunID() string { return s.runID }
func (s *Scene) Name() string  { return s.name }
func (s *Scene) Tick() uint    { return s.tick }
func (s *Scene) Len() int      { return len(s.entities) }

// Add registers e. The scene validates what the entity model does not: unique ids
// and positive extents.
func (s *Scene) Add(e core.Entity) error {
	o := e.Base()
	if !(o.Length() > 0) || !(o.Width() > 0) || math.IsInf(o.Length(), 0) || math.IsInf(o.Width(), 0) {
		return fmt.Errorf("%w: object %d has length=%g width=%g", ErrInvalidExtent, o.ID(), o.Length(), o.Width())
	}
	if _, ok := s.entities[o.ID()]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateID, o.ID())
	}

	s.entities[o.ID()] = e
	s.initial[o.ID()] = initialState{state: o.State(), target: o.Target()}
	s.population.Add(context.Background(), 1, s.attrs)

	s.logger.Debug("Entity added", "id", o.ID(), "type", e.Type().String())
	return nil
}

// Remove drops the entity with the given id. It reports whether it was present.
func (s *Scene) Remove(id int64) bool {
	if _, ok := s.entities[id]; !ok {
		return false
	}
	delete(s.entities, id)
	delete(s.initial, id)
	s.population.Add(context.Background(), -1, s.attrs)

	s.logger.Debug("Entity removed", "id", id)
	return true
}

// Get returns the entity with the given id.
func (s *Scene) Get(id int64) (core.Entity, bool) {
	e, ok := s.entities[id]
	return e, ok
}

// Entities returns all entities ordered by id.
func (s *Scene) Entities() []core.Entity {
	return s.filter(func(core.Entity) bool { return true })
}

// Vehicles returns all vehicles ordered by id.
func (s *Scene) Vehicles() []*core.Vehicle {
	var out []*core.Vehicle
	for _, e := range s.Entities() {
		if v, ok := e.(*core.Vehicle); ok {
			out = append(out, v)
		}
	}
	return out
}

// AVs returns the policy-controlled vehicles ordered by id.
func (s *Scene) AVs() []*core.Vehicle {
	var out []*core.Vehicle
	for _, v := range s.Vehicles() {
		if v.IsAV() {
			out = append(out, v)
		}
	}
	return out
}

// Collidable returns the entities other objects can collide with.
func (s *Scene) Collidable() []core.Entity {
	return s.filter(func(e core.Entity) bool { return e.Base().CanBeCollided() })
}

// SightBlockers returns the entities that occlude line of sight.
func (s *Scene) SightBlockers() []core.Entity {
	return s.filter(func(e core.Entity) bool { return e.Base().CanBlockSight() })
}

func (s *Scene) filter(keep func(core.Entity) bool) []core.Entity {
	ids := slices.Sorted(maps.Keys(s.entities))
	out := make([]core.Entity, 0, len(ids))
	for _, id := range ids {
		if e := s.entities[id]; keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Step advances every entity by dt seconds. All next states are computed from the
// pre-tick snapshot before any is written, so no reader sees a half-updated tick.
func (s *Scene) Step(ctx context.Context, integrator kinematics.Integrator, dt float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entities := s.Entities()
	next := make([]core.KinematicState, len(entities))
	for i, e := range entities {
		next[i] = integrator.Next(e, dt)
	}
	for i, e := range entities {
		e.Base().SetState(next[i])
	}

	s.tick++
	s.ticks.Add(ctx, 1, s.attrs)
	return nil
}

// Reset restores every entity to the state and goal it had when added and rewinds
// the tick counter. Vehicles also lose expert control and go back to the default
// vehicle color, even if they were marked with ColorAsSource before Add.
func (s *Scene) Reset() {
	for id, e := range s.entities {
		orig := s.initial[id]
		e.Base().SetState(orig.state)
		e.Base().SetTarget(orig.target)
		if v, ok := e.(*core.Vehicle); ok {
			v.ColorAsSource(nil)
			v.SetExpertControl(false)
		}
	}
	s.tick = 0
	s.logger.Info("Scene reset", "scene", s.name, "entities", len(s.entities))
}

// Snapshots returns the state of every entity at the current tick.
func (s *Scene) Snapshots() []core.EntityState {
	entities := s.Entities()
	out := make([]core.EntityState, len(entities))
	for i, e := range entities {
		out[i] = core.Snapshot(e, s.tick)
	}
	return out
}
