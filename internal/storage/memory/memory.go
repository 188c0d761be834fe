// internal/storage/memory/memory.go
package memory

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/roadsim/roadsim/internal/config"
	"github.com/roadsim/roadsim/internal/model"
	"github.com/roadsim/roadsim/internal/trajectory"
	"github.com/roadsim/roadsim/pkg/core"
)

// ErrNoActiveScene is returned when recording without a started scene
var ErrNoActiveScene = errors.New("no active scene")

// EntityRecord groups an entity's registration with its per-tick states
type EntityRecord struct {
	Kind     core.ObjectType
	ID       int64
	Length   float64
	Width    float64
	MaxSpeed *float64
	IsAV     bool

	CanBlockSight  bool
	CanBeCollided  bool
	CheckCollision bool
	Color          core.Color
	Target         core.KinematicState

	States []core.EntityState
}

// Backend stores scene data in memory and exports to JSON
type Backend struct {
	cfg   config.MemoryConfig
	scene *core.SceneInfo

	entities map[int64]*EntityRecord
	paths    map[int64]trajectory.PathStats

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:      cfg,
		entities: make(map[int64]*EntityRecord),
	}
}

func (b *Backend) Init() error {
	return nil
}

func (b *Backend) Close() error {
	return nil
}

// StartScene begins recording a new scene and drops anything recorded before.
func (b *Backend) StartScene(info *core.SceneInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.scene = info
	b.entities = make(map[int64]*EntityRecord)
	b.paths = nil
	b.lastExportPath = ""
	return nil
}

// EndScene exports the scene. An empty OutputDir keeps the data in memory only.
func (b *Backend) EndScene() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.scene == nil {
		return ErrNoActiveScene
	}
	if b.cfg.OutputDir == "" {
		return nil
	}
	return b.exportJSON()
}

// AddEntity snapshots the entity's static attributes. Re-adding an id replaces the
// registration and keeps recorded states.
func (b *Backend) AddEntity(e core.Entity) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.scene == nil {
		return ErrNoActiveScene
	}

	o := e.Base()
	rec := &EntityRecord{
		Kind:           e.Type(),
		ID:             o.ID(),
		Length:         o.Length(),
		Width:          o.Width(),
		CanBlockSight:  o.CanBlockSight(),
		CanBeCollided:  o.CanBeCollided(),
		CheckCollision: o.CheckCollision(),
		Color:          o.Color(),
		Target:         o.Target(),
	}
	if v, ok := o.MaxSpeed(); ok {
		rec.MaxSpeed = &v
	}
	if v, ok := e.(*core.Vehicle); ok {
		rec.IsAV = v.IsAV()
	}
	if prev, ok := b.entities[rec.ID]; ok {
		rec.States = prev.States
	}
	b.entities[rec.ID] = rec
	return nil
}

func (b *Backend) RecordState(s core.EntityState) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.entities[s.ObjectID]
	if !ok {
		return fmt.Errorf("object %d: %w", s.ObjectID, model.ErrTooEarlyForStateAssociation)
	}
	rec.States = append(rec.States, s)
	return nil
}

func (b *Backend) RecordPathStats(stats map[int64]trajectory.PathStats) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.scene == nil {
		return ErrNoActiveScene
	}
	b.paths = maps.Clone(stats)
	return nil
}

// GetEntity returns the record for id. The returned pointer must not be mutated.
func (b *Backend) GetEntity(id int64) (*EntityRecord, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.entities[id]
	return rec, ok
}

// EntityIDs returns the registered ids in ascending order.
func (b *Backend) EntityIDs() []int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Sorted(maps.Keys(b.entities))
}

// ExportedFilePath returns the path of the last export, empty if none.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
