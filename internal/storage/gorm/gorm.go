// Package gormstorage implements the storage.Backend interface on top of GORM. Entities
// are inserted synchronously so their rows exist before any state references them;
// states are queued and written in batches.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roadsim/roadsim/internal/cache"
	"github.com/roadsim/roadsim/internal/database"
	"github.com/roadsim/roadsim/internal/model"
	"github.com/roadsim/roadsim/internal/model/convert"
	"github.com/roadsim/roadsim/internal/queue"
	"github.com/roadsim/roadsim/internal/trajectory"
	"github.com/roadsim/roadsim/pkg/core"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultBatchSize is the number of queued states that triggers a write
const DefaultBatchSize = 5000

// ErrNoActiveScene is returned when recording without a started scene
var ErrNoActiveScene = errors.New("no active scene")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB          *database.Manager
	EntityCache *cache.EntityCache
	Logger      *slog.Logger
	BatchSize   int
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps    Dependencies
	states  *queue.Queue[model.EntityState]
	written cache.SafeCounter

	mu      sync.Mutex // serializes flushes
	sceneID uint
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.EntityCache == nil {
		deps.EntityCache = cache.NewEntityCache()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.BatchSize <= 0 {
		deps.BatchSize = DefaultBatchSize
	}
	return &Backend{
		deps:   deps,
		states: queue.New[model.EntityState](deps.BatchSize),
	}
}

func (b *Backend) db() (*gorm.DB, error) {
	if b.deps.DB == nil || b.deps.DB.DB == nil {
		return nil, database.ErrNotConnected
	}
	return b.deps.DB.DB, nil
}

// Init runs schema migration.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return database.ErrNotConnected
	}
	if err := b.deps.DB.Setup(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	return nil
}

// Close flushes pending states and closes the connection.
func (b *Backend) Close() error {
	flushErr := b.Flush()
	if errors.Is(flushErr, ErrNoActiveScene) || errors.Is(flushErr, database.ErrNotConnected) {
		flushErr = nil
	}
	var closeErr error
	if b.deps.DB != nil {
		closeErr = b.deps.DB.Close()
	}
	return errors.Join(flushErr, closeErr)
}

// StartScene inserts the scene row and forgets entities of the previous scene.
func (b *Backend) StartScene(info *core.SceneInfo) error {
	db, err := b.db()
	if err != nil {
		return err
	}

	row, err := convert.CoreToScene(*info)
	if err != nil {
		return err
	}
	if err := db.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert scene %s: %w", info.RunID, err)
	}

	b.mu.Lock()
	b.sceneID = row.ID
	b.mu.Unlock()
	b.deps.EntityCache.Reset()
	b.states.Drain()
	b.written.Reset()

	b.deps.Logger.Info("Scene started", "runId", info.RunID, "sceneId", row.ID)
	return nil
}

// EndScene writes every queued state.
func (b *Backend) EndScene() error {
	if err := b.Flush(); err != nil {
		return err
	}
	b.deps.Logger.Info("Scene ended", "sceneId", b.SceneID(), "states", b.written.Value())
	return nil
}

// SceneID returns the db id of the active scene, 0 if none.
func (b *Backend) SceneID() uint {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sceneID
}

// AddEntity upserts the entity row synchronously and registers it for state recording.
func (b *Backend) AddEntity(e core.Entity) error {
	db, err := b.db()
	if err != nil {
		return err
	}
	sceneID := b.SceneID()
	if sceneID == 0 {
		return ErrNoActiveScene
	}

	row, err := convert.CoreToEntity(e)
	if err != nil {
		return err
	}
	row.SceneID = sceneID
	err = db.Omit(clause.Associations).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to insert entity %d: %w", row.ObjectID, err)
	}
	b.deps.EntityCache.Add(row)
	return nil
}

// RecordState queues a state. States for ids not added in this scene are rejected.
// Reaching the batch size flushes synchronously.
func (b *Backend) RecordState(s core.EntityState) error {
	if !b.deps.EntityCache.Has(s.ObjectID) {
		return fmt.Errorf("object %d: %w", s.ObjectID, model.ErrTooEarlyForStateAssociation)
	}
	row, err := convert.CoreToEntityState(s)
	if err != nil {
		return err
	}
	b.states.Push(row)
	if b.states.Len() >= b.deps.BatchSize {
		return b.Flush()
	}
	return nil
}

// RecordPathStats replaces the stored path summaries of the active scene.
func (b *Backend) RecordPathStats(stats map[int64]trajectory.PathStats) error {
	db, err := b.db()
	if err != nil {
		return err
	}
	sceneID := b.SceneID()
	if sceneID == 0 {
		return ErrNoActiveScene
	}

	rows := convert.PathSummaries(stats)
	for i := range rows {
		rows[i].SceneID = sceneID
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("scene_id = ?", sceneID).Delete(&model.PathSummary{}).Error; err != nil {
			return fmt.Errorf("failed to clear path summaries: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to insert path summaries: %w", err)
		}
		return nil
	})
}

// Flush writes queued states in batches. A failed batch is pushed back so nothing is
// lost; the remaining items stay queued.
func (b *Backend) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	db, err := b.db()
	if err != nil {
		return err
	}
	if b.sceneID == 0 {
		return ErrNoActiveScene
	}

	for b.states.Len() > 0 {
		items := b.states.DrainN(b.deps.BatchSize)
		for i := range items {
			items[i].SceneID = b.sceneID
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			return tx.Omit(clause.Associations).Create(&items).Error
		})
		if err != nil {
			b.states.Push(items...)
			b.deps.Logger.Error("Error creating entity states", "count", len(items), "error", err)
			return fmt.Errorf("failed to write %d entity states: %w", len(items), err)
		}
		b.written.Add(len(items))
	}
	return nil
}

// Written returns the number of states persisted in the active scene.
func (b *Backend) Written() int {
	return b.written.Value()
}

// Pending returns the number of queued states.
func (b *Backend) Pending() int {
	return b.states.Len()
}
