// internal/storage/storage.go
package storage

import (
	"github.com/roadsim/roadsim/internal/trajectory"
	"github.com/roadsim/roadsim/pkg/core"
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Scene management
	StartScene(info *core.SceneInfo) error
	EndScene() error

	// Entity registration; must precede any state for the same object id
	AddEntity(e core.Entity) error

	// State recording
	RecordState(s core.EntityState) error

	// Post-run analysis
	RecordPathStats(stats map[int64]trajectory.PathStats) error
}

// Exporter is an optional interface for backends that write a file when a scene ends.
type Exporter interface {
	ExportedFilePath() string
}
