// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/roadsim/roadsim/pkg/core"
)

// SceneExport is the root JSON structure
type SceneExport struct {
	RunID     string         `json:"runId"`
	Name      string         `json:"name"`
	StartTime time.Time      `json:"startTime"`
	TickDelta float64        `json:"tickDelta"`
	EndTick   uint           `json:"endTick"`
	Origin    core.Vector2D  `json:"origin"` // EPSG:3857
	Params    map[string]any `json:"params,omitempty"`
	Entities  []EntityJSON   `json:"entities"`
	Paths     []PathJSON     `json:"paths,omitempty"`
}

// EntityJSON is one scene object with its timeline
type EntityJSON struct {
	ID             int64    `json:"id"`
	Type           string   `json:"type"`
	Length         float64  `json:"length"`
	Width          float64  `json:"width"`
	MaxSpeed       *float64 `json:"maxSpeed,omitempty"`
	IsAV           int      `json:"isAV"`
	CanBlockSight  int      `json:"canBlockSight"`
	CanBeCollided  int      `json:"canBeCollided"`
	CheckCollision int      `json:"checkCollision"`
	Color          string   `json:"color"`
	Target         []any    `json:"target"`
	StartTick      uint     `json:"startTick"`
	// [tick, [x, y], heading, speed, expertControl]
	States [][]any `json:"states"`
}

// PathJSON is the intersecting-path summary for one vehicle
type PathJSON struct {
	ID                int64 `json:"id"`
	IntersectingPaths int   `json:"intersectingPaths"`
	MinStepDiff       *int  `json:"minStepDiff,omitempty"`
}

func stateJSON(s core.KinematicState) []any {
	return []any{[]float64{s.Position.X, s.Position.Y}, s.Heading, s.Speed}
}

// exportJSON writes the scene data to a JSON file, gzipped when configured
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	name := strings.NewReplacer(" ", "_", ":", "_", "/", "_").Replace(b.scene.Name)
	timestamp := b.scene.StartTime.Format("20060102_150405")

	filename := fmt.Sprintf("%s_%s.json", name, timestamp)
	if b.cfg.CompressOutput {
		filename += ".gz"
	}
	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var err error
	if b.cfg.CompressOutput {
		err = writeGzipJSON(outputPath, export)
	} else {
		err = writeJSON(outputPath, export)
	}
	if err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() SceneExport {
	export := SceneExport{
		RunID:     b.scene.RunID,
		Name:      b.scene.Name,
		StartTime: b.scene.StartTime,
		TickDelta: b.scene.TickDelta,
		Origin:    b.scene.Origin,
		Params:    b.scene.Params,
		Entities:  make([]EntityJSON, 0, len(b.entities)),
	}

	ids := make([]int64, 0, len(b.entities))
	for id := range b.entities {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		rec := b.entities[id]
		entity := EntityJSON{
			ID:             rec.ID,
			Type:           rec.Kind.String(),
			Length:         rec.Length,
			Width:          rec.Width,
			MaxSpeed:       rec.MaxSpeed,
			IsAV:           boolToInt(rec.IsAV),
			CanBlockSight:  boolToInt(rec.CanBlockSight),
			CanBeCollided:  boolToInt(rec.CanBeCollided),
			CheckCollision: boolToInt(rec.CheckCollision),
			Color:          rec.Color.Hex(),
			Target:         stateJSON(rec.Target),
			States:         make([][]any, 0, len(rec.States)),
		}
		for i, s := range rec.States {
			if i == 0 {
				entity.StartTick = s.Tick
			}
			entity.States = append(entity.States, append([]any{s.Tick}, append(stateJSON(s.State), boolToInt(s.ExpertControl))...))
			export.EndTick = max(export.EndTick, s.Tick)
		}
		export.Entities = append(export.Entities, entity)
	}

	if len(b.paths) > 0 {
		pathIDs := make([]int64, 0, len(b.paths))
		for id := range b.paths {
			pathIDs = append(pathIDs, id)
		}
		slices.Sort(pathIDs)
		for _, id := range pathIDs {
			st := b.paths[id]
			p := PathJSON{ID: id, IntersectingPaths: st.IntersectingPaths}
			if st.HasStepDiff {
				d := st.MinStepDiff
				p.MinStepDiff = &d
			}
			export.Paths = append(export.Paths, p)
		}
	}

	return export
}

func writeJSON(path string, data SceneExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(data)
}

func writeGzipJSON(path string, data SceneExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	if err := json.NewEncoder(gzWriter).Encode(data); err != nil {
		gzWriter.Close()
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return gzWriter.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
