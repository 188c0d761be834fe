package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadsim/roadsim/internal/config"
	"github.com/roadsim/roadsim/internal/storage/memory"
	"github.com/roadsim/roadsim/internal/trajectory"
	"github.com/roadsim/roadsim/pkg/core"
)

func TestRunScene_Memory(t *testing.T) {
	cfg := testSceneConfig()
	cfg.Vehicles = 2
	backend := memory.New(config.MemoryConfig{OutputDir: t.TempDir()})
	var tick atomic.Uint64

	s, err := runScene(context.Background(), runDeps{Backend: backend, Tick: &tick}, cfg)
	require.NoError(t, err)

	assert.Equal(t, 4, s.Entities)
	assert.Equal(t, uint64(39), tick.Load())
	assert.Positive(t, s.Collisions, "the two streams meet at the origin")
	assert.Equal(t, 2, trajectory.Total(s.Paths))
	require.Contains(t, s.Paths, int64(0))
	assert.Equal(t, 0, s.Paths[0].MinStepDiff)
	assert.NotEmpty(t, s.ExportPath)

	rec, ok := backend.GetEntity(0)
	require.True(t, ok)
	require.Len(t, rec.States, 40)
	assert.Equal(t, core.Vector2D{X: -20, Y: 0}, rec.States[0].State.Position)
	assert.False(t, rec.States[0].ExpertControl)

	other, _ := backend.GetEntity(1)
	assert.True(t, other.States[0].ExpertControl)
}

func TestRunScene_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runScene(ctx, runDeps{Backend: memory.New(config.MemoryConfig{})}, testSceneConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCountCollisions(t *testing.T) {
	a := core.NewVehicle(1, 4, 2, core.KinematicState{}, core.KinematicState{}, false)
	b := core.NewVehicle(2, 4, 2, core.KinematicState{Position: core.Vector2D{X: 1}}, core.KinematicState{}, false)
	far := core.NewVehicle(3, 4, 2, core.KinematicState{Position: core.Vector2D{X: 100}}, core.KinematicState{}, false)
	ghost := core.NewRoadObject(4, 1, 1, core.Vector2D{}, 0, core.WithCheckCollision(false))
	ghost2 := core.NewRoadObject(5, 1, 1, core.Vector2D{}, 0, core.WithCheckCollision(false))

	n, err := countCollisions([]core.Entity{a, b, far})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = countCollisions([]core.Entity{ghost, ghost2})
	require.NoError(t, err)
	assert.Zero(t, n, "neither side checks collisions")
}

func TestPrintSummary(t *testing.T) {
	out := printSummary(summary{
		RunID:    "r",
		Entities: 3,
		Ticks:    10,
		Paths: map[int64]trajectory.PathStats{
			2: {},
			1: {IntersectingPaths: 1, MinStepDiff: 4, HasStepDiff: true},
		},
		ExportPath: "/tmp/x.json",
	})

	assert.Contains(t, out, "1 intersecting paths")
	assert.Contains(t, out, "vehicle 1: intersecting=1 minStepDiff=4\n  vehicle 2: intersecting=0 minStepDiff=-")
	assert.Contains(t, out, "recording: /tmp/x.json")
}

func TestRun_Usage(t *testing.T) {
	assert.Error(t, run(nil, &bytes.Buffer{}))
	assert.Error(t, run([]string{"replay"}, &bytes.Buffer{}))
}

func TestRun_EndToEnd(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	logs := filepath.Join(dir, "logs")
	out := filepath.Join(dir, "out")
	body := `{
		"logsDir": "` + filepath.ToSlash(logs) + `",
		"storage": { "type": "memory", "memory": { "outputDir": "` + filepath.ToSlash(out) + `", "compressOutput": true } },
		"scene": { "vehicles": 2, "avs": 1, "ticks": 20 }
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte(body), 0644))

	var stdout bytes.Buffer
	require.NoError(t, run([]string{"run", "--config", dir, "--log-level", "debug"}, &stdout))

	assert.Contains(t, stdout.String(), "vehicle 0:")
	assert.Contains(t, stdout.String(), "recording: ")

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), ".json.gz")

	logEntries, err := os.ReadDir(logs)
	require.NoError(t, err)
	require.Len(t, logEntries, 1)
	data, err := os.ReadFile(filepath.Join(logs, logEntries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Scene finished")
	assert.Contains(t, string(data), "scene=intersection")
}
