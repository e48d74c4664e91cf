package main

import (
	"bytes"
	"encoding/json"
	"image/gif"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lao-tseu-is-alive/go-vicsek-simulation/pkg/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const tinyConfig = `n: 40
l: 4.0
eta: 0.3
steps: 5
seed: 3
screenSize: 100
logLevel: error
`

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "vicsek version "+version))

	out, err = execute(t, "version", "--json")
	require.NoError(t, err)
	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, version, got["version"])
}

func TestValidateCmd(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "..", "configs", "*"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	out, err := execute(t, append([]string{"validate"}, files...)...)
	require.NoError(t, err)
	assert.Equal(t, len(files), strings.Count(out, "ok "))

	bad := writeConfig(t, "bad.json", `{"n": -4}`)
	out, err = execute(t, "validate", "--json", files[0], bad)
	assert.Error(t, err)
	var results []struct {
		File  string `json:"file"`
		Valid bool   `json:"valid"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.True(t, results[0].Valid)
	assert.False(t, results[1].Valid)

	_, err = execute(t, "validate")
	assert.Error(t, err, "at least one file")
}

func TestRecordCmd(t *testing.T) {
	cfg := writeConfig(t, "tiny.yaml", tinyConfig)
	dir := t.TempDir()
	framesPath := filepath.Join(dir, "run.vframes")
	gifPath := filepath.Join(dir, "run.gif")

	out, err := execute(t, "record", "-c", cfg, "--frames", framesPath, "--gif", gifPath)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 6 frames to "+framesPath)
	assert.Contains(t, out, "wrote 5 frames to "+gifPath)

	f, err := os.Open(framesPath)
	require.NoError(t, err)
	defer f.Close()
	r := frame.NewReader(f)
	for i := range 6 {
		fr, err := r.Read()
		require.NoError(t, err)
		assert.Equal(t, uint64(i), fr.Index)
		assert.Equal(t, 40, fr.Len())
	}
	_, err = r.Read()
	assert.ErrorIs(t, err, io.EOF)

	g, err := os.Open(gifPath)
	require.NoError(t, err)
	defer g.Close()
	anim, err := gif.DecodeAll(g)
	require.NoError(t, err)
	assert.Len(t, anim.Image, 5)
}

func TestRecordCmd_Reproducible(t *testing.T) {
	cfg := writeConfig(t, "tiny.yaml", tinyConfig)
	dir := t.TempDir()

	var streams [2][]byte
	for i := range streams {
		path := filepath.Join(dir, "run.vframes")
		_, err := execute(t, "record", "-c", cfg, "--frames", path, "--gif", "", "--steps", "3", "--seed", "99")
		require.NoError(t, err)
		streams[i], err = os.ReadFile(path)
		require.NoError(t, err)
	}
	assert.Equal(t, streams[0], streams[1])
}

func TestRecordCmd_NothingToRecord(t *testing.T) {
	_, err := execute(t, "record", "--gif", "")
	assert.Error(t, err)
}

func TestSweepCmd(t *testing.T) {
	cfg := writeConfig(t, "tiny.yaml", tinyConfig)
	db := filepath.Join(t.TempDir(), "sweep.db")

	out, err := execute(t, "sweep", "-c", cfg, "--db", db, "--eta-min", "0.5", "--eta-max", "1.5",
		"--eta-count", "3", "--steps", "10", "--burn-in", "4", "--json")
	require.NoError(t, err)

	var rows []struct {
		Eta     float64 `json:"eta"`
		Samples int     `json:"samples"`
		Order   float64 `json:"order"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)
	for i, row := range rows {
		assert.InDelta(t, 0.5+0.5*float64(i), row.Eta, 1e-12)
		assert.Equal(t, 7, row.Samples)
		assert.GreaterOrEqual(t, row.Order, 0.0)
		assert.LessOrEqual(t, row.Order, 1.0)
	}
	assert.FileExists(t, db)
}

func TestSweepCmd_SameDatabaseTwice(t *testing.T) {
	cfg := writeConfig(t, "tiny.yaml", tinyConfig)
	db := filepath.Join(t.TempDir(), "sweep.db")
	args := []string{"sweep", "-c", cfg, "--db", db, "--eta-count", "2", "--steps", "3", "--json"}

	for _, seed := range []string{"20", "30"} {
		out, err := execute(t, append(args, "--seed", seed)...)
		require.NoError(t, err)
		var rows []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &rows))
		assert.Len(t, rows, 2, "only the runs of this sweep")
	}
}

func TestReplayCmd(t *testing.T) {
	cfg := writeConfig(t, "tiny.yaml", tinyConfig)
	dir := t.TempDir()
	framesPath := filepath.Join(dir, "run.vframes")
	gifPath := filepath.Join(dir, "replay.gif")

	_, err := execute(t, "record", "-c", cfg, "--frames", framesPath, "--gif", "")
	require.NoError(t, err)

	out, err := execute(t, "replay", "-c", cfg, framesPath, "--gif", gifPath, "--every", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 3 of 6 frames to "+gifPath)
	assert.Contains(t, out, "after 5 steps")

	g, err := os.Open(gifPath)
	require.NoError(t, err)
	defer g.Close()
	anim, err := gif.DecodeAll(g)
	require.NoError(t, err)
	assert.Len(t, anim.Image, 3)
}

func TestReplayCmd_Rejects(t *testing.T) {
	cfg := writeConfig(t, "tiny.yaml", tinyConfig)
	dir := t.TempDir()
	framesPath := filepath.Join(dir, "run.vframes")
	_, err := execute(t, "record", "-c", cfg, "--frames", framesPath, "--gif", "")
	require.NoError(t, err)

	small := writeConfig(t, "small.yaml", "l: 0.5\nlogLevel: error\n")
	_, err = execute(t, "replay", "-c", small, framesPath, "--gif", filepath.Join(dir, "x.gif"))
	assert.ErrorContains(t, err, "outside a box")

	empty := filepath.Join(dir, "empty.vframes")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, err = execute(t, "replay", "-c", cfg, empty, "--gif", filepath.Join(dir, "y.gif"))
	assert.ErrorContains(t, err, "no frames")

	_, err = execute(t, "replay", "-c", cfg, framesPath, "--every", "0")
	assert.Error(t, err)
}
