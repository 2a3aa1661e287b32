package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("progress: lines\nquality: 80\n"), 0o644))
	return path
}

func writeFrames(t *testing.T, dir string, n, w, h int) []string {
	t.Helper()
	var paths []string
	for i := 0; i < n; i++ {
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		for p := 0; p < len(img.Pix); p += 4 {
			img.Pix[p], img.Pix[p+1], img.Pix[p+2], img.Pix[p+3] = uint8(20*i), 50, 90, 255
		}
		img.SetRGBA(i, i, color.RGBA{255, 255, 255, 255})

		path := filepath.Join(dir, fmt.Sprintf("IMG_%04d.jpg", i+1))
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, jpeg.Encode(f, img, nil))
		require.NoError(t, f.Close())
		paths = append(paths, path)
	}
	return paths
}

func TestTimeAndInfo(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	files := writeFrames(t, dir, 3, 64, 48)
	out := filepath.Join(dir, "out.avi")

	var stdout, stderr bytes.Buffer
	args := append([]string{"--config", cfg, "-o", out, "-f", "10", "64x48"}, files...)
	require.NoError(t, run(context.Background(), "time", args, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "PASS 1: 3 frames")
	assert.Contains(t, stdout.String(), "Frames: 3")
	assert.Contains(t, stdout.String(), "Duration: 00:00:00.300")

	stdout.Reset()
	require.NoError(t, run(context.Background(), "info", []string{out}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "RIFF 'AVI ' @0")
	assert.Contains(t, stdout.String(), "Resolution: 64x48")
	assert.Contains(t, stdout.String(), "Codec: MJPG")
	assert.Contains(t, stdout.String(), "Frame Rate: 10/1")
	assert.Contains(t, stdout.String(), "Index Entries: 3")
}

func TestTimeWithTemplate(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	writeFrames(t, dir, 4, 64, 48)
	out := filepath.Join(dir, "out.avi")

	var stdout, stderr bytes.Buffer
	args := []string{"--config", cfg, "-o", out, "-t", "2:9", "64x48", filepath.Join(dir, "IMG_%04d.jpg")}
	require.NoError(t, run(context.Background(), "time", args, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "Frames: 3")
}

func TestStarAndStretch(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	files := writeFrames(t, dir, 3, 32, 32)
	out := filepath.Join(dir, "trails.png")

	var stdout, stderr bytes.Buffer
	args := append([]string{"--config", cfg, "-o", out, "-s", "0:255"}, files...)
	require.NoError(t, run(context.Background(), "star", args, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "Finished: "+out)
	assert.FileExists(t, out)

	stretched := filepath.Join(dir, "stretched.jpg")
	args = []string{"--config", cfg, "-c", "10:200", "-o", stretched, files[0]}
	require.NoError(t, run(context.Background(), "stretch", args, &stdout, &stderr))
	assert.FileExists(t, stretched)
}

func TestUsageErrors(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	files := writeFrames(t, dir, 2, 64, 48)

	tests := []struct {
		name string
		cmd  string
		args []string
	}{
		{"unknown command", "stack", nil},
		{"unknown flag", "time", []string{"--config", cfg, "--bogus", "64x48"}},
		{"missing size", "time", []string{"--config", cfg}},
		{"bad size", "time", []string{"--config", cfg, "64by48", files[0]}},
		{"unaligned size", "time", []string{"--config", cfg, "60x45", files[0]}},
		{"bad fps", "time", []string{"--config", cfg, "-f", "0", "64x48", files[0]}},
		{"bad fade", "time", []string{"--config", cfg, "-F", "1", "64x48", files[0]}},
		{"fade too long", "time", []string{"--config", cfg, "-o", filepath.Join(dir, "f.avi"), "-F", "1:1", "64x48", files[0], files[1]}},
		{"bad colour", "time", []string{"--config", cfg, "--label", "x", "--label-color", "#12", "64x48", files[0]}},
		{"bad contrast", "stretch", []string{"--config", cfg, "-c", "10:300", files[0]}},
		{"contrast not a number", "stretch", []string{"--config", cfg, "-c", "nan:255", files[0]}},
		{"bad quality", "star", []string{"--config", cfg, "-q", "0", files[0]}},
		{"template without pattern", "star", []string{"--config", cfg, "-t", "1:2"}},
		{"empty template", "star", []string{"--config", cfg, "-o", filepath.Join(dir, "s.jpg"), "-t", "100:101", filepath.Join(dir, "IMG_%04d.jpg")}},
		{"stretch output with many inputs", "stretch", []string{"--config", cfg, "-o", filepath.Join(dir, "x.jpg"), files[0], files[1]}},
		{"info without file", "info", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), tt.cmd, tt.args, &stdout, &stderr)
			require.Error(t, err)
			assert.Equal(t, exitUsage, exitCode(err), err.Error())
		})
	}
}

func TestRuntimeErrorsExitOne(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), "star", []string{"--config", cfg, filepath.Join(dir, "missing.jpg")}, &stdout, &stderr)
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))

	err = run(context.Background(), "info", []string{cfg}, &stdout, &stderr)
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
}

func TestParseFade(t *testing.T) {
	in, out, err := parseFade("1.5:2")
	require.NoError(t, err)
	assert.Equal(t, 1.5, in)
	assert.Equal(t, 2.0, out)

	for _, s := range []string{"", "1", "a:1", "1:b", "-1:1", "nan:1", "1:inf"} {
		_, _, err := parseFade(s)
		assert.Error(t, err, s)
	}
}

func TestHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), "help", nil, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "USAGE:")
	assert.Contains(t, stdout.String(), "IMG_%04d.JPG", "usage is written verbatim")
}
