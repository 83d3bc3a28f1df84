package main

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/fram-kit/fram-go/internal/config"
	"github.com/fram-kit/fram-go/pkg/fram"
	"github.com/fram-kit/fram-go/pkg/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() Options {
	return Options{Variant: "MB85RC256V", LogLevel: "info", Iterations: 100}
}

func TestResolveConfigFromFlags(t *testing.T) {
	o := defaults()
	o.Variant = "1M"
	o.Selector = 4

	file, err := resolveConfig(o, map[string]bool{"variant": true, "selector": true})
	require.NoError(t, err)
	assert.Equal(t, "1M", file.Variant)
	assert.Equal(t, uint8(4), file.Selector)
	assert.Equal(t, "info", file.LogLevel)
}

func TestResolveConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fram.yaml")
	require.NoError(t, os.WriteFile(path, []byte("variant: 64\nselector: 3\nlog_level: debug\ncapture: a.cbor\n"), 0644))

	o := defaults()
	o.ConfigFile = path
	o.Capture = "b.cbor"

	file, err := resolveConfig(o, map[string]bool{"config": true, "capture": true})
	require.NoError(t, err)
	assert.Equal(t, "64", file.Variant, "unset flag keeps file value")
	assert.Equal(t, uint8(3), file.Selector)
	assert.Equal(t, "debug", file.LogLevel)
	assert.Equal(t, "b.cbor", file.Capture)
}

func TestResolveConfigRejectsInvalid(t *testing.T) {
	o := defaults()
	o.Variant = "1M"
	o.Selector = 1
	_, err := resolveConfig(o, map[string]bool{"variant": true, "selector": true})
	assert.ErrorIs(t, err, fram.ErrInvalidConfig)

	o = defaults()
	o.Selector = 8
	_, err = resolveConfig(o, map[string]bool{"selector": true})
	assert.Error(t, err)

	o = defaults()
	o.ConfigFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = resolveConfig(o, nil)
	var le *config.LoadError
	assert.True(t, errors.As(err, &le))
}

func TestLoadImage(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "fram.json")
	store := sim.NewImageStore(path)
	cfg := fram.Config{Variant: fram.MB85RC64}

	chip, err := sim.NewChip(cfg.Variant.Capacity, 0)
	require.NoError(t, err)
	require.NoError(t, loadImage(store, chip, cfg, logger), "missing image starts blank")

	chip.Fill(0x42)
	require.NoError(t, store.Save(chip, cfg.Variant.Name, 0))

	fresh, err := sim.NewChip(cfg.Variant.Capacity, 0)
	require.NoError(t, err)
	require.NoError(t, loadImage(store, fresh, cfg, logger))
	assert.Equal(t, chip.Bytes(), fresh.Bytes())

	other := fram.Config{Variant: fram.MB85RC256V}
	big, err := sim.NewChip(other.Variant.Capacity, 0)
	require.NoError(t, err)
	assert.ErrorIs(t, loadImage(store, big, other, logger), errImageMismatch)
}

func TestRunSelfTestSavesImage(t *testing.T) {
	dir := t.TempDir()
	file := &config.File{
		Variant:  "64",
		Image:    filepath.Join(dir, "fram.json"),
		Capture:  filepath.Join(dir, "fram.cbor"),
		LogLevel: "error",
	}
	o := defaults()
	o.SelfTest = true
	o.Iterations = 2
	o.Seed = 9

	assert.Equal(t, 0, run(file, o))

	img, err := sim.NewImageStore(file.Image).Load()
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, "MB85RC64", img.Variant)
	assert.Equal(t, make([]byte, fram.MB85RC64.Capacity), img.Data)

	info, err := os.Stat(file.Capture)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
