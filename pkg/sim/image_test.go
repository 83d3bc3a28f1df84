package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageStoreRoundTrip(t *testing.T) {
	store := NewImageStore(filepath.Join(t.TempDir(), "nested", "chip.json"))

	chip, err := NewChip(8192, 2)
	require.NoError(t, err)
	chip.write(0x52, []byte{0x00, 0x00, 0xde, 0xad, 0xbe, 0xef})

	require.NoError(t, store.Save(chip, "MB85RC64", 2))

	img, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, ImageVersion, img.Version)
	assert.Equal(t, "MB85RC64", img.Variant)
	assert.Equal(t, uint8(2), img.Selector)
	assert.Equal(t, chip.Bytes(), img.Data)

	restored, err := NewChip(8192, 2)
	require.NoError(t, err)
	require.NoError(t, restored.Load(img.Data))
	assert.Equal(t, chip.Bytes(), restored.Bytes())
}

func TestImageStoreMissingFile(t *testing.T) {
	img, err := NewImageStore(filepath.Join(t.TempDir(), "none.json")).Load()
	assert.NoError(t, err)
	assert.Nil(t, img)
}

func TestImageStoreDetectsCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chip.json")
	store := NewImageStore(path)

	chip, err := NewChip(8192, 0)
	require.NoError(t, err)
	require.NoError(t, store.Save(chip, "MB85RC64", 0))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// Zero-filled memory encodes as a run of 'A' in base64.
	corrupted := []byte(string(data))
	for i := range corrupted {
		if corrupted[i] == 'A' {
			corrupted[i] = 'B'
			break
		}
	}
	require.NoError(t, os.WriteFile(path, corrupted, 0644))

	_, err = store.Load()
	assert.ErrorIs(t, err, ErrImageCorrupt)
}

func TestImageStoreClear(t *testing.T) {
	store := NewImageStore(filepath.Join(t.TempDir(), "chip.json"))
	assert.NoError(t, store.Clear(), "clearing a missing image is not an error")

	chip, err := NewChip(8192, 0)
	require.NoError(t, err)
	require.NoError(t, store.Save(chip, "", 0))
	require.NoError(t, store.Clear())

	img, err := store.Load()
	assert.NoError(t, err)
	assert.Nil(t, img)
}

func TestDigestStable(t *testing.T) {
	assert.Equal(t, Digest([]byte("fram")), Digest([]byte("fram")))
	assert.NotEqual(t, Digest([]byte{0}), Digest([]byte{1}))
	assert.Len(t, Digest(nil), 64)
}
