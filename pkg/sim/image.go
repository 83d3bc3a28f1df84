package sim

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
)

// ImageVersion is the current version of the image file format.
const ImageVersion = 1

// ErrImageCorrupt is returned when an image fails digest verification.
var ErrImageCorrupt = errors.New("sim: image digest mismatch")

// Image is the persisted contents of one chip.
type Image struct {
	// Version is the image file format version.
	Version int `json:"version"`

	// SavedAt is when the image was written.
	SavedAt time.Time `json:"saved_at"`

	// Variant is the device variant name the image was taken from.
	Variant string `json:"variant,omitempty"`

	// Selector is the address selector the chip was strapped to.
	Selector uint8 `json:"selector"`

	// Data is the chip memory.
	Data []byte `json:"data"`

	// Digest is the hex BLAKE2b-256 digest of Data.
	Digest string `json:"digest"`
}

// Digest returns the hex BLAKE2b-256 digest of data.
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ImageStore persists chip images to a JSON file.
type ImageStore struct {
	mu   sync.Mutex
	path string
}

// NewImageStore creates a store for the image file at path.
func NewImageStore(path string) *ImageStore {
	return &ImageStore{path: path}
}

// Path returns the image file path.
func (s *ImageStore) Path() string {
	return s.path
}

// Save writes the chip memory to disk.
func (s *ImageStore) Save(chip *Chip, variant string, selector uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	data := chip.Bytes()
	img := Image{
		Version:  ImageVersion,
		SavedAt:  time.Now(),
		Variant:  variant,
		Selector: selector,
		Data:     data,
		Digest:   Digest(data),
	}

	out, err := json.MarshalIndent(&img, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, out, 0644)
}

// Load reads and verifies the image.
// Returns nil, nil if the file doesn't exist.
func (s *ImageStore) Load() (*Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	img := &Image{}
	if err := json.Unmarshal(data, img); err != nil {
		return nil, err
	}
	if img.Version != ImageVersion {
		return nil, fmt.Errorf("sim: unsupported image version %d", img.Version)
	}
	if Digest(img.Data) != img.Digest {
		return nil, ErrImageCorrupt
	}
	return img, nil
}

// Clear removes the image file.
func (s *ImageStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
