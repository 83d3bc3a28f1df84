// Package config loads fram-sim configuration files.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fram-kit/fram-go/pkg/fram"
)

// File is the YAML configuration of one simulated device.
//
//	variant: MB85RC1M
//	selector: 2
//	image: ./fram.img.json
//	capture: ./fram.cbor
//	log_level: debug
//	interactive: true
type File struct {
	// Variant names the part (e.g. "MB85RC256V" or "256V").
	Variant string `yaml:"variant"`

	// Selector is the address pin strapping, 0-7.
	Selector uint8 `yaml:"selector"`

	// Image is the path the chip memory is persisted to.
	Image string `yaml:"image,omitempty"`

	// Capture is the path of the CBOR capture log.
	Capture string `yaml:"capture,omitempty"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level,omitempty"`

	// Interactive starts the shell after any self test.
	Interactive bool `yaml:"interactive,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *File {
	return &File{
		Variant:  fram.DefaultConfig().Variant.Name,
		LogLevel: "info",
	}
}

// Parse parses a configuration from YAML bytes. Unset fields keep the
// values from Default.
func Parse(data []byte) (*File, error) {
	f := Default()
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, &LoadError{
			Message: "failed to parse YAML",
			Cause:   err,
		}
	}

	if _, err := f.DeviceConfig(); err != nil {
		return nil, &LoadError{
			Message: "invalid device",
			Cause:   err,
		}
	}
	if _, err := ParseLevel(f.LogLevel); err != nil {
		return nil, &LoadError{
			Message: "invalid log_level",
			Cause:   err,
		}
	}

	return f, nil
}

// Load loads a configuration file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			File:    path,
			Message: "failed to read file",
			Cause:   err,
		}
	}

	f, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{File: path, Message: err.Error()}
	}
	return f, nil
}

// DeviceConfig returns the driver configuration for the file. Logger and
// capture are left for the caller.
func (f *File) DeviceConfig() (fram.Config, error) {
	v, err := fram.ParseVariant(f.Variant)
	if err != nil {
		return fram.Config{}, err
	}
	cfg := fram.Config{Variant: v, Selector: f.Selector}
	if err := cfg.Validate(); err != nil {
		return fram.Config{}, err
	}
	return cfg, nil
}

// ParseLevel maps a level name to a slog.Level. The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// LoadError provides details about a configuration loading error.
type LoadError struct {
	// File is the path to the file that failed to load.
	File string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.File == "" {
		return msg
	}
	return e.File + ": " + msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
