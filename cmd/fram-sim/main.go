// Command fram-sim runs an MB85RC FRAM driver against a simulated chip.
//
// The chip contents can be persisted to an image file between runs, every
// bus transaction can be captured to a CBOR log for fram-log, and the
// device can be exercised with the built-in self test or an interactive
// shell.
//
// Usage:
//
//	fram-sim [flags]
//
// Flags:
//
//	-variant string     Part: MB85RC64, MB85RC256V, MB85RC512, MB85RC1M (default "MB85RC256V")
//	-selector int       Address pin strapping 0-7 (default 0)
//	-config string      Configuration file path
//	-image string       Chip image file; loaded at start, saved on exit
//	-capture string     CBOR capture log path
//	-log-level string   Log level: debug, info, warn, error (default "info")
//	-selftest           Run the self test
//	-iterations int     Boundary cross rounds of the self test (default 100)
//	-seed uint          Self test random seed (default: time based)
//	-interactive        Start the interactive shell
//
// Examples:
//
//	# Self test a 1Mbit part and keep its image
//	fram-sim -variant 1M -selftest -image fram.json
//
//	# Interactive shell with capture
//	fram-sim -config fram.yaml -interactive -capture fram.cbor
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/fram-kit/fram-go/cmd/fram-sim/interactive"
	"github.com/fram-kit/fram-go/internal/config"
	"github.com/fram-kit/fram-go/internal/selftest"
	"github.com/fram-kit/fram-go/pkg/fram"
	framlog "github.com/fram-kit/fram-go/pkg/log"
	"github.com/fram-kit/fram-go/pkg/sim"
)

// Options holds the command line.
type Options struct {
	ConfigFile  string
	Variant     string
	Selector    uint
	Image       string
	Capture     string
	LogLevel    string
	SelfTest    bool
	Iterations  int
	Seed        uint64
	Interactive bool
}

var opts Options

func init() {
	flag.StringVar(&opts.ConfigFile, "config", "", "Configuration file path")
	flag.StringVar(&opts.Variant, "variant", "MB85RC256V", "Part: MB85RC64, MB85RC256V, MB85RC512, MB85RC1M")
	flag.UintVar(&opts.Selector, "selector", 0, "Address pin strapping 0-7")
	flag.StringVar(&opts.Image, "image", "", "Chip image file; loaded at start, saved on exit")
	flag.StringVar(&opts.Capture, "capture", "", "CBOR capture log path")
	flag.StringVar(&opts.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&opts.SelfTest, "selftest", false, "Run the self test")
	flag.IntVar(&opts.Iterations, "iterations", 100, "Boundary cross rounds of the self test")
	flag.Uint64Var(&opts.Seed, "seed", 0, "Self test random seed (default: time based)")
	flag.BoolVar(&opts.Interactive, "interactive", false, "Start the interactive shell")
}

func main() {
	flag.Parse()

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	file, err := resolveConfig(opts, set)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	os.Exit(run(file, opts))
}

// resolveConfig loads the configuration file, if any, and applies the
// flags that were set on the command line over it.
func resolveConfig(o Options, set map[string]bool) (*config.File, error) {
	file := config.Default()
	if o.ConfigFile != "" {
		var err error
		if file, err = config.Load(o.ConfigFile); err != nil {
			return nil, err
		}
	}

	if set["variant"] || o.ConfigFile == "" {
		file.Variant = o.Variant
	}
	if set["selector"] {
		if o.Selector > fram.MaxSelector {
			return nil, fmt.Errorf("selector %d out of range 0-%d", o.Selector, fram.MaxSelector)
		}
		file.Selector = uint8(o.Selector)
	}
	if set["image"] {
		file.Image = o.Image
	}
	if set["capture"] {
		file.Capture = o.Capture
	}
	if set["log-level"] || o.ConfigFile == "" {
		file.LogLevel = o.LogLevel
	}
	if set["interactive"] {
		file.Interactive = o.Interactive
	}

	if _, err := file.DeviceConfig(); err != nil {
		return nil, err
	}
	if _, err := config.ParseLevel(file.LogLevel); err != nil {
		return nil, err
	}
	return file, nil
}

func run(file *config.File, o Options) int {
	level, _ := config.ParseLevel(file.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, _ := file.DeviceConfig()
	cfg.Logger = logger
	cfg.SessionID = uuid.New().String()

	chip, err := sim.NewChip(cfg.Variant.Capacity, cfg.Selector)
	if err != nil {
		logger.Error("failed to create chip", slog.Any("error", err))
		return 1
	}
	b := sim.NewBus()
	if err := b.Attach(chip); err != nil {
		logger.Error("failed to attach chip", slog.Any("error", err))
		return 1
	}

	var store *sim.ImageStore
	if file.Image != "" {
		store = sim.NewImageStore(file.Image)
		if err := loadImage(store, chip, cfg, logger); err != nil {
			logger.Error("failed to load image", slog.String("path", file.Image), slog.Any("error", err))
			return 1
		}
	}

	if file.Capture != "" {
		fl, err := framlog.NewFileLogger(file.Capture)
		if err != nil {
			logger.Error("failed to open capture log", slog.String("path", file.Capture), slog.Any("error", err))
			return 1
		}
		defer func() {
			if n := fl.Dropped(); n > 0 {
				logger.Warn("capture events dropped", slog.Int("count", n))
			}
			fl.Close()
		}()

		var capture framlog.Logger = fl
		if level <= slog.LevelDebug {
			capture = framlog.NewMultiLogger(fl, framlog.NewSlogAdapter(logger))
		}
		cfg.Capture = capture
		logger.Info("capturing", slog.String("path", file.Capture), slog.String("session", cfg.SessionID))
	}

	dev, err := fram.New(b, cfg)
	if err != nil {
		logger.Error("failed to create device", slog.Any("error", err))
		return 1
	}
	logger.Info("device ready",
		slog.String("variant", cfg.Variant.Name),
		slog.Int("capacity", dev.Capacity()),
		slog.String("addr", dev.EffectiveAddr(0).String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := 0
	if o.SelfTest {
		seed := o.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		report := selftest.Run(ctx, dev, selftest.Options{
			Iterations: o.Iterations,
			Seed:       seed,
			Logger:     logger,
		})
		report.WriteText(os.Stdout)
		if !report.Passed() {
			code = 1
		}
	}

	if file.Interactive || !o.SelfTest {
		shell, err := interactive.New(dev, b)
		if err != nil {
			logger.Error("failed to start shell", slog.Any("error", err))
			return 1
		}
		ctx, cancel := context.WithCancel(ctx)
		shell.Run(ctx, cancel)
		cancel()
	}

	if store != nil {
		if err := store.Save(chip, cfg.Variant.Name, cfg.Selector); err != nil {
			logger.Error("failed to save image", slog.String("path", store.Path()), slog.Any("error", err))
			return 1
		}
		logger.Info("image saved", slog.String("path", store.Path()))
	}
	return code
}

// errImageMismatch is returned when an image was taken from another part.
var errImageMismatch = errors.New("image does not match device")

func loadImage(store *sim.ImageStore, chip *sim.Chip, cfg fram.Config, logger *slog.Logger) error {
	img, err := store.Load()
	if err != nil {
		return err
	}
	if img == nil {
		logger.Info("no image, starting blank", slog.String("path", store.Path()))
		return nil
	}
	if img.Variant != cfg.Variant.Name || len(img.Data) != chip.Size() {
		return fmt.Errorf("%w: image is %s (%d bytes), device is %s", errImageMismatch, img.Variant, len(img.Data), cfg.Variant.Name)
	}
	if err := chip.Load(img.Data); err != nil {
		return err
	}
	logger.Info("image loaded",
		slog.String("path", store.Path()),
		slog.Time("saved_at", img.SavedAt))
	return nil
}
