package main

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	evdev "github.com/holoplot/go-evdev"
)

// ============================================================================
// Device Locator
// ============================================================================
// The locator walks an ordered list of strategies and returns the path of the
// first device one of them accepts. There is no scoring: order is precedence.
// ============================================================================

// inputDevice is the subset of *evdev.InputDevice the locator relies on.
type inputDevice interface {
	Name() (string, error)
	Path() string
	CapableTypes() []evdev.EvType
	CapableEvents(t evdev.EvType) []evdev.EvCode
	Close() error
}

// deviceSource opens and enumerates input devices.
type deviceSource interface {
	Open(path string) (inputDevice, error)
	// List returns the paths of every input device the caller can read.
	List() ([]string, error)
}

// locateStrategy is one device discovery heuristic. ok is false when the
// strategy did not match anything; err aborts the whole search.
type locateStrategy interface {
	Name() string
	Locate(src deviceSource, logger *slog.Logger) (path string, ok bool, err error)
}

// Strategy identifiers used in configuration.
const (
	strategyGuessPath  = "guess_path"
	strategyName       = "name"
	strategyCapability = "capability"
)

var knownStrategies = []string{strategyGuessPath, strategyName, strategyCapability}

// locateDevice runs strategies in order and returns the first match.
func locateDevice(strategies []locateStrategy, src deviceSource, logger *slog.Logger) (string, error) {
	for _, s := range strategies {
		path, ok, err := s.Locate(src, logger)
		if err != nil {
			return "", fmt.Errorf("%s: %w", s.Name(), err)
		}
		if ok {
			logger.Debug("device located", "strategy", s.Name(), "path", path)
			return path, nil
		}
	}
	return "", ErrDeviceNotFound
}

// buildStrategies turns configured strategy names into strategies.
func buildStrategies(cfg DeviceConfig) ([]locateStrategy, error) {
	out := make([]locateStrategy, 0, len(cfg.Strategies))
	for _, name := range cfg.Strategies {
		switch name {
		case strategyGuessPath:
			out = append(out, guessPathStrategy{path: cfg.GuessPath})
		case strategyName:
			out = append(out, nameStrategy{contains: cfg.NameContains})
		case strategyCapability:
			out = append(out, capabilityStrategy{evType: EV_ABS, code: ABS_MISC})
		default:
			return nil, fmt.Errorf("unknown locate strategy %q (must be one of %s)",
				name, strings.Join(knownStrategies, ", "))
		}
	}
	return out, nil
}

// guessPathStrategy opens a fixed path and accepts it if the open succeeds.
// It does not check that the device is the right one.
type guessPathStrategy struct {
	path string
}

func (guessPathStrategy) Name() string { return strategyGuessPath }

func (s guessPathStrategy) Locate(src deviceSource, logger *slog.Logger) (string, bool, error) {
	if s.path == "" {
		return "", false, nil
	}
	dev, err := src.Open(s.path)
	if err != nil {
		logger.Debug("guessed device path not usable", "path", s.path, "error", err)
		return "", false, nil
	}
	defer dev.Close()

	name, _ := dev.Name()
	logger.Info("trying device directly", "path", s.path, "name", name)
	return s.path, true, nil
}

// nameStrategy accepts the first enumerated device whose name contains a
// fixed substring.
type nameStrategy struct {
	contains string
}

func (nameStrategy) Name() string { return strategyName }

func (s nameStrategy) Locate(src deviceSource, logger *slog.Logger) (string, bool, error) {
	if s.contains == "" {
		return "", false, nil
	}
	return findDevice(src, func(dev inputDevice) (bool, error) {
		name, err := dev.Name()
		if err != nil {
			return false, err
		}
		if !strings.Contains(name, s.contains) {
			return false, nil
		}
		logger.Info("found device by name", "name", name, "path", dev.Path())
		return true, nil
	})
}

// capabilityStrategy accepts the first enumerated device that advertises
// evType and, within it, code.
type capabilityStrategy struct {
	evType evdev.EvType
	code   evdev.EvCode
}

func (capabilityStrategy) Name() string { return strategyCapability }

func (s capabilityStrategy) Locate(src deviceSource, logger *slog.Logger) (string, bool, error) {
	return findDevice(src, func(dev inputDevice) (bool, error) {
		if !hasCapability(dev, s.evType, s.code) {
			return false, nil
		}
		name, _ := dev.Name()
		logger.Info("found device by capability", "name", name, "path", dev.Path(),
			"type", s.evType, "code", s.code)
		return true, nil
	})
}

func hasCapability(dev inputDevice, evType evdev.EvType, code evdev.EvCode) bool {
	if !slices.Contains(dev.CapableTypes(), evType) {
		return false
	}
	return slices.Contains(dev.CapableEvents(evType), code)
}

// findDevice enumerates src and returns the path of the first device match
// accepts. Every opened device is closed before returning.
func findDevice(src deviceSource, match func(inputDevice) (bool, error)) (string, bool, error) {
	paths, err := src.List()
	if err != nil {
		return "", false, fmt.Errorf("list input devices: %w", err)
	}

	for _, p := range paths {
		dev, err := src.Open(p)
		if err != nil {
			// Already names the path.
			return "", false, err
		}
		ok, err := match(dev)
		path := dev.Path()
		_ = dev.Close()
		if err != nil {
			return "", false, fmt.Errorf("inspect %s: %w", p, err)
		}
		if ok {
			return path, true, nil
		}
	}
	return "", false, nil
}
