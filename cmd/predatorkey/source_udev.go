//go:build cgo

package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jochenvg/go-udev"
	"golang.org/x/sys/unix"
)

// udevSource enumerates the input subsystem through libudev and opens the
// resulting device nodes with evdev.
type udevSource struct {
	evdevSource
}

func newUdevSource() (deviceSource, error) {
	return udevSource{}, nil
}

// List returns readable /dev/input/event* nodes known to udev, sorted by path.
func (udevSource) List() ([]string, error) {
	u := udev.Udev{}
	e := u.NewEnumerate()
	if err := e.AddMatchSubsystem("input"); err != nil {
		return nil, fmt.Errorf("udev match subsystem: %w", err)
	}
	if err := e.AddMatchIsInitialized(); err != nil {
		return nil, fmt.Errorf("udev match initialized: %w", err)
	}

	devices, err := e.Devices()
	if err != nil {
		return nil, fmt.Errorf("udev enumerate: %w", err)
	}

	var paths []string
	for _, d := range devices {
		node := d.Devnode()
		if !strings.HasPrefix(node, "/dev/input/event") {
			continue
		}
		// Same filter as evdev enumeration: skip nodes we cannot read.
		if err := unix.Access(node, unix.R_OK); err != nil {
			continue
		}
		paths = append(paths, node)
	}
	slices.Sort(paths)
	return paths, nil
}
