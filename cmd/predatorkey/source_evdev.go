package main

import (
	"fmt"
	"os"

	evdev "github.com/holoplot/go-evdev"
)

// Enumerator backends selectable in configuration.
const (
	enumeratorEvdev = "evdev"
	enumeratorUdev  = "udev"
)

// evdevSource talks to /dev/input directly through evdev ioctls.
type evdevSource struct{}

// Open only needs read access; evdev.Open would ask for O_RDWR.
func (evdevSource) Open(path string) (inputDevice, error) {
	dev, err := evdev.OpenWithFlags(path, os.O_RDONLY)
	if err != nil {
		return nil, err
	}
	return dev, nil
}

// List returns /dev/input/event* nodes that could be opened for reading.
func (evdevSource) List() ([]string, error) {
	infos, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(infos))
	for _, info := range infos {
		paths = append(paths, info.Path)
	}
	return paths, nil
}

// newDeviceSource returns the enumeration backend named by enumerator.
func newDeviceSource(enumerator string) (deviceSource, error) {
	switch enumerator {
	case "", enumeratorEvdev:
		return evdevSource{}, nil
	case enumeratorUdev:
		return newUdevSource()
	default:
		return nil, fmt.Errorf("unknown enumerator %q (must be %q or %q)", enumerator, enumeratorEvdev, enumeratorUdev)
	}
}
