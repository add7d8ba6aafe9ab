package main

import (
	"errors"
	"io/fs"
)

var (
	// ErrDeviceNotFound is returned when no locate strategy matched a device.
	ErrDeviceNotFound = errors.New("predator key device not found")
	// ErrCommandNotFound is returned when a configured command's executable
	// cannot be located.
	ErrCommandNotFound = errors.New("command not found")
)

// isPermissionDenied reports whether err is an EACCES/EPERM style failure
// from opening or reading the input device.
func isPermissionDenied(err error) bool {
	return errors.Is(err, fs.ErrPermission)
}
